package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	di "github.com/kestrelgraph/injector"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [fixture.yaml]",
		Short: "Validate a demo injector wiring against a YAML fixture",
		Long: `Loads the given fixture, builds an Injector at the stage the
fixture names (at Stage: Tool bindings are validated but nothing is
constructed), and reports any configuration errors.`,
		Args: cobra.ExactArgs(1),
		RunE: runCheckCmd,
	}
	return cmd
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	logger, err := newCLILogger(verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	f, err := loadFixture(args[0])
	if err != nil {
		return err
	}

	inj, err := di.New(f.stage(), f.demoModule(), di.WithLogger(logger))
	if err != nil {
		logger.Error("wiring is invalid", zap.Error(err))
		fmt.Println("FAIL:", err)
		return err
	}

	fmt.Printf("OK: %d bindings validated\n", len(inj.GetBindings()))
	return nil
}

func newCLILogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
