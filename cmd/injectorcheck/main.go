// Command injectorcheck validates a demo dependency graph against a YAML
// fixture, building the Injector at the stage the fixture names (Stage:
// Tool validates without constructing anything), exercising the build
// pipeline end to end from outside a test binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "injectorcheck",
		Short: "Validate injector wiring fixtures",
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose diagnostic logging")
	rootCmd.AddCommand(newCheckCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
