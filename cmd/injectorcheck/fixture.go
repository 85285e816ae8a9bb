package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	di "github.com/kestrelgraph/injector"
)

// fixture is the YAML shape injectorcheck loads (spec.md's Stage: Tool
// demonstration): not an arbitrary bindings DSL (Go has no runtime type
// registry to hang one off of), but a small, human-editable set of knobs
// over a fixed demo wiring, enough to watch validation succeed or fail
// under different configurations without recompiling.
type fixture struct {
	Stage       string `yaml:"stage"`
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"logLevel"`
	EnableCache bool   `yaml:"enableCache"`
}

func loadFixture(path string) (fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fixture{}, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fixture{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

func (f fixture) stage() di.Stage {
	switch f.Stage {
	case "production":
		return di.Production
	case "development":
		return di.Development
	default:
		return di.Tool
	}
}

// --- Demo wiring -------------------------------------------------------
//
// A small, illustrative app graph: a config struct, a database handle that
// depends on it, an optional cache behind an interface, and a service that
// needs both. Realistic enough to show the validator catching a missing or
// cyclic dependency, without injectorcheck needing to know anything about
// a real caller's types.

type appConfig struct {
	Port     string
	LogLevel string
}

type database struct {
	cfg *appConfig
}

func newDatabase(cfg *appConfig) *database { return &database{cfg: cfg} }

type cacheBackend interface {
	Name() string
}

type memoryCache struct{}

func (memoryCache) Name() string { return "memory" }

type noopCache struct{}

func (noopCache) Name() string { return "noop" }

type service struct {
	DB    *database
	Cache cacheBackend `inject:"" nullable:"true"`
}

func newService(db *database) *service { return &service{DB: db} }

// demoModule builds the di.Module for f's demo graph.
func (f fixture) demoModule() di.Module {
	return di.ModuleFunc(func(b *di.Binder) {
		di.Bind[*appConfig](b).ToInstance(&appConfig{Port: f.Port, LogLevel: f.LogLevel})
		di.Bind[*database](b).ToConstructor(newDatabase)
		di.Bind[*service](b).ToConstructor(newService)

		if f.EnableCache {
			di.Bind[cacheBackend](b).ToInstance(memoryCache{})
		}
	})
}
