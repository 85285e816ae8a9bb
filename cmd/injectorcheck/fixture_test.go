package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	di "github.com/kestrelgraph/injector"
)

func TestLoadFixture(t *testing.T) {
	f, err := loadFixture("testdata/valid.yaml")
	require.NoError(t, err)

	assert.Equal(t, "8080", f.Port)
	assert.Equal(t, "info", f.LogLevel)
	assert.True(t, f.EnableCache)
	assert.Equal(t, di.Tool, f.stage())
}

func TestLoadFixture_MissingFile(t *testing.T) {
	_, err := loadFixture("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}

func TestDemoModule_ValidatesCleanly(t *testing.T) {
	f := fixture{Stage: "tool", Port: "9090", LogLevel: "debug", EnableCache: false}

	inj, err := di.New(f.stage(), f.demoModule())
	require.NoError(t, err)

	svc, err := di.GetInstance[*service](inj)
	require.NoError(t, err)
	assert.NotNil(t, svc.DB)
	assert.Nil(t, svc.Cache)
}

func TestDemoModule_WithCache(t *testing.T) {
	f := fixture{Stage: "tool", Port: "9090", LogLevel: "debug", EnableCache: true}

	inj, err := di.New(f.stage(), f.demoModule())
	require.NoError(t, err)

	svc, err := di.GetInstance[*service](inj)
	require.NoError(t, err)
	require.NotNil(t, svc.Cache)
	assert.Equal(t, "memory", svc.Cache.Name())
}
