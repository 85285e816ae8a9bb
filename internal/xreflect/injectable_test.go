package xreflect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrelgraph/injector/internal/xreflect"
)

func TestMethodInjectable(t *testing.T) {
	cases := []struct {
		name         string
		wantPresent  bool
		wantOptional bool
	}{
		{"InjectLogger", true, false},
		{"InjectCacheOptional", true, true},
		{"Inject", false, false},
		{"SetLogger", false, false},
		{"injectLogger", false, false},
	}

	for _, c := range cases {
		present, optional := xreflect.MethodInjectable(c.name)
		assert.Equal(t, c.wantPresent, present, "method %s", c.name)
		assert.Equal(t, c.wantOptional, optional, "method %s", c.name)
	}
}
