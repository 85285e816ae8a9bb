package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelgraph/injector/key"
)

type initTarget struct {
	Name string `inject:""`
}

func TestInitializer_InjectAllRunsOnce(t *testing.T) {
	inj := newInjectorShell(nil, Development)
	require.NoError(t, inj.putExplicit(newInstanceBinding(key.OfType[string](), "bob", nil)))

	target := &initTarget{}
	inj.init.register(target)

	require.NoError(t, inj.init.injectAll(inj))
	assert.Equal(t, "bob", target.Name)

	// A second injectAll call must be a no-op: register a second target and
	// confirm the call succeeds and the first's field is untouched (the
	// second call returns before touching either target).
	second := &initTarget{}
	inj.init.register(second)
	require.NoError(t, inj.init.injectAll(inj))
	assert.Equal(t, "bob", target.Name)
}

func TestInitializer_RegisterIsIdempotent(t *testing.T) {
	in := newInitializer()
	target := &initTarget{}
	in.register(target)
	in.register(target)
	assert.Len(t, in.byInstance, 1)
}

func TestInitializer_EnsureInjectedAfterDone(t *testing.T) {
	inj := newInjectorShell(nil, Development)
	require.NoError(t, inj.putExplicit(newInstanceBinding(key.OfType[string](), "alice", nil)))
	require.NoError(t, inj.init.injectAll(inj))

	// Once injectAll has run, ensureInjected on an untracked object falls
	// through to a plain injectMembers call rather than blocking.
	fresh := &initTarget{}
	require.NoError(t, inj.init.ensureInjected(inj, fresh))
	assert.Equal(t, "alice", fresh.Name)
}
