package di

import (
	"sync"

	"github.com/kestrelgraph/injector/internal/errs"
)

// initializer is the member-injection sub-component of spec.md §4.4.5: it
// tracks every instance a module passed to RequestInjection, plus every
// non-nil pointer a module bound via ToInstance or ToProviderInstance, and
// injects each exactly once at the end of Build.
//
// Go has no way to ask "is this the thread that's currently running
// injectAll" the way a thread-identity check would in spec.md's source
// runtime; idiomatic Go avoids goroutine-identity tricks entirely. Since
// the build pipeline is single-threaded by construction (spec.md §5
// "Build time: single-threaded cooperative"), the "creating thread" case
// collapses to "a call that reenters ensureInjected while injectAll's own
// loop is still running" — tracked here with a plain running flag rather
// than a thread check, since only the build goroutine can observe running
// == true. Every other caller is, by definition, a different goroutine and
// blocks on the latch.
type initializer struct {
	mu         sync.Mutex
	byInstance map[any]*pendingInjection
	wg         sync.WaitGroup
	done       bool
	running    bool
}

type pendingInjection struct {
	instance any
	injected bool
	err      error
}

func newInitializer() *initializer {
	in := &initializer{byInstance: make(map[any]*pendingInjection)}
	in.wg.Add(1)
	return in
}

// register tracks instance for the eventual injectAll pass. Registration
// is idempotent: registering the same instance twice (e.g. both bound
// ToInstance and separately passed to RequestInjection) is a no-op the
// second time.
func (in *initializer) register(instance any) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, ok := in.byInstance[instance]; ok {
		return
	}
	in.byInstance[instance] = &pendingInjection{instance: instance}
}

// ensureInjected guarantees obj has been fully member-injected before
// returning, per spec.md §4.4.5's reentrant/latch contract.
func (in *initializer) ensureInjected(inj *Injector, obj any) error {
	in.mu.Lock()
	p, tracked := in.byInstance[obj]
	if !tracked {
		in.mu.Unlock()
		return inj.injectMembers(newRequestContext(inj), obj)
	}

	if in.done {
		in.mu.Unlock()
		return nil
	}

	if !in.running {
		in.mu.Unlock()
		in.wg.Wait()
		return p.err
	}

	if p.injected {
		in.mu.Unlock()
		return p.err
	}
	in.mu.Unlock()

	err := inj.injectMembers(newRequestContext(inj), obj)

	in.mu.Lock()
	p.injected = true
	p.err = err
	in.mu.Unlock()

	return err
}

// injectAll runs once, at the end of Build's phase 13 (spec.md §4.5 step
// 13), member-injecting every tracked instance and releasing the latch
// that ensureInjected blocks other goroutines on. A later call returns nil
// without injecting anything.
func (in *initializer) injectAll(inj *Injector) error {
	in.mu.Lock()
	if in.done {
		in.mu.Unlock()
		return nil
	}
	in.running = true
	pending := make([]*pendingInjection, 0, len(in.byInstance))
	for _, p := range in.byInstance {
		pending = append(pending, p)
	}
	in.mu.Unlock()

	rc := newRequestContext(inj)
	var agg errs.MultiError

	for _, p := range pending {
		in.mu.Lock()
		already := p.injected
		in.mu.Unlock()
		if already {
			continue
		}

		err := inj.injectMembers(rc, p.instance)

		in.mu.Lock()
		p.injected = true
		p.err = err
		in.mu.Unlock()

		if err != nil {
			agg = agg.Append(err)
		}
	}

	in.mu.Lock()
	in.done = true
	in.running = false
	in.mu.Unlock()
	in.wg.Done()

	return agg.Join()
}
