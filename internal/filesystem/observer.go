package filesystem

import (
	"sync"
	"time"
)

// Observer records filesystem operation metrics. The metrics package provides
// the Prometheus implementation; filesystem cannot import it.
type Observer interface {
	// ObserveOperation is called once per operation. volume is the resolved
	// directory label, operation one of "write", "copy" or "remove".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(volume, operation string, durationSeconds float64, err error)

// ObserveOperation calls f.
func (f ObserverFunc) ObserveOperation(volume, operation string, durationSeconds float64, err error) {
	f(volume, operation, durationSeconds, err)
}

var hooks struct {
	sync.RWMutex
	resolver *VolumeResolver
	observer Observer
}

// SetDefaultVolumeResolver sets the resolver used to label operations.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	hooks.Lock()
	hooks.resolver = vr
	hooks.Unlock()
}

// SetObserver sets the observer notified of every operation. nil disables
// recording.
func SetObserver(o Observer) {
	hooks.Lock()
	hooks.observer = o
	hooks.Unlock()
}

// track starts timing an operation on path. Call the returned function with
// the operation's result.
func track(operation, path string) func(err error) {
	hooks.RLock()
	resolver, observer := hooks.resolver, hooks.observer
	hooks.RUnlock()
	if observer == nil {
		return func(error) {}
	}

	volume := resolver.Resolve(path)
	start := time.Now()
	return func(err error) {
		observer.ObserveOperation(volume, operation, time.Since(start).Seconds(), err)
	}
}
