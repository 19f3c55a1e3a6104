package imaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// RuntimeState is the lifecycle of the process-wide imaging state.
type RuntimeState int

const (
	StateUninitialized RuntimeState = iota
	StateLoading
	StateReady
	StateFailed
)

func (s RuntimeState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Runtime owns the imaging state shared by all verifications in the
// process, most importantly the face classifier. It is constructed once at
// startup, loaded explicitly, awaited by whoever needs a backend and torn
// down on shutdown.
type Runtime struct {
	mu      sync.Mutex
	state   RuntimeState
	backend *StdBackend
	loadErr error
	ready   chan struct{}
}

func NewRuntime() *Runtime {
	return &Runtime{ready: make(chan struct{})}
}

// Load builds the backend from the classifier bytes. An empty cascade is
// allowed and produces a backend without face detection. Load may only be
// called from the uninitialized state.
func (r *Runtime) Load(cascade []byte) error {
	r.mu.Lock()
	if r.state != StateUninitialized {
		state := r.state
		r.mu.Unlock()
		return fmt.Errorf("imaging runtime already %s", state)
	}
	r.state = StateLoading
	r.mu.Unlock()

	var classifier *FaceClassifier
	if len(cascade) > 0 {
		var err error
		classifier, err = NewFaceClassifier(cascade)
		if err != nil {
			r.mu.Lock()
			r.state = StateFailed
			r.loadErr = err
			r.mu.Unlock()
			close(r.ready)
			return err
		}
	} else {
		slog.Warn("no face cascade configured, portrait extraction disabled")
	}

	r.mu.Lock()
	r.backend = NewStdBackend(classifier)
	r.state = StateReady
	r.mu.Unlock()
	close(r.ready)

	slog.Info("imaging runtime ready", "face_detection", classifier != nil)
	return nil
}

// WaitReady blocks until the runtime is loaded or the context ends.
func (r *Runtime) WaitReady(ctx context.Context) error {
	select {
	case <-r.ready:
		_, err := r.Backend()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Backend returns the loaded backend.
func (r *Runtime) Backend() (*StdBackend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case StateReady:
		return r.backend, nil
	case StateFailed:
		return nil, r.loadErr
	default:
		return nil, errors.New("imaging runtime not loaded")
	}
}

// State reports the current lifecycle state.
func (r *Runtime) State() RuntimeState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Shutdown releases the backend and returns the runtime to uninitialized.
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend = nil
	r.loadErr = nil
	if r.state == StateUninitialized {
		return
	}
	r.state = StateUninitialized
	r.ready = make(chan struct{})
	slog.Info("imaging runtime shut down")
}
