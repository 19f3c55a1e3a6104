package capture

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-document-verifier/imaging"
)

const testDwell = 40 * time.Millisecond

func goodFrame() imaging.FrameAnalysis {
	return imaging.FrameAnalysis{Aligned: true, Brightness: 92}
}

// captureRecorder collects triggers from the capture callback.
type captureRecorder struct {
	mu       sync.Mutex
	triggers []Trigger
	fired    chan Trigger
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{fired: make(chan Trigger, 8)}
}

func (r *captureRecorder) capture(trigger Trigger) {
	r.mu.Lock()
	r.triggers = append(r.triggers, trigger)
	r.mu.Unlock()
	r.fired <- trigger
}

func (r *captureRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.triggers)
}

func (r *captureRecorder) waitForCapture(t *testing.T) Trigger {
	t.Helper()
	select {
	case trigger := <-r.fired:
		return trigger
	case <-time.After(time.Second):
		t.Fatal("no capture fired within a second")
		return ""
	}
}

func (r *captureRecorder) requireNoCapture(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case trigger := <-r.fired:
		t.Fatalf("unexpected %s capture", trigger)
	case <-time.After(within):
	}
}

func TestAutoCaptureAfterDwell(t *testing.T) {
	recorder := newCaptureRecorder()
	controller := NewController(Config{DwellTime: testDwell}, recorder.capture)
	defer controller.Stop()

	controller.Process(goodFrame())
	require.Equal(t, StateArmed, controller.State())

	require.Equal(t, TriggerAuto, recorder.waitForCapture(t))
	require.Equal(t, StateCapturing, controller.State())

	// One armed cycle fires exactly once.
	recorder.requireNoCapture(t, 3*testDwell)
	require.Equal(t, 1, recorder.count())
}

func TestNoCaptureBeforeDwell(t *testing.T) {
	recorder := newCaptureRecorder()
	controller := NewController(Config{DwellTime: time.Minute}, recorder.capture)
	defer controller.Stop()

	controller.Process(goodFrame())
	recorder.requireNoCapture(t, 3*testDwell)
	require.Equal(t, StateArmed, controller.State())
}

func TestBadFrameDisarms(t *testing.T) {
	cases := []struct {
		name  string
		frame imaging.FrameAnalysis
	}{
		{"misaligned", imaging.FrameAnalysis{Aligned: false, Brightness: 92}},
		{"too dark", imaging.FrameAnalysis{Aligned: true, Brightness: 55}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := newCaptureRecorder()
			controller := NewController(Config{DwellTime: testDwell}, recorder.capture)
			defer controller.Stop()

			controller.Process(goodFrame())
			controller.Process(tc.frame)
			require.Equal(t, StateIdle, controller.State())

			recorder.requireNoCapture(t, 3*testDwell)
		})
	}
}

func TestBadFrameAloneDoesNotArm(t *testing.T) {
	recorder := newCaptureRecorder()
	controller := NewController(Config{DwellTime: testDwell}, recorder.capture)
	defer controller.Stop()

	controller.Process(imaging.FrameAnalysis{Aligned: true, Brightness: 40})
	require.Equal(t, StateIdle, controller.State())
}

func TestMinIntervalSuppressesAutoCapture(t *testing.T) {
	recorder := newCaptureRecorder()
	controller := NewController(Config{DwellTime: testDwell, MinInterval: 2 * time.Second}, recorder.capture)
	defer controller.Stop()

	current := time.Unix(1000, 0)
	var clockMu sync.Mutex
	controller.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return current
	}

	controller.Process(goodFrame())
	recorder.waitForCapture(t)
	controller.Acknowledge()

	// Second cycle inside the interval: dwell elapses but no shot fires.
	controller.Process(goodFrame())
	recorder.requireNoCapture(t, 4*testDwell)
	require.Equal(t, StateIdle, controller.State())

	// Past the interval the next cycle fires again.
	clockMu.Lock()
	current = current.Add(3 * time.Second)
	clockMu.Unlock()

	controller.Process(goodFrame())
	recorder.waitForCapture(t)
	require.Equal(t, 2, recorder.count())
}

func TestManualCapture(t *testing.T) {
	recorder := newCaptureRecorder()
	controller := NewController(Config{DwellTime: time.Minute}, recorder.capture)
	defer controller.Stop()

	// Manual capture needs no aligned frame and no dwell.
	require.True(t, controller.ManualCapture())
	require.Equal(t, TriggerManual, recorder.waitForCapture(t))
	require.Equal(t, StateCapturing, controller.State())

	// A second manual request is refused until the first is acknowledged.
	require.False(t, controller.ManualCapture())
	controller.Acknowledge()
	require.True(t, controller.ManualCapture())
}

func TestManualCaptureCancelsDwell(t *testing.T) {
	recorder := newCaptureRecorder()
	controller := NewController(Config{DwellTime: testDwell}, recorder.capture)
	defer controller.Stop()

	controller.Process(goodFrame())
	require.True(t, controller.ManualCapture())
	require.Equal(t, TriggerManual, recorder.waitForCapture(t))

	// The armed timer must not fire a second, automatic shot.
	recorder.requireNoCapture(t, 3*testDwell)
	require.Equal(t, 1, recorder.count())
}

func TestStopCancelsPendingCapture(t *testing.T) {
	recorder := newCaptureRecorder()
	controller := NewController(Config{DwellTime: testDwell}, recorder.capture)

	controller.Process(goodFrame())
	controller.Stop()

	recorder.requireNoCapture(t, 3*testDwell)
	require.Equal(t, StateIdle, controller.State())

	// A stopped controller ignores everything.
	controller.Process(goodFrame())
	require.Equal(t, StateIdle, controller.State())
	require.False(t, controller.ManualCapture())
}

func TestStateString(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "armed", StateArmed.String())
	require.Equal(t, "capturing", StateCapturing.String())
}
