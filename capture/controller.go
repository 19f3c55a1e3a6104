// Package capture drives automatic photo capture from a stream of frame
// analyses. A frame showing a well-lit, aligned document arms a dwell timer;
// when the document holds still for the full dwell the controller fires a
// capture. The caller supplies frames and receives capture triggers, the
// controller owns all timing.
package capture

import (
	"log/slog"
	"sync"
	"time"

	"go-document-verifier/imaging"
)

// State is the controller's position in the capture cycle.
type State int

const (
	// StateIdle means no suitable document is in view.
	StateIdle State = iota
	// StateArmed means the dwell timer is running.
	StateArmed
	// StateCapturing means a capture fired and has not been acknowledged.
	StateCapturing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateCapturing:
		return "capturing"
	default:
		return "unknown"
	}
}

// Trigger tells the capture callback what caused the shot.
type Trigger string

const (
	TriggerAuto   Trigger = "auto"
	TriggerManual Trigger = "manual"
)

// Config tunes the capture cycle. Zero values take defaults.
type Config struct {
	// DwellTime is how long the document must stay aligned before an
	// automatic capture fires. Default 1s.
	DwellTime time.Duration
	// MinInterval is the minimum gap between automatic captures.
	// Default 2s. Manual captures ignore it.
	MinInterval time.Duration
	// MinBrightness is the 0-100 brightness floor for arming. Default 80.
	MinBrightness float64
}

func (c *Config) applyDefaults() {
	if c.DwellTime == 0 {
		c.DwellTime = time.Second
	}
	if c.MinInterval == 0 {
		c.MinInterval = 2 * time.Second
	}
	if c.MinBrightness == 0 {
		c.MinBrightness = 80
	}
}

// Controller is the auto-capture state machine. All methods are safe for
// concurrent use; the capture callback runs without the internal lock held.
type Controller struct {
	cfg       Config
	onCapture func(Trigger)

	mu          sync.Mutex
	state       State
	timer       *time.Timer
	lastCapture time.Time
	stopped     bool
	now         func() time.Time
}

// NewController returns a stopped-at-idle controller that calls onCapture
// whenever a capture fires.
func NewController(cfg Config, onCapture func(Trigger)) *Controller {
	cfg.applyDefaults()
	return &Controller{
		cfg:       cfg,
		onCapture: onCapture,
		now:       time.Now,
	}
}

// Process feeds one frame analysis into the state machine. Frames arriving
// while a capture is pending acknowledgement are dropped.
func (c *Controller) Process(analysis imaging.FrameAnalysis) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.state == StateCapturing {
		return
	}

	good := analysis.Aligned && analysis.Brightness >= c.cfg.MinBrightness

	switch c.state {
	case StateIdle:
		if good {
			c.state = StateArmed
			c.timer = time.AfterFunc(c.cfg.DwellTime, c.dwellElapsed)
			slog.Debug("capture armed", "brightness", analysis.Brightness)
		}
	case StateArmed:
		if !good {
			c.disarmLocked()
			slog.Debug("capture disarmed", "aligned", analysis.Aligned, "brightness", analysis.Brightness)
		}
	}
}

// dwellElapsed runs on the timer goroutine when the document has held still
// for the full dwell.
func (c *Controller) dwellElapsed() {
	c.mu.Lock()
	if c.stopped || c.state != StateArmed {
		c.mu.Unlock()
		return
	}

	if elapsed := c.now().Sub(c.lastCapture); !c.lastCapture.IsZero() && elapsed < c.cfg.MinInterval {
		// Too soon after the previous shot; the next good frame re-arms.
		c.state = StateIdle
		c.timer = nil
		c.mu.Unlock()
		slog.Debug("auto capture suppressed", "since_last", elapsed)
		return
	}

	c.state = StateCapturing
	c.timer = nil
	c.lastCapture = c.now()
	callback := c.onCapture
	c.mu.Unlock()

	slog.Info("auto capture fired")
	if callback != nil {
		callback(TriggerAuto)
	}
}

// ManualCapture fires a capture immediately, regardless of alignment,
// brightness or the automatic interval. It reports false when a capture is
// already pending or the controller is stopped.
func (c *Controller) ManualCapture() bool {
	c.mu.Lock()
	if c.stopped || c.state == StateCapturing {
		c.mu.Unlock()
		return false
	}

	c.disarmLocked()
	c.state = StateCapturing
	c.lastCapture = c.now()
	callback := c.onCapture
	c.mu.Unlock()

	slog.Info("manual capture fired")
	if callback != nil {
		callback(TriggerManual)
	}
	return true
}

// Acknowledge marks the fired capture as handled and returns to idle.
func (c *Controller) Acknowledge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCapturing {
		c.state = StateIdle
	}
}

// Stop cancels any pending dwell timer and refuses further frames.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disarmLocked()
	c.state = StateIdle
	c.stopped = true
}

// State reports the current cycle position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) disarmLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.state == StateArmed {
		c.state = StateIdle
	}
}
