package watch

import (
	"context"
	"sync"
	"time"

	derrors "git.home.luguber.info/inful/codedoc/internal/errors"
)

// Rebuild reasons.
const (
	ReasonStartup  = "startup"
	ReasonSource   = "source"
	ReasonConfig   = "config"
	ReasonSchedule = "schedule"
)

// Request asks for a rebuild.
type Request struct {
	Reason string
	Path   string
	At     time.Time
}

// Trigger describes a coalesced burst of requests.
type Trigger struct {
	Reason        string // reason of the last request
	Requests      int
	ConfigChanged bool
	First         time.Time
	Last          time.Time
}

type DebouncerConfig struct {
	QuietWindow time.Duration
	// MaxDelay bounds how long a steady stream of requests can postpone a build.
	MaxDelay time.Duration
}

// Debouncer coalesces bursts of requests into a single call of fire.
//
// fire runs on the Run goroutine, so builds never overlap; requests that
// arrive while a build runs are queued and produce exactly one follow-up.
type Debouncer struct {
	cfg      DebouncerConfig
	fire     func(ctx context.Context, t Trigger)
	requests chan Request

	readyOnce sync.Once
	ready     chan struct{}

	pending Trigger
}

func NewDebouncer(cfg DebouncerConfig, fire func(ctx context.Context, t Trigger)) (*Debouncer, error) {
	if fire == nil {
		return nil, derrors.ValidationFailed("fire", "callback is required")
	}
	if cfg.QuietWindow <= 0 {
		return nil, derrors.ValidationFailed("quiet_window", "must be > 0")
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * cfg.QuietWindow
	}
	return &Debouncer{
		cfg:      cfg,
		fire:     fire,
		requests: make(chan Request, 64),
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once Run is consuming requests.
func (d *Debouncer) Ready() <-chan struct{} {
	return d.ready
}

// Request queues a rebuild request without blocking. A full queue already
// guarantees a pending build, so the request is dropped.
func (d *Debouncer) Request(r Request) {
	if r.At.IsZero() {
		r.At = time.Now()
	}
	select {
	case d.requests <- r:
	default:
	}
}

// Run consumes requests until ctx is done.
func (d *Debouncer) Run(ctx context.Context) error {
	d.readyOnce.Do(func() { close(d.ready) })

	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()
	defer quietTimer.Stop()
	defer maxTimer.Stop()

	var quietC, maxC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-d.requests:
			first := d.pending.Requests == 0
			d.onRequest(req)
			resetTimer(quietTimer, d.cfg.QuietWindow)
			quietC = quietTimer.C
			if first {
				resetTimer(maxTimer, d.cfg.MaxDelay)
				maxC = maxTimer.C
			}
		case <-quietC:
			d.emit(ctx)
			quietC, maxC = nil, nil
		case <-maxC:
			d.emit(ctx)
			quietC, maxC = nil, nil
		}
	}
}

func (d *Debouncer) onRequest(r Request) {
	if d.pending.Requests == 0 {
		d.pending.First = r.At
	}
	d.pending.Requests++
	d.pending.Last = r.At
	d.pending.Reason = r.Reason
	if r.Reason == ReasonConfig {
		d.pending.ConfigChanged = true
	}
}

func (d *Debouncer) emit(ctx context.Context) {
	t := d.pending
	d.pending = Trigger{}
	if t.Requests == 0 {
		return
	}
	d.fire(ctx, t)
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	return t
}

func resetTimer(t *time.Timer, after time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(after)
}
