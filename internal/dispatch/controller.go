// Package dispatch owns the booking lifecycle: submission, the simulated
// dispatch delay, tracking until arrival, and user-confirmed cancellation.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/ambu-dispatch/internal/booking"
	"github.com/wolfman30/ambu-dispatch/internal/catalog"
	"github.com/wolfman30/ambu-dispatch/internal/clock"
	"github.com/wolfman30/ambu-dispatch/internal/history"
	"github.com/wolfman30/ambu-dispatch/internal/kvstore"
	"github.com/wolfman30/ambu-dispatch/internal/observability/metrics"
	"github.com/wolfman30/ambu-dispatch/internal/tracking"
	"github.com/wolfman30/ambu-dispatch/pkg/logging"
)

// ETALayout renders the confirmed arrival time, e.g. "3:04 PM".
const ETALayout = "3:04 PM"

// DefaultDispatchDelay is the simulated wait before a driver is assigned.
const DefaultDispatchDelay = 2500 * time.Millisecond

// persistTimeout bounds a history write. The write is detached from the
// caller so a disconnected client cannot drop it.
const persistTimeout = 5 * time.Second

var (
	// ErrBookingActive is returned by Submit while another booking is in flight.
	ErrBookingActive = errors.New("dispatch: a booking is already active")
	// ErrNoActiveBooking is returned by Cancel when there is nothing to cancel.
	ErrNoActiveBooking = errors.New("dispatch: no active booking")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("dispatch: controller closed")
)

// Driver is the crew card shown once a booking is confirmed.
type Driver struct {
	Name    string `json:"name"`
	Vehicle string `json:"vehicle"`
	Phone   string `json:"phone"`
}

// AssignedDriver is the static crew every confirmed booking receives.
var AssignedDriver = Driver{
	Name:    "Rajesh Kumar",
	Vehicle: "MH 02 CP 4421",
	Phone:   "+91 98765 00001",
}

// Snapshot is a consistent view of the lifecycle at one instant.
type Snapshot struct {
	Status           booking.Status    `json:"status"`
	Booking          *booking.Details  `json:"booking,omitempty"`
	Hospital         *catalog.Hospital `json:"hospital,omitempty"`
	Destination      string            `json:"destination,omitempty"`
	Driver           *Driver           `json:"driver,omitempty"`
	EstimatedArrival string            `json:"estimatedArrival"`
	Tracking         *tracking.Frame   `json:"tracking,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	History       *history.Store
	Clock         clock.Clock
	Logger        *logging.Logger
	Metrics       *metrics.DispatchMetrics
	DispatchDelay time.Duration
	Tracking      tracking.Params
	Location      *time.Location
}

// Controller is the single owner of booking state. All transitions go
// through its methods; timer callbacks carry the generation they were armed
// for and are ignored once the booking they belong to is gone.
type Controller struct {
	store    *history.Store
	clock    clock.Clock
	logger   *logging.Logger
	metrics  *metrics.DispatchMetrics
	delay    time.Duration
	params   tracking.Params
	location *time.Location

	persistMu sync.Mutex

	mu            sync.Mutex
	closed        bool
	generation    uint64
	status        booking.Status
	current       *booking.Details
	eta           string
	frame         *tracking.Frame
	submittedAt   time.Time
	updatedAt     time.Time
	dispatchTimer clock.Timer
	tracker       *tracking.Simulator
	history       []booking.PastBooking
	subs          map[uint64]chan Snapshot
	nextSub       uint64
}

// NewController builds a controller and loads the persisted history once.
// Missing or corrupt history starts empty.
func NewController(ctx context.Context, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.History == nil {
		opts.History = history.NewStore(kvstore.NewMemory(), history.DefaultKey)
	}
	if opts.DispatchDelay <= 0 {
		opts.DispatchDelay = DefaultDispatchDelay
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	c := &Controller{
		store:    opts.History,
		clock:    opts.Clock,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		delay:    opts.DispatchDelay,
		params:   opts.Tracking.WithDefaults(),
		location: opts.Location,
		status:   booking.StatusIdle,
		subs:     make(map[uint64]chan Snapshot),
	}
	c.updatedAt = c.clock.Now()

	list, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("dispatch: failed to load booking history, starting empty", "key", c.store.Key(), "error", err)
		list = []booking.PastBooking{}
	}
	c.history = list
	return c
}

// Submit starts a booking. The history record is written immediately; the
// booking is confirmed after the dispatch delay.
func (c *Controller) Submit(ctx context.Context, d booking.Details) (Snapshot, error) {
	if err := d.Validate(); err != nil {
		return Snapshot{}, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	if c.status != booking.StatusIdle {
		c.mu.Unlock()
		return Snapshot{}, ErrBookingActive
	}

	now := c.clock.Now()
	c.generation++
	gen := c.generation
	details := d
	c.current = &details
	c.status = booking.StatusSearching
	c.eta = ""
	c.frame = nil
	c.submittedAt = now
	c.history = history.Prepend(c.history, booking.NewPastBooking(d, now, c.location))
	c.dispatchTimer = c.clock.AfterFunc(c.delay, func() { c.confirm(gen) })
	snap := c.publishLocked(now)
	c.mu.Unlock()

	c.metrics.ObserveSubmitted(string(d.AmbulanceType), d.City)
	c.metrics.ObserveTransition(string(booking.StatusSearching))
	c.logger.Info("dispatch: booking submitted",
		"city", d.City,
		"hospital_id", d.HospitalID,
		"ambulance_type", d.AmbulanceType,
	)

	c.persistHistory(ctx)
	return snap, nil
}

// persistHistory overwrites the stored document with the current list.
// Saves are serialized and always write the latest list, so a slow save can
// never clobber a newer one.
func (c *Controller) persistHistory(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	list := append([]booking.PastBooking(nil), c.history...)
	c.mu.Unlock()

	if err := c.store.Save(ctx, list); err != nil {
		c.metrics.ObserveHistoryPersistFailure()
		c.logger.Error("dispatch: failed to persist booking history", "key", c.store.Key(), "error", err)
	}
}

func (c *Controller) confirm(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.generation || c.status != booking.StatusSearching {
		c.mu.Unlock()
		c.logger.Debug("dispatch: ignoring stale dispatch timer", "generation", gen)
		return
	}

	now := c.clock.Now()
	c.dispatchTimer = nil
	c.status = booking.StatusConfirmed
	c.eta = now.Add(c.params.ETAWindow).In(c.location).Format(ETALayout)
	initial := tracking.Initial(c.params)
	c.frame = &initial
	sim := tracking.New(c.clock, c.params,
		func(f tracking.Frame) { c.advance(gen, f) },
		func() { c.arrive(gen) },
	)
	c.tracker = sim
	c.publishLocked(now)
	eta := c.eta
	c.mu.Unlock()

	c.metrics.ObserveTransition(string(booking.StatusConfirmed))
	c.logger.Info("dispatch: booking confirmed", "eta", eta)
	sim.Start()
}

func (c *Controller) advance(gen uint64, f tracking.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation {
		return
	}
	c.frame = &f
	c.publishLocked(c.clock.Now())
}

func (c *Controller) arrive(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.generation || c.status != booking.StatusConfirmed {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	c.status = booking.StatusArrived
	elapsed := now.Sub(c.submittedAt)
	c.publishLocked(now)
	c.mu.Unlock()

	c.metrics.ObserveTransition(string(booking.StatusArrived))
	c.metrics.ObserveTimeToArrival(elapsed.Seconds())
	c.logger.Info("dispatch: ambulance arrived", "elapsed", elapsed.String())
}

// Cancel asks gate to confirm and, if accepted, returns to IDLE. The
// history entry written on submission is kept. It reports whether the
// booking was cancelled; a declined confirmation changes nothing.
func (c *Controller) Cancel(ctx context.Context, gate Confirmer) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	if !c.status.Active() {
		c.mu.Unlock()
		return false, ErrNoActiveBooking
	}
	gen := c.generation
	c.mu.Unlock()

	if gate == nil {
		gate = Decline
	}
	ok, err := gate.Confirm(ctx, CancelPrompt)
	if err != nil {
		return false, fmt.Errorf("dispatch: confirm cancellation: %w", err)
	}
	if !ok {
		c.metrics.ObserveCancellation(false)
		c.logger.Info("dispatch: cancellation declined")
		return false, nil
	}

	c.mu.Lock()
	if c.closed || gen != c.generation || !c.status.Active() {
		c.mu.Unlock()
		return false, ErrNoActiveBooking
	}
	from := c.status
	c.generation++
	timer, sim := c.dispatchTimer, c.tracker
	c.dispatchTimer, c.tracker = nil, nil
	c.status = booking.StatusIdle
	c.current = nil
	c.eta = ""
	c.frame = nil
	c.publishLocked(c.clock.Now())
	c.mu.Unlock()

	// Stop outside the lock: a tracker callback may be waiting on it.
	if timer != nil {
		timer.Stop()
	}
	if sim != nil {
		sim.Stop()
	}
	c.metrics.ObserveCancellation(true)
	c.metrics.ObserveTransition(string(booking.StatusIdle))
	c.logger.Info("dispatch: booking cancelled", "from", from)
	return true, nil
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Status returns the current lifecycle state.
func (c *Controller) Status() booking.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// History returns the past bookings, most recent first.
func (c *Controller) History() []booking.PastBooking {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]booking.PastBooking{}, c.history...)
}

// Close stops timers and closes every subscription. Further transitions
// fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	timer, sim := c.dispatchTimer, c.tracker
	c.dispatchTimer, c.tracker = nil, nil
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if sim != nil {
		sim.Stop()
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:           c.status,
		EstimatedArrival: c.eta,
		UpdatedAt:        c.updatedAt,
	}
	if c.current != nil {
		d := *c.current
		snap.Booking = &d
		if h, ok := catalog.HospitalByID(d.HospitalID); ok {
			snap.Hospital = &h
			snap.Destination = h.Name
		} else {
			snap.Destination = d.City + " General Hospital"
		}
	}
	if c.status == booking.StatusConfirmed || c.status == booking.StatusArrived {
		drv := AssignedDriver
		snap.Driver = &drv
	}
	if c.frame != nil {
		f := *c.frame
		snap.Tracking = &f
	}
	return snap
}
