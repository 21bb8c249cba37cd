package reconcile

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/uptimectlhq/uptimectl/internal/events"
	"github.com/uptimectlhq/uptimectl/internal/uptimerobot"
	"github.com/uptimectlhq/uptimectl/pkg/types"
)

// Action names the single effective mutating operation of an invocation.
type Action string

const (
	ActionNone    Action = "none"
	ActionCreated Action = "created"
	ActionResumed Action = "resumed"
	ActionPaused  Action = "paused"
	ActionDeleted Action = "deleted"
)

// Result reports the outcome of one reconcile invocation. A nil Record means
// the monitor does not (or no longer) exist remotely. Changed is true iff a
// mutating remote call was executed.
type Result struct {
	Record  *types.MonitorRecord
	Changed bool
	Action  Action
}

// Dependencies allow overrides for event recording, logging and the clock.
type Dependencies struct {
	Events events.Recorder
	Logger *log.Logger
	Now    func() time.Time
}

// Reconciler converges one remote monitor to a declared desired state,
// issuing at most one mutating remote call per invocation.
type Reconciler struct {
	gateway  Gateway
	resolver *Resolver
	events   events.Recorder
	logger   *log.Logger
	now      func() time.Time
}

// NewReconciler builds a Reconciler from a gateway and dependencies.
func NewReconciler(gateway Gateway, deps Dependencies) *Reconciler {
	recorder := deps.Events
	if recorder == nil {
		recorder = events.NoopRecorder{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Reconciler{
		gateway:  gateway,
		resolver: NewResolver(gateway),
		events:   recorder,
		logger:   logger,
		now:      now,
	}
}

// Reconcile resolves the spec's identity and executes the minimal operation
// sequence to reach the desired lifecycle state.
func (r *Reconciler) Reconcile(ctx context.Context, spec types.MonitorSpec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	res, err := r.resolver.Resolve(ctx, spec)
	if err != nil {
		return Result{}, err
	}

	switch spec.Lifecycle {
	case types.LifecyclePresent:
		return r.ensurePresent(ctx, spec, res)
	case types.LifecycleAbsent:
		return r.ensureAbsent(ctx, res)
	case types.LifecycleStarted:
		return r.ensureStatus(ctx, spec, res, types.StatusUp)
	case types.LifecyclePaused:
		return r.ensureStatus(ctx, spec, res, types.StatusPaused)
	default:
		return Result{}, fmt.Errorf("%w: unhandled lifecycle %q", ErrInvalidSpec, spec.Lifecycle)
	}
}

func (r *Reconciler) ensurePresent(ctx context.Context, spec types.MonitorSpec, res Resolution) (Result, error) {
	if !res.Found {
		if spec.Name == "" || spec.URL == "" {
			return Result{}, fmt.Errorf("%w: name and url are required to create a monitor", ErrInvalidSpec)
		}
		id, err := r.gateway.CreateMonitor(ctx, spec.Name, spec.URL, spec.AlertContactIDs)
		if err != nil {
			return Result{}, fmt.Errorf("create monitor %q: %w", spec.Name, err)
		}
		record := &types.MonitorRecord{
			ID:           id,
			FriendlyName: spec.Name,
			URL:          spec.URL,
			Status:       types.StatusNotCheckedYet,
		}
		r.record(types.EventMonitorCreated, id)
		r.logger.Printf("created monitor %q (id=%s)", spec.Name, id)
		return Result{Record: record, Changed: true, Action: ActionCreated}, nil
	}

	// Already present: report the current record without mutating. A search
	// hit is fresh enough here; an explicit id still needs one lookup.
	record := res.Record
	if record == nil {
		confirmed, err := r.confirm(ctx, res.ID)
		if err != nil {
			return Result{}, err
		}
		record = confirmed
	}
	r.record(types.EventMonitorInSync, record.ID)
	return Result{Record: record, Changed: false, Action: ActionNone}, nil
}

func (r *Reconciler) ensureAbsent(ctx context.Context, res Resolution) (Result, error) {
	if !res.Found {
		return Result{Changed: false, Action: ActionNone}, nil
	}

	record, err := r.confirm(ctx, res.ID)
	if err != nil {
		return Result{}, err
	}
	if err := r.gateway.DeleteMonitor(ctx, record.ID); err != nil {
		return Result{}, fmt.Errorf("delete monitor %s: %w", record.ID, err)
	}
	r.record(types.EventMonitorDeleted, record.ID)
	r.logger.Printf("deleted monitor %s (%s)", record.ID, record.FriendlyName)
	return Result{Record: record, Changed: true, Action: ActionDeleted}, nil
}

func (r *Reconciler) ensureStatus(ctx context.Context, spec types.MonitorSpec, res Resolution, target types.MonitorStatus) (Result, error) {
	verb := "start"
	edit := uptimerobot.EditResume
	action := ActionResumed
	event := types.EventMonitorResumed
	if target == types.StatusPaused {
		verb = "pause"
		edit = uptimerobot.EditPause
		action = ActionPaused
		event = types.EventMonitorPaused
	}
	done := string(action)

	if !res.Found {
		return Result{}, fmt.Errorf("%w: cannot %s monitor %q: no monitor matches", ErrNotFound, verb, spec.DisplayName())
	}

	record, err := r.confirm(ctx, res.ID)
	if err != nil {
		return Result{}, err
	}
	if record.Status == target {
		r.record(types.EventMonitorInSync, record.ID)
		return Result{Record: record, Changed: false, Action: ActionNone}, nil
	}

	if err := r.gateway.EditMonitor(ctx, record.ID, edit); err != nil {
		return Result{}, fmt.Errorf("%s monitor %s: %w", verb, record.ID, err)
	}
	r.record(event, record.ID)
	r.logger.Printf("%s monitor %s (%s)", done, record.ID, record.FriendlyName)
	return Result{Record: record, Changed: true, Action: action}, nil
}

// confirm re-fetches the monitor by id before any status decision or
// mutation. A resolved id is never trusted for status without this read.
func (r *Reconciler) confirm(ctx context.Context, id string) (*types.MonitorRecord, error) {
	records, err := r.gateway.ListMonitors(ctx, uptimerobot.Filter{ID: id})
	if err != nil {
		return nil, fmt.Errorf("confirm monitor %s: %w", id, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	record := records[0]
	return &record, nil
}

func (r *Reconciler) record(eventType types.EventType, monitorID string) {
	r.events.Record(types.Event{
		Type:      eventType,
		Timestamp: r.now().UTC(),
		MonitorID: monitorID,
	})
}
