package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Store maintains in-memory counters for remote API activity during a run.
type Store struct {
	calls     atomic.Uint64
	mutations atomic.Uint64
	failures  atomic.Uint64
	perAction sync.Map // action name -> *atomic.Uint64
}

// NewStore constructs a Store with zeroed counters.
func NewStore() *Store {
	return &Store{}
}

// ObserveCall records one issued remote call for the named API action.
func (s *Store) ObserveCall(action string) {
	s.calls.Add(1)
	counter := s.getActionCounter(action)
	counter.Add(1)
}

// ObserveMutation records that a mutating remote call completed successfully.
func (s *Store) ObserveMutation() {
	s.mutations.Add(1)
}

// ObserveFailure records a remote call that failed at the transport or
// logical level.
func (s *Store) ObserveFailure() {
	s.failures.Add(1)
}

func (s *Store) getActionCounter(action string) *atomic.Uint64 {
	if value, ok := s.perAction.Load(action); ok {
		if counter, ok := value.(*atomic.Uint64); ok && counter != nil {
			return counter
		}
	}
	counter := &atomic.Uint64{}
	actual, _ := s.perAction.LoadOrStore(action, counter)
	if existing, ok := actual.(*atomic.Uint64); ok && existing != nil {
		return existing
	}
	return counter
}

// Snapshot captures the current counter values in a plain struct.
type Snapshot struct {
	CallsTotal     uint64        `json:"calls_total"`
	MutationsTotal uint64        `json:"mutations_total"`
	FailuresTotal  uint64        `json:"failures_total"`
	CallsByAction  []ActionCount `json:"calls_by_action,omitempty"`
}

// ActionCount captures the accumulated call count for one API action.
type ActionCount struct {
	Action string `json:"action"`
	Count  uint64 `json:"count"`
}

// Snapshot returns a point-in-time copy of the counters, with per-action
// counts in a stable order.
func (s *Store) Snapshot() Snapshot {
	actionCounts := make([]ActionCount, 0)
	s.perAction.Range(func(key, value any) bool {
		action, ok := key.(string)
		if !ok {
			return true
		}
		counter, ok := value.(*atomic.Uint64)
		if !ok || counter == nil {
			return true
		}
		actionCounts = append(actionCounts, ActionCount{
			Action: action,
			Count:  counter.Load(),
		})
		return true
	})
	sort.Slice(actionCounts, func(i, j int) bool {
		return actionCounts[i].Action < actionCounts[j].Action
	})
	return Snapshot{
		CallsTotal:     s.calls.Load(),
		MutationsTotal: s.mutations.Load(),
		FailuresTotal:  s.failures.Load(),
		CallsByAction:  actionCounts,
	}
}
