package types

import (
	"fmt"
	"strings"
)

// Lifecycle is the desired terminal state declared for a monitor.
type Lifecycle string

const (
	LifecyclePresent Lifecycle = "present"
	LifecycleAbsent  Lifecycle = "absent"
	LifecycleStarted Lifecycle = "started"
	LifecyclePaused  Lifecycle = "paused"
)

// ParseLifecycle maps a declared state string onto a known Lifecycle value.
func ParseLifecycle(value string) (Lifecycle, error) {
	switch Lifecycle(strings.ToLower(strings.TrimSpace(value))) {
	case LifecyclePresent:
		return LifecyclePresent, nil
	case LifecycleAbsent:
		return LifecycleAbsent, nil
	case LifecycleStarted:
		return LifecycleStarted, nil
	case LifecyclePaused:
		return LifecyclePaused, nil
	default:
		return "", fmt.Errorf("unknown lifecycle %q (want present, absent, started or paused)", value)
	}
}

// MonitorStatus is the runtime status code reported by the monitoring service.
type MonitorStatus string

const (
	StatusPaused        MonitorStatus = "0"
	StatusNotCheckedYet MonitorStatus = "1"
	StatusUp            MonitorStatus = "2"
	StatusSeemsDown     MonitorStatus = "8"
	StatusDown          MonitorStatus = "9"
)

// Label renders the service status code as a stable human-readable word.
func (s MonitorStatus) Label() string {
	switch s {
	case StatusPaused:
		return "paused"
	case StatusNotCheckedYet:
		return "not_checked_yet"
	case StatusUp:
		return "up"
	case StatusSeemsDown:
		return "seems_down"
	case StatusDown:
		return "down"
	default:
		return fmt.Sprintf("status_%s", string(s))
	}
}

// MonitorSpec is one caller-declared desired monitor state.
type MonitorSpec struct {
	ID              string    `json:"id,omitempty" yaml:"id,omitempty"`
	Name            string    `json:"name,omitempty" yaml:"name,omitempty"`
	URL             string    `json:"url,omitempty" yaml:"url,omitempty"`
	AlertContactIDs []string  `json:"alert_contacts,omitempty" yaml:"alert_contacts,omitempty"`
	Lifecycle       Lifecycle `json:"state" yaml:"state"`
}

// Validate checks the field combinations that can be rejected before any
// remote call is made. Whether name and URL are required additionally
// depends on remote state and is enforced during reconciliation.
func (s MonitorSpec) Validate() error {
	if _, err := ParseLifecycle(string(s.Lifecycle)); err != nil {
		return err
	}
	if strings.TrimSpace(s.ID) == "" && strings.TrimSpace(s.Name) == "" && strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("at least one of id, name or url is required")
	}
	return nil
}

// DisplayName returns the most descriptive identity field set on the spec,
// used for report and log lines.
func (s MonitorSpec) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.URL != "" {
		return s.URL
	}
	return s.ID
}

// SearchTerm returns the term used to resolve the spec against the remote
// service when no explicit id is declared: name when present, else URL.
func (s MonitorSpec) SearchTerm() string {
	if s.Name != "" {
		return s.Name
	}
	return s.URL
}

// MonitorRecord is the remote service's authoritative view of one monitor.
type MonitorRecord struct {
	ID           string        `json:"id" yaml:"id"`
	FriendlyName string        `json:"friendly_name" yaml:"friendly_name"`
	URL          string        `json:"url" yaml:"url"`
	Status       MonitorStatus `json:"status" yaml:"status"`
}
