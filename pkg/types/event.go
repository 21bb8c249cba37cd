package types

import "time"

type EventType string

const (
	EventMonitorCreated EventType = "MonitorCreated"
	EventMonitorResumed EventType = "MonitorResumed"
	EventMonitorPaused  EventType = "MonitorPaused"
	EventMonitorDeleted EventType = "MonitorDeleted"
	EventMonitorInSync  EventType = "MonitorInSync"
)

type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"ts"`
	MonitorID string         `json:"monitor_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}
