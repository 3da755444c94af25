package tui

import (
	"github.com/MKhiriev/go-agent-platform/internal/devstack"
)

// stepEventMsg carries one runner progress notification into the model.
type stepEventMsg devstack.Event

// eventsClosedMsg means the runner is done and closed its event channel.
type eventsClosedMsg struct{}
