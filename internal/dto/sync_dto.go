package dto

import "concept-visualizer-be/pkg/conceptsync"

// Client to server message types on the sync channel.
const (
	SyncMessageScroll = "scroll"
	SyncMessagePrev   = "prev"
	SyncMessageNext   = "next"
	SyncMessageJump   = "jump"
	SyncMessageClick  = "click"
)

// Server to client message types on the sync channel.
const (
	SyncMessageActive   = "active"
	SyncMessageProgress = "progress"
	SyncMessageSession  = "session"
	SyncMessageError    = "error"
)

// SyncInbound is a message read from a sync WebSocket client.
type SyncInbound struct {
	Type   string                   `json:"type"`
	Index  int                      `json:"index,omitempty"`
	Scroll *conceptsync.Observation `json:"scroll,omitempty"`
}

// SyncOutbound is a message written to sync WebSocket clients.
type SyncOutbound struct {
	Type      string                `json:"type"`
	SessionId string                `json:"session_id"`
	Active    *conceptsync.Snapshot `json:"active,omitempty"`
	// ScrollIntoView asks the client to scroll the active span into view.
	ScrollIntoView bool             `json:"scroll_into_view,omitempty"`
	Progress       *ProgressMessage `json:"progress,omitempty"`
	Status         string           `json:"status,omitempty"`
	Error          string           `json:"error,omitempty"`
}
