package dto

import "encoding/json"

const (
	LiveFrameRefresh = "refresh"
	LiveFrameError   = "error"
	LiveFrameReady   = "ready"
)

// LiveFrame is one message pushed to a live preview socket.
type LiveFrame struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}
