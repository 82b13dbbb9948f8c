package response

import "time"

type APIResponse[T any] struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message,omitempty"`
	Snapshot *SnapshotInfo `json:"snapshot,omitempty"`
	Data     T             `json:"data,omitempty"`
}

// SnapshotInfo identifies the loaded table a response was computed from.
type SnapshotInfo struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	LoadedAt     time.Time `json:"loaded_at"`
	Rows         int       `json:"rows"`
	FilteredRows int       `json:"filtered_rows"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
