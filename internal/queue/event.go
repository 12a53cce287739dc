// Package queue defines message payloads exchanged over the message broker.
package queue

// WorkLogRecordedEvent is published whenever a work log lands in a bonsai's
// history: a direct entry, an edited one, or a pending task converted into
// history. It carries enough for downstream consumers to log or notify
// without querying the primary database.
type WorkLogRecordedEvent struct {
	WorkLogID  uint64 `json:"work_log_id"`
	BonsaiID   uint64 `json:"bonsai_id"`
	BonsaiName string `json:"bonsai_name,omitempty"`
	UserID     uint64 `json:"user_id"`
	UserEmail  string `json:"user_email,omitempty"`
	Technique  string `json:"technique,omitempty"`
	Fecha      string `json:"fecha"`
	Source     string `json:"source"` // "manual", "update" or "task"
	RecordedAt string `json:"recorded_at"`
}
