package models

import "time"

// EventRecord is one factory machine event as received on POST /events/batch.
// eventId is the dedup/conflict key; a negative defectCount means "unknown".
type EventRecord struct {
	EventID     string    `json:"eventId"`
	EventTime   time.Time `json:"eventTime"`
	MachineID   string    `json:"machineId"`
	DurationMs  int64     `json:"durationMs"`
	DefectCount int       `json:"defectCount"`
}

// StoredRecord is an accepted EventRecord plus the instant the store took it.
type StoredRecord struct {
	EventRecord
	ReceivedTime time.Time `json:"receivedTime"`
}

// HasKnownDefects reports whether DefectCount is a real count rather than the
// unknown sentinel.
func (r EventRecord) HasKnownDefects() bool {
	return r.DefectCount >= 0
}

// EqualsPayload reports whether two records describe the same logical event.
// The event id and arrival metadata are not part of the payload.
func (r StoredRecord) EqualsPayload(in EventRecord) bool {
	return r.EventTime.Equal(in.EventTime) &&
		r.MachineID == in.MachineID &&
		r.DurationMs == in.DurationMs &&
		r.DefectCount == in.DefectCount
}

// Rejection names a record that failed validation and why.
type Rejection struct {
	EventID string `json:"eventId"`
	Reason  string `json:"reason"`
}

// BatchResponse is returned by POST /events/batch.
// Records the store ignored as stale conflicts are not counted in any field.
type BatchResponse struct {
	BatchID    string      `json:"batchId"`
	Accepted   int         `json:"accepted"`
	Deduped    int         `json:"deduped"`
	Rejected   int         `json:"rejected"`
	Rejections []Rejection `json:"rejections"`
}

// Machine health status literals.
const (
	StatusHealthy = "Healthy"
	StatusWarning = "Warning"
)

// StatsResponse is returned by GET /stats.
type StatsResponse struct {
	MachineID     string    `json:"machineId"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	EventsCount   int64     `json:"eventsCount"`
	DefectsCount  int64     `json:"defectsCount"`
	AvgDefectRate float64   `json:"avgDefectRate"`
	Status        string    `json:"status"`
}
