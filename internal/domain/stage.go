package domain

// StageStatus tracks a single stage's progress inside a run.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// StageRecord is one audit entry per executed stage. Records are
// append-only and never consulted for control flow.
type StageRecord struct {
	Stage  string      `json:"stage"`
	Status StageStatus `json:"status"`
	Input  string      `json:"input,omitempty"`
	Output string      `json:"output,omitempty"`
	Err    string      `json:"error,omitempty"`
}
