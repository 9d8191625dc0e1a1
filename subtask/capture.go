package subtask

const (
	CaptureUnknown int = iota
	PendingCapture
	Capturing
	Captured
	ExecutionError
	RestrictionViolated
)

// InitialCaptureStatus queues SQL content whose reference query has not been
// executed yet.
func InitialCaptureStatus(c Content) int {
	sc, ok := c.(SQLContent)
	if !ok || sc.Solution == nil {
		return CaptureUnknown
	}
	if sc.Solution.Query != "" && len(sc.Solution.Rows) == 0 && len(sc.Solution.Columns) == 0 {
		return PendingCapture
	}
	return Captured
}
