package judge

// Verdict is the outcome of capturing one reference solution. Content holds
// the re-encoded subtask content and is only set when the capture succeeded.
type Verdict struct {
	SubtaskID string
	StatusID  int
	Message   string
	Content   string
}
