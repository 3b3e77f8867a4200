package models

// AttemptResult is the outcome of a single go on a climb.
type AttemptResult string

const (
	ResultSend AttemptResult = "send"
	ResultFall AttemptResult = "fall"
	ResultRest AttemptResult = "rest"
)

// Attempt is one go on a climb.
type Attempt struct {
	ID      string
	ClimbID string
	Number  int
	Result  AttemptResult
	Note    string
	Syncable
}
