package fisher

import "errors"

var (
	// ErrImageChallenge marks a challenge with no extractable code. No
	// automated solving strategy exists for the image case, so the loop
	// terminates instead of guessing. Callers distinguish this expected
	// stop from a crash with errors.Is.
	ErrImageChallenge = errors.New("image challenge issued")

	// ErrUnknownAction reports a pending action outside the enumerated
	// set. It indicates a logic defect, never remote input.
	ErrUnknownAction = errors.New("unknown pending action")

	// ErrAlreadyRunning is returned by Run when the loop is active.
	ErrAlreadyRunning = errors.New("loop is already running")
)
