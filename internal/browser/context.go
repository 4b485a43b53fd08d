package browser

import "context"

// combineContext derives an operational context from the session context,
// which carries the CDP target, that is additionally cancelled when the
// caller's context is. Deriving from the session side is mandatory: a
// context without the target information cannot run browser actions.
func combineContext(sessionCtx, callerCtx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(sessionCtx)

	go func() {
		select {
		case <-callerCtx.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
