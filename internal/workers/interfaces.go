// Package workers runs the platform's background loops: the task dispatcher
// draining the in-process queue and the sweeper retiring expired listings
// and sessions. The Workers aggregate starts and stops them as one unit.
package workers

import "context"

// Worker is a background loop with an explicit lifecycle. Start launches the
// loop and returns immediately; Stop cancels it and blocks until the loop
// has fully exited. Stop is safe to call when the worker is not running.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
