// Package executor schedules per-connection work detached from the
// accept loop. The protocol engine hands units of work to Spawn and never
// waits for them; the server drains them with Wait during shutdown.
package executor

import (
	"sync"

	"oxbowlabs/oxbow/pkg/log"
)

// Executor runs units of work concurrently, fire-and-forget. Panics
// inside a unit of work are recovered and logged so a single connection
// cannot take down the accept loop, and errors never propagate to the
// spawner.
type Executor struct {
	logger *log.Logger
	wg     sync.WaitGroup
}

// New returns an Executor that logs recovered panics through logger.
func New(logger *log.Logger) *Executor {
	return &Executor{logger: logger}
}

// Spawn submits task for independent concurrent execution and returns
// immediately.
func (e *Executor) Spawn(task func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.logger.ErrorMsg("Task panic: %v\n", r)
			}
		}()
		task()
	}()
}

// Wait blocks until every spawned unit of work has completed. Shutdown is
// cooperative: nothing is aborted.
func (e *Executor) Wait() {
	e.wg.Wait()
}
