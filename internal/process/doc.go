// Package process supervises subprocesses.
//
// Process wraps os/exec for one subprocess: context-driven stop with SIGINT,
// force kill after a timeout, and line-by-line output delivery to an
// OutputHandler and the log.
//
// Pool manages named processes: Start/Stop/Restart by ID, state tracking
// (idle, starting, running, stopping, error) and hooks for command lookup,
// per-process setup and state changes.
//
//	pool := process.NewPool(&process.PoolOptions{
//		CommandProvider: func(id string) (string, error) {
//			return components[id].Program, nil
//		},
//		OnStateChange: func(id string, old, new process.State, err error) {
//			logger.Info("Component state", "id", id, "from", old, "to", new)
//		},
//	})
//	if err := pool.Start("GPS"); err != nil {
//		return err
//	}
//	defer pool.StopAll()
package process
