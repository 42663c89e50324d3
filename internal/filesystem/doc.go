/*
Package filesystem manages the per-request scratch workspaces used while an
object is downloaded and transcoded.

# Layout

Every request gets its own directory under the scratch root, named by a
random UUID:

	<SCRATCH_DIR>/
	    .locks/                      file lock backend (ignored here)
	    3f0c.../src                  downloaded source object
	    3f0c.../dest                 encoder output

Concurrent requests never share paths, even for the same object.

# Usage

	space, err := filesystem.NewScratchSpace(cfg.ScratchDir)
	if err != nil {
	    return err
	}

	ws, err := space.Create()
	if err != nil {
	    return err
	}
	defer ws.Cleanup()

Cleanup is best effort: it retries transient removal errors (ESTALE, EBUSY,
ENOTEMPTY) with exponential backoff, logs and counts a final failure, and
never fails the request. [ScratchSpace.Sweep] removes workspaces left behind
by a crashed process and runs once at startup.

# Metrics

Create and cleanup timings and cleanup failures are reported through an
[Observer] registered with [SetObserver]; the metrics package provides the
Prometheus implementation.
*/
package filesystem
