/*
Package workers sizes concurrency limits in containerized environments.

Go sets GOMAXPROCS from the container CPU limit, while runtime.NumCPU still
reports the host's CPUs. Counts here derive from GOMAXPROCS so that a pod
limited to 2 cores on a 64-core node runs 2 encoders, not 64.

Each FFmpeg encode is CPU-bound and single-request, so the transcoder uses
[Resolve] to cap concurrent encodes:

	slots := workers.Resolve(cfg.MaxConcurrentEncodes, 0)
	trans.SetConcurrency(slots)

A positive MAX_CONCURRENT_ENCODES is used as-is; zero means one per CPU.
*/
package workers
