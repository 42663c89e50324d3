// Package memory sets the Go soft memory limit for containerised deployments.
//
// GOMAXPROCS follows cgroup CPU limits automatically; GOMEMLIMIT does not.
// The transcoder spends most of its memory in FFmpeg child processes rather
// than the Go heap, so only a share of the container limit is handed to the
// runtime.
//
// Call [Configure] early in main with the values from configuration:
//
//	memory.Configure(config.MemoryLimit, config.MemoryRatio)
//
// # Settings
//
//   - GOMEMLIMIT: standard Go variable. When set it wins and Configure only
//     reports it.
//   - MEMORY_LIMIT: container limit in bytes, usually injected through the
//     Kubernetes Downward API (resources.limits.memory).
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap, in (0, 1].
//     Defaults to 0.5.
//
// Example Downward API wiring:
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
//	  - name: MEMORY_RATIO
//	    value: "0.5"
package memory
