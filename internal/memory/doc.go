// Package memory sets the Go memory limit from the container limit and gates
// batch ingestion on heap usage.
//
// # Memory Limit
//
// GOMAXPROCS follows cgroup CPU limits automatically; GOMEMLIMIT does not.
// [ConfigureFromEnv] derives it from the container limit so that decoding a
// batch of large images collects garbage before the container is OOM-killed:
//
//   - GOMEMLIMIT: standard Go variable; when set it wins and nothing is changed
//   - MEMORY_LIMIT: container memory limit in bytes (Kubernetes Downward API)
//   - MEMORY_RATIO: fraction of MEMORY_LIMIT given to the Go heap (default:
//     0.85). libvips and OpenCV allocate outside the Go heap, so lower it when
//     decoding very large HEIC files or running DNN inference on the CPU.
//
// Kubernetes example:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.75"
//
// # Backpressure
//
// A [Monitor] samples heap allocation against the limit. Once usage reaches
// the critical mark, [Monitor.Wait] blocks new files from starting until usage
// falls back under the high-water mark. Files already in flight always finish.
// Without a limit the monitor never pauses.
package memory
