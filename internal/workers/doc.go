/*
Package workers sizes and runs the batch ingestion worker pool.

# Sizing

Worker counts are derived from runtime.GOMAXPROCS, which the Go runtime sets
from the container CPU limit, rather than runtime.NumCPU, which reports the
host:

	numWorkers := workers.ForCPU(8)   // 1 per CPU, max 8
	numWorkers := workers.ForIO(16)   // 2 per CPU, max 16
	numWorkers := workers.ForMixed(8) // 1.5 per CPU, max 8

Operators can pin the count with INGEST_WORKERS; the limit still applies.

# Running

Each fans a batch out over an errgroup bounded to the worker count:

	err := workers.Each(ctx, workers.ForMixed(8), len(paths), func(ctx context.Context, i int) error {
	    return ingestOne(ctx, paths[i])
	})

Every item still runs its own work sequentially; the pool only bounds how
many items are in flight.
*/
package workers
