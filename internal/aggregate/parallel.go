package aggregate

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/source"
	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/stats"
)

// foldParallel shards the statistics pass across workers. Each worker
// owns a private accumulator set, so no accumulator is ever shared
// between goroutines; partial sets are combined with Merge once all
// batches are drained. Batch boundaries are whole rows, which is what
// makes the merge equivalent to a sequential fold.
func (a *Aggregator) foldParallel(src *source.RowSource, schema source.Schema, kinds []stats.Kind) ([]*stats.Column, error) {
	workers := a.cfg.Workers

	batches := make(chan *source.Batch, workers)
	partials := make(chan []*stats.Column, workers)

	var wg sync.WaitGroup
	var rows atomic.Int64
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			columns := a.newColumns(schema, kinds)
			for batch := range batches {
				foldBatch(columns, batch)
				a.report("statistics", rows.Add(int64(len(batch.Rows))))
			}
			partials <- columns
		}()
	}

	var readErr error
	for {
		batch, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = err
			break
		}
		batches <- batch
	}
	close(batches)
	wg.Wait()
	close(partials)

	if readErr != nil {
		// Discard all partial accumulators; no partial result is ever
		// exposed.
		for range partials {
		}
		return nil, readErr
	}

	merged := <-partials
	for columns := range partials {
		for i := range merged {
			if err := merged[i].Merge(columns[i]); err != nil {
				return nil, err
			}
		}
	}
	return merged, nil
}
