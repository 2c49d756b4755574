package propagation

import (
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/skywatch/skycore/internal/metrics"
	"github.com/skywatch/skycore/internal/tle"
)

// PropagateAll parses and propagates each record independently. Records that
// fail to parse are logged and excluded — partial success is the contract,
// one bad record never fails the batch. Output preserves the input order of
// the surviving records.
//
// Each record is independent, so the batch fans out across a bounded set of
// goroutines.
func PropagateAll(records []tle.CatalogRecord, at time.Time, logger *slog.Logger) []Position {
	if len(records) == 0 {
		return []Position{}
	}

	start := time.Now()
	results := make([]*Position, len(records))
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

	for i, rec := range records {
		wg.Add(1)
		go func(idx int, rec tle.CatalogRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			el, err := tle.FromRecord(rec)
			if err != nil {
				logger.Warn("skipping record in batch propagation",
					"name", rec.ObjectName,
					"norad_id", rec.NoradCatID,
					"error", err,
				)
				return
			}
			p := Propagate(el, at)
			results[idx] = &p
		}(i, rec)
	}

	wg.Wait()

	positions := make([]Position, 0, len(records))
	for _, p := range results {
		if p != nil {
			positions = append(positions, *p)
		}
	}

	metrics.RecordPropagation(time.Since(start), len(positions), len(records)-len(positions))

	return positions
}
