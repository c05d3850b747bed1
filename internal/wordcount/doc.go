// Package wordcount tokenizes uploaded text files and aggregates word
// frequencies across all files of a single request.
//
// Each file is read and counted as an independent unit of work. Units write
// their per-file counts into private slots which are merged on the joining
// goroutine once every unit has finished, so no map is shared between
// goroutines:
//
//	agg := wordcount.NewAggregator(logger, wordcount.Options{MaxConcurrency: 8})
//	res, err := agg.Aggregate(ctx, files)
//	if err != nil {
//		return err
//	}
//	sorted := res.Sorted() // count descending, word ascending on ties
//
// A file that cannot be read is reported in Result.Files and skipped; it never
// fails its siblings. Only cancellation of ctx aborts an aggregation, in which
// case all partial results are discarded.
package wordcount
