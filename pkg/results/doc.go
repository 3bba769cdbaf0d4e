/*
Package results aggregates job outcomes outside the worker pool and writes
them out as rows.

Jobs record an Outcome in a shared Collector; the pool never sees it:

	collector := results.NewCollector[results.Row]()
	pool.Submit(workerpool.JobFunc(func(ctx context.Context) {
		row, err := fetch(ctx, id)
		if err != nil {
			collector.Add(results.Fail[results.Row](id, err))
			return
		}
		collector.Add(results.Succeed(id, row))
	}))

Once the pool has drained, the successful rows are written through a Sink:

	sink, err := results.Open(results.Config{Driver: "csv", Path: "reports.csv"})
	if err != nil {
		return err
	}
	defer sink.Close()
	err = sink.Write(ctx, results.Values(collector.OK()))

Rows are ordered column sets. Rows with different columns are merged into
one table whose header is the union of every column in first-seen order,
with empty cells where a row lacks a column.
*/
package results
