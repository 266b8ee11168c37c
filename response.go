package icydb

// Response is the façade every terminal returns: the rows collected (empty
// for pure aggregates), an opaque continuation token for paginated calls,
// whether more rows exist beyond this page, and the metrics gathered while
// executing.
type Response struct {
	Rows      []Row
	Cursor    []byte
	HasMore   bool
	Metrics   ExecuteMetrics
	Aggregate *AggregateResult
}
