package domain

// ProgressSink receives extraction progress. Implementations must tolerate
// calls from a goroutine other than the one that configured them.
type ProgressSink interface {
	SetTotal(total int64)
	Increment(n int64)
	Finish()
}

type Journal interface {
	Begin(rec *Record) error
	Complete(id string, bytes, entries int64) error
	Fail(id string, cause error) error
	Get(id string) (*Record, error)
	List(limit int) ([]Record, error)
	Close() error
}
