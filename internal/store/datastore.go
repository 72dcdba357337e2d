package store

// TagSink receives the tags of one file. Store writes them straight to
// SQLite; TagBatch buffers them for a later CommitBatch.
type TagSink interface {
	InsertTag(tag *Tag) (int64, error)
}

var (
	_ TagSink = (*Store)(nil)
	_ TagSink = (*TagBatch)(nil)
)
