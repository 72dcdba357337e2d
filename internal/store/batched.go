package store

import "sync"

// TagBatch buffers a file record and its tags in memory so a worker can
// produce them without touching SQLite. Buffered tags get fake (negative)
// IDs; CommitBatch assigns real ones.
//
// The mutex protects fake ID allocation and slice appends.
type TagBatch struct {
	File File

	mu         sync.Mutex
	Tags       []Tag
	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *TagBatch satisfies TagSink.
var _ TagSink = (*TagBatch)(nil)

// NewTagBatch creates a batch for file. The file's ID is assigned on commit.
func NewTagBatch(file File) *TagBatch {
	return &TagBatch{
		File:       file,
		nextFakeID: -1,
	}
}

func (b *TagBatch) InsertTag(tag *Tag) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tag.ID = b.nextFakeID
	b.nextFakeID--
	b.Tags = append(b.Tags, *tag)
	return tag.ID, nil
}

// Len returns the number of buffered tags.
func (b *TagBatch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Tags)
}
