package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagBatch_FakeIDs(t *testing.T) {
	t.Parallel()

	batch := NewTagBatch(File{Path: "/a.py", Language: "python"})
	id1, err := batch.InsertTag(&Tag{Name: "a", Kind: "Function"})
	require.NoError(t, err)
	id2, err := batch.InsertTag(&Tag{Name: "b", Kind: "Call"})
	require.NoError(t, err)

	assert.Equal(t, int64(-1), id1)
	assert.Equal(t, int64(-2), id2)
	assert.Equal(t, 2, batch.Len())
}

func TestCommitBatch_InsertsFileAndTags(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	batch := NewTagBatch(File{Path: "/a.py", Language: "python", Hash: "h1", LastIndexed: time.Now()})
	_, _ = batch.InsertTag(&Tag{Name: "Customer", Kind: "Class", IsDefinition: true, Docs: ptr("doc")})
	_, _ = batch.InsertTag(&Tag{Name: "compute_age", Kind: "Call"})
	require.NoError(t, s.CommitBatch(batch))

	assert.Positive(t, batch.File.ID)
	for _, tag := range batch.Tags {
		assert.Positive(t, tag.ID)
		assert.Equal(t, batch.File.ID, tag.FileID)
	}

	tags, err := s.TagsByFile(batch.File.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Customer", tags[0].Name)
	assert.Equal(t, "compute_age", tags[1].Name)
}

func TestCommitBatch_ReplacesPreviousVersion(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	old := insertTestFile(t, s, "/a.py", "python")
	insertTestTag(t, s, old.ID, "stale", "Function", 0)

	batch := NewTagBatch(File{Path: "/a.py", Language: "python", Hash: "h2", LastIndexed: time.Now()})
	_, _ = batch.InsertTag(&Tag{Name: "fresh", Kind: "Function", IsDefinition: true})
	require.NoError(t, s.CommitBatch(batch))

	f, err := s.FileByPath("/a.py")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "h2", f.Hash)

	hits, err := s.FindTags(TagQuery{Name: "stale"})
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = s.FindTags(TagQuery{Name: "fresh"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "/a.py", hits[0].Path)
}
