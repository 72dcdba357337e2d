package store

import "fmt"

// CommitBatch replaces the batch's file and its tags within a single
// transaction. A previous record for the same path is deleted first, taking
// its tags with it. On success the batch's File.ID and tag IDs are real.
func (s *Store) CommitBatch(batch *TagBatch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM files WHERE path = ?", batch.File.Path); err != nil {
		return fmt.Errorf("commit batch: delete %s: %w", batch.File.Path, err)
	}
	fileID, err := insertFile(tx, &batch.File)
	if err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	batch.mu.Lock()
	defer batch.mu.Unlock()
	for i := range batch.Tags {
		tag := &batch.Tags[i]
		tag.FileID = fileID
		if _, err := insertTag(tx, tag); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: commit: %w", err)
	}
	return nil
}
