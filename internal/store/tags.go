package store

import (
	"database/sql"
	"fmt"
)

const tagColumns = "t.id, t.file_id, t.kind, t.name, t.is_definition, t.span_start, t.span_end, " +
	"t.name_start, t.name_end, t.line_start, t.line_end, t.row, t.col, t.docs"

func (s *Store) InsertTag(tag *Tag) (int64, error) {
	return insertTag(s.db, tag)
}

func insertTag(db execer, tag *Tag) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO tags (file_id, kind, name, is_definition, span_start, span_end,
		  name_start, name_end, line_start, line_end, row, col, docs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tag.FileID, tag.Kind, tag.Name, boolToInt(tag.IsDefinition), tag.SpanStart, tag.SpanEnd,
		tag.NameStart, tag.NameEnd, tag.LineStart, tag.LineEnd, tag.Row, tag.Col, tag.Docs,
	)
	if err != nil {
		return 0, fmt.Errorf("insert tag %q: %w", tag.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	tag.ID = id
	return id, nil
}

func scanTag(scanner interface{ Scan(...any) error }, extra ...any) (*Tag, error) {
	tag := &Tag{}
	var def int
	var docs sql.NullString
	dest := []any{
		&tag.ID, &tag.FileID, &tag.Kind, &tag.Name, &def, &tag.SpanStart, &tag.SpanEnd,
		&tag.NameStart, &tag.NameEnd, &tag.LineStart, &tag.LineEnd, &tag.Row, &tag.Col, &docs,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, fmt.Errorf("scan tag: %w", err)
	}
	tag.IsDefinition = def != 0
	if docs.Valid {
		tag.Docs = &docs.String
	}
	return tag, nil
}

// TagsByFile returns a file's tags in the order they were produced.
func (s *Store) TagsByFile(fileID int64) ([]*Tag, error) {
	rows, err := s.db.Query("SELECT "+tagColumns+" FROM tags t WHERE t.file_id = ? ORDER BY t.id", fileID)
	if err != nil {
		return nil, fmt.Errorf("tags by file: %w", err)
	}
	defer rows.Close()
	var tags []*Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// TagQuery selects tags for lookup. Empty fields match anything.
type TagQuery struct {
	Name           string
	Kind           string
	DefinitionOnly bool
	Limit          int
}

// FindTags returns tags matching q ordered by path and position.
func (s *Store) FindTags(q TagQuery) ([]*TagHit, error) {
	query := "SELECT " + tagColumns + ", f.path, f.language FROM tags t JOIN files f ON f.id = t.file_id WHERE 1=1"
	var args []any
	if q.Name != "" {
		query += " AND t.name = ?"
		args = append(args, q.Name)
	}
	if q.Kind != "" {
		query += " AND t.kind = ?"
		args = append(args, q.Kind)
	}
	if q.DefinitionOnly {
		query += " AND t.is_definition = 1"
	}
	query += " ORDER BY f.path, t.span_start, t.id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("find tags: %w", err)
	}
	defer rows.Close()
	var hits []*TagHit
	for rows.Next() {
		hit := &TagHit{}
		tag, err := scanTag(rows, &hit.Path, &hit.Language)
		if err != nil {
			return nil, err
		}
		hit.Tag = *tag
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// CountTags returns the number of stored tags per kind.
func (s *Store) CountTags() (map[string]int, error) {
	rows, err := s.db.Query("SELECT kind, COUNT(*) FROM tags GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("count tags: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
