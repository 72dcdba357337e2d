package store

import "time"

type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	LastIndexed time.Time
}

// Tag is a stored tag. Offsets are bytes into the file's content at the time
// it was indexed.
type Tag struct {
	ID           int64
	FileID       int64
	Kind         string
	Name         string
	IsDefinition bool
	SpanStart    int
	SpanEnd      int
	NameStart    int
	NameEnd      int
	LineStart    int
	LineEnd      int
	Row          int
	Col          int
	Docs         *string
}

// TagHit is a tag joined with the path of its file.
type TagHit struct {
	Tag
	Path     string
	Language string
}
