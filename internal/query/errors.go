package query

import "fmt"

// ErrorKind classifies a compile failure.
type ErrorKind int

const (
	ErrorSyntax ErrorKind = iota + 1
	ErrorPredicate
	ErrorCapture
	ErrorStructure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorSyntax:
		return "syntax"
	case ErrorPredicate:
		return "predicate"
	case ErrorCapture:
		return "capture"
	case ErrorStructure:
		return "structure"
	}
	return "unknown"
}

// Error reports why a query could not be compiled. Pattern is the 0-based
// index of the top-level pattern being compiled when the failure occurred;
// Row and Column are 0-based and point at the offending construct.
type Error struct {
	Kind    ErrorKind
	Pattern int
	Offset  int
	Row     int
	Column  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error in pattern %d at row %d, column %d: %s",
		e.Kind, e.Pattern, e.Row, e.Column, e.Message)
}

// position converts a byte offset into a 0-based row/column pair.
func position(src string, offset int) (row, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	lineStart := 0
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			row++
			lineStart = i + 1
		}
	}
	return row, offset - lineStart
}
