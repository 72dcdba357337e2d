package tags

import (
	"bytes"
	"strings"

	"github.com/jward/tags/internal/query"
)

// assemble builds the tag for an accepted match. A match without a name
// capture yields no tag.
func (c *Configuration) assemble(m *query.Match, source []byte) (Tag, bool) {
	if c.nameID < 0 {
		return Tag{}, false
	}
	name, ok := m.First(c.nameID)
	if !ok {
		return Tag{}, false
	}

	info := c.kinds[c.query.Pattern(m.Pattern).KindCapture()]
	start := int(name.Node.StartByte())
	pt := name.Node.StartPoint()
	tag := Tag{
		Kind:         info.kind,
		IsDefinition: info.definition,
		NameRange:    Range{Start: start, End: int(name.Node.EndByte())},
		LineRange:    lineRange(source, start),
		Span:         Range{Start: int(m.Anchor.StartByte()), End: int(m.Anchor.EndByte())},
		StartPoint:   Point{Row: int(pt.Row), Column: int(pt.Column)},
	}

	if c.docID >= 0 {
		var docs []string
		for _, capt := range m.Captures {
			if capt.Index == c.docID {
				docs = append(docs, capt.Text(source))
			}
		}
		if len(docs) > 0 {
			joined := strings.Join(docs, "\n")
			tag.Docs = &joined
		}
	}
	return tag, true
}

// lineRange returns the line around offset, excluding the newlines that
// bound it.
func lineRange(source []byte, offset int) Range {
	start := bytes.LastIndexByte(source[:offset], '\n') + 1
	end := len(source)
	if i := bytes.IndexByte(source[offset:], '\n'); i >= 0 {
		end = offset + i
	}
	return Range{Start: start, End: end}
}
