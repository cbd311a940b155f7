// Package tex holds the data types shared by every stage of the engine:
// positions, category codes and the token representation produced by the
// eyes and consumed (and re-produced) by the mouth.
package tex

import (
	"fmt"

	"github.com/google/uuid"
)

// Position identifies a single input character by the source it came
// from plus its line/column within that source. SourceID is the
// human-readable name used in error messages (a file name, or a label
// such as "input" for an in-memory buffer); SourceUUID disambiguates two
// sources that happen to share a name, e.g. two \input of files that
// were later renamed, or two in-memory buffers prepended under the same
// label.
type Position struct {
	SourceID   string
	SourceUUID uuid.UUID
	Offset     int
	Line       int
	Column     int
}

// NewSourcePosition starts a fresh position at the beginning of a newly
// opened source.
func NewSourcePosition(name string) Position {
	return Position{
		SourceID:   name,
		SourceUUID: uuid.New(),
		Line:       1,
		Column:     1,
	}
}

// Advance computes the position that follows pos after consuming the
// character c. '\n' starts a new line; every other character advances
// the column. This is a pure function, as required by the spec: it
// never mutates pos.
func Advance(pos Position, c rune) Position {
	next := pos
	next.Offset = pos.Offset + 1
	if c == '\n' {
		next.Line = pos.Line + 1
		next.Column = 1
	} else {
		next.Column = pos.Column + 1
	}
	return next
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Described renders the position together with its source name, as
// "<source>, line <line>:<col>"; user-facing error messages print it
// after "at " ("at <source>, line <line>:<col>: ...").
func (p Position) Described() string {
	return fmt.Sprintf("%s, line %d:%d", p.SourceID, p.Line, p.Column)
}
