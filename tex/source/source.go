// Package source implements the character source described in §4.1: a
// lazy, restartable, position-aware sequence of codepoints with a
// pluggable resolver hook for \input, and Prepend support so the mouth
// can push replacement text back in front of whatever is still pending.
//
// The shape (Next/Peek/Skip/Prepend/Include, an explicit stack of
// sources, Next required before each Peek) is carried over from the
// teacher's latex/scanner.Scanner, generalised from a byte window to a
// decoded rune window and from a single BaseDir-relative Include to a
// pluggable Resolver so callers can back \input with anything (real
// files, an in-memory map, a network fetch) without the source package
// knowing about file systems.
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/gnieh/toolxit-tex/tex"
)

// Resolver turns an \input file name into a freshly opened reader. The
// returned io.ReadCloser is read to exhaustion (or closed early on
// Close) and decoded as UTF-8.
type Resolver interface {
	Resolve(name string) (io.ReadCloser, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(name string) (io.ReadCloser, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(name string) (io.ReadCloser, error) { return f(name) }

// Char is one decoded input character together with the position it
// was read from.
type Char struct {
	Rune rune
	Pos  tex.Position
}

type frame struct {
	name   string
	uuid   uuid.UUID
	reader *bufio.Reader
	closer io.Closer
	pos    tex.Position
	pend   []Char // Prepend buffer, consumed before reader
	err    error
	eof    bool
}

// Source is a stack of input frames: the top of the stack is read next
// (a \input or a Prepend), and once it is exhausted control returns to
// whatever is beneath it, exactly like the teacher's scanner stack.
type Source struct {
	Resolver Resolver

	frames []*frame
}

// New creates an empty Source. Use Prepend or Include (via a Resolver)
// to give it something to read.
func New(resolver Resolver) *Source {
	return &Source{Resolver: resolver}
}

// Prepend pushes an in-memory buffer as the next thing to be read,
// ahead of anything already pending. name identifies the buffer in
// positions and error messages.
func (s *Source) Prepend(data string, name string) {
	f := &frame{name: name, uuid: uuid.New(), pos: tex.NewSourcePosition(name)}
	f.pos.SourceUUID = f.uuid
	for _, r := range data {
		f.pend = append(f.pend, Char{Rune: r, Pos: f.pos})
		f.pos = tex.Advance(f.pos, r)
	}
	// reverse is unnecessary: pend is consumed front-to-back by index.
	s.frames = append(s.frames, f)
}

// Include resolves name via the Resolver and pushes it as the next
// thing to be read. It fails with the resolver's error if name cannot
// be opened.
func (s *Source) Include(name string) error {
	if s.Resolver == nil {
		return fmt.Errorf("\\input %s: no resolver configured", name)
	}
	rc, err := s.Resolver.Resolve(name)
	if err != nil {
		return err
	}
	f := &frame{
		name:   name,
		uuid:   uuid.New(),
		reader: bufio.NewReader(rc),
		closer: rc,
		pos:    tex.NewSourcePosition(name),
	}
	f.pos.SourceUUID = f.uuid
	s.frames = append(s.frames, f)
	return nil
}

// Next reports whether another character is available without
// consuming it. It must be called (and must return true) before each
// call to Peek, matching the teacher's Next()/Peek() contract.
func (s *Source) Next() bool {
	for len(s.frames) > 0 {
		top := s.frames[len(s.frames)-1]
		if len(top.pend) > 0 {
			return true
		}
		if top.reader == nil {
			s.popFrame()
			continue
		}
		if top.eof || top.err != nil {
			s.popFrame()
			continue
		}
		r, _, err := top.reader.ReadRune()
		if err != nil {
			if err == io.EOF {
				top.eof = true
			} else {
				top.err = err
			}
			if top.closer != nil {
				top.closer.Close()
			}
			s.popFrame()
			continue
		}
		top.pend = append(top.pend, Char{Rune: r, Pos: top.pos})
		top.pos = tex.Advance(top.pos, r)
		return true
	}
	return false
}

func (s *Source) popFrame() {
	s.frames = s.frames[:len(s.frames)-1]
}

// Peek returns the next character without consuming it. Next must have
// returned true immediately before this call.
func (s *Source) Peek() (Char, error) {
	if len(s.frames) == 0 {
		return Char{}, io.EOF
	}
	top := s.frames[len(s.frames)-1]
	if len(top.pend) == 0 {
		if top.err != nil {
			return Char{}, top.err
		}
		return Char{}, io.EOF
	}
	return top.pend[0], nil
}

// Skip consumes exactly one character (the one last returned by Peek).
// Unlike the teacher's byte-oriented Skip(n), the rune-oriented source
// only ever needs to skip one decoded character at a time; callers that
// want to skip a known run do so in a loop, since category
// classification can change mid-run (e.g. the ^^ preprocessor rewrites
// one rune into another that might be read differently on the next
// pass).
func (s *Source) Skip() {
	if len(s.frames) == 0 {
		return
	}
	top := s.frames[len(s.frames)-1]
	if len(top.pend) > 0 {
		top.pend = top.pend[1:]
	}
}

// PeekN returns up to n characters ahead of the current position
// without consuming any of them, aggregating across frames the way the
// teacher's Scanner.Next builds its peekBuf across multiple sources:
// once a frame's own buffer is exhausted (no reader, or that reader hit
// EOF or an error), peeking continues into the frame beneath it. It
// returns fewer than n characters at end of input, and an error only
// when zero characters could be produced.
func (s *Source) PeekN(n int) ([]Char, error) {
	var out []Char
	for i := len(s.frames) - 1; i >= 0 && len(out) < n; i-- {
		f := s.frames[i]
		for len(f.pend) < n-len(out) && f.reader != nil && !f.eof && f.err == nil {
			r, _, err := f.reader.ReadRune()
			if err != nil {
				if err == io.EOF {
					f.eof = true
				} else {
					f.err = err
				}
				break
			}
			f.pend = append(f.pend, Char{Rune: r, Pos: f.pos})
			f.pos = tex.Advance(f.pos, r)
		}

		take := f.pend
		if len(take) > n-len(out) {
			take = take[:n-len(out)]
		}
		out = append(out, take...)

		exhausted := len(take) == len(f.pend) && (f.reader == nil || f.eof || f.err != nil)
		if !exhausted {
			break
		}
	}
	if len(out) == 0 {
		return nil, io.EOF
	}
	return out, nil
}

// AbandonTop discards the top frame outright, whether or not it is
// exhausted, closing its reader if any. It backs the mouth's \endinput
// boundary (§4.3.1): once the current line finishes, the rest of that
// file is dropped even though more input remains in it.
func (s *Source) AbandonTop() {
	if len(s.frames) == 0 {
		return
	}
	top := s.frames[len(s.frames)-1]
	if top.closer != nil {
		top.closer.Close()
	}
	s.popFrame()
}

// CurrentSourceName returns the name of the innermost open source, or
// "" if the stack is empty.
func (s *Source) CurrentSourceName() string {
	if len(s.frames) == 0 {
		return ""
	}
	return s.frames[len(s.frames)-1].name
}

// Depth returns the number of currently open frames, used by the mouth
// to detect whether an \endinput boundary actually pops a frame.
func (s *Source) Depth() int {
	return len(s.frames)
}

// Close closes every still-open reader-backed frame.
func (s *Source) Close() error {
	var firstErr error
	for _, f := range s.frames {
		if f.closer != nil {
			if err := f.closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	s.frames = nil
	return firstErr
}

// StringResolver is a Resolver backed by an in-memory name->content map,
// useful for tests and for a REPL's virtual file system.
type StringResolver map[string]string

// Resolve implements Resolver.
func (m StringResolver) Resolve(name string) (io.ReadCloser, error) {
	content, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("unresolved \\input: %q", name)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

// FileResolver resolves \input against the real filesystem, mirroring
// the teacher's scanner.Scanner.BaseDir: relative names join against
// BaseDir, and the first file Resolve opens without an explicit BaseDir
// fixes it to that file's directory, so later relative \input calls
// stay anchored to the job's own directory rather than the process's
// working directory.
type FileResolver struct {
	BaseDir string
}

// Resolve implements Resolver.
func (r *FileResolver) Resolve(name string) (io.ReadCloser, error) {
	fileName := name
	if r.BaseDir != "" {
		fileName = filepath.Join(r.BaseDir, name)
	}
	if !strings.HasSuffix(fileName, ".tex") {
		if _, err := os.Stat(fileName); err != nil {
			if _, err2 := os.Stat(fileName + ".tex"); err2 == nil {
				fileName += ".tex"
			}
		}
	}

	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("\\input %s: %w", name, err)
	}

	if r.BaseDir == "" {
		abs, err := filepath.Abs(fileName)
		if err == nil {
			r.BaseDir = filepath.Dir(abs)
		}
	}
	return f, nil
}
