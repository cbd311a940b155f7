// Package engine implements §5's orchestrator: it wires a character
// source, an environment and a mouth together into one job, and drives
// the mouth to exhaustion either as a pull iterator or, mirroring the
// teacher's latex/tokenize.go ParseTex(chan<- *Token) error signature,
// as a producer feeding a buffered channel from its own goroutine.
package engine

import (
	"fmt"
	"io"

	"github.com/gnieh/toolxit-tex/tex"
	"github.com/gnieh/toolxit-tex/tex/env"
	"github.com/gnieh/toolxit-tex/tex/mouth"
	"github.com/gnieh/toolxit-tex/tex/source"
)

// Engine is one TeX job: a source of characters, the environment it
// reads categories and bindings from, and the mouth driving expansion.
type Engine struct {
	Env   *env.Environment
	Src   *source.Source
	Mouth *mouth.Mouth
}

// New builds an Engine reading jobName's primary input through resolver
// (used to satisfy any \input it issues). The caller supplies the
// primary input via src.Prepend or src.Include before the first Next/
// ParseTex call.
func New(resolver source.Resolver, jobName string) *Engine {
	e := env.New()
	e.SetPlainTeXCategories()
	src := source.New(resolver)
	return &Engine{
		Env:   e,
		Src:   src,
		Mouth: mouth.New(src, e, jobName),
	}
}

// Next pulls one expanded primitive token, or io.EOF once the job's
// input is exhausted. It is the pull-iterator half of §5's dual API.
func (eng *Engine) Next() (*tex.Token, error) {
	return eng.Mouth.Next()
}

// Stats reports the running counters the CLI harness prints on exit.
type Stats struct {
	TokensEmitted int
	MacrosDefined int
	GroupsEntered int
}

// Stats snapshots the mouth's running counters.
func (eng *Engine) Stats() Stats {
	return Stats{
		TokensEmitted: eng.Mouth.TokensEmitted,
		MacrosDefined: eng.Mouth.MacrosDefined,
		GroupsEntered: eng.Mouth.GroupsEntered,
	}
}

// ParseTex drains the engine into res, one token at a time, until
// exhaustion or error — the channel-consumer half of §5's dual API,
// named and shaped after the teacher's tokenizer.Tokenizer.ParseTex.
// The caller owns res and must range over it; ParseTex does not close
// it (matching the teacher, whose caller does `close(c)` itself).
func (eng *Engine) ParseTex(res chan<- *tex.Token) error {
	for {
		tok, err := eng.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		res <- tok
	}
}

// Run drives ParseTex on a background goroutine and returns a channel
// of tokens plus a function to retrieve the eventual error, convenient
// for callers that just want `for tok := range toks`.
func Run(eng *Engine) (<-chan *tex.Token, func() error) {
	c := make(chan *tex.Token, 64)
	errc := make(chan error, 1)
	go func() {
		err := eng.ParseTex(c)
		close(c)
		errc <- err
	}()
	return c, func() error { return <-errc }
}

// FormatError renders a *tex.Error (or any error) the way the CLI
// harness surfaces it: positioned user/internal errors keep their own
// Error() text, everything else is wrapped with a generic prefix.
func FormatError(err error) string {
	if terr, ok := err.(*tex.Error); ok {
		return terr.Error()
	}
	return fmt.Sprintf("error: %v", err)
}
