package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/gnieh/toolxit-tex/tex/engine"
)

// replCommand drops into an interactive line-buffered session: each
// line typed is appended to the same running engine, so macro
// definitions persist across lines exactly like a TeX terminal
// session reading from the console. Grounded in nperez-losp's
// term.IsTerminal/MakeRaw/Restore sequence (cmd/losp/repl.go), trimmed
// to this engine's needs: no custom key bindings, just raw mode so a
// future history/editing feature has somewhere to grow into.
func replCommand(args []string) {
	fs := newFlagSetForRepl(args)
	cfg, err := loadConfig(fs.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	eng := engine.New(nil, "repl")
	applyConfig(eng, cfg)

	fmt.Println("toolxit-tex repl (Ctrl+D to exit)")

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		runLineLoop(eng, bufio.NewScanner(os.Stdin))
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Not fatal: fall back to plain line buffering over the tty.
		runLineLoop(eng, bufio.NewScanner(os.Stdin))
		return
	}
	defer term.Restore(fd, oldState)

	runRawLineLoop(eng, fd)
}

type replFlags struct {
	config string
}

func newFlagSetForRepl(args []string) replFlags {
	var f replFlags
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			f.config = args[i+1]
			i++
		}
	}
	return f
}

// runLineLoop handles the non-raw case: a plain bufio.Scanner reading
// whole lines, used for piped input or when raw mode is unavailable.
func runLineLoop(eng *engine.Engine, scanner *bufio.Scanner) {
	fmt.Print("> ")
	for scanner.Scan() {
		evalLine(eng, scanner.Text())
		fmt.Println()
		fmt.Print("> ")
	}
}

// runRawLineLoop reads one line at a time in raw mode, byte by byte, so
// Ctrl+D/Ctrl+C are seen directly rather than buffered by the tty
// driver — the same contract nperez-losp's readLineRaw relies on, minus
// its Alt-key operator shorthand, which has no analogue here.
func runRawLineLoop(eng *engine.Engine, fd int) {
	fmt.Print("> ")
	for {
		line, eof := readLineRaw(fd)
		if eof {
			fmt.Print("\r\n")
			return
		}
		evalLine(eng, line)
		fmt.Print("\r\n> ")
	}
}

func readLineRaw(fd int) (string, bool) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return string(line), true
		}
		switch buf[0] {
		case 0x04: // Ctrl+D
			if len(line) == 0 {
				return "", true
			}
		case 0x0d, 0x0a: // Enter
			return string(line), false
		case 0x7f, 0x08: // Backspace
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Print("\b \b")
			}
		case 0x03: // Ctrl+C: discard the current line
			fmt.Print("^C\r\n> ")
			line = nil
		default:
			if buf[0] >= 0x20 && buf[0] < 0x7f {
				line = append(line, buf[0])
				fmt.Print(string(buf[0]))
			}
		}
	}
}

// evalLine feeds one line of input to the shared engine and prints the
// kind name (Kind.String) of every token it expands to, space-separated,
// not its \meaning text, stopping at the line's own end-of-input rather
// than the whole session's.
func evalLine(eng *engine.Engine, line string) {
	eng.Src.Prepend(line+"\n", "<repl>")
	for {
		tok, err := eng.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, engine.FormatError(err))
			return
		}
		fmt.Printf("%s ", tok.Kind.String())
	}
}
