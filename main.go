// main.go -
//
// toolxit-tex drives the eyes/mouth engine over a file or stdin and,
// with --trace, prints a \meaning-style line for every token of the
// resulting primitive token stream, mirroring the teacher's
// flag-driven, single-binary CLI (seehuhn/epublatex's own main.go)
// generalised to this engine's two subcommands.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/gnieh/toolxit-tex/tex"
	"github.com/gnieh/toolxit-tex/tex/engine"
	"github.com/gnieh/toolxit-tex/tex/source"
	"github.com/gnieh/toolxit-tex/tex/stomach"
)

// config is the YAML document --config accepts: initial category-code
// overrides, \escapechar, and an \input base directory. The first
// input_path entry, when present, replaces the primary input's
// directory as the file resolver's BaseDir; later entries are not used.
type config struct {
	EscapeChar *int           `yaml:"escape_char"`
	Categories map[string]int `yaml:"categories"`
	InputPath  []string       `yaml:"input_path"`
}

func loadConfig(path string) (*config, error) {
	if path == "" {
		return &config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func applyConfig(eng *engine.Engine, cfg *config) {
	if cfg.EscapeChar != nil {
		eng.Env.SetEscapeChar(rune(*cfg.EscapeChar), true)
	}
	for k, cat := range cfg.Categories {
		r := []rune(k)
		if len(r) != 1 {
			continue
		}
		eng.Env.SetCategory(r[0], tex.Category(cat), true)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		runCommand(os.Args[2:])
	case "repl":
		replCommand(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: toolxit-tex run <file> [--input NAME=PATH ...] [--config PATH] [--trace]")
	fmt.Fprintln(os.Stderr, "       toolxit-tex repl [--config PATH]")
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	trace := fs.Bool("trace", false, "print a \\meaning-style trace of every emitted token")
	var inputs stringListFlag
	fs.Var(&inputs, "input", "NAME=PATH, registers an in-memory \\input source (repeatable)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	inputName := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	resolver := buildResolver(inputName, inputs, cfg)
	jobName := strings.TrimSuffix(filepath.Base(inputName), ".tex")
	eng := engine.New(resolver, jobName)
	applyConfig(eng, cfg)

	if err := eng.Src.Include(filepath.Base(inputName)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	st := stomach.New(eng.Env)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for {
		tok, err := eng.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, engine.FormatError(err))
			os.Exit(1)
		}
		st.Accept(tok)
	}
	if *trace {
		st.WriteTrace(out)
	}

	stats := eng.Stats()
	fmt.Fprintf(os.Stderr, "tokens emitted: %s\n", humanize.Comma(int64(stats.TokensEmitted)))
	fmt.Fprintf(os.Stderr, "macros defined: %s\n", humanize.Comma(int64(stats.MacrosDefined)))
	fmt.Fprintf(os.Stderr, "groups entered: %s\n", humanize.Comma(int64(stats.GroupsEntered)))
	fmt.Fprintf(os.Stderr, "lines: %s, paragraphs: %s\n",
		humanize.Comma(int64(st.Lines)), humanize.Comma(int64(st.Paragraphs)))
}

// stringListFlag accumulates repeated --input NAME=PATH occurrences.
type stringListFlag []string

func (f *stringListFlag) String() string { return strings.Join(*f, ",") }
func (f *stringListFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

// buildResolver registers any --input NAME=PATH pairs as in-memory
// sources and falls back to the real filesystem (rooted at the config's
// first input_path entry if given, otherwise at the primary input's
// directory, per §4.1's BaseDir rule) for everything else.
func buildResolver(inputName string, inputs stringListFlag, cfg *config) source.Resolver {
	strMap := source.StringResolver{}
	for _, kv := range inputs {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		data, err := os.ReadFile(parts[1])
		if err == nil {
			strMap[parts[0]] = string(data)
		}
	}

	fileResolver := &source.FileResolver{BaseDir: filepath.Dir(inputName)}
	if len(cfg.InputPath) > 0 {
		fileResolver.BaseDir = cfg.InputPath[0]
	}

	if len(strMap) == 0 {
		return fileResolver
	}
	return chainResolver{strMap, fileResolver}
}

// chainResolver tries each Resolver in order, the way \input falls back
// from an in-memory override to the real filesystem.
type chainResolver []source.Resolver

func (c chainResolver) Resolve(name string) (io.ReadCloser, error) {
	var lastErr error
	for _, r := range c {
		rc, err := r.Resolve(name)
		if err == nil {
			return rc, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
