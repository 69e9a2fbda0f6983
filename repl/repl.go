// Copyright © 2018 The ELPS authors

package repl

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/luthersystems/elisp/diagnostic"
	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/parser"
	"github.com/luthersystems/elisp/parser/lexer"
	"github.com/luthersystems/elisp/parser/rdparser"
	"github.com/luthersystems/elisp/parser/token"
	"github.com/sirupsen/logrus"
)

// DefaultPrompt and DefaultContinuation are the prompts shown before a new
// expression and while an expression is still open.
const (
	DefaultPrompt       = "elisp> "
	DefaultContinuation = "   ... "
)

type config struct {
	stdin       io.ReadCloser
	stdout      io.Writer
	stderr      io.Writer
	historyFile string
	color       diagnostic.ColorMode
	evalOpts    []lisp.Config
}

func newConfig(opts ...Option) *config {
	config := &config{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		historyFile: historyPath(),
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStdout allows overriding where values and prompts are written.
func WithStdout(stdout io.Writer) Option {
	return func(c *config) {
		c.stdout = stdout
	}
}

// WithStderr allows overriding where errors are written.
func WithStderr(stderr io.Writer) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithHistoryFile sets the readline history file.  An empty path disables
// history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.historyFile = path
	}
}

// WithColor sets the color mode for rendered errors.
func WithColor(mode diagnostic.ColorMode) Option {
	return func(c *config) {
		c.color = mode
	}
}

// WithEvaluatorOptions passes opts to the evaluator created by RunRepl.
func WithEvaluatorOptions(opts ...lisp.Config) Option {
	return func(c *config) {
		c.evalOpts = append(c.evalOpts, opts...)
	}
}

// RunRepl runs a repl in a fresh evaluator.
func RunRepl(prompt string, opts ...Option) error {
	cfg := newConfig(opts...)
	log := logrus.New()
	log.SetOutput(cfg.stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	evalOpts := []lisp.Config{
		lisp.WithReader(parser.NewReader()),
		lisp.WithStdout(cfg.stdout),
		lisp.WithStderr(cfg.stderr),
		lisp.WithLogger(log),
	}
	ev := lisp.NewEvaluator(append(evalOpts, cfg.evalOpts...)...)
	return RunEvaluator(ev, prompt, DefaultContinuation, opts...)
}

// RunEvaluator runs a repl that evaluates input in ev until input is closed
// or a line beginning with q is entered.
func RunEvaluator(ev *lisp.Evaluator, prompt, cont string, opts ...Option) error {
	cfg := newConfig(opts...)
	p := rdparser.NewInteractive(nil, rdparser.WithLogger(ev.Runtime.Logger))
	p.SetPrompts(prompt, cont)

	ensureHistoryFilePermissions(cfg.historyFile)
	rlCfg := &readline.Config{
		Stdout:            cfg.stdout,
		Stderr:            cfg.stderr,
		Prompt:            currentPrompt(ev, p),
		HistoryFile:       cfg.historyFile,
		HistorySearchFold: true,
		AutoComplete:      &symbolCompleter{ev: ev},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return err
	}
	defer rl.Close() //nolint:errcheck

	p.Read = func() []*token.Token {
		for {
			rl.SetPrompt(currentPrompt(ev, p))
			line, err := rl.ReadSlice()
			if err == readline.ErrInterrupt {
				continue
			}
			if err != nil {
				return []*token.Token{{Type: token.EOF}}
			}
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			if !p.IsParsing() && isQuit(line) {
				return []*token.Token{{Type: token.EOF}}
			}
			toks := lexer.New(token.NewScanner("stdin", bytes.NewReader(line))).ReadAll()
			return toks[:len(toks)-1]
		}
	}

	renderer := &diagnostic.Renderer{Color: cfg.color}
	for {
		expr, err := p.Parse()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			_ = renderer.Render(cfg.stderr, diagnostic.FromError(err))
			continue
		}
		ev.Runtime.ResetSteps()
		val, err := ev.Eval(expr)
		if err != nil {
			_ = renderer.Render(cfg.stderr, diagnostic.FromError(err))
			continue
		}
		fmt.Fprintln(cfg.stdout, val) //nolint:errcheck
	}
}

func currentPrompt(ev *lisp.Evaluator, p *rdparser.Interactive) string {
	if ev.Runtime.HidePrompt {
		return ""
	}
	return p.Prompt()
}

func isQuit(line []byte) bool {
	return len(line) > 0 && (line[0] == 'q' || line[0] == 'Q')
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".elisp_history")
}

// ensureHistoryFilePermissions creates path if necessary and restricts it
// to the current user.
func ensureHistoryFilePermissions(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0600)
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0600)
}
