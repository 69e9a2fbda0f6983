// Copyright © 2021 The ELPS authors

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/parser/rdparser"
	"github.com/luthersystems/elisp/parser/token"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultDocWidth = 72

// DocCommand creates the "doc" cobra command.
func DocCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts...)

	var (
		sourceFile string
		list       bool
		width      int
	)

	cmd := &cobra.Command{
		Use:   "doc [flags] NAME",
		Short: "Show documentation for functions, special forms, and variables",
		Long: `Show the docstring and calling convention of a primitive, a special
form, or a variable.

Use -f to load a source file first, which documents the functions and
variables it defines with defun and defvar. Use -l to list every primitive
and special form.

Examples:
  elisp doc car
  elisp doc setq
  elisp doc -f mylib.el my-func
  elisp doc -l`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 {
				width = defaultDocWidth
			}
			out := bufio.NewWriter(cfg.stdout)
			defer out.Flush() //nolint:errcheck
			if list {
				return renderBuiltinList(out, width)
			}
			if len(args) != 1 {
				_ = cmd.Help()
				return fmt.Errorf("expected exactly one name")
			}
			ev := cfg.newEvaluator()
			if sourceFile != "" {
				if err := cfg.loadFile(ev, sourceFile); err != nil {
					return err
				}
			}
			return renderDoc(out, ev, args[0], width)
		},
	}

	cmd.Flags().StringVarP(&sourceFile, "source-file", "f", "",
		"Evaluate a lisp source file before querying documentation")
	cmd.Flags().BoolVarP(&list, "list", "l", false,
		"List all primitives and special forms")
	cmd.Flags().IntVarP(&width, "width", "w", defaultDocWidth,
		"Wrap documentation at this column")
	return cmd
}

// loadFile evaluates the file at path in ev, rendering any error.
func (c *cmdConfig) loadFile(ev *lisp.Evaluator, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	texts := map[string]string{path: string(b)}
	p := rdparser.New(token.NewStringScanner(path, string(b)), rdparser.WithLogger(logrus.StandardLogger()))
	exprs, err := p.ParseProgram()
	if err != nil {
		renderError(c.stderr, err, texts)
		return errReported
	}
	for _, expr := range exprs {
		if _, err := ev.Eval(expr); err != nil {
			renderError(c.stderr, err, texts)
			return errReported
		}
	}
	return nil
}

type docEntry struct {
	kind      string
	signature string
	doc       string
}

// lookupDoc finds documentation for name.  Functions defined in ev take
// precedence over primitives, which take precedence over variables.
func lookupDoc(ev *lisp.Evaluator, name string) (docEntry, bool) {
	if b := ev.Functions.Lookup(name); b != nil && b.Kind == lisp.BindFunction {
		return docEntry{"function", lisp.FormalsString(name, b.Value.Cells[0]), b.Doc}, true
	}
	if doc, ok := lisp.LookupBuiltin(name); ok {
		kind := "primitive"
		if doc.Special {
			kind = "special form"
		}
		return docEntry{kind, doc.Signature, doc.Doc}, true
	}
	if b := ev.Variables.Lookup(name); b != nil {
		return docEntry{"variable", name, b.Doc}, true
	}
	return docEntry{}, false
}

func renderDoc(w io.Writer, ev *lisp.Evaluator, name string, width int) error {
	entry, ok := lookupDoc(ev, name)
	if !ok {
		return fmt.Errorf("no documentation for %s", name)
	}
	doc := entry.doc
	if doc == "" {
		doc = "Not documented."
	}
	body := indent.String(wordwrap.String(doc, width-2), 2)
	_, err := fmt.Fprintf(w, "%s: %s\n%s\n", entry.kind, entry.signature, body)
	return err
}

func renderBuiltinList(w io.Writer, width int) error {
	for _, doc := range lisp.Builtins() {
		summary := doc.Doc
		if i := strings.Index(summary, ".  "); i >= 0 {
			summary = summary[:i+1]
		}
		line := truncate.StringWithTail(fmt.Sprintf("%-18s %s", doc.Name, summary), uint(width), "...")
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(DocCommand())
}
