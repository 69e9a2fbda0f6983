// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/parser/rdparser"
	"github.com/luthersystems/elisp/parser/token"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// source is a named unit of program text.
type source struct {
	name string
	text string
}

// RunCommand creates the "run" cobra command.
func RunCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts...)

	var (
		exprs       []string
		printValues bool
		trace       string
		traceFile   string
	)

	cmd := &cobra.Command{
		Use:   "run [flags] [FILE...]",
		Short: "Run lisp code",
		Long: `Run lisp code supplied in files or on the command line.

Files are evaluated in order in a single evaluator, followed by any -e
expressions. Evaluation stops at the first error, which is reported with
its source location and call stack.

Examples:
  elisp run lib.el main.el
  elisp run -p -e '(* 6 7)'
  elisp run --trace otel --log-level info main.el
  elisp run --trace callgrind --trace-file callgrind.out main.el`,
		RunE: func(_ *cobra.Command, args []string) error {
			var sources []source
			for _, path := range args {
				b, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				sources = append(sources, source{name: path, text: string(b)})
			}
			for i, expr := range exprs {
				sources = append(sources, source{name: fmt.Sprintf("-e[%d]", i), text: expr})
			}
			if len(sources) == 0 {
				return fmt.Errorf("no files or expressions to run")
			}
			if trace == "" {
				trace = viper.GetString("trace")
			}
			if traceFile == "" {
				traceFile = viper.GetString("trace-file")
			}
			return cfg.run(sources, printValues, trace, traceFile)
		},
	}

	cmd.Flags().StringArrayVarP(&exprs, "expression", "e", nil,
		"Evaluate an expression after any files (may be repeated)")
	cmd.Flags().BoolVarP(&printValues, "print", "p", false,
		"Print the value of the last expression of each file or expression")
	cmd.Flags().StringVar(&trace, "trace", "",
		`Profile function calls: "none", "otel", "opencensus", "callgrind", or "pprof"`)
	cmd.Flags().StringVar(&traceFile, "trace-file", "",
		"Output file for callgrind and pprof profiles (default \""+defaultTraceFile+"\")")
	return cmd
}

func (c *cmdConfig) run(sources []source, printValues bool, trace, traceFile string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ev := c.newEvaluator(lisp.WithContext(ctx))
	complete, err := startTracing(ctx, ev, trace, traceFile, logrus.StandardLogger())
	if err != nil {
		return err
	}
	defer func() {
		if err := complete(); err != nil {
			logrus.WithError(err).Warn("trace incomplete")
		}
	}()

	texts := make(map[string]string, len(sources))
	for _, src := range sources {
		texts[src.name] = src.text
	}
	for _, src := range sources {
		p := rdparser.New(token.NewStringScanner(src.name, src.text),
			rdparser.WithLogger(logrus.StandardLogger()))
		exprs, err := p.ParseProgram()
		if err != nil {
			renderError(c.stderr, err, texts)
			return errReported
		}
		v := lisp.Nil()
		for _, expr := range exprs {
			ev.Runtime.ResetSteps()
			v, err = ev.Eval(expr)
			if err != nil {
				renderError(c.stderr, err, texts)
				return errReported
			}
		}
		if printValues {
			fmt.Fprintln(c.stdout, v) //nolint:errcheck
		}
	}
	return nil
}

func init() {
	cmd := RunCommand()
	_ = viper.BindPFlag("trace", cmd.Flags().Lookup("trace"))
	_ = viper.BindPFlag("trace-file", cmd.Flags().Lookup("trace-file"))
	rootCmd.AddCommand(cmd)
}
