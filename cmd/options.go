// Copyright © 2024 The ELPS authors

package cmd

import (
	"io"
	"os"

	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/parser"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Option configures an exported command factory (RunCommand, DocCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	evalOpts []lisp.Config
	stdout   io.Writer
	stderr   io.Writer
}

func newCmdConfig(opts ...Option) *cmdConfig {
	c := &cmdConfig{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithEvaluatorOptions appends opts to the options used to construct
// evaluators, after the ones derived from configuration.
func WithEvaluatorOptions(opts ...lisp.Config) Option {
	return func(c *cmdConfig) { c.evalOpts = append(c.evalOpts, opts...) }
}

// WithOutput redirects command output.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *cmdConfig) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// newEvaluator returns an evaluator configured from viper settings and the
// command options.
func (c *cmdConfig) newEvaluator(extra ...lisp.Config) *lisp.Evaluator {
	opts := []lisp.Config{
		lisp.WithReader(parser.NewReader()),
		lisp.WithStdout(c.stdout),
		lisp.WithStderr(c.stderr),
		lisp.WithLogger(logrus.StandardLogger()),
	}
	if n := viper.GetInt("max-stack-height"); n > 0 {
		opts = append(opts, lisp.WithMaximumStackHeight(n))
	}
	if n := viper.GetInt("max-steps"); n > 0 {
		opts = append(opts, lisp.WithMaxSteps(n))
	}
	opts = append(opts, c.evalOpts...)
	opts = append(opts, extra...)
	return lisp.NewEvaluator(opts...)
}
