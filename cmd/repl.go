// Copyright © 2018 The ELPS authors

package cmd

import (
	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/repl"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive REPL",
	Long: `Start an interactive read-eval-print loop.

Line editing, tab completion of bound names, and command history are
supported via readline. An expression may span several lines. Enter a line
beginning with q, or press Ctrl-D, to exit.

Example REPL session:
  elisp> (+ 1 2)
  3
  elisp> (defun square (x) (* x x))
  nil
  elisp> (square
     ...   5)
  25`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var evalOpts []lisp.Config
		if n := viper.GetInt("max-stack-height"); n > 0 {
			evalOpts = append(evalOpts, lisp.WithMaximumStackHeight(n))
		}
		return repl.RunRepl(repl.DefaultPrompt,
			repl.WithColor(colorMode()),
			repl.WithEvaluatorOptions(evalOpts...))
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
