// Copyright © 2018 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errReported is returned by commands that have already rendered their
// failure to stderr.
var errReported = errors.New("error reported")

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "elisp",
	Short: "A small Emacs Lisp interpreter",
	Long: `elisp reads and evaluates a small dialect of Emacs Lisp.

Getting started:
  elisp run file.el              Run a source file
  elisp run -p -e '(+ 1 2)'      Evaluate an expression and print it
  elisp repl                     Start an interactive REPL
  elisp doc setq                 Show documentation for a special form
  elisp lsp                      Start the language server

Language overview:
  elisp is a Lisp-2: functions and variables live in separate namespaces.
  Variables are dynamically scoped. nil is both false and the empty list.
  Functions are defined with (defun name (args) body) and variables with
  (defvar name value).`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.elisp.yaml)")
	flags.String("color", "auto", `Control colored output: "auto", "always", or "never".`)
	flags.String("log-level", "warn", "Logging level (debug, info, warn, error)")
	flags.String("log-format", "text", `Log format: "text" or "json".`)
	flags.Int("max-stack-height", 0, "Maximum call stack height (0 uses the default)")
	flags.Int("max-steps", 0, "Maximum evaluation steps per top-level expression (0 is unlimited)")
	for _, name := range []string{"color", "log-level", "log-format", "max-stack-height", "max-steps"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".elisp")
	}

	viper.SetEnvPrefix("elisp")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err := configureLogging(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	}
}

// configureLogging applies the log-level and log-format settings to the
// standard logger.
func configureLogging() error {
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	switch format := viper.GetString("log-format"); format {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format: %q", format)
	}
	return nil
}
