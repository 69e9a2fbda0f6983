// Copyright © 2024 The ELPS authors

package cmd

import (
	"io"
	"os"

	"github.com/luthersystems/elisp/diagnostic"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func colorMode() diagnostic.ColorMode {
	mode, err := diagnostic.ParseColorMode(viper.GetString("color"))
	if err != nil {
		logrus.WithError(err).Warn("using automatic color mode")
	}
	return mode
}

// newRenderer returns a renderer which reads source text from sources
// before falling back to the file system.
func newRenderer(sources map[string]string) *diagnostic.Renderer {
	return &diagnostic.Renderer{
		Color: colorMode(),
		SourceReader: func(name string) ([]byte, error) {
			if text, ok := sources[name]; ok {
				return []byte(text), nil
			}
			return os.ReadFile(name)
		},
	}
}

// renderError renders err with diagnostic formatting to w.
func renderError(w io.Writer, err error, sources map[string]string) {
	_ = newRenderer(sources).Render(w, diagnostic.FromError(err))
}
