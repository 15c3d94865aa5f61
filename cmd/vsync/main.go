package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vsync/internal/config"
	"github.com/vango-dev/vsync/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	dir         string
	logLevel    string
	errorFormat string
}

func main() {
	os.Exit(execute(rootCmd(), os.Stderr))
}

// execute runs cmd and prints a failure to stderr in the --error-format
// style. It returns the process exit code.
func execute(cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	name, _ := cmd.PersistentFlags().GetString("error-format")
	style, ok := errors.ParseStyle(name)
	if !ok {
		style = errors.StyleText
	}
	errors.Fprint(stderr, err, style)
	return 1
}

func rootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "vsync",
		Short: "Keep a live document in sync with virtual trees",
		Long: `vsync reconciles virtual node trees into a live document with as few
mutations as possible, and streams those mutations to remote mirrors.

Settings are read from vsync.json in the working directory or one of
its parents. Every setting has a default, so the file is optional.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := errors.ParseStyle(g.errorFormat); !ok {
				return errors.New("E181").
					WithDetailf("--error-format %q is not text, compact or json", g.errorFormat)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&g.dir, "dir", "C", ".", "Directory to search for vsync.json")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&g.errorFormat, "error-format", string(errors.StyleText), "How failures are printed (text, compact, json)")

	cmd.AddCommand(
		demoCmd(g),
		diffCmd(g),
		serveCmd(g),
		watchCmd(),
		versionCmd(),
	)
	return cmd
}

// config loads vsync.json, applying flag overrides.
func (g *globals) config() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(g.dir)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// section prints a section heading.
func section(w io.Writer, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
