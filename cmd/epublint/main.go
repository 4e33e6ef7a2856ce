package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"epublint/pkg/report"
	"epublint/pkg/validate"
)

const version = "0.1.0"

var (
	jsonOutput  bool
	showUsage   bool
	verbose     bool
	maxMessages int
)

var rootCmd = &cobra.Command{
	Use:     "epublint <file.epub> [file.epub...]",
	Short:   "Validate EPUB container structure and cross-references",
	Args:    cobra.MinimumNArgs(1),
	Version: version,
	RunE:    run,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "write the report as JSON to stdout")
	rootCmd.Flags().BoolVar(&showUsage, "usage", false, "include USAGE and INFO level messages")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().IntVar(&maxMessages, "max-messages", 0, "cap the number of reported messages (0 = unlimited)")
}

func run(cmd *cobra.Command, args []string) error {
	log := newLogger()

	worst := 0
	for _, path := range args {
		log.Debug().Str("file", path).Msg("validating")

		rep, err := validate.ValidateWithOptions(path, validate.Options{
			MaxMessages: maxMessages,
		})
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("validation failed")
			worst = max(worst, 2)
			continue
		}

		if !showUsage {
			rep = filterUsage(rep)
		}
		if jsonOutput {
			if err := rep.WriteJSON(os.Stdout); err != nil {
				return err
			}
		} else {
			rep.WriteText(os.Stderr)
		}

		switch {
		case rep.FatalCount() > 0:
			worst = max(worst, 2)
		case rep.ErrorCount() > 0:
			worst = max(worst, 1)
		}
	}

	os.Exit(worst)
	return nil
}

// filterUsage drops USAGE and INFO messages from the report.
func filterUsage(rep *report.Report) *report.Report {
	out := report.NewReport()
	for _, m := range rep.Messages {
		if m.Severity == report.Usage || m.Severity == report.Info {
			continue
		}
		out.Messages = append(out.Messages, m)
	}
	out.Suppressed = rep.Suppressed
	return out
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}
