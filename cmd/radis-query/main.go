package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/radis/radis/internal/config"
	"github.com/radis/radis/internal/domain/search"
	"github.com/radis/radis/internal/platform/batch"
	"github.com/radis/radis/internal/platform/query"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// errQueriesFixed is returned by "check --strict" when any query needed repairs.
var errQueriesFixed = errors.New("some queries needed repairs or were empty")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "radis-query",
		Short:        "Validate and repair RADIS boolean search queries",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [query...]",
		Short: "Repair and parse a single query",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			showTree, _ := cmd.Flags().GetBool("tree")
			format, _ := cmd.Flags().GetString("format")

			cfg, logger, err := setup(cmd, format)
			if err != nil {
				return err
			}

			svc := newSearchService(cfg, logger)
			v, err := svc.Validate(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			if cfg.OutputFormat == config.FormatJSON {
				return writeParseJSON(cmd.OutOrStdout(), v, showTree)
			}
			return writeParseText(cmd.OutOrStdout(), v, showTree)
		},
	}
	cmd.Flags().Bool("tree", false, "Print the parsed expression tree")
	cmd.Flags().String("format", "", "Output format: text or json (default from OUTPUT_FORMAT)")
	return cmd
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate every query of a batch file",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			field, _ := cmd.Flags().GetString("field")
			strict, _ := cmd.Flags().GetBool("strict")
			format, _ := cmd.Flags().GetString("format")

			cfg, logger, err := setup(cmd, format)
			if err != nil {
				return err
			}
			logger = logger.With().Str("run_id", uuid.NewString()).Logger()

			var opts []batch.Option
			if field != "" {
				opts = append(opts, batch.WithJSONField(field))
			}
			reader, err := batch.Open(input, opts...)
			if err != nil {
				return err
			}
			defer reader.Close()

			logger.Info().Str("input", input).Msg("check started")

			svc := newSearchService(cfg, logger)
			w := newCheckWriter(cmd.OutOrStdout(), cfg.OutputFormat)
			var sum checkSummary
			for {
				rec, err := reader.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}

				v, err := svc.Validate(cmd.Context(), rec.Query)
				if err != nil {
					return fmt.Errorf("line %d: %w", rec.Line, err)
				}
				sum.add(v)
				if err := w.record(rec.Line, v); err != nil {
					return err
				}
			}
			if err := w.summary(sum); err != nil {
				return err
			}

			logger.Info().
				Int("total", sum.Total).
				Int("fixed", sum.Fixed).
				Int("empty", sum.Empty).
				Msg("check finished")

			if strict && (sum.Fixed > 0 || sum.Empty > 0) {
				return errQueriesFixed
			}
			return nil
		},
	}
	cmd.Flags().StringP("input", "i", "", "Query file (.gz and .zst are decompressed, - reads stdin)")
	cmd.Flags().String("field", "", "Read NDJSON and take the query from this field")
	cmd.Flags().Bool("strict", false, "Fail when any query needed repairs or was empty")
	cmd.Flags().String("format", "", "Output format: text or json (default from OUTPUT_FORMAT)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "radis-query %s\n", version)
			return err
		},
	}
}

// setup loads the configuration, applies a --format override and builds the
// logger that writes to the command's error stream.
func setup(cmd *cobra.Command, format string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if format != "" {
		cfg.OutputFormat = strings.ToLower(format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, newLogger(cfg, cmd.ErrOrStderr()), nil
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return logger.Level(cfg.ZerologLevel())
}

func newSearchService(cfg *config.Config, logger zerolog.Logger) *search.Service {
	return search.NewService(query.NewParser(), logger, search.WithMaxQueryLength(cfg.MaxQueryLength))
}
