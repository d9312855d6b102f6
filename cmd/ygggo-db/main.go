package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	ggd "github.com/yggai/ygggo_db"
)

var (
	version = "dev"
	commit  = "none"
)

type options struct {
	configPath string
	debug      bool
	htmlTrace  bool
	verbosity  int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "ygggo-db",
		Short:         "Run a single parameterized statement through the ygggo_db accessor",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogger(stderr, opts.verbosity, opts.debug)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (YGGGO_DB_* env vars override it)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Emit a debug trace for the statement")
	rootCmd.PersistentFlags().BoolVar(&opts.htmlTrace, "html-trace", false, "Write debug traces as HTML comments instead of log records")
	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "Increase verbosity (-v debug)")

	rootCmd.AddCommand(
		statementCmd(opts, "select", "Print every row as a JSON array", func(ctx context.Context, db *ggd.Accessor, q string, p []any) (any, error) {
			return db.QuerySelect(ctx, q, p...)
		}),
		statementCmd(opts, "single", "Print the first row as a JSON object", func(ctx context.Context, db *ggd.Accessor, q string, p []any) (any, error) {
			return db.QuerySelectSingle(ctx, q, p...)
		}),
		statementCmd(opts, "insert", "Print the last insert id", func(ctx context.Context, db *ggd.Accessor, q string, p []any) (any, error) {
			id, err := db.QueryInsert(ctx, q, p...)
			return map[string]int64{"id": id}, err
		}),
		statementCmd(opts, "update", "Print whether any row was affected", func(ctx context.Context, db *ggd.Accessor, q string, p []any) (any, error) {
			ok, err := db.QueryUpdate(ctx, q, p...)
			return map[string]bool{"updated": ok}, err
		}),
		statementCmd(opts, "exec", "Print the affected row count", func(ctx context.Context, db *ggd.Accessor, q string, p []any) (any, error) {
			st, err := db.Query(ctx, q, p...)
			if err != nil {
				return nil, err
			}
			n, err := st.RowCount()
			return map[string]int64{"rows": n}, err
		}),
		&cobra.Command{
			Use:   "ping",
			Short: "Check the connection and print the health status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				db, err := open(ctx, opts, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				defer db.Close()

				status := db.HealthCheck(ctx)
				if err := writeJSON(cmd.OutOrStdout(), status); err != nil {
					return err
				}
				if !status.Healthy {
					return fmt.Errorf("database unhealthy: %d failed checks", len(status.Errors))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "ygggo-db %s (commit: %s, library: %s)\n", version, commit, ggd.Version())
			},
		},
	)
	return rootCmd
}

type runFunc func(ctx context.Context, db *ggd.Accessor, query string, params []any) (any, error)

func statementCmd(opts *options, use, short string, run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " SQL [PARAM...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := open(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer db.Close()

			params := make([]any, 0, len(args)-1)
			for _, a := range args[1:] {
				params = append(params, a)
			}
			out, err := run(ctx, db, args[0], params)
			if err != nil {
				if errors.Is(err, ggd.ErrNoRows) {
					log.Warn().Str("query", args[0]).Msg("no rows")
				}
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func open(ctx context.Context, opts *options, stderr io.Writer) (*ggd.Accessor, error) {
	cfg, err := ggd.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.debug {
		cfg.Debug = true
	}

	// Each invocation gets its own accessor so flags never leak between runs
	// in one process.
	db := ggd.Instance[ggd.Accessor](ggd.NewRegistry())
	db.SetDebug(opts.debug)
	if opts.verbosity >= 1 {
		db.SetLogger(ggd.NewZerologLogger(log.Logger))
	}
	if opts.htmlTrace {
		db.SetTracer(ggd.HTMLTracer{W: stderr})
	} else {
		db.SetTracer(ggd.LogTracer{Logger: ggd.NewZerologLogger(log.Logger)})
	}
	if err := db.Setup(ctx, cfg); err != nil {
		log.Error().Str("driver", cfg.Driver).Msg(db.ConnectError())
		return nil, err
	}
	log.Debug().Str("driver", cfg.Driver).Str("name", cfg.Name).Msg("Database connection established")
	return db, nil
}

// initLogger logs warnings by default; --debug raises it to info so traces
// show, -v to debug.
func initLogger(w io.Writer, verbosity int, debug bool) {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.InfoLevel
	}
	if verbosity >= 1 {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger()
}
