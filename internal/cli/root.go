// Package cli implements padelctl, the command-line front end over a SQLite
// snapshot of the player graph.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	repository "github.com/okian/padel/internal/adapters/repository"
	service "github.com/okian/padel/internal/app"
	"github.com/okian/padel/internal/config"
	"github.com/okian/padel/pkg/logger"
)

// env carries what every subcommand needs once flags are parsed.
type env struct {
	dbPath  string
	verbose bool
	json    bool
	cfg     *config.Config
	log     logger.Logger
}

// NewRootCommand builds the padelctl command tree.
func NewRootCommand() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "padelctl",
		Short:         "Padel player graph and ranking analytics",
		Long:          "Seed, rank and explore padel players stored in a SQLite snapshot.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			e.cfg = cfg
			if !cmd.Flags().Changed("db") {
				e.dbPath = cfg.SQLitePath
			}

			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			level := "warn"
			if e.verbose {
				level = "debug"
			}
			_ = logger.SetLevelString(level)
			e.log = logger.Get()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&e.dbPath, "db", config.New().SQLitePath, "path to SQLite database")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().BoolVar(&e.json, "json", false, "print results as JSON instead of tables")

	root.AddCommand(
		newSeedCmd(e),
		newRankingsCmd(e),
		newPlayersCmd(e),
		newGraphCmd(e),
		newHistoryCmd(e),
		newH2HCmd(e),
		newProbeCmd(),
	)
	return root
}

// emit writes v as indented JSON when --json is set, otherwise renders it
// with table.
func (e *env) emit(w io.Writer, v any, table func(io.Writer)) error {
	if !e.json {
		table(w)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the SQLite snapshot.
func (e *env) openStore(ctx context.Context) (*repository.SQLite, error) {
	store, err := repository.OpenSQLite(ctx, e.dbPath, repository.WithLogger(e.log))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return store, nil
}

// withService runs fn against a started service over the snapshot.
func (e *env) withService(ctx context.Context, fn func(*service.Service) error) error {
	store, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	svc := service.New(
		service.WithSource(store),
		service.WithLogger(e.log.Named("service")),
		service.WithPageSize(e.cfg.PageSize),
		service.WithResolveBatchSize(e.cfg.ResolveBatchSize),
		service.WithResolveConcurrency(e.cfg.ResolveConcurrency),
		service.WithDefaultMinMatches(e.cfg.DefaultMinMatches),
		service.WithDefaultMinWeight(e.cfg.DefaultMinWeight),
		service.WithBroadScanThreshold(e.cfg.BroadScanThreshold),
		service.WithH2HEdgeLimit(e.cfg.H2HEdgeLimit),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return err
	}
	defer svc.Stop()
	return fn(svc)
}
