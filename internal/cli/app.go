// Package cli implements the tourflow command line: a single-user workspace
// kept in a local SQLite file, with optional push to Supabase.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/assistant"
	"github.com/tourflow/tourflow/internal/logging"
	"github.com/tourflow/tourflow/internal/store"
	"github.com/tourflow/tourflow/internal/supabase"
)

// App carries the state shared by every command. The open hooks are
// replaced in tests.
type App struct {
	configPath string
	dbPath     string
	jsonOut    bool

	out   io.Writer
	cfg   FileConfig
	log   *zap.Logger
	store *store.Store
	close func() error

	openPersister func(ctx context.Context, path string) (store.Persister, func() error, error)
	newRemote     func(cfg FileConfig) (store.Remote, error)
	newCompleter  func(cfg FileConfig, log *zap.Logger) assistant.Completer
}

func NewApp(out io.Writer) *App {
	return &App{
		out:           out,
		log:           zap.NewNop(),
		openPersister: openSQLite,
		newRemote: func(cfg FileConfig) (store.Remote, error) {
			sc, err := cfg.supabaseConfig()
			if err != nil {
				return nil, err
			}
			return supabase.New(sc)
		},
		newCompleter: func(cfg FileConfig, log *zap.Logger) assistant.Completer {
			return assistant.NewClient(cfg.assistantConfig(), log)
		},
	}
}

func openSQLite(ctx context.Context, path string) (store.Persister, func() error, error) {
	p, err := store.OpenSQLite(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return p, p.Close, nil
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, out io.Writer, args []string) int {
	cmd := NewApp(out).Command()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

// Command builds the root command and its subtree.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "tourflow",
		Short:         "Plan tours, shows, gear and input lists from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringVar(&a.configPath, "config", filepath.Join(DefaultDir(), "config.yaml"), "config file")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "workspace database (overrides the config file)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of tables")

	root.AddCommand(
		a.tourCmd(),
		a.showCmd(),
		a.gearCmd(),
		a.inputsCmd(),
		a.parseCmd(),
		a.importCmd(),
		a.crewCmd(),
		a.docCmd(),
		a.taskCmd(),
		a.chatCmd(),
		a.syncCmd(),
		a.configCmd(),
	)
	return root
}

// needsStore reports whether cmd touches the workspace. The config
// subtree works without one.
func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["store"] == "none" {
			return false
		}
	}
	return true
}

func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.dbPath != "" {
		a.cfg.Database = a.dbPath
	}
	if log, err := logging.New("cli", a.cfg.LogLevel); err == nil {
		a.log = log
	}
	if !needsStore(cmd) {
		return nil
	}

	ctx := cmd.Context()
	p, closeFn, err := a.openPersister(ctx, a.cfg.Database)
	if err != nil {
		return fmt.Errorf("open workspace %s: %w", a.cfg.Database, err)
	}
	s, err := store.Open(ctx, p, store.WithLogger(a.log))
	if err != nil {
		if closeFn != nil {
			closeFn()
		}
		return err
	}
	a.store, a.close = s, closeFn
	return nil
}

func (a *App) teardown() error {
	_ = a.log.Sync()
	if a.close == nil {
		return nil
	}
	err := a.close()
	a.close = nil
	return err
}

// emit prints v as JSON with --json, otherwise runs table.
func (a *App) emit(v any, table func(w io.Writer)) error {
	if a.jsonOut {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}
