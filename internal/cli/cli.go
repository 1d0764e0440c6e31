package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iamwavecut/tarabot/internal/config"
	"github.com/iamwavecut/tarabot/internal/db"
	"github.com/iamwavecut/tarabot/internal/db/sqlite"
	"github.com/iamwavecut/tarabot/internal/ledger"
)

// App is the offline administration tool. It works on the same store as the bot.
type App struct {
	rootCmd *cobra.Command
	out     io.Writer

	dbDir  string
	dbName string

	store  db.Client
	ledger *ledger.Ledger

	version string
}

func New() *App {
	app := &App{out: os.Stdout}
	app.setupRootCmd()
	return app
}

func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

func (a *App) ExecuteContext(ctx context.Context) error {
	return a.rootCmd.ExecuteContext(ctx)
}

func (a *App) SetVersion(version string) {
	a.version = version
	a.rootCmd.Version = version
}

func (a *App) SetOutput(w io.Writer) {
	a.out = w
	a.rootCmd.SetOut(w)
	a.rootCmd.SetErr(w)
}

func (a *App) SetArgs(args []string) {
	a.rootCmd.SetArgs(args)
}

func (a *App) setupRootCmd() {
	storage, err := config.LoadStorage()
	if err != nil {
		storage = config.Storage{DBName: "tarabot.db"}
	}

	a.rootCmd = &cobra.Command{
		Use:   "tarabotctl",
		Short: "Manage tarabot groups, reviewers and warnings",
		Long: `tarabotctl edits the tarabot database directly: registered groups,
reviewer links and allow-lists, warning counts and warning history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	a.rootCmd.PersistentFlags().StringVar(&a.dbDir, "db-dir", storage.DotPath, "Directory holding the database")
	a.rootCmd.PersistentFlags().StringVar(&a.dbName, "db-name", storage.DBName, "Database file name")

	a.rootCmd.AddCommand(
		NewGroupsCmd(a),
		NewReviewersCmd(a),
		NewACLCmd(a),
		NewWarningsCmd(a),
		NewHistoryCmd(a),
	)
}

func (a *App) open(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if a.dbDir == "" {
		return fmt.Errorf("database directory is not set, use --db-dir or TARA_DOT_PATH")
	}
	client, err := sqlite.NewSQLiteClient(ctx, a.dbDir, a.dbName)
	if err != nil {
		return err
	}
	a.store = client
	a.ledger = ledger.New(client)
	return nil
}

func (a *App) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	a.ledger = nil
	return err
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
