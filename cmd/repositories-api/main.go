package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nigel2392/go-django-repositories/internal/api"
	"github.com/Nigel2392/go-django-repositories/internal/app/fixtures"
	"github.com/Nigel2392/go-django-repositories/internal/app/models"
	"github.com/Nigel2392/go-django-repositories/internal/config"
	queries "github.com/Nigel2392/go-django-repositories/src"
	"github.com/Nigel2392/go-django-repositories/src/migrator"
	_ "github.com/Nigel2392/go-django-repositories/src/migrator/sql/mysql"
	_ "github.com/Nigel2392/go-django-repositories/src/migrator/sql/postgres"
	_ "github.com/Nigel2392/go-django-repositories/src/migrator/sql/sqlite"
	"github.com/Nigel2392/go-django/src/core/logger"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "repositories-api",
	Short: "Example API on top of the repositories query builder",
	Long: `repositories-api serves the example domain of the repositories
query builder over HTTP.

Settings are read from config.yaml in the config directory and from
DJANGO_LIKE_REPOSITORIES__* environment variables.

Examples:
  # Create the tables and load the demo rows into a sqlite database
  DJANGO_LIKE_REPOSITORIES__DB__DRIVERNAME=sqlite DJANGO_LIKE_REPOSITORIES__DB__NAME=demo.db repositories-api migrate --seed

  # Serve the API
  repositories-api serve`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configDir)
		if err != nil {
			return err
		}
		setupLogger(cfg.Log)
		return nil
	},
}

var (
	configDir string
	seed      bool
	cfg       config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", ".", "Directory holding config.yaml")

	migrateCmd.Flags().BoolVar(&seed, "seed", false, "Load the demo rows after creating the tables")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		var db, err = openDB(cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()

		if !cfg.Log.Debug {
			gin.SetMode(gin.ReleaseMode)
		}

		var server = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.NewHandler(db, cfg.HTTP),
			ReadHeaderTimeout: 10 * time.Second,
		}

		var ctx, stop = signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var errCh = make(chan error, 1)
		go func() {
			logger.Info(fmt.Sprintf("Listening on %s", cfg.HTTP.Addr))
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		var shutdownCtx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the tables of the example domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		var db, err = openDB(cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()

		metas, err := models.All()
		if err != nil {
			return err
		}

		var ctx = cmd.Context()
		if err := migrator.CreateTables(ctx, db, metas...); err != nil {
			return err
		}

		if !seed {
			return nil
		}
		return queries.Run(ctx, db, func(s *queries.Session) error {
			return fixtures.Load(ctx, s)
		})
	},
}

func openDB(c config.DatabaseConfig) (*sqlx.DB, error) {
	var driverName, err = c.Driver()
	if err != nil {
		return nil, err
	}
	dsn, err := c.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driverName, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	return db, nil
}

func setupLogger(c config.LogConfig) {
	var debug io.Writer = io.Discard
	if c.Debug {
		debug = os.Stdout
	}
	logger.Setup(&logger.Logger{
		Level:       logger.DBG,
		WrapPrefix:  logger.ColoredLogWrapper,
		OutputDebug: debug,
		OutputInfo:  os.Stdout,
		OutputWarn:  os.Stdout,
		OutputError: os.Stderr,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
