// Package main is the command line entry point of the intake engine.
package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hireflow/intake-engine/internal/config"
	"github.com/hireflow/intake-engine/internal/store"
	"github.com/hireflow/intake-engine/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	dbPath     string

	db  *sql.DB
	svc *usecase.Service
)

var rootCmd = &cobra.Command{
	Use:           "intake",
	Short:         "Applicant intake engine",
	Long:          "intake drives applicant interviews: per-fact todos, chat turn accounting, fallback to manual input and the submission gate.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and exit",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "intake %s (commit=%s, built=%s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides db_path from config)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if db != nil {
		db.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration, opens the store and wires the usecases. It is
// the PreRunE of every command that touches the database.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	logger := cfg.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(logger)

	db, err = store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	svc = usecase.New(&store.UnitOfWork{DB: db}, usecase.Options{
		Caps:         cfg.Caps(),
		DefaultAgent: cfg.Agent(),
		Logger:       logger,
	})
	logger.Debug("store opened", "db_path", cfg.DBPath)
	return nil
}

// loadConfig resolves the config path: --config flag > INTAKE_CONFIG env >
// auto-discover next to exe or in cwd. Without any file the defaults apply.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("INTAKE_CONFIG")
	}
	if path == "" {
		path = discoverConfig()
	}
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

var configNames = []string{"intake.yaml", "intake.yml", "config.json"}

// discoverConfig looks for a config file next to the executable, then in the cwd.
func discoverConfig() string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	dirs = append(dirs, ".")

	for _, dir := range dirs {
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
