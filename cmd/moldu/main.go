package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moldu/assistant/internal/backend"
	"github.com/moldu/assistant/internal/session"
	"github.com/moldu/assistant/internal/store"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	dbPath     string
	jsonOutput bool
	verbose    bool
	userID     string
	backendURL string
	tokenPath  string

	db     *store.DB
	sess   *session.Session
	client *backend.Client
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "moldu",
	Short: "moldu - chat assistant routing engine",
	Long:  "Moldu: route chat turns through the structured command grammar, intent resolver, and backend dispatch pipeline.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = buildLogger()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		// Pure-table commands need no store or backend.
		switch cmd.Name() {
		case "help", "version", "classify", "combos":
			return nil
		}

		path := dbPath
		if path == "" {
			path = store.DiscoverDB()
		}
		if path == "" {
			path = store.DefaultDBPath()
		}
		db, err = store.Open(path)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}

		sess = session.New(userID, logger.Named("session"))
		if blob, err := db.LoadSession(userID); err == nil && blob != nil {
			sess.Restore(*blob)
		}

		httpClient, err := backend.NewAuthClient(context.Background(), tokenPath)
		if err != nil {
			return fmt.Errorf("backend auth: %w", err)
		}
		client = backend.NewClient(backendURL, httpClient, logger.Named("backend"))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			if sess != nil {
				if err := db.SaveSession(userID, sess.Export()); err != nil {
					logger.Warn("could not persist session", zap.Error(err))
				}
			}
			db.Close()
		}
		if logger != nil {
			logger.Sync()
		}
	},
}

func buildLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("moldu version %s\n", Version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the session store",
	RunE: func(cmd *cobra.Command, args []string) error {
		// PersistentPreRunE already created the store at the resolved path.
		fmt.Printf("Initialized session store at %s\n", db.Path())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Session database path (default: auto-discover .moldu/assistant.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose diagnostic logging")
	rootCmd.PersistentFlags().StringVar(&userID, "user", envDefault("MOLDU_USER", "local"), "User identity for session persistence")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", envDefault("MOLDU_BACKEND_URL", "http://localhost:8080"), "Assistant backend base URL")
	rootCmd.PersistentFlags().StringVar(&tokenPath, "token", os.Getenv("MOLDU_TOKEN_PATH"), "OAuth token file path (optional)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// defaultMailFile is where the file-backed mail host looks for the
// "selected" message when --mail-file is not given.
func defaultMailFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".moldu", "current-mail.json")
	}
	return filepath.Join(home, ".moldu", "current-mail.json")
}
