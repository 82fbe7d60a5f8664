package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mailstash/mailstash/internal/config"
	"github.com/mailstash/mailstash/internal/gmail"
	"github.com/mailstash/mailstash/internal/store"
	"github.com/mailstash/mailstash/internal/store/sqlite"
)

var (
	// version is set via ldflags at build time.
	version = "dev"
	cfgFile string

	// jsonFlag enables JSON output for all commands.
	jsonFlag    bool
	verboseFlag bool
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mailstash",
		Short: "Pull Gmail metadata into a local, queryable store",
		Long: "mailstash ingests Gmail mailbox metadata (sender, subject, date, labels)\n" +
			"and materializes it into a local SQLite store you can list and search offline.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if verboseFlag {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).With().Timestamp().Logger()
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("mailstash %s\n", version))
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newAccountCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newWipeCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newReadCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newLabelsCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openDB creates the data directory and opens the SQLite database.
func openDB() (*sqlite.DB, error) {
	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "mailstash.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// loadConfig loads the application configuration from the config file.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = filepath.Join(config.ConfigDir(), "config.toml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// credentialStore selects where credential blobs live based on config.
func credentialStore(cfg *config.Config, db *sqlite.DB) (store.CredentialStore, error) {
	switch cfg.Auth.CredentialStore {
	case "", "keyring":
		return store.NewKeyringCredentialStore(), nil
	case "db":
		return db.Credentials(), nil
	default:
		return nil, fmt.Errorf("unknown credential_store %q (use \"keyring\" or \"db\")", cfg.Auth.CredentialStore)
	}
}

// newAuthenticator wires the credential manager. Interactive commands get the
// loopback browser flow; --no-input substitutes a flow that fails fast.
func newAuthenticator(cfg *config.Config, creds store.CredentialStore, interactive bool) *gmail.Authenticator {
	clientCfg := gmail.ClientConfig{
		ClientID:        cfg.Gmail.ClientID,
		ClientSecret:    cfg.Gmail.ClientSecret,
		CredentialsPath: cfg.Gmail.CredentialsPath,
		GCPProjectID:    cfg.Gmail.GCPProjectID,
		GCPSecretID:     cfg.Gmail.GCPSecretID,
	}
	var flow gmail.AuthFlow = gmail.LocalServerFlow{}
	if !interactive {
		flow = gmail.NoninteractiveFlow{}
	}
	return gmail.NewAuthenticator(creds, clientCfg, flow)
}

// newClient builds an authorized Gmail client for the account.
func newClient(ctx context.Context, cfg *config.Config, creds store.CredentialStore, accountID string, interactive bool) (*gmail.Client, error) {
	auth := newAuthenticator(cfg, creds, interactive)
	ts, err := auth.TokenSource(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return gmail.NewClient(ctx, ts)
}

// resolveAccountID determines which account to use: explicit flag, config
// default, or the only configured account.
func resolveAccountID(db *sqlite.DB, cfg *config.Config, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cfg.Accounts.Default != "" {
		return cfg.Accounts.Default, nil
	}

	accounts, err := db.ListAccounts(context.Background())
	if err != nil {
		return "", fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", fmt.Errorf("no accounts configured; run 'mailstash account add' first")
	}
	return accounts[0].ID, nil
}
