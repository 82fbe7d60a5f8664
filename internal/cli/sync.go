package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mailstash/mailstash/internal/app"
)

func newSyncCmd() *cobra.Command {
	var (
		accountFlag string
		countFlag   int
		labelFlags  []string
		queryFlag   string
		noInputFlag bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch Gmail metadata into the local store",
		Long: "Fetch up to --count messages' metadata from Gmail and reconcile them\n" +
			"into the local store. Re-running is safe: records are keyed by Gmail ID.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			accountID, err := resolveAccountID(db, cfg, accountFlag)
			if err != nil {
				return err
			}

			creds, err := credentialStore(cfg, db)
			if err != nil {
				return err
			}

			count := countFlag
			if count <= 0 {
				count = cfg.Sync.DefaultCount
			}

			ctx := cmd.Context()
			client, err := newClient(ctx, cfg, creds, accountID, !noInputFlag)
			if err != nil {
				return err
			}

			svc := app.NewSyncService(db, client, accountID)
			stats, err := svc.Sync(ctx, count, labelFlags, queryFlag)
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(toJSONSyncStats(accountID, stats))
			}
			fmt.Printf("Synced %s: %d fetched, %d created, %d updated, %d errors\n",
				accountID, stats.Fetched, stats.Created, stats.Updated, stats.Errors)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "account to sync (defaults to config default or first account)")
	cmd.Flags().IntVar(&countFlag, "count", 0, "number of messages to fetch (default from config)")
	cmd.Flags().StringArrayVar(&labelFlags, "label", nil, "only fetch messages with this Gmail label ID (repeatable)")
	cmd.Flags().StringVar(&queryFlag, "query", "", "Gmail search query to filter messages")
	cmd.Flags().BoolVar(&noInputFlag, "no-input", false, "fail instead of starting an interactive OAuth flow")
	return cmd
}

func newWipeCmd() *cobra.Command {
	var (
		accountFlag string
		yesFlag     bool
	)

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete all stored emails for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yesFlag {
				return fmt.Errorf("wipe deletes all stored emails for the account; pass --yes to confirm")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			accountID, err := resolveAccountID(db, cfg, accountFlag)
			if err != nil {
				return err
			}

			svc := app.NewSyncService(db, nil, accountID)
			count, err := svc.Wipe(cmd.Context())
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(jsonWipe{OK: true, AccountID: accountID, Deleted: count})
			}
			fmt.Printf("Deleted %d emails for %s\n", count, accountID)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "account to wipe (defaults to config default or first account)")
	cmd.Flags().BoolVar(&yesFlag, "yes", false, "confirm deletion")
	return cmd
}
