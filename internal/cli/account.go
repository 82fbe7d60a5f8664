package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailstash/mailstash/internal/domain"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage Gmail accounts",
	}
	cmd.AddCommand(newAccountAddCmd())
	cmd.AddCommand(newAccountListCmd())
	cmd.AddCommand(newAccountRemoveCmd())
	return cmd
}

func newAccountAddCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a Gmail account via OAuth",
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

			creds, err := credentialStore(cfg, db)
			if err != nil {
				return err
			}

			// Use the email as account ID if provided, otherwise a temporary
			// ID that is replaced once OAuth tells us the real address.
			accountID := email
			if accountID == "" {
				accountID = fmt.Sprintf("gmail-%d", time.Now().UnixNano())
			}

			ctx := cmd.Context()
			fmt.Println("Starting Gmail OAuth flow...")
			client, err := newClient(ctx, cfg, creds, accountID, true)
			if err != nil {
				return fmt.Errorf("failed to authorize: %w", err)
			}

			if email == "" {
				profileEmail, err := client.Profile(ctx)
				if err != nil {
					return fmt.Errorf("failed to get profile email: %w", err)
				}
				email = profileEmail

				// Re-key the stored credential under the real address and
				// clean up the temporary entry.
				blob, err := creds.Get(ctx, accountID)
				if err != nil {
					return fmt.Errorf("failed to reload credential: %w", err)
				}
				if err := creds.Put(ctx, email, blob); err != nil {
					return fmt.Errorf("failed to re-save credential: %w", err)
				}
				if delErr := creds.Delete(ctx, accountID); delErr != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to delete temporary credential: %v\n", delErr)
				}
				accountID = email
			}

			account := &domain.Account{
				ID:          accountID,
				Email:       email,
				DisplayName: email,
				CreatedAt:   time.Now(),
			}
			if err := db.CreateAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to store account: %w", err)
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "add", Email: email})
			}
			fmt.Printf("Account added: %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (auto-detected if omitted)")
	return cmd
}

func newAccountListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			accounts, err := db.ListAccounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONAccounts(accounts))
			}

			if len(accounts) == 0 {
				fmt.Println("No accounts configured. Run 'mailstash account add' to add one.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tCREATED\tLAST SYNC")
			for _, a := range accounts {
				lastSync := "never"
				if run, err := db.LastSyncRun(ctx, a.ID); err == nil && run != nil {
					lastSync = run.FinishedAt.Format(time.DateTime)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					a.ID, a.Email, a.CreatedAt.Format(time.DateOnly), lastSync)
			}
			return w.Flush()
		},
	}
}

func newAccountRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [email]",
		Short: "Remove an account and its stored emails",
		Args:  cobra.ExactArgs(1),
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

			ctx := cmd.Context()
			accounts, err := db.ListAccounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}

			var target *domain.Account
			for i := range accounts {
				if accounts[i].Email == args[0] || accounts[i].ID == args[0] {
					target = &accounts[i]
					break
				}
			}
			if target == nil {
				return fmt.Errorf("account not found: %s", args[0])
			}

			if err := db.DeleteAccount(ctx, target.ID); err != nil {
				return fmt.Errorf("failed to delete account: %w", err)
			}

			creds, err := credentialStore(cfg, db)
			if err != nil {
				return err
			}
			if err := creds.Delete(ctx, target.ID); err != nil {
				// Non-fatal: credential may already be gone.
				fmt.Fprintf(os.Stderr, "Warning: could not remove stored credential: %v\n", err)
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "remove", Email: target.Email})
			}
			fmt.Printf("Account removed: %s\n", target.Email)
			return nil
		},
	}
}
