package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailstash/mailstash/internal/domain"
	"github.com/mailstash/mailstash/internal/store"
)

func newListCmd() *cobra.Command {
	var (
		accountFlag string
		labelFlag   string
		limitFlag   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored emails",
		Long:  "List stored emails for an account, newest first, optionally filtered by label.",
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

			emails, err := db.ListEmails(cmd.Context(), store.ListEmailOptions{
				AccountID: accountID,
				Label:     labelFlag,
				Limit:     limitFlag,
			})
			if err != nil {
				return fmt.Errorf("failed to list emails: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONEmails(emails))
			}
			printEmailTable(emails)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "account to list (defaults to config default or first account)")
	cmd.Flags().StringVar(&labelFlag, "label", "", "only show emails with this label")
	cmd.Flags().IntVar(&limitFlag, "limit", 50, "maximum number of emails to show")
	return cmd
}

func newReadCmd() *cobra.Command {
	var accountFlag string

	cmd := &cobra.Command{
		Use:   "read [gmail-id]",
		Short: "Show a stored email's metadata",
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

			accountID, err := resolveAccountID(db, cfg, accountFlag)
			if err != nil {
				return err
			}

			email, err := db.GetEmail(cmd.Context(), accountID, args[0])
			if err != nil {
				return fmt.Errorf("email not found: %s", args[0])
			}

			if jsonFlag {
				return printJSON(toJSONEmail(*email))
			}

			fmt.Printf("From:         %s\n", formatSender(email))
			fmt.Printf("Subject:      %s\n", email.Subject)
			fmt.Printf("Date:         %s\n", email.ReceivedAt.Format(time.RFC1123Z))
			fmt.Printf("Content-Type: %s\n", email.ContentType)
			if email.SizeEstimate != domain.UnknownSize {
				fmt.Printf("Size:         %d bytes\n", email.SizeEstimate)
			}
			if len(email.Labels) > 0 {
				fmt.Printf("Labels:       %v\n", email.Labels)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "account to read from (defaults to config default or first account)")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var accountFlag string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search stored emails by subject and sender",
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

			accountID, err := resolveAccountID(db, cfg, accountFlag)
			if err != nil {
				return err
			}

			emails, err := db.SearchEmails(cmd.Context(), accountID, args[0])
			if err != nil {
				return fmt.Errorf("failed to search emails: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONEmails(emails))
			}
			printEmailTable(emails)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "account to search (defaults to config default or first account)")
	return cmd
}

func newLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "List known labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			labels, err := db.ListLabels(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list labels: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONLabels(labels))
			}
			for _, l := range labels {
				fmt.Println(l.Name)
			}
			return nil
		},
	}
}

func printEmailTable(emails []domain.Email) {
	if len(emails) == 0 {
		fmt.Println("No emails found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tFROM\tSUBJECT")
	for _, e := range emails {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.GmailID,
			e.ReceivedAt.Format(time.DateOnly),
			formatSender(&e),
			truncate(e.Subject, 60),
		)
	}
	w.Flush()
}

func formatSender(e *domain.Email) string {
	if e.SenderName == "" {
		return e.SenderEmail
	}
	return fmt.Sprintf("%s <%s>", e.SenderName, e.SenderEmail)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
