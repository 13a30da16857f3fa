package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
)

var (
	notifyStatus   string
	notifyCategory string
	notifyTest     bool
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send the notification for a status",
	Long: `Resolve the scenario for a status and optional category, select the
records not yet notified and send the notification mail.

With --test the mail goes to the configured test recipient and the history
log is left untouched.`,
	RunE: runNotify,
}

func init() {
	notifyCmd.Flags().StringVar(&notifyStatus, "status", "", "status id (required)")
	notifyCmd.Flags().StringVar(&notifyCategory, "category", "", "category id")
	notifyCmd.Flags().BoolVar(&notifyTest, "test", false, "send to the test recipient only")
	_ = notifyCmd.MarkFlagRequired("status")
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	if svc.Notification == nil {
		return errors.New("notification service not configured")
	}

	result, err := svc.Notification.Send(commandContext(cmd), driving.NotifyRequest{
		StatusID:   notifyStatus,
		CategoryID: notifyCategory,
		TestMode:   notifyTest,
	})
	if err != nil {
		return fmt.Errorf("notification failed: %w", err)
	}

	cmd.Printf("Scenario: %s\n", result.Scenario)
	if !result.Sent {
		cmd.Printf("Nothing sent: %s\n", result.Reason)
		cmd.Printf("Excluded: %d\n", result.Excluded)
		return nil
	}

	cmd.Printf("Sent %q to %s\n", result.Subject, strings.Join(result.Recipients, ", "))
	cmd.Printf("Requests: %d (excluded %d)\n", len(result.RequestIDs), result.Excluded)
	if result.Attachment != "" {
		cmd.Printf("Attachment: %s\n", result.Attachment)
	}
	for _, w := range result.Warnings {
		cmd.Printf("Warning: %s\n", w)
	}
	return nil
}
