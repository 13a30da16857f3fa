package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var pruneOlderThan int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and prune the notification history",

	Annotations: map[string]string{annotationScope: "local"},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [scenario]",
	Short: "List the sends logged for a scenario, or the scenarios with history",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistoryShow,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove entries older than a number of days",
	RunE:  runHistoryPrune,
}

func init() {
	historyPruneCmd.Flags().IntVar(&pruneOlderThan, "older-than", 0, "age in days (default from config)")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	if svc.History == nil {
		return errors.New("history service not configured")
	}

	if len(args) == 0 {
		return listHistoryScenarios(cmd, svc)
	}

	scenario := args[0]
	entries, err := svc.History.Entries(commandContext(cmd), scenario)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(entries) == 0 {
		cmd.Printf("No history for %s.\n", scenario)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tREQUESTS\tRECIPIENT\tSUBJECT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.Date.Format("2006-01-02 15:04"), len(e.RequestIDs), e.Recipient, e.Subject)
	}
	return w.Flush()
}

func listHistoryScenarios(cmd *cobra.Command, svc *Services) error {
	scenarios, err := svc.History.Scenarios(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(scenarios) == 0 {
		cmd.Println("No history recorded.")
		return nil
	}
	for _, name := range scenarios {
		cmd.Println(name)
	}
	return nil
}

func runHistoryPrune(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	if svc.History == nil {
		return errors.New("history service not configured")
	}

	days := pruneOlderThan
	if days == 0 && svc.Settings != nil {
		if settings, err := svc.Settings.Get(); err == nil {
			days = settings.History.MaxAgeDays
		}
	}
	if days <= 0 {
		return errors.New("--older-than must be a positive number of days")
	}

	removed, err := svc.History.Prune(commandContext(cmd), days)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	cmd.Printf("Removed %d entries older than %d days.\n", removed, days)
	return nil
}
