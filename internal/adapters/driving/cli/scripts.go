package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var scriptsCmd = &cobra.Command{
	Use:   "scripts",
	Short: "List or run maintenance scripts",
	RunE:  runScriptsList,
}

var scriptsRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a maintenance script and stream its output",
	Args:  cobra.ExactArgs(1),
	RunE:  runScriptsRun,
}

func init() {
	scriptsCmd.AddCommand(scriptsRunCmd)
	rootCmd.AddCommand(scriptsCmd)
}

func runScriptsList(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	if svc.Scripts == nil {
		return errors.New("script service not configured")
	}

	names := svc.Scripts.Names()
	if len(names) == 0 {
		cmd.Println("No scripts configured.")
		return nil
	}
	for _, name := range names {
		cmd.Println(name)
	}
	return nil
}

func runScriptsRun(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	if svc.Scripts == nil {
		return errors.New("script service not configured")
	}
	return svc.Scripts.Run(commandContext(cmd), args[0], cmd.OutOrStdout())
}
