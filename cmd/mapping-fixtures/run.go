package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhwagner/mapping-fixtures/pkg/report"
	"github.com/jhwagner/mapping-fixtures/pkg/topology"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Inspect recorded runs",
	Long:  `List, show and forget the runs recorded by 'fixture load'.`,
}

var runListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runRunList,
}

var runShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show the entities a run created",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunShow,
}

var runForgetCmd = &cobra.Command{
	Use:   "forget [name]",
	Short: "Remove the local record of a run",
	Long: `Remove the local record of a run.

The mapping service offers no delete operation: the entities the run created
stay in the service.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunForget,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.AddCommand(runListCmd)
	runCmd.AddCommand(runShowCmd)
	runCmd.AddCommand(runForgetCmd)
}

func runRunList(cmd *cobra.Command, args []string) error {
	runs, err := topology.List()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	report.Runs(os.Stdout, runs)
	return nil
}

func runRunShow(cmd *cobra.Command, args []string) error {
	topo, err := topology.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	md := topo.GetMetadata()
	fmt.Printf("Run:      %s\n", md.Name)
	fmt.Printf("ID:       %s\n", md.RunID)
	fmt.Printf("Service:  %s/%s (as %s)\n", md.Service.URL, md.Service.Prefix, md.Service.Username)
	fmt.Printf("Created:  %s\n", md.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Status:   %s\n", md.Status)
	if md.Error != "" {
		fmt.Printf("Error:    %s\n", md.Error)
	}

	for _, res := range md.Fixtures {
		fmt.Printf("\nFixture '%s':\n", res.Fixture)
		report.Entities(os.Stdout, res)
	}
	return nil
}

func runRunForget(cmd *cobra.Command, args []string) error {
	name := args[0]

	topo, err := topology.Load(name)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	if err := topo.Forget(); err != nil {
		return fmt.Errorf("failed to forget run: %w", err)
	}

	fmt.Printf("✓ Run '%s' forgotten (entities remain in the mapping service)\n", name)
	return nil
}
