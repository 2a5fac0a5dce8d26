package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jhwagner/mapping-fixtures/pkg/config"
	"github.com/jhwagner/mapping-fixtures/pkg/fixture"
	"github.com/jhwagner/mapping-fixtures/pkg/report"
	"github.com/jhwagner/mapping-fixtures/pkg/topology"
)

var fixtureCmd = &cobra.Command{
	Use:   "fixture",
	Short: "Load and inspect fixtures",
	Long:  `Load fixture topologies into a mapping service and inspect the available fixtures.`,
}

var fixtureLoadCmd = &cobra.Command{
	Use:   "load [fixture...]",
	Short: "Load fixtures into the mapping service",
	Long: `Load fixtures into the mapping service, one after another.

Fixtures are picked by name among the built-in fixtures and those declared in
--file documents. With no names, every built-in fixture is loaded, then every
file fixture.

Each fixture is a fixed sequence of create-or-update calls, so loading it
again leaves the service unchanged. The first failed request stops the run.
What the run created is recorded locally under the run name, with a failed
status when the run stopped early.`,
	RunE: runFixtureLoad,
}

var fixtureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available fixtures",
	Long:  `List the built-in fixtures and those declared in --file documents.`,
	Args:  cobra.NoArgs,
	RunE:  runFixtureList,
}

var fixtureShowCmd = &cobra.Command{
	Use:   "show [fixture]",
	Short: "Print a fixture as YAML",
	Long:  `Print a fixture definition as a YAML document that --file accepts.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runFixtureShow,
}

var (
	fixtureFiles []string
	runName      string
)

func init() {
	rootCmd.AddCommand(fixtureCmd)
	fixtureCmd.AddCommand(fixtureLoadCmd)
	fixtureCmd.AddCommand(fixtureListCmd)
	fixtureCmd.AddCommand(fixtureShowCmd)

	fixtureCmd.PersistentFlags().StringSliceVarP(&fixtureFiles, "file", "f", nil, "fixture file path or http(s) URL (repeatable)")
	fixtureLoadCmd.Flags().StringVar(&runName, "name", "", "name the run is recorded under (default run-<timestamp>)")
}

func runFixtureLoad(cmd *cobra.Command, args []string) error {
	sets, err := loadFixtureFiles(fixtureFiles)
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = viper.GetStringSlice("fixtures")
	}
	fixtures, err := fixture.Select(names, sets)
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		return fmt.Errorf("no fixtures selected")
	}

	session, err := resolveSession()
	if err != nil {
		return err
	}

	name := runName
	if name == "" {
		name = fmt.Sprintf("run-%s", time.Now().Format("20060102-150405"))
	}

	logger, closeLog := newLogger()
	defer func() { _ = closeLog() }()
	log := logger.WithField("run", name)

	client, err := newClient(session, log)
	if err != nil {
		return fmt.Errorf("failed to create mapping client: %w", err)
	}

	fmt.Printf("Loading %d fixture(s) into %s as run '%s'...\n", len(fixtures), client.URL(""), name)

	topo, err := topology.Create(cmd.Context(), name, session, func(ctx context.Context) ([]*fixture.Result, error) {
		run := fixture.NewRun(client, fixture.WithOutput(os.Stdout), fixture.WithLogger(log))
		return run.Load(ctx, fixtures)
	})
	if err != nil {
		if topo != nil {
			fmt.Println()
			report.Summary(os.Stdout, topo.GetMetadata().Fixtures)
			fmt.Printf("\n✗ Run '%s' recorded as failed (id %s)\n", name, topo.GetMetadata().RunID)
		}
		return fmt.Errorf("failed to load fixtures: %w", err)
	}

	fmt.Println()
	report.Summary(os.Stdout, topo.GetMetadata().Fixtures)
	fmt.Printf("\n✓ Run '%s' recorded (id %s)\n", name, topo.GetMetadata().RunID)
	return nil
}

func runFixtureList(cmd *cobra.Command, args []string) error {
	sets, err := loadFixtureFiles(fixtureFiles)
	if err != nil {
		return err
	}

	fixtures, err := fixture.Select(nil, sets)
	if err != nil {
		return err
	}

	report.Fixtures(os.Stdout, fixtures)
	return nil
}

func runFixtureShow(cmd *cobra.Command, args []string) error {
	sets, err := loadFixtureFiles(fixtureFiles)
	if err != nil {
		return err
	}

	fixtures, err := fixture.Select(args, sets)
	if err != nil {
		return err
	}

	out := yaml.NewEncoder(os.Stdout)
	out.SetIndent(2)
	if err := out.Encode(fixtures[0]); err != nil {
		return fmt.Errorf("failed to render fixture: %w", err)
	}
	return out.Close()
}

// loadFixtureFiles loads and validates every fixture set of the given sources
func loadFixtureFiles(sources []string) ([]*config.FixtureSet, error) {
	var sets []*config.FixtureSet
	for _, source := range sources {
		loaded, err := config.LoadFixtureSets(source)
		if err != nil {
			return nil, fmt.Errorf("failed to load fixtures from %s: %w", source, err)
		}
		for _, set := range loaded {
			if err := config.ValidateFixtureSet(set); err != nil {
				return nil, fmt.Errorf("fixture set '%s' in %s is invalid: %w", set.Metadata.Name, source, err)
			}
		}
		sets = append(sets, loaded...)
	}
	return sets, nil
}
