package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jhwagner/mapping-fixtures/pkg/config"
	"github.com/jhwagner/mapping-fixtures/pkg/logging"
	"github.com/jhwagner/mapping-fixtures/pkg/mapping"
	"github.com/jhwagner/mapping-fixtures/pkg/prompt"
)

var (
	cfgFile string
	verbose bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "mapping-fixtures",
	Short: "Load test topologies into a topology-mapping service",
	Long: `mapping-fixtures populates a topology-mapping service with fixture
topologies: containers, the node trees they host, endpoints, transports and
the links between endpoints.

Built-in fixtures cover a message broker, a twinned application cluster and
a small network. More fixtures can be declared in YAML files.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mapping-fixtures.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "trace every request sent to the mapping service")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write traces to this rotated log file")
	rootCmd.PersistentFlags().String("url", "", "mapping service base URL (e.g. http://localhost:6969)")
	rootCmd.PersistentFlags().String("prefix", mapping.DefaultPrefix, "API prefix under the base URL")
	rootCmd.PersistentFlags().StringP("username", "u", "", "mapping service username")
	rootCmd.PersistentFlags().Duration("timeout", mapping.DefaultTimeout, "timeout of each request")

	// Bind flags to viper
	for _, name := range []string{"url", "prefix", "username", "timeout", "verbose"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	viper.SetDefault("password", "")
	viper.SetDefault("fixtures", []string{})
}

func initConfig() {
	// Credentials may live in a .env file next to the fixtures
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Warning: failed to load .env:", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mapping-fixtures")
	}

	viper.SetEnvPrefix("MAPPING")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// resolveSession merges flags, environment and config file, then prompts
// for whatever is still missing
func resolveSession() (*config.Session, error) {
	var session config.Session
	if err := viper.Unmarshal(&session); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := prompt.New(os.Stdin, os.Stderr).Complete(&session); err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	if err := config.ValidateSession(&session); err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}
	return &session, nil
}

// newLogger builds the request tracer from the global flags
func newLogger() (*logrus.Logger, func() error) {
	return logging.New(logging.Options{
		Verbose: viper.GetBool("verbose"),
		File:    logFile,
	})
}

// newClient binds a mapping client to session
func newClient(session *config.Session, log *logrus.Entry) (*mapping.Client, error) {
	return mapping.NewClient(mapping.Options{
		BaseURL:  session.URL,
		Prefix:   session.Prefix,
		Username: session.Username,
		Password: session.Password,
		Timeout:  session.Timeout,
		Logger:   log,
	})
}
