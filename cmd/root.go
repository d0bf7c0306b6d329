// Package cmd implements the scamintel command-line interface: crawling,
// reporting, serving and scheduling over one shared configuration surface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdcrawl "github.com/jonesrussell/scamintel/cmd/crawl"
	cmdreport "github.com/jonesrussell/scamintel/cmd/report"
	cmdschedule "github.com/jonesrussell/scamintel/cmd/schedule"
	cmdserve "github.com/jonesrussell/scamintel/cmd/serve"
	"github.com/jonesrussell/scamintel/internal/config"
)

const version = "0.3.0"

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "scamintel",
		Short: "Crawl web pages for fraud indicators and score them",
		Long: `scamintel crawls seed URLs, extracts fraud indicators (contact
identifiers, cryptocurrency wallets, social-media handles), enriches domains
with WHOIS and DNS metadata, scores each page, and stores the results in
MongoDB for later query.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are visible to viper.
	_ = godotenv.Load()

	// Parse flags before initConfig so --config and --debug take effect.
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("scamintel version %s\n", version)
		},
	})

	rootCmd.AddCommand(cmdcrawl.Command())
	rootCmd.AddCommand(cmdreport.Command())
	rootCmd.AddCommand(cmdserve.Command())
	rootCmd.AddCommand(cmdschedule.Command())
}

// initConfig wires viper: config file, SCAMINTEL_* environment overrides,
// then defaults.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.SetEnvPrefix("SCAMINTEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
		// No config file is fine; defaults and environment cover it.
	}

	if debug || hasDebugEnv() {
		viper.Set("log.level", "debug")
		viper.Set("log.development", true)
	}

	return nil
}

func hasDebugEnv() bool {
	return os.Getenv("SCAMINTEL_DEBUG") == "true"
}
