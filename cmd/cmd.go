package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petaprogress/peta-progress/internal"
)

var (
	clearData bool
)

var rootCmd = &cobra.Command{
	Use:   "peta-progress",
	Short: "Peta Progress",
	Long:  `Team task and time tracking with role-based dashboards.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		cfg := internal.LoadConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
