package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/nhalm/canonlog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "catalogdash",
	Short: "Product catalog dashboard",
	Long:  "Serves a dashboard for browsing, searching and editing products of a remote catalog.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		canonlog.SetupGlobalLogger(viper.GetString("LOG_LEVEL"), viper.GetString("LOG_FORMAT"))
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("catalog-url", "", "Base URL of the remote catalog")
	_ = viper.BindPFlag("CATALOG_BASE_URL", rootCmd.PersistentFlags().Lookup("catalog-url"))

	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("CATALOG_BASE_URL", "https://dummyjson.com")
	viper.SetDefault("CATALOG_TIMEOUT", "10s")
	viper.SetDefault("CATALOG_BREAKER_FAILURES", 5)
	viper.SetDefault("PAGE_SIZE", 10)
	viper.SetDefault("SEARCH_DEBOUNCE", "300ms")
	viper.SetDefault("SESSION_TTL", "30m")
	viper.SetDefault("RATE_LIMIT_READ_RPS", 100)
	viper.SetDefault("RATE_LIMIT_WRITE_RPS", 20)
	viper.SetDefault("MAX_REQUEST_BODY_BYTES", 1048576)
}

func initConfig() error {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}
