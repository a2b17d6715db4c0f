package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JAlbrecht-svg/inkasso-console/internal/bus"
	"github.com/JAlbrecht-svg/inkasso-console/internal/controller"
	"github.com/JAlbrecht-svg/inkasso-console/internal/transport"
)

var (
	cfgFile    string
	baseURL    string
	timeout    time.Duration
	logLevel   string
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inkasso",
	Short: "Terminal client for the Inkasso case-management backend",
	Long: `Inkasso is a terminal-first client for the debt-collection backend.

It lists and edits cases, books payments and follow-up actions, maintains
debtors and browses mandanten, orders and workflows. Every write is re-read
from the backend, so totals shown are always the server's.

Features:
- Case list with debounced search and status filter (inkasso tui)
- Scriptable subcommands for every read and write
- Bearer token kept in a private credentials file or INKASSO_API_TOKEN
- Local journal of confirmed writes, optionally mirrored to a Redis stream`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.inkasso.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL for this run (overrides the saved endpoint)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", transport.DefaultTimeout, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("redis", "", "Redis URL for the change feed (empty disables it)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("api.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("redis.url", rootCmd.PersistentFlags().Lookup("redis"))
}

// initConfig reads in config file, a .env file and ENV variables if set.
func initConfig() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".inkasso")
	}

	viper.SetEnvPrefix("INKASSO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && logLevel == "debug" {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	configDir := defaultConfigDir()
	viper.SetDefault("api.timeout", transport.DefaultTimeout)
	viper.SetDefault("settings.path", filepath.Join(configDir, "settings.json"))
	viper.SetDefault("token.path", filepath.Join(configDir, "credentials.json"))
	viper.SetDefault("journal.path", filepath.Join(configDir, "journal.db"))
	viper.SetDefault("redis.url", "")
	viper.SetDefault("redis.stream", bus.DefaultStream)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", filepath.Join(configDir, "logs", "inkasso-tui.log"))
	viper.SetDefault("ui.search_debounce", controller.DefaultDebounce)
	viper.SetDefault("ui.theme", "dark")
}

func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "inkasso")
	}
	return filepath.Join(".", ".inkasso")
}

// GetConfig returns the current configuration values
func GetConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: viper.GetString("api.base_url"),
			Timeout: viper.GetDuration("api.timeout"),
		},
		Settings: PathConfig{Path: viper.GetString("settings.path")},
		Token:    PathConfig{Path: viper.GetString("token.path")},
		Journal:  PathConfig{Path: viper.GetString("journal.path")},
		Redis: RedisConfig{
			URL:    viper.GetString("redis.url"),
			Stream: viper.GetString("redis.stream"),
		},
		Log: LogConfig{
			Level: viper.GetString("log.level"),
			File:  viper.GetString("log.file"),
		},
		UI: UIConfig{
			SearchDebounce: viper.GetDuration("ui.search_debounce"),
			Theme:          viper.GetString("ui.theme"),
		},
	}
}

// Config represents the application configuration
type Config struct {
	API      APIConfig   `mapstructure:"api"`
	Settings PathConfig  `mapstructure:"settings"`
	Token    PathConfig  `mapstructure:"token"`
	Journal  PathConfig  `mapstructure:"journal"`
	Redis    RedisConfig `mapstructure:"redis"`
	Log      LogConfig   `mapstructure:"log"`
	UI       UIConfig    `mapstructure:"ui"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PathConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	URL    string `mapstructure:"url"`
	Stream string `mapstructure:"stream"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type UIConfig struct {
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	Theme          string        `mapstructure:"theme"`
}
