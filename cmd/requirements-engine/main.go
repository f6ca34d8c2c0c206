// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the requirements-engine CLI.
// It generates Business, System and Functional requirement documents,
// browses stored artifacts, and serves the HTTP API.
// Implements: docs/ARCHITECTURE § Generation, § HTTP API.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/requirements-engine/internal/secrets"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Set

// rootCmd is the base command for the requirements-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "requirements-engine",
	Short: "Generate standards-compliant requirement documents",
	Long: `requirements-engine turns business input into requirement documents
organized as a three-stage pipeline: business (BRD) -> system (SRS) ->
functional (FRS).

Input is free text (quick), a structured form (guided), or an existing
artifact to derive from (derived). Documents are generated by a local
inference server or a cloud API and stored with their provenance.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Names())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./requirements-engine.yaml or ~/.config/requirements-engine/config.yaml)")
}

func initConfig() {
	// A missing .env file is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("requirements-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "requirements-engine"))
		}
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("REQUIREMENTS_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("generation.default_standard", string(types.StandardIEEE))
	v.SetDefault("generation.default_style", string(types.StyleWaterfall))
	v.SetDefault("generation.default_language", "English")
	v.SetDefault("generation.default_backend", string(types.BackendLocal))

	v.SetDefault("backends.local.base_url", "http://localhost:11434")
	v.SetDefault("backends.local.model", "llama3.1")
	v.SetDefault("backends.local.timeout", "0s")
	v.SetDefault("backends.cloud.provider", string(types.ProviderOpenAI))
	v.SetDefault("backends.cloud.timeout", "0s")

	v.SetDefault("store.driver", "sqlite3")
	v.SetDefault("store.dsn", "requirements.db")
	v.SetDefault("store.cache_size", 256)

	v.SetDefault("server.addr", ":8080")
}

// appConfig assembles the typed configuration from v. Secrets fill the
// cloud API key when the config leaves it empty.
func appConfig(v *viper.Viper) types.AppConfig {
	userAgent := v.GetString("user_agent")
	if userAgent == "" {
		userAgent = "requirements-engine/" + version
	}
	provider := types.CloudProvider(v.GetString("backends.cloud.provider"))

	return types.AppConfig{
		Generation: types.GenerationConfig{
			DefaultStandard: types.TemplateStandard(v.GetString("generation.default_standard")),
			DefaultStyle:    types.ProcessStyle(v.GetString("generation.default_style")),
			DefaultLanguage: v.GetString("generation.default_language"),
			DefaultBackend:  types.BackendChoice(v.GetString("generation.default_backend")),
		},
		Backends: types.BackendConfig{
			Local: types.LocalBackendConfig{
				HTTPConfig: types.HTTPConfig{
					Timeout:   v.GetDuration("backends.local.timeout"),
					UserAgent: userAgent,
				},
				BaseURL: v.GetString("backends.local.base_url"),
				Model:   v.GetString("backends.local.model"),
			},
			Cloud: types.CloudBackendConfig{
				HTTPConfig: types.HTTPConfig{
					Timeout:   v.GetDuration("backends.cloud.timeout"),
					UserAgent: userAgent,
				},
				Provider: provider,
				Model:    v.GetString("backends.cloud.model"),
				APIKey:   loadedSecrets.Resolve(secrets.KeyFor(provider), v.GetString("backends.cloud.api_key")),
				BaseURL:  v.GetString("backends.cloud.base_url"),
			},
		},
		Store: types.StoreConfig{
			Driver:    v.GetString("store.driver"),
			DSN:       v.GetString("store.dsn"),
			CacheSize: v.GetInt("store.cache_size"),
		},
		Server: types.ServerConfig{
			Addr: v.GetString("server.addr"),
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
