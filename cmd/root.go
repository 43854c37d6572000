/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/gn"
	"github.com/sparkify/sparkdl/internal/iofs"
	"github.com/sparkify/sparkdl/internal/iologger"
	app "github.com/sparkify/sparkdl/pkg"
	"github.com/sparkify/sparkdl/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	homeDir string
	opts    []config.Option
	cfg     *config.Config
)

// getRootCmd returns the root command with all subcommands attached.
func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: fmt.Sprintf("version: %s\nbuild:   %s", app.Version, app.Build),
		Use:     "sparkdl",
		Short:   "Sparkdl builds a song play star schema from raw logs",
		Long: `Sparkdl reads raw song metadata and user activity logs and
materializes a star schema for song play analytics:

  - songs_table, artists_table, users_table, time_table (dimensions)
  - songplays_table (facts)

Features:
  - Star Schema Build: run
  - PostgreSQL Schema Management: create, migrate
  - Optimization: optimize

Tables are written as partitioned JSON-lines files, into a SQLite
database, or into PostgreSQL.

Configuration precedence (highest to lowest):
  1. CLI flags
  2. Environment variables (SPARKDL_*)
  3. Config file (~/.config/sparkdl/config.yaml)
  4. Built-in defaults`,
		PersistentPreRunE: bootstrap,
		RunE:              runRoot,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	// Remove the automatic "sparkdl version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Override version flag to use -V (consistent with gn projects)
	rootCmd.Flags().BoolP("version", "V", false, "version for sparkdl")

	rootCmd.AddCommand(
		getRunCmd(),
		getCreateCmd(),
		getMigrateCmd(),
		getOptimizeCmd(),
		getConfigCmd(),
	)

	return rootCmd
}

func bootstrap(cmd *cobra.Command, args []string) error {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Initialize logging with hardcoded defaults
	// Will be reconfigured later with user's config settings
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if err = iologger.Init(config.LogDir(homeDir), defaultLog, false); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	opts = cfgViper.ToOptions()
	cfg.Update(opts)

	// Set HomeDir after config is loaded
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})

	// Reconfigure logging with user's settings, keeping lines written
	// during bootstrap
	if err = iologger.Init(config.LogDir(cfg.HomeDir), cfg.Log, true); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded",
		"config_file", config.ConfigFilePath(homeDir),
		"command", cmd.Name(),
	)

	return nil
}

func runRoot(cmd *cobra.Command, _ []string) error {
	versionFlag(cmd)
	return cmd.Help()
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

func initEnvVars(v *viper.Viper) {
	// Environment variables are bound one by one so it is clear which ones
	// are allowed. They match fields of config.ToOptions(), i.e. persistent
	// configuration that can be stored in config.yaml.
	v.SetEnvPrefix("SPARKDL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Input and output
	v.BindEnv("input.song_data", "SPARKDL_INPUT_SONG_DATA")
	v.BindEnv("input.log_data", "SPARKDL_INPUT_LOG_DATA")
	v.BindEnv("output.dir", "SPARKDL_OUTPUT_DIR")
	v.BindEnv("output.format", "SPARKDL_OUTPUT_FORMAT")

	// Database configuration
	v.BindEnv("database.host", "SPARKDL_DATABASE_HOST")
	v.BindEnv("database.port", "SPARKDL_DATABASE_PORT")
	v.BindEnv("database.user", "SPARKDL_DATABASE_USER")
	v.BindEnv("database.password", "SPARKDL_DATABASE_PASSWORD")
	v.BindEnv("database.database", "SPARKDL_DATABASE_DATABASE")
	v.BindEnv("database.ssl_mode", "SPARKDL_DATABASE_SSL_MODE")
	v.BindEnv("database.batch_size", "SPARKDL_DATABASE_BATCH_SIZE")

	// Log configuration
	v.BindEnv("log.level", "SPARKDL_LOG_LEVEL")
	v.BindEnv("log.format", "SPARKDL_LOG_FORMAT")
	v.BindEnv("log.destination", "SPARKDL_LOG_DESTINATION")

	// General configuration
	v.BindEnv("malformed", "SPARKDL_MALFORMED")
	v.BindEnv("jobs_number", "SPARKDL_JOBS_NUMBER")

	v.AutomaticEnv()
}
