// Package cmd contains the alertpcap command line interface implementation
package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/els0r/alertpcap/pkg/alertpcap"
	"github.com/els0r/alertpcap/pkg/conf"
	"github.com/els0r/alertpcap/pkg/defaults"
	"github.com/els0r/alertpcap/pkg/flowtrack"
	"github.com/els0r/alertpcap/pkg/version"
	"github.com/els0r/telemetry/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Execute() error {
	rootCmd, err := newRootCmd()
	if err != nil {
		return err
	}

	return rootCmd.Execute()
}

const (
	alertKey             = "alert"
	flagAlertDirectory   = alertKey + ".directory"
	flagAlertTimeout     = alertKey + ".timeout"
	flagAlertCompression = alertKey + ".compression"
	flagAlertPermissions = alertKey + ".permissions"
	flagAlertBacklogSize = alertKey + ".backlog_size"

	matchKey           = "match"
	flagMatchPorts     = matchKey + ".ports"
	flagMatchProtocols = matchKey + ".protocols"
	flagMatchSubnets   = matchKey + ".subnets"
)

func newRootCmd() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:   "alertpcap",
		Short: "alertpcap writes per-flow pcap files for alert-bearing traffic",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			return initLogging()
		},
	}

	err := registerFlags(rootCmd)
	if err != nil {
		return nil, fmt.Errorf("failed to register flags: %w", err)
	}

	rootCmd.AddCommand(newReplayCmd(), newConfigCmd(), newVersionCmd())

	return rootCmd, nil
}

func registerFlags(cmd *cobra.Command) error {
	if err := conf.RegisterFlags(cmd); err != nil {
		return err
	}

	pflags := cmd.PersistentFlags()

	// capture file cache bindings
	pflags.String(flagAlertDirectory, filepath.Join(defaults.LogRoot, defaults.AlertDirectoryName), "base directory for capture files")
	pflags.Duration(flagAlertTimeout, defaults.FileTimeout, "idle timeout after which an open capture file is evicted")
	pflags.String(flagAlertCompression, alertpcap.CompressionNone, "capture file compression (none or lz4)")
	pflags.Uint32(flagAlertPermissions, uint32(alertpcap.DefaultPermissions), "capture file permissions")
	pflags.Int(flagAlertBacklogSize, alertpcap.DefaultBacklogSize, "maximum number of pre-alert records buffered per flow")

	// alert predicate bindings
	pflags.IntSlice(flagMatchPorts, nil, "ports flagging a flow as alert-bearing")
	pflags.StringSlice(flagMatchProtocols, nil, "protocol names flagging a flow as alert-bearing")
	pflags.StringSlice(flagMatchSubnets, nil, "subnets (CIDR notation) flagging a flow as alert-bearing")

	return viper.BindPFlags(pflags)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	path := viper.GetString(conf.ConfigFile)
	if path != "" {
		viper.SetConfigFile(path)

		err := viper.ReadInConfig()
		if err != nil {
			return fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "__"))
	viper.AutomaticEnv()

	return nil
}

func initLogging() error {
	appVersion := version.Version()
	loggerOpts := []logging.Option{
		logging.WithVersion(appVersion),
	}

	dst := viper.GetString(conf.LogDestination)
	if dst != "" {
		loggerOpts = append(loggerOpts, logging.WithFileOutput(dst))
	}

	_, err := logging.Init(
		logging.LevelFromString(viper.GetString(conf.LogLevel)),
		logging.Encoding(viper.GetString(conf.LogEncoding)),
		loggerOpts...,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// cacheConfig assembles the capture file cache configuration from viper
// (config file, flags and env vars)
func cacheConfig() alertpcap.Config {
	return alertpcap.Config{
		Directory:   viper.GetString(flagAlertDirectory),
		Timeout:     viper.GetDuration(flagAlertTimeout),
		Permissions: fs.FileMode(viper.GetUint32(flagAlertPermissions)),
		Compression: viper.GetString(flagAlertCompression),
	}
}

// alertMatcher assembles the alert predicate from viper
func alertMatcher() (flowtrack.Matcher, error) {
	return flowtrack.NewMatcher(
		viper.GetIntSlice(flagMatchPorts),
		viper.GetStringSlice(flagMatchProtocols),
		viper.GetStringSlice(flagMatchSubnets),
	)
}
