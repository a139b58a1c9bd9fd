package cmd

import (
	"fmt"

	"github.com/els0r/alertpcap/pkg/alertpcap"
	"github.com/els0r/alertpcap/pkg/conf"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// effectiveConfig mirrors the layout of the configuration file
type effectiveConfig struct {
	Alert alertpcap.Config `yaml:"alert"`
	Match struct {
		Ports     []int    `yaml:"ports,omitempty"`
		Protocols []string `yaml:"protocols,omitempty"`
		Subnets   []string `yaml:"subnets,omitempty"`
	} `yaml:"match"`
	Logging struct {
		Level       string `yaml:"level"`
		Encoding    string `yaml:"encoding"`
		Destination string `yaml:"destination,omitempty"`
	} `yaml:"logging"`
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "config",
		Short:         "Show the effective configuration (file, flags and env vars merged)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg effectiveConfig
			cfg.Alert = cacheConfig()
			cfg.Match.Ports = viper.GetIntSlice(flagMatchPorts)
			cfg.Match.Protocols = viper.GetStringSlice(flagMatchProtocols)
			cfg.Match.Subnets = viper.GetStringSlice(flagMatchSubnets)
			cfg.Logging.Level = viper.GetString(conf.LogLevel)
			cfg.Logging.Encoding = viper.GetString(conf.LogEncoding)
			cfg.Logging.Destination = viper.GetString(conf.LogDestination)

			b, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal configuration: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
}
