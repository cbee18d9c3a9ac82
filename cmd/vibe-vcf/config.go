package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-vcf configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.vibe-vcf.yaml.",
		Example: `  vibe-vcf config                                 # show all config
  vibe-vcf config set validation.level strict     # validate strictly by default
  vibe-vcf config set report.db ~/vcf-runs.duckdb # always record runs
  vibe-vcf config get validation.level            # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

func runConfigShow(out io.Writer) error {
	data, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprintf(out, "# Config file: %s\n", configPath())
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigSet(out io.Writer, key, value string) error {
	switch value {
	case "true", "yes", "on":
		viper.Set(key, true)
	case "false", "no", "off":
		viper.Set(key, false)
	default:
		if n, err := strconv.Atoi(value); err == nil {
			viper.Set(key, n)
		} else {
			viper.Set(key, value)
		}
	}

	cfgFile := configPath()
	if cfgFile == "" {
		return fmt.Errorf("cannot determine home directory")
	}
	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(out, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(out io.Writer, key string) error {
	if !viper.IsSet(key) {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(out, viper.Get(key))
	return nil
}

// configPath is the file config set writes to.
func configPath() string {
	if f := viper.ConfigFileUsed(); f != "" {
		return f
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configName+".yaml")
}
