package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/curviron/master/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := GetConfigFile()
		if path == "" {
			path = config.GetDefaultConfigPath()
		}
		if config.DefaultConfigExists() && GetConfigFile() == "" {
			return fmt.Errorf("configuration already exists at %s", path)
		}

		cfg := config.GetDefaultConfig()
		if err := config.SaveConfig(cfg, path); err != nil {
			return fmt.Errorf("failed to write default config: %w", err)
		}
		fmt.Printf("wrote default configuration to %s\n", path)
		return nil
	},
}
