package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagedit/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize pagedit configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure pagedit for your site and generates a .pagedit.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, _ := cmd.Flags().GetBool("defaults")
		if !defaults {
			_, err := config.RunWizard()
			return err
		}
		if err := config.DefaultConfig().Save(cfgFile); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Default configuration saved to %s\n", cfgFile)
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("defaults", false, "write the default configuration without prompting")
	rootCmd.AddCommand(initCmd)
}
