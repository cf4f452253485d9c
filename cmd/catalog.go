package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagedit/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog <page>",
	Short: "Export the products and copy of a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ed, err := openPage(cfg, args[0], true)
		if err != nil {
			return err
		}
		defer ed.Close()

		c, err := catalog.Build(ed)
		if err != nil {
			return err
		}
		return c.Write(os.Stdout, format)
	},
}

func init() {
	catalogCmd.Flags().StringP("format", "f", catalog.FormatYAML, "output format: yaml or markdown")
	rootCmd.AddCommand(catalogCmd)
}
