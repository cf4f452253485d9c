package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagedit/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pagedit",
	Short: "Edit a static product landing page in place",
	Long: `pagedit turns a static marketing page into an editable one: text becomes
editable, the product gallery becomes a set of photo carousels, and images
can be uploaded, zoomed and cropped. Saving produces a standalone page with
every editing affordance removed and a small carousel runtime embedded.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
