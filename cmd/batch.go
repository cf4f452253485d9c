package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagedit/internal/config"
	"github.com/ziadkadry99/pagedit/internal/editor"
	"github.com/ziadkadry99/pagedit/internal/progress"
	"github.com/ziadkadry99/pagedit/internal/walker"
)

var batchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Prepare or save every page under a directory",
	Long: `Walks a site directory and processes every page matching the configured
include patterns. In save mode each page is written as a standalone page, in
prepare mode as an editable one. Results mirror the site layout under the
output directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().String("mode", "", "prepare or save (overrides config)")
	batchCmd.Flags().String("out-dir", "", "output directory (overrides config)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
		cfg.Batch.Mode = config.BatchMode(mode)
	}
	if dir, _ := cmd.Flags().GetString("out-dir"); dir != "" {
		cfg.OutputDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rootDir := "."
	if len(args) == 1 {
		rootDir = args[0]
	}
	outDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("resolving output dir: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning pages in %s...\n", rootDir)
	}
	pages, err := walker.Walk(walker.WalkerConfig{
		RootDir: rootDir,
		Include: cfg.Batch.Include,
		Exclude: cfg.Batch.Exclude,
		Skip:    []string{outDir},
	})
	if err != nil {
		return fmt.Errorf("walking site: %w", err)
	}
	if len(pages) == 0 {
		fmt.Println("No pages found.")
		return nil
	}

	reporter := progress.NewReporter(fmt.Sprintf("%s pages", cfg.Batch.Mode))
	reporter.Start(len(pages))
	for _, page := range pages {
		changed, err := processPage(cfg, page, page.OutputPath(outDir))
		switch {
		case err != nil:
			reporter.Done(page.RelPath, progress.Failed, err)
		case changed:
			reporter.Done(page.RelPath, progress.Written, nil)
		default:
			reporter.Done(page.RelPath, progress.Unchanged, nil)
		}
	}
	summary := reporter.Finish()
	summary.Print(os.Stdout, cfg.OutputDir)
	return summary.Err()
}

// processPage renders one page in the batch mode and writes it to out. It
// reports whether out changed.
func processPage(cfg *config.Config, page walker.Page, out string) (bool, error) {
	raw, err := os.ReadFile(page.Path)
	if err != nil {
		return false, err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "%s (%s, sha256 %.12s)\n", page.RelPath, page.Kind, page.ContentHash)
	}
	ed, err := editor.Open(bytes.NewReader(raw), cfg.EditorOptions())
	if err != nil {
		return false, err
	}
	defer ed.Close()

	var body []byte
	switch cfg.Batch.Mode {
	case config.BatchPrepare:
		html, err := ed.HTML()
		if err != nil {
			return false, err
		}
		body = []byte(html)
	default:
		art, err := ed.Generate()
		if err != nil {
			return false, err
		}
		body = art.Body
	}

	if existing, err := os.ReadFile(out); err == nil && bytes.Equal(existing, body) {
		return false, nil
	}
	return true, writeFile(out, body)
}
