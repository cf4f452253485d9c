package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/pagedit/internal/config"
	"github.com/ziadkadry99/pagedit/internal/editor"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `pagedit init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openPage loads the page at path into a new editor. Deletions ask
// on the terminal unless confirm deletes is off or assumeYes is set.
func openPage(cfg *config.Config, path string, assumeYes bool) (*editor.Editor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	opts := cfg.EditorOptions()
	if cfg.Editor.ConfirmDeletes && !assumeYes {
		opts.Confirm = confirmPrompt
	}
	ed, err := editor.Open(bytes.NewReader(raw), opts)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Opened %s (%d bytes)\n", path, len(raw))
	}
	return ed, nil
}

// editPage opens path, applies fn and writes the editable page back.
func editPage(path string, assumeYes bool, fn func(ed *editor.Editor) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ed, err := openPage(cfg, path, assumeYes)
	if err != nil {
		return err
	}
	defer ed.Close()

	if err := fn(ed); err != nil {
		return err
	}
	page, err := ed.HTML()
	if err != nil {
		return err
	}
	return writeFile(path, []byte(page))
}

// confirmPrompt asks a yes/no question on the terminal.
func confirmPrompt(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	return err == nil
}

// writeFile replaces path with data, creating parent directories.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pagedit-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
