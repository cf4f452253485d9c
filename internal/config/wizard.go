package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// detectPages suggests an include pattern from the pages in the current
// directory.
func detectPages() (count int, include string) {
	top, _ := filepath.Glob("*.html")
	nested, _ := filepath.Glob("*/*.html")
	switch {
	case len(nested) > 0:
		return len(top) + len(nested), "**/*.html"
	case len(top) > 0:
		return len(top), "*.html"
	}
	return 0, "**/*.html"
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .pagedit.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to pagedit! Let's configure your project.")
	fmt.Println()

	cfg := DefaultConfig()

	if n, include := detectPages(); n > 0 {
		fmt.Printf("Found %d HTML pages\n\n", n)
		cfg.Batch.Include = []string{include}
	}

	// 1. Output directory.
	outputPrompt := promptui.Prompt{
		Label:   "Output directory for saved pages",
		Default: cfg.OutputDir,
	}
	outputDir, err := outputPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	cfg.OutputDir = outputDir

	// 2. Server port.
	portPrompt := promptui.Prompt{
		Label:   "Editor server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p < 1 || p > 65535 {
				return fmt.Errorf("port must be between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 3. Delete confirmation.
	confirmPrompt := promptui.Select{
		Label: "Ask before deleting photos",
		Items: []string{"yes", "no"},
	}
	confirmIdx, _, err := confirmPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("delete confirmation: %w", err)
	}
	cfg.Editor.ConfirmDeletes = confirmIdx == 0

	// 4. Default product name.
	namePrompt := promptui.Prompt{
		Label:   "Name prefix for new products (blank for \"Product\")",
		Default: "",
	}
	name, err := namePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("product name: %w", err)
	}
	cfg.Editor.DefaultProductName = strings.TrimSpace(name)

	// 5. Batch patterns.
	includePrompt := promptui.Prompt{
		Label:   "Batch include patterns (comma-separated globs)",
		Default: strings.Join(cfg.Batch.Include, ","),
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	cfg.Batch.Include = splitAndTrim(includeStr)

	excludePrompt := promptui.Prompt{
		Label:   "Extra exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	if excludeStr != "" {
		cfg.Batch.Exclude = append(cfg.Batch.Exclude, splitAndTrim(excludeStr)...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
