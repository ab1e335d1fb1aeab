package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/ariscan/internal/config"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate an ariscan configuration file",
		Long: `Generate a documented ariscan configuration file with sensible defaults.

By default, creates ariscan.yaml in the current directory with full
documentation. Use --interactive for a guided setup wizard.

Examples:
  # Create ariscan.yaml in current directory
  ariscan init

  # Custom output path
  ariscan init --config custom.yaml

  # Overwrite existing file
  ariscan init --force

  # Generate smaller config with essential options only
  ariscan init --minimal

  # Interactive setup wizard
  ariscan init --interactive
  ariscan init -i`,
		RunE: runInit,
	}

	cmd.Flags().StringP("config", "c", "ariscan.yaml",
		"Output path for the config file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing config file")
	cmd.Flags().Bool("minimal", false,
		"Generate minimal config with essential options only")
	cmd.Flags().BoolP("interactive", "i", false,
		"Interactive setup wizard")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	minimal, _ := cmd.Flags().GetBool("minimal")
	interactive, _ := cmd.Flags().GetBool("interactive")

	strictness := config.StrictnessStandard
	explanationEnabled := true

	if interactive {
		var err error
		var interactiveConfigPath string
		strictness, explanationEnabled, interactiveConfigPath, err = runInteractiveSetup(configPath)
		if err != nil {
			return err
		}
		configPath = interactiveConfigPath
	}

	// Check if file exists
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
		}
	}

	// Check if parent directory exists
	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}

	var content string
	if minimal {
		content = config.GetMinimalConfigTemplate()
	} else {
		content = config.GetFullConfigTemplate(strictness, explanationEnabled)
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	displayPath := configPath
	if absPath, err := filepath.Abs(configPath); err == nil {
		displayPath = absPath
	}
	fmt.Printf("Created %s\n", displayPath)
	fmt.Println("\nRun 'ariscan scan <owner>/<repository>' to analyze a repository.")

	return nil
}

func runInteractiveSetup(defaultConfigPath string) (config.Strictness, bool, string, error) {
	fmt.Println()
	fmt.Println("ariscan Configuration Setup")
	fmt.Println("===========================")
	fmt.Println()

	// Strictness selection
	strictnessLevels := []struct {
		Label       string
		Description string
		Value       config.Strictness
	}{
		{"Standard (recommended)", "Balanced tool time budgets", config.StrictnessStandard},
		{"Relaxed", "Doubled budgets for slow networks or large repositories", config.StrictnessRelaxed},
		{"Strict", "Halved budgets for CI/CD enforcement", config.StrictnessStrict},
	}

	strictnessTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
		Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}

	strictnessPrompt := promptui.Select{
		Label:     "How tight should the tool time budgets be?",
		Items:     strictnessLevels,
		Templates: strictnessTemplates,
	}

	strictnessIdx, _, err := strictnessPrompt.Run()
	if err != nil {
		return "", false, "", fmt.Errorf("strictness selection cancelled: %w", err)
	}
	selectedStrictness := strictnessLevels[strictnessIdx].Value

	fmt.Println()

	// Explanation toggle
	explainPrompt := promptui.Prompt{
		Label:     "Generate model explanations of scores (requires OPENAI_API_KEY)",
		IsConfirm: true,
		Default:   "y",
	}
	explanationEnabled := true
	if _, err := explainPrompt.Run(); err != nil {
		explanationEnabled = false
	}

	fmt.Println()

	// Output path prompt
	outputPrompt := promptui.Prompt{
		Label:   "Output file path",
		Default: defaultConfigPath,
	}

	outputPath, err := outputPrompt.Run()
	if err != nil {
		return "", false, "", fmt.Errorf("output path input cancelled: %w", err)
	}

	if outputPath == "" {
		outputPath = defaultConfigPath
	}

	fmt.Println()
	fmt.Printf("Creating %s... ", outputPath)

	return selectedStrictness, explanationEnabled, outputPath, nil
}
