package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ludo-technologies/ariscan/app"
	"github.com/ludo-technologies/ariscan/domain"
	"github.com/ludo-technologies/ariscan/service"
	"github.com/spf13/cobra"
)

var (
	outputFormat string
	jsonOutput   bool
	yamlOutput   bool
	configPath   string
	branchName   string
	noExplain    bool
	showDetails  bool
	verboseLog   bool
	outputPath   string
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <owner>/<repository>",
		Short: "Compute the Application Readiness Index for a repository",
		Long: `Fetch a repository, run lint and dependency-audit analysis, and derive
a 0-100 readiness score with a risk category.

Examples:
  ariscan scan expressjs/express
  ariscan scan --branch develop expressjs/express
  ariscan scan --json expressjs/express
  ariscan scan --no-explain --format yaml expressjs/express`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
		// Errors surface once through main's exit-code handling; without
		// these cobra would append usage text after an already-printed report
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "",
		"Output format: text, json, yaml")
	cmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON (shorthand for --format json)")
	cmd.Flags().BoolVar(&yamlOutput, "yaml", false,
		"Output results as YAML (shorthand for --format yaml)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().StringVarP(&branchName, "branch", "b", "",
		"Branch to analyze (default: the remote default branch)")
	cmd.Flags().BoolVar(&noExplain, "no-explain", false,
		"Skip the model-generated explanation")
	cmd.Flags().BoolVar(&showDetails, "details", false,
		"Show the detailed explanation breakdown")
	cmd.Flags().BoolVarP(&verboseLog, "verbose", "v", false,
		"Enable debug logging")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Write the report to a file instead of stdout")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	configureLogging(verboseLog)

	repo, err := parseRepoArg(args[0])
	if err != nil {
		return err
	}
	repo.Branch = branchName

	// Load configuration
	loader := service.NewConfigurationLoader()
	cfg := loader.LoadDefaultConfig()
	if configPath != "" {
		cfg, err = loader.LoadConfig(configPath)
		if err != nil {
			return err
		}
	}

	// Credentials come from the environment at bootstrap, never from file
	cfg.Explanation.APIKey = os.Getenv("OPENAI_API_KEY")
	githubToken := os.Getenv("GITHUB_TOKEN")

	// Determine output format
	format := domain.OutputFormat(cfg.Output.Format)
	if jsonOutput || outputFormat == "json" {
		format = domain.OutputFormatJSON
	} else if yamlOutput || outputFormat == "yaml" {
		format = domain.OutputFormatYAML
	} else if outputFormat != "" {
		format = domain.OutputFormat(outputFormat)
	}

	req := loader.MergeRequest(loader.ToScanRequest(cfg), &domain.ScanRequest{
		Repo:            repo,
		OutputFormat:    format,
		ShowDetails:     showDetails,
		SkipExplanation: noExplain,
		ConfigPath:      configPath,
	})

	// Progress bars only make sense for interactive text output
	pm := service.NewProgressManager(req.OutputFormat == domain.OutputFormatText)
	defer pm.Close()

	uc, err := app.NewScanUseCaseBuilder().
		WithFetcher(service.NewGitFetcher(&cfg.Acquisition)).
		WithContentFetcher(service.NewGitHubContentFetcher(githubToken)).
		WithInstaller(service.NewNpmInstaller(&cfg.Analysis)).
		WithLintRunner(service.NewESLintRunner(&cfg.Analysis)).
		WithAuditRunner(service.NewNpmAuditRunner(&cfg.Analysis)).
		WithExplainer(service.NewOpenAIExplanationService(&cfg.Explanation)).
		WithExecutor(service.NewParallelExecutorWithProgress(&cfg.Performance, pm)).
		WithProgress(pm).
		Build()
	if err != nil {
		return err
	}

	result := uc.Execute(cmd.Context(), *req)

	writer := cmd.OutOrStdout()
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	formatter := service.NewOutputFormatter(req.ShowDetails)
	if err := formatter.Write(result, req.OutputFormat, writer); err != nil {
		return err
	}

	if !result.IsValid {
		// Report already printed; surface rejection through the exit code
		return &ScanExitError{Code: 2}
	}
	return nil
}

// parseRepoArg parses an "owner/repository" argument
func parseRepoArg(arg string) (domain.RepoRef, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(arg), ".git")
	trimmed = strings.TrimPrefix(trimmed, "https://github.com/")

	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return domain.RepoRef{}, fmt.Errorf("invalid repository %q (expected owner/repository)", arg)
	}
	return domain.RepoRef{Owner: parts[0], Name: parts[1]}, nil
}

// configureLogging routes structured logs to stderr so reports stay clean
func configureLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
