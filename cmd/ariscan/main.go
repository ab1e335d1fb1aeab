package main

import (
	"fmt"
	"os"

	"github.com/ludo-technologies/ariscan/internal/version"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ariscan",
		Short: "ariscan - Application Readiness Index for remote repositories",
		Long: `ariscan fetches a remote repository, runs lint and dependency-vulnerability
analysis over it, and derives a bounded 0-100 readiness score with a risk
category and an optional model-generated explanation.`,
		Version: version.Version,
	}

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		// Handle custom exit codes from the scan command
		if exitErr, ok := err.(*ScanExitError); ok {
			if exitErr.Message != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
			}
			// Silently exit with the specified code (output already printed)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// ScanExitError carries a process exit code out of the scan command
type ScanExitError struct {
	Code    int
	Message string
}

// Error implements the error interface
func (e *ScanExitError) Error() string {
	return e.Message
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				fmt.Println(version.GetFullVersion())
			} else {
				fmt.Printf("ariscan version %s\n", version.GetVersion())
			}
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Show detailed version information")
	return cmd
}
