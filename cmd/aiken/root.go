package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aiken/internal/codegen"
	"aiken/internal/logging"
	"aiken/internal/project"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	dir       string
	logLevel  string
	logFormat string
	codegen   string
}

var rootCmd = &cobra.Command{
	Use:   "aiken",
	Short: "Cardano smart contract toolchain",
	Long:  "Aiken manages smart contract projects: scaffolding, dependency\nfetching, checking, documentation and blueprint operations.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Setup(level, rootFlags.logFormat, cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.dir, "dir", "d", ".", "Project directory")
	pf.StringVar(&rootFlags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")
	pf.StringVar(&rootFlags.codegen, "codegen", "", "Codegen backend command (default $AIKEN_CODEGEN)")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(blueprintCmd)
	rootCmd.AddCommand(packagesCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.Version = version
}

// openProject opens the project containing --dir.
func openProject() (*project.Project, error) {
	return project.Open(rootFlags.dir)
}

// selectBackend picks the codegen backend from the --codegen flag,
// falling back to the AIKEN_CODEGEN environment variable.
func selectBackend() codegen.Backend {
	command := rootFlags.codegen
	if command == "" {
		command = os.Getenv("AIKEN_CODEGEN")
	}
	return codegen.Select(command)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
