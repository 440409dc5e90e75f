package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"aiken/internal/check"
	"aiken/internal/format"
)

var checkFlags struct {
	markdown bool
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Type-check the project and run tests",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkFlags.markdown, "markdown", false, "Render the summary as Markdown tables")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	res, err := check.Run(cmd.Context(), p, selectBackend())
	if err != nil {
		return err
	}

	mode := format.Terminal
	if checkFlags.markdown {
		mode = format.Markdown
	}
	fmt.Fprint(cmd.OutOrStdout(), res.Summary(mode))

	if res.Failed() {
		return fmt.Errorf("check failed")
	}
	return nil
}
