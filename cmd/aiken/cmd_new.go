package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"aiken/internal/config"
	"aiken/internal/scaffold"
)

var newFlags struct {
	description string
}

var newCmd = &cobra.Command{
	Use:   "new {owner}/{project}",
	Short: "Create a new project",
	Args:  cobra.ExactArgs(1),
	RunE:  runNew,
}

func init() {
	newCmd.Flags().StringVar(&newFlags.description, "description", "", "Project description for aiken.toml")
}

func runNew(cmd *cobra.Command, args []string) error {
	name, err := config.ParseName(args[0])
	if err != nil {
		return err
	}
	target, err := scaffold.Create(rootFlags.dir, scaffold.Params{
		Name:        name,
		Description: newFlags.description,
		ToolVersion: version,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", target)
	fmt.Fprintf(out, "\n  cd %s\n  aiken check\n", name.Repo)
	return nil
}
