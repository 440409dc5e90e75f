package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aiken/internal/config"
	"aiken/internal/deps"
	"aiken/internal/logging"
)

var packagesFlags struct {
	version string
	source  string
}

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "Manage project dependencies",
}

var packagesAddCmd = &cobra.Command{
	Use:   "add {owner}/{project}",
	Short: "Add a dependency and fetch it",
	Args:  cobra.ExactArgs(1),
	RunE:  runPackagesAdd,
}

var packagesRemoveCmd = &cobra.Command{
	Use:   "remove {owner}/{project}",
	Short: "Remove a dependency from the manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runPackagesRemove,
}

var packagesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download dependencies listed in aiken.toml",
	RunE:  runPackagesSync,
}

var packagesClearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Delete downloaded packages so the next sync re-fetches them",
	RunE:  runPackagesClearCache,
}

func init() {
	f := packagesAddCmd.Flags()
	f.StringVar(&packagesFlags.version, "version", "main", "Tag, branch or commit to fetch")
	f.StringVar(&packagesFlags.source, "source", string(config.GitHub), "Source forge (github, gitlab, bitbucket)")

	packagesCmd.AddCommand(packagesAddCmd)
	packagesCmd.AddCommand(packagesRemoveCmd)
	packagesCmd.AddCommand(packagesSyncCmd)
	packagesCmd.AddCommand(packagesClearCacheCmd)
}

func runPackagesAdd(cmd *cobra.Command, args []string) error {
	if _, err := config.ParseName(args[0]); err != nil {
		return err
	}
	p, err := openProject()
	if err != nil {
		return err
	}

	dep := config.Dependency{
		Name:    args[0],
		Version: packagesFlags.version,
		Source:  config.Platform(packagesFlags.source),
	}
	if existing := p.Config.FindDependency(dep.Name); existing != nil {
		existing.Version = dep.Version
		existing.Source = dep.Source
	} else {
		p.Config.Dependencies = append(p.Config.Dependencies, dep)
	}
	if err := p.Config.Save(p.ManifestPath()); err != nil {
		return err
	}

	if err := syncPackages(cmd, p.PackagesDir(), p.Config.Dependencies); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", dep.Name, dep.Version)
	return nil
}

func runPackagesRemove(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	kept := p.Config.Dependencies[:0]
	removed := false
	for _, d := range p.Config.Dependencies {
		if d.Name == args[0] {
			removed = true
			continue
		}
		kept = append(kept, d)
	}
	if !removed {
		return fmt.Errorf("%s is not a dependency of this project", args[0])
	}
	p.Config.Dependencies = kept
	if err := p.Config.Save(p.ManifestPath()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}

func runPackagesSync(cmd *cobra.Command, _ []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	if err := syncPackages(cmd, p.PackagesDir(), p.Config.Dependencies); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Synced %d package(s)\n", len(p.Config.Dependencies))
	return nil
}

func runPackagesClearCache(cmd *cobra.Command, _ []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	if err := os.RemoveAll(p.PackagesDir()); err != nil {
		return fmt.Errorf("clear package cache: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", p.PackagesDir())
	return nil
}

func syncPackages(cmd *cobra.Command, packagesDir string, dependencies []config.Dependency) error {
	client := deps.NewClient(deps.WithLogger(logging.New("deps")))
	_, warnings, err := deps.NewResolver(client).Sync(cmd.Context(), packagesDir, dependencies)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	return nil
}
