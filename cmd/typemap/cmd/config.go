package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/typemap/internal/config"
)

// projectConfigName is the file config init writes in the project root.
const projectConfigName = ".typemap.yaml"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage typemap configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/typemap/config.yaml)
  3. Project config (.typemap.yaml)
  4. Environment variables (TYPEMAP_*)`,
		Example: `  # Create .typemap.yaml with the detected roots
  typemap config init

  # Show effective configuration
  typemap config show`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		user  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file",
		Long: `Create .typemap.yaml in the project root, or the user configuration
with --user. Project roots are prefilled from the Maven or Gradle layout.

With --force an existing file is backed up and replaced.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force, user)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Back up and overwrite an existing file")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user configuration instead")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if jsonOutput {
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print configuration file paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := projectRoot()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "user:    %s\n", config.GetUserConfigPath())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "project: %s\n", filepath.Join(root, projectConfigName))
			return nil
		},
	}
}

func projectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		return cwd, nil
	}
	return root, nil
}

func runConfigInit(cmd *cobra.Command, force, user bool) error {
	cfg := config.NewConfig()

	var path string
	if user {
		path = config.GetUserConfigPath()
	} else {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		path = filepath.Join(root, projectConfigName)
		for _, r := range config.DiscoverRoots(root) {
			rel, err := filepath.Rel(root, r)
			if err != nil {
				rel = r
			}
			cfg.Roots = append(cfg.Roots, filepath.ToSlash(rel))
		}
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(path); err == nil {
		if !force {
			_, _ = fmt.Fprintf(out, "Configuration already exists: %s\n", path)
			_, _ = fmt.Fprintln(out, "Use --force to back it up and overwrite it")
			return nil
		}
		backup, err := config.BackupFile(path)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Backup: %s\n", backup)
	}

	if err := cfg.WriteYAML(path); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Created %s\n", path)
	return nil
}
