// Package cli provides configuration management commands.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mapgrab/mapgrab/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mapgrab configuration",
		Long: `Configuration management commands for mapgrab.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test the server connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for mapgrab.

The configuration is saved to ~/.config/mapgrab/config.

Use --force to overwrite existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}

			if !force {
				if _, err := os.Stat(configPath); err == nil {
					fmt.Printf("Configuration already exists at: %s\n", configPath)
					fmt.Println("Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			fmt.Println("mapgrab Configuration Setup")
			fmt.Println("===========================")
			fmt.Println()

			reader := bufio.NewReader(os.Stdin)
			cfg := config.New()

			fmt.Printf("Scraper server URL [%s]: ", cfg.ServerURL)
			urlInput, _ := reader.ReadString('\n')
			if v := strings.TrimSpace(urlInput); v != "" {
				cfg.ServerURL = v
			}

			fmt.Printf("Poll interval in seconds [%d]: ", cfg.PollIntervalSeconds)
			pollInput, _ := reader.ReadString('\n')
			if v := strings.TrimSpace(pollInput); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					cfg.PollIntervalSeconds = n
				}
			}

			fmt.Printf("Task list refresh in seconds [%d]: ", cfg.TaskRefreshSeconds)
			refreshInput, _ := reader.ReadString('\n')
			if v := strings.TrimSpace(refreshInput); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					cfg.TaskRefreshSeconds = n
				}
			}

			fmt.Printf("Download directory [current directory]: ")
			dirInput, _ := reader.ReadString('\n')
			cfg.DownloadDir = strings.TrimSpace(dirInput)

			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := config.Save(cfg, configPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Println()
			fmt.Printf("Configuration saved to: %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")
	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Println("Current configuration:")
			fmt.Printf("  Server URL:        %s\n", cfg.ServerURL)
			fmt.Printf("  Poll interval:     %ds\n", cfg.PollIntervalSeconds)
			fmt.Printf("  Task refresh:      %ds\n", cfg.TaskRefreshSeconds)
			if cfg.DownloadDir != "" {
				fmt.Printf("  Download dir:      %s\n", cfg.DownloadDir)
			}
			fmt.Printf("  Proxy mode:        %s\n", cfg.ProxyMode)
			if cfg.ProxyHost != "" {
				fmt.Printf("  Proxy host:        %s:%d\n", cfg.ProxyHost, cfg.ProxyPort)
			}
			return nil
		},
	}
	return cmd
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the server connection",
		Long: `Check that the configured server is reachable by requesting its
active-task list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			tasks, err := apiClient.ActiveTasks(GetContext())
			if err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}

			fmt.Printf("Server OK (%s), %d active task(s)\n", apiClient.BaseURL(), len(tasks))
			return nil
		},
	}
	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				var err error
				path, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}
			fmt.Println(path)
			return nil
		},
	}
	return cmd
}
