package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// modelsCmd represents the models command
var modelsCmd = &cobra.Command{
	Use:   "models [pattern]",
	Short: "List models",
	Long:  `List the models whose name matches the pattern ("%" wildcards).`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		pattern := "%"
		if len(args) == 1 {
			pattern = args[0]
		}
		names, err := c.ModelNames(pattern)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var (
	modulesInstalled   bool
	modulesUninstalled bool
)

// modulesCmd represents the modules command
var modulesCmd = &cobra.Command{
	Use:   "modules [pattern]",
	Short: "List addon modules",
	Long:  `List the addon modules matching the pattern, grouped by state.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		pattern := "%"
		if len(args) == 1 {
			pattern = args[0]
		}
		var installed *bool
		if modulesInstalled {
			v := true
			installed = &v
		} else if modulesUninstalled {
			v := false
			installed = &v
		}
		grouped, err := c.Modules(pattern, installed)
		if err != nil {
			return err
		}
		states := make([]string, 0, len(grouped))
		for state := range grouped {
			states = append(states, state)
		}
		sort.Strings(states)
		for _, state := range states {
			names := grouped[state]
			sort.Strings(names)
			fmt.Printf("%s:\n", state)
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
		}
		return nil
	},
}

// installCmd represents the modules install command
var installCmd = &cobra.Command{
	Use:   "install [module]...",
	Short: "Install addon modules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		return c.Install(args...)
	},
}

// upgradeCmd represents the modules upgrade command
var upgradeCmd = &cobra.Command{
	Use:   "upgrade [module]...",
	Short: "Upgrade addon modules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		return c.Upgrade(args...)
	},
}

// uninstallCmd represents the modules uninstall command
var uninstallCmd = &cobra.Command{
	Use:   "uninstall [module]...",
	Short: "Uninstall addon modules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		return c.Uninstall(args...)
	},
}

func init() {
	modulesCmd.Flags().BoolVar(&modulesInstalled, "installed", false, "Only installed modules")
	modulesCmd.Flags().BoolVar(&modulesUninstalled, "uninstalled", false, "Only modules that are not installed")

	modulesCmd.AddCommand(installCmd)
	modulesCmd.AddCommand(upgradeCmd)
	modulesCmd.AddCommand(uninstallCmd)
}
