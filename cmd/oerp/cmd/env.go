package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// envCmd represents the env command
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage environments",
	Long:  "Commands for inspecting the environments configured in the environments file.",
}

// listEnvCmd represents the env list command
var listEnvCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured environments",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadConfig()
		if err != nil {
			return err
		}
		for _, name := range f.Names() {
			env, err := f.Environment(name)
			if err != nil {
				fmt.Printf("%-16s (%v)\n", name, err)
				continue
			}
			fmt.Printf("%-16s %s database=%s user=%s\n",
				name, env.Server, env.Database, env.Username)
		}
		return nil
	},
}

// showEnvCmd represents the env show command
var showEnvCmd = &cobra.Command{
	Use:   "show [environment-name]",
	Short: "Show environment details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadConfig()
		if err != nil {
			return err
		}
		env, err := f.Environment(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Environment: %s\n", env.Name)
		fmt.Printf("Server:      %s\n", env.Server)
		fmt.Printf("Database:    %s\n", env.Database)
		fmt.Printf("Username:    %s\n", env.Username)
		if env.Password != "" {
			fmt.Println("Password:    (stored)")
		} else {
			fmt.Println("Password:    (prompted on login)")
		}
		return nil
	},
}

var loginClear bool

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the password",
	Long: `Authenticate against the --env environment and store the password in the
keyring so later commands can log in without prompting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if envName == "" {
			return fmt.Errorf("login requires --env")
		}
		f, err := loadConfig()
		if err != nil {
			return err
		}
		env, err := f.Environment(envName)
		if err != nil {
			return err
		}
		if loginClear {
			if err := f.ClearPassword(envName, env.Username); err != nil {
				return err
			}
			fmt.Printf("Cleared the stored password for %s@%s\n", env.Username, envName)
			return nil
		}

		secret := password
		if secret == "" {
			secret, err = promptPassword(env.Username)
			if err != nil {
				return err
			}
		}
		c, err := connectWith(env.Server, env.Database, env.Username, secret)
		if err != nil {
			return err
		}
		if err := f.StorePassword(envName, env.Username, secret); err != nil {
			return err
		}
		fmt.Printf("Logged in to %s as %q (uid %d), password stored\n",
			envName, c.User(), c.UID())
		return nil
	},
}

func init() {
	envCmd.AddCommand(listEnvCmd)
	envCmd.AddCommand(showEnvCmd)

	loginCmd.Flags().BoolVar(&loginClear, "clear", false, "Remove the stored password instead of logging in")
}
