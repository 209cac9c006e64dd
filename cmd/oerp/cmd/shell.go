package main

import (
	"github.com/spf13/cobra"

	"github.com/oerplib/oerp/cmd/oerp/internal/shell"
)

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open the interactive shell",
	Long:  `Connect and open a line-oriented shell bound to the connection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell()
	},
}

func runShell() error {
	c, err := connect()
	if err != nil {
		return err
	}
	name := envName
	if name == "" {
		name = c.Database()
	}
	return shell.Run(c, name)
}
