package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/oerplib/oerp/pkg/config"
)

var (
	version = "1.0.0"
	// Build information variables
	GitCommit = "unknown" // Git commit hash
	BuildTime = "unknown" // Build timestamp
)

// Connection flags, shared by every command.
var (
	configFile string
	envName    string
	serverURL  string
	dbName     string
	userName   string
	password   string
	verbose    bool
)

// One-shot flags on the bare root command.
var (
	modelName   string
	searchTerms []string
	fieldNames  []string
	interact    bool
	listDBs     bool
)

// printVersionInfo displays detailed version information
func printVersionInfo() {
	fmt.Printf("oerp v%s (build %s)\n", version, GitCommit)
	fmt.Printf("Built: %s\n", BuildTime)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "oerp",
	Short: "OpenERP command line client",
	Long: "A command line client for OpenERP-compatible servers: search and read records, " +
		"inspect models, manage addons and open an interactive shell.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("version").Changed {
			printVersionInfo()
			return nil
		}
		if listDBs {
			return runListDatabases()
		}
		if modelName != "" {
			return runOneShot()
		}
		if interact {
			return runShell()
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", config.DefaultFile, "Path to the environments file")
	pf.StringVar(&envName, "env", "", "Read connection settings from the named environment")
	pf.StringVar(&serverURL, "server", "", "Server URL, overrides the environment")
	pf.StringVarP(&dbName, "db", "d", "", "Database name")
	pf.StringVarP(&userName, "user", "u", "", "Username")
	pf.StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	fl := rootCmd.Flags()
	fl.StringVarP(&modelName, "model", "m", "", "Search or read this model and exit")
	fl.StringArrayVarP(&searchTerms, "search", "s", nil, "Domain term, repeatable (\"field operator value\")")
	fl.StringArrayVarP(&fieldNames, "fields", "f", nil, "Field to read, repeatable")
	fl.BoolVarP(&interact, "interact", "i", false, "Open the interactive shell")
	fl.BoolVarP(&listDBs, "list", "l", false, "List the databases exposed by the server and exit")
	fl.Bool("version", false, "Show version information and exit")

	setupCommands()
	setupCompletion()
}

func main() {
	Execute()
}
