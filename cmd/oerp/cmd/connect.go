package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/oerplib/oerp/pkg/client"
	"github.com/oerplib/oerp/pkg/config"
	"github.com/oerplib/oerp/pkg/keyring"
	"github.com/oerplib/oerp/pkg/logger"
	"github.com/oerplib/oerp/pkg/xmlrpc"
)

// loadConfig reads the environments file and attaches the keyring for
// password lookup.
func loadConfig() (*config.File, error) {
	f, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	f.UseSecrets(keyring.NewManager(keyring.DefaultPath(), keyring.MasterPasswordFromEnv()))
	return f, nil
}

// resolveEnvironment merges the --env section of the configuration with the
// connection flags. Flags win.
func resolveEnvironment() (config.Environment, error) {
	var env config.Environment
	if envName != "" {
		f, err := loadConfig()
		if err != nil {
			return env, err
		}
		env, err = f.Environment(envName)
		if err != nil {
			return env, err
		}
	}
	if serverURL != "" {
		env.Server = serverURL
	}
	if dbName != "" {
		env.Database = dbName
	}
	if userName != "" {
		env.Username = userName
	}
	if password != "" {
		env.Password = password
	}
	if env.Server == "" {
		return env, fmt.Errorf("no server: use --env or --server")
	}
	if env.Database == "" || env.Username == "" {
		return env, fmt.Errorf("no database or username: use --env or --db and --user")
	}
	return env, nil
}

// connect builds an authenticated client from the connection flags.
func connect() (*client.Client, error) {
	env, err := resolveEnvironment()
	if err != nil {
		return nil, err
	}
	log := logger.New("oerp")
	if verbose {
		log.SetLevel(logger.LevelDebug)
	}
	c, err := client.New(env.Server, env.Database, env.Username, env.Password,
		client.WithLogger(log),
		client.WithPasswordFunc(promptPassword))
	if err != nil {
		return nil, err
	}
	fmt.Printf("Connected to %s (%s), database %s, as %q\n",
		env.Server, c.ServerVersion(), env.Database, c.User())
	return c, nil
}

// connectWith builds an authenticated client from explicit parameters.
func connectWith(server, database, user, secret string) (*client.Client, error) {
	log := logger.New("oerp")
	if verbose {
		log.SetLevel(logger.LevelDebug)
	}
	return client.New(server, database, user, secret,
		client.WithLogger(log),
		client.WithPasswordFunc(promptPassword))
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(user string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for %q: ", user)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %v", err)
	}
	return string(secret), nil
}

// runListDatabases lists the databases without authenticating.
func runListDatabases() error {
	env, err := resolveEnvironment()
	if err != nil {
		return err
	}
	caller := xmlrpc.NewClient(env.Server, client.DefaultTimeout)
	res, err := caller.Call("db", "list", []any{})
	if err != nil {
		return err
	}
	names, ok := res.([]any)
	if !ok {
		return fmt.Errorf("unexpected reply %T", res)
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// runOneShot performs the --model search/read and exits.
func runOneShot() error {
	c, err := connect()
	if err != nil {
		return err
	}
	dom := make([]any, len(searchTerms))
	for i, s := range searchTerms {
		dom[i] = s
	}
	ids, err := c.Search(modelName, dom)
	if err != nil {
		return err
	}
	if len(fieldNames) == 0 {
		fmt.Println(ids)
		return nil
	}
	res, err := c.Read(modelName, ids, fieldNames)
	if err != nil {
		return err
	}
	printRows(res)
	return nil
}

// printRows renders a read result, one record per line.
func printRows(res any) {
	rows, ok := res.([]any)
	if !ok {
		fmt.Println(res)
		return
	}
	for _, row := range rows {
		fmt.Println(row)
	}
}
