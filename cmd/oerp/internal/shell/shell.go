// Package shell implements the interactive mode: a readline loop bound to a
// connected client, with a current model and short data commands.
package shell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/oerplib/oerp/pkg/client"
	"github.com/oerplib/oerp/pkg/domain"
)

type session struct {
	client *client.Client
	env    string
	model  *client.Model
}

// Run starts the interactive loop on the connected client. env names the
// connection in the prompt.
func Run(c *client.Client, env string) error {
	s := &session{client: c, env: env}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     historyFile(),
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize the shell: %v", err)
	}
	defer rl.Close()

	fmt.Printf("Connected to %s, server version %s\n", c.Server(), c.ServerVersion())
	fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave.")
	fmt.Println()

	for {
		rl.SetPrompt(s.prompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				fmt.Println("exit")
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "clear" {
			fmt.Print("\033[H\033[2J")
			continue
		}
		if err := s.dispatch(line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

func (s *session) prompt() string {
	if s.model != nil {
		return fmt.Sprintf("%s [%s] >>> ", s.env, s.model.Name())
	}
	return fmt.Sprintf("%s >>> ", s.env)
}

func (s *session) dispatch(line string) error {
	name, rest := splitCommand(line)
	switch name {
	case "help":
		printHelp()
		return nil
	case "env":
		c := s.client
		fmt.Printf("server   %s (%s)\n", c.Server(), c.ServerVersion())
		fmt.Printf("database %s\n", c.Database())
		fmt.Printf("user     %s (uid %d)\n", c.User(), c.UID())
		return nil
	case "models":
		pattern := rest
		if pattern == "" {
			pattern = "%"
		}
		names, err := s.client.ModelNames(pattern)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	case "model":
		if rest == "" {
			return fmt.Errorf("usage: model <name>")
		}
		m, err := s.client.Model(rest)
		if err != nil {
			return err
		}
		s.model = m
		return nil
	case "keys":
		m, err := s.current()
		if err != nil {
			return err
		}
		keys, err := m.Keys()
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(keys, " "))
		return nil
	case "fields":
		return s.runFields(rest)
	case "access":
		m, err := s.current()
		if err != nil {
			return err
		}
		modes := strings.Fields(rest)
		if len(modes) == 0 {
			modes = []string{"read", "write", "create", "unlink"}
		}
		for _, mode := range modes {
			fmt.Printf("%-7s %v\n", mode, m.Access(mode))
		}
		return nil
	case "search":
		m, err := s.current()
		if err != nil {
			return err
		}
		ids, err := m.Search(parseTerms(rest))
		if err != nil {
			return err
		}
		fmt.Println(ids)
		return nil
	case "count":
		m, err := s.current()
		if err != nil {
			return err
		}
		n, err := m.Count(parseTerms(rest))
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	case "read":
		return s.runRead(rest)
	case "do":
		return s.runDo(rest)
	default:
		return fmt.Errorf("unknown command %q, type 'help'", name)
	}
}

func (s *session) current() (*client.Model, error) {
	if s.model == nil {
		return nil, fmt.Errorf("no current model, use 'model <name>'")
	}
	return s.model, nil
}

func (s *session) runFields(rest string) error {
	m, err := s.current()
	if err != nil {
		return err
	}
	fields, err := m.Fields(strings.Fields(rest)...)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		info := fields[name]
		line := fmt.Sprintf("%-24s %-10s", name, info.Type)
		if info.Relation != "" {
			line += " -> " + info.Relation
		}
		if info.Label != "" {
			line += "  " + info.Label
		}
		fmt.Println(line)
	}
	return nil
}

// runRead reads records: "read <ids|terms> | <field,...>".
func (s *session) runRead(rest string) error {
	m, err := s.current()
	if err != nil {
		return err
	}
	selectorText, fieldsText := rest, ""
	if i := strings.Index(rest, "|"); i >= 0 {
		selectorText = strings.TrimSpace(rest[:i])
		fieldsText = strings.TrimSpace(rest[i+1:])
	}
	var selector any
	if ids, ok := parseIDs(selectorText); ok {
		selector = ids
	} else {
		selector = parseTerms(selectorText)
	}
	var fields any
	if fieldsText != "" {
		fields = fieldsText
	}
	res, err := m.Read(selector, fields)
	if err != nil {
		return err
	}
	rows, ok := res.([]any)
	if !ok {
		fmt.Println(res)
		return nil
	}
	for _, row := range rows {
		fmt.Println(row)
	}
	return nil
}

// runDo calls an arbitrary model method: "do <method> [literal]...".
// Arguments are parsed as literals, bare words stay strings.
func (s *session) runDo(rest string) error {
	m, err := s.current()
	if err != nil {
		return err
	}
	parts := strings.Fields(rest)
	if len(parts) == 0 {
		return fmt.Errorf("usage: do <method> [argument]...")
	}
	params := make([]any, len(parts)-1)
	for i, raw := range parts[1:] {
		value, err := domain.Literal(raw)
		if err != nil {
			params[i] = raw
			continue
		}
		params[i] = value
	}
	res, err := m.Call(parts[0], params...)
	if err != nil {
		return err
	}
	fmt.Println(res)
	return nil
}

// parseTerms splits a comma-separated list of "field operator value" terms
// into a domain. Empty input is the match-all domain.
func parseTerms(rest string) domain.Domain {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return domain.Domain{}
	}
	parts := strings.Split(rest, ",")
	dom := make(domain.Domain, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dom = append(dom, part)
	}
	return dom
}

// parseIDs interprets a comma-separated list of record ids.
func parseIDs(s string) ([]int64, bool) {
	if s == "" {
		return nil, false
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, len(parts))
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, false
		}
		ids[i] = n
	}
	return ids, true
}

func splitCommand(line string) (string, string) {
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i], strings.TrimSpace(line[i+1:])
	}
	return line, ""
}

func printHelp() {
	fmt.Println(`Commands:
  model <name>                    select the current model
  models [pattern]                list model names
  keys                            field names of the current model
  fields [name]...                field descriptors of the current model
  access [mode]...                access rights of the current model
  search <term>[, <term>]...      search, print matching ids
  count <term>[, <term>]...       count matching records
  read <ids|terms> [| <fields>]   read records
  do <method> [argument]...       call a model method
  env                             show connection details
  clear                           clear the screen
  exit | quit                     leave the shell

A term is "field operator value", for example: name like A%`)
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "oerp", "shell_history")
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("model"),
		readline.PcItem("models"),
		readline.PcItem("keys"),
		readline.PcItem("fields"),
		readline.PcItem("access"),
		readline.PcItem("search"),
		readline.PcItem("count"),
		readline.PcItem("read"),
		readline.PcItem("do"),
		readline.PcItem("env"),
		readline.PcItem("help"),
		readline.PcItem("clear"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}
