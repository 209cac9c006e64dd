package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oerplib/oerp/pkg/domain"
)

var (
	searchLimit  int64
	searchOffset int64
	searchOrder  string
	searchCount  bool
	readFields   []string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [model] [term]...",
	Short: "Search records",
	Long: `Search the model for records matching the domain terms and print the ids.
Each term has the form "field operator value", for example "name like A%".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		dom := termArgs(args[1:])
		if searchCount {
			n, err := c.Count(args[0], dom)
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		}
		opts := domain.Options{}
		if searchOffset != 0 {
			opts["offset"] = searchOffset
		}
		if searchLimit != 0 {
			opts["limit"] = searchLimit
		}
		if searchOrder != "" {
			opts["order"] = searchOrder
		}
		ids, err := c.SearchOpts(args[0], []any{dom}, opts)
		if err != nil {
			return err
		}
		fmt.Println(ids)
		return nil
	},
}

// readCmd represents the read command
var readCmd = &cobra.Command{
	Use:   "read [model] [ids|term]...",
	Short: "Read records",
	Long: `Read fields of the matching records. The selector is either a
comma-separated list of ids or domain terms like in search.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		var selector any
		if ids, ok := parseIDs(args[1]); ok && len(args) == 2 {
			selector = ids
		} else {
			selector = termArgs(args[1:])
		}
		var fields any
		if len(readFields) > 0 {
			fields = readFields
		}
		res, err := c.Read(args[0], selector, fields)
		if err != nil {
			return err
		}
		printRows(res)
		return nil
	},
}

// termArgs converts command arguments into a search domain.
func termArgs(args []string) domain.Domain {
	dom := make(domain.Domain, len(args))
	for i, s := range args {
		dom[i] = s
	}
	return dom
}

// parseIDs interprets a comma-separated list of record ids.
func parseIDs(s string) ([]int64, bool) {
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

func init() {
	searchCmd.Flags().Int64Var(&searchLimit, "limit", 0, "Maximum number of ids")
	searchCmd.Flags().Int64Var(&searchOffset, "offset", 0, "Number of ids to skip")
	searchCmd.Flags().StringVar(&searchOrder, "order", "", "Sort order, e.g. \"name ASC\"")
	searchCmd.Flags().BoolVar(&searchCount, "count", false, "Print the match count instead of the ids")

	readCmd.Flags().StringArrayVarP(&readFields, "fields", "f", nil, "Field to read, repeatable")
}
