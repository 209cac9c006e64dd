package client

import (
	"fmt"

	"github.com/oerplib/oerp/pkg/domain"
)

// Module states that need no further processing after a button press.
var stableStates = []string{"uninstallable", "uninstalled", "installed"}

// Modules returns the module names matching the pattern, grouped by state.
// With installed non-nil the listing is restricted to (not) installed
// modules.
func (c *Client) Modules(pattern string, installed *bool) (map[string][]string, error) {
	dom := domain.Domain{domain.Term{Field: "name", Operator: "like", Value: pattern}}
	if installed != nil {
		op := "in"
		if *installed {
			op = "not in"
		}
		dom = append(dom, domain.Term{Field: "state", Operator: op,
			Value: []any{"uninstalled", "uninstallable"}})
	}
	res, err := c.Read("ir.module.module", dom, "name state")
	if err != nil {
		return nil, err
	}
	rows, err := toMapSlice(res)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]string)
	for _, row := range rows {
		state, _ := row["state"].(string)
		name, _ := row["name"].(string)
		grouped[state] = append(grouped[state], name)
	}
	return grouped, nil
}

// Install presses the Install button on the named modules.
func (c *Client) Install(modules ...string) error {
	return c.moduleButton(modules, "button_install")
}

// Upgrade presses the Upgrade button on the named modules.
func (c *Client) Upgrade(modules ...string) error {
	return c.moduleButton(modules, "button_upgrade")
}

// Uninstall presses the Uninstall button on the named modules.
func (c *Client) Uninstall(modules ...string) error {
	return c.moduleButton(modules, "button_uninstall")
}

// moduleButton updates the module list, presses the button and runs the
// scheduled upgrade. The model registry is cleared because the operation
// changes the schema.
func (c *Client) moduleButton(modules []string, button string) error {
	// First, update the list of modules
	res, err := c.Execute("ir.module.module", "update_list")
	if err != nil {
		return err
	}
	if counts, ok := res.([]any); ok && len(counts) == 2 {
		if added, _ := toInt64(counts[1]); added > 0 {
			c.log.Info("%d module(s) added to the list", added)
		}
	}

	names := make([]any, len(modules))
	for i, name := range modules {
		names[i] = name
	}
	ids, err := c.Search("ir.module.module",
		domain.Domain{domain.Term{Field: "name", Operator: "in", Value: names}})
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		c.log.Info("no module matched, list updated")
		return nil
	}
	if _, err := c.Execute("ir.module.module", button, ids); err != nil {
		return err
	}

	states := make([]any, len(stableStates))
	for i, s := range stableStates {
		states[i] = s
	}
	res, err = c.Read("ir.module.module",
		domain.Domain{domain.Term{Field: "state", Operator: "not in", Value: states}},
		"name state")
	if err != nil {
		return err
	}
	rows, err := toMapSlice(res)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	c.log.Info("%d module(s) selected", len(ids))
	c.log.Info("%d module(s) to process:", len(rows))
	for _, row := range rows {
		c.log.Info("  %v\t%v", row["state"], row["name"])
	}

	// The upgrade changes the schema: drop every cached model.
	c.models = make(map[string]*Model)
	if c.major == "5.0" {
		// Wizard "Apply Scheduled Upgrades"
		rv, err := c.Wizard("module.upgrade", nil, "start", nil)
		if err != nil {
			return err
		}
		if m, ok := rv.(map[string]any); ok {
			if !wizardReachedConfig(m) {
				return fmt.Errorf("module upgrade wizard failed: %v", m)
			}
		}
		return nil
	}
	_, err = c.Execute("base.module.upgrade", "upgrade_module", []any{})
	return err
}

func wizardReachedConfig(rv map[string]any) bool {
	states, ok := rv["state"].([]any)
	if !ok {
		return false
	}
	for _, state := range states {
		if pair, ok := state.([]any); ok && len(pair) > 0 {
			if name, _ := pair[0].(string); name == "config" {
				return true
			}
		}
	}
	return false
}
