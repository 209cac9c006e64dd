// Package client implements the connection to the server: authentication
// with a session cache, version-gated service proxies, the generic Execute
// funnel, and the Model/Record view of remote data.
//
// All calls are synchronous and a client must not be shared between
// goroutines without external locking.
package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/oerplib/oerp/pkg/config"
	"github.com/oerplib/oerp/pkg/domain"
	"github.com/oerplib/oerp/pkg/logger"
	"github.com/oerplib/oerp/pkg/xmlrpc"
)

// DefaultTimeout bounds a single remote call through the default transport.
const DefaultTimeout = 120 * time.Second

// PasswordFunc asks the user for a password out-of-band.
type PasswordFunc func(user string) (string, error)

// Client is a connection to one server database. It owns the service
// proxies, the model registry and the authenticated credentials.
type Client struct {
	server   string
	database string
	user     string
	uid      int64
	password string

	serverVersion string
	major         string

	caller xmlrpc.Caller
	db     *Service
	common *Service
	object *Service
	wizard *Service
	report *Service

	sessions   *SessionCache
	models     map[string]*Model
	translator *domain.Translator
	log        *logger.Logger
	prompt     PasswordFunc
}

// Option customizes a Client before it connects.
type Option func(*Client)

// WithCaller replaces the XML-RPC transport.
func WithCaller(caller xmlrpc.Caller) Option {
	return func(c *Client) { c.caller = caller }
}

// WithSessionCache shares a session cache between clients.
func WithSessionCache(sc *SessionCache) Option {
	return func(c *Client) { c.sessions = sc }
}

// WithLogger replaces the diagnostics logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithPasswordFunc sets the out-of-band password prompt used when no
// credential can be found or derived.
func WithPasswordFunc(prompt PasswordFunc) Option {
	return func(c *Client) { c.prompt = prompt }
}

// New connects to the database on the given server and authenticates user.
// An empty password is resolved through the session cache, a privileged
// lookup, or the password prompt, in that order.
func New(server, database, user, password string, opts ...Option) (*Client, error) {
	c := &Client{
		server:   server,
		database: database,
		models:   make(map[string]*Model),
		log:      logger.New("oerp"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.caller == nil {
		c.caller = xmlrpc.NewClient(server, DefaultTimeout)
	}
	if c.sessions == nil {
		c.sessions = NewSessionCache()
	}
	c.translator = domain.NewTranslator(c.log)

	// The version probe uses the base method set; the reply decides which
	// sets the real proxies expose.
	probe := newService(c.caller, "db", baseMethods["db"])
	ver, err := probe.Call("server_version")
	if err != nil {
		return nil, fmt.Errorf("cannot query server version: %w", err)
	}
	c.serverVersion, _ = ver.(string)
	c.major = majorVersion(c.serverVersion)

	c.db = newService(c.caller, "db", methodsFor("db", c.major))
	c.common = newService(c.caller, "common", methodsFor("common", c.major))
	c.object = newService(c.caller, "object", methodsFor("object", c.major))
	c.wizard = newService(c.caller, "wizard", methodsFor("wizard", c.major))
	c.report = newService(c.caller, "report", methodsFor("report", c.major))

	if _, err := c.Login(user, password); err != nil {
		return nil, err
	}
	return c, nil
}

// FromEnv connects to a named environment of the configuration file.
func FromEnv(f *config.File, name string, opts ...Option) (*Client, error) {
	env, err := f.Environment(name)
	if err != nil {
		return nil, err
	}
	return New(env.Server, env.Database, env.Username, env.Password, opts...)
}

func majorVersion(ver string) string {
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return ver
	}
	return parts[0] + "." + parts[1]
}

// Server returns the server URL.
func (c *Client) Server() string { return c.server }

// Database returns the database name.
func (c *Client) Database() string { return c.database }

// User returns the authenticated user name.
func (c *Client) User() string { return c.user }

// UID returns the authenticated user id.
func (c *Client) UID() int64 { return c.uid }

// ServerVersion returns the version string reported by the server.
func (c *Client) ServerVersion() string { return c.serverVersion }

// DB returns the database management service.
func (c *Client) DB() *Service { return c.db }

// Common returns the common service.
func (c *Client) Common() *Service { return c.common }

// Login authenticates user and makes it the active user of this client.
// With an empty password the session cache and the privileged lookup are
// consulted before prompting.
func (c *Client) Login(user, password string) (int64, error) {
	uid, resolved, err := c.authenticate(user, password)
	if err != nil {
		return 0, err
	}
	c.user = user
	c.uid = uid
	c.password = resolved
	return uid, nil
}

// authenticate resolves (uid, password) for user. Order matters: an explicit
// password always bypasses the cache; cached credentials are verified with a
// cheap probe before use; a privileged lookup is tried before prompting.
func (c *Client) authenticate(user, password string) (int64, string, error) {
	key := sessionKey{Server: c.server, Database: c.database, User: user}
	var uid int64
	invalid := false

	if password == "" {
		if creds, ok := c.sessions.lookup(key); ok {
			uid, password = creds.UID, creds.Password
		}
		if uid == 0 && c.access("res.users", "write") {
			rows, err := c.usersLookup(user)
			if err != nil {
				return 0, "", err
			}
			if len(rows) == 0 {
				invalid = true
			} else {
				id, _ := toInt64(rows[0]["id"])
				uid = id
				password, _ = rows[0]["password"].(string)
			}
		}
		if password == "" && !invalid {
			if c.prompt == nil {
				return 0, "", &AuthenticationError{User: user, Reason: "password required"}
			}
			secret, err := c.prompt(user)
			if err != nil {
				return 0, "", err
			}
			password = secret
		}
	}

	switch {
	case invalid:
		// fall through to the failure below
	case uid != 0:
		// Check if the password changed
		if !c.checkValid(uid, password) {
			c.sessions.invalidate(key)
			uid = 0
			invalid = true
		}
	default:
		res, err := c.common.Call("login", c.database, user, password)
		if err != nil {
			return 0, "", err
		}
		if id, ok := toInt64(res); ok && id != 0 {
			uid = id
		} else {
			invalid = true
		}
	}

	if invalid || uid == 0 {
		c.sessions.invalidate(key)
		return 0, "", &AuthenticationError{User: user, Reason: "invalid username or password"}
	}
	c.sessions.store(key, Credentials{UID: uid, Password: password})
	return uid, password, nil
}

// checkValid probes the credentials with a cheap authenticated call.
func (c *Client) checkValid(uid int64, password string) bool {
	args := []any{c.database, uid, password, "res.users", "fields_get_keys"}
	_, err := c.object.Call("execute", args...)
	return err == nil
}

// usersLookup reads (id, password) for a login through the privileged path.
func (c *Client) usersLookup(user string) ([]map[string]any, error) {
	dom := domain.Domain{domain.Term{Field: "login", Operator: "=", Value: user}}
	res, err := c.Execute("res.users", "read", dom, []string{"id", "password"})
	if err != nil {
		return nil, err
	}
	return toMapSlice(res)
}

// access checks an access mode on a model, degrading every failure to false.
func (c *Client) access(model, mode string) bool {
	if c.uid == 0 {
		return false
	}
	_, err := c.call("ir.model.access", "check", model, mode)
	return err == nil
}

// Access reports whether the active user has the given access mode ("read",
// "write", "create" or "unlink") on the model. It never returns an error.
func (c *Client) Access(model, mode string) bool {
	if mode == "" {
		mode = "read"
	}
	return c.access(model, mode)
}

// call funnels an authenticated object.execute with no argument rewriting.
func (c *Client) call(model, method string, params ...any) (any, error) {
	if c.uid == 0 {
		return nil, &AuthenticationError{Reason: "not authenticated"}
	}
	args := make([]any, 0, len(params)+5)
	args = append(args, c.database, c.uid, c.password, model, method)
	for _, p := range params {
		args = append(args, flatten(p))
	}
	return c.object.Call("execute", args...)
}

// flatten converts canonical domain values into the plain shapes the
// transport marshals: a Term becomes the (field, operator, value) triple.
func flatten(v any) any {
	switch t := v.(type) {
	case domain.Term:
		return []any{t.Field, t.Operator, flatten(t.Value)}
	case domain.Domain:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = flatten(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = flatten(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = flatten(item)
		}
		return out
	default:
		return v
	}
}

// Execute invokes a model method through the object service. The read,
// name_get, search and search_count methods get their arguments normalized;
// see ExecuteOpts for the optional keyword-style arguments.
func (c *Client) Execute(model, method string, params ...any) (any, error) {
	return c.ExecuteOpts(model, method, params, nil)
}

// ExecuteOpts is Execute with options. "context" is extracted and appended
// in canonical position; "offset", "limit", "order" and "fields" are folded
// where the method accepts them. Options left unconsumed are logged and
// dropped, never forwarded.
func (c *Client) ExecuteOpts(model, method string, params []any, opts domain.Options) (any, error) {
	if c.uid == 0 {
		return nil, &AuthenticationError{Reason: "not authenticated"}
	}
	var context map[string]any
	if v, ok := opts.Pop("context"); ok {
		context, _ = v.(map[string]any)
	}

	var err error
	switch method {
	case "read", "name_get":
		if len(params) == 0 {
			return nil, fmt.Errorf("%s: missing ids or domain", method)
		}
		var ids any
		if domain.IsSearchDomain(params[0]) {
			// Combine search+read
			var searchParams []any
			searchParams, err = c.translator.SearchArgs(params[:1], opts, context)
			if err != nil {
				return nil, err
			}
			ids, err = c.call(model, "search", searchParams...)
			if err != nil {
				return nil, err
			}
		} else {
			ids = params[0]
		}
		switch {
		case len(params) > 1:
			params = append([]any{ids}, params[1:]...)
		case method == "read":
			params = []any{ids, opts.PopDefault("fields", nil)}
		default:
			params = []any{ids}
		}
	case "search":
		params, err = c.translator.SearchArgs(params, opts, context)
		if err != nil {
			return nil, err
		}
		context = nil
	case "search_count":
		params, err = c.translator.SearchArgs(params, nil, nil)
		if err != nil {
			return nil, err
		}
	}
	if context != nil {
		params = append(params, context)
	}
	// Ignore extra options rather than sending unexpected arguments
	for key, value := range opts {
		c.log.Warn("ignoring option: %s = %v", key, value)
	}
	return c.call(model, method, params...)
}

// Search returns the ids of the records matching the domain.
func (c *Client) Search(model string, params ...any) ([]int64, error) {
	res, err := c.Execute(model, "search", params...)
	if err != nil {
		return nil, err
	}
	return toInt64Slice(res)
}

// SearchOpts is Search with offset, limit, order and context options.
func (c *Client) SearchOpts(model string, params []any, opts domain.Options) ([]int64, error) {
	res, err := c.ExecuteOpts(model, "search", params, opts)
	if err != nil {
		return nil, err
	}
	return toInt64Slice(res)
}

// Count returns the number of records matching the domain.
func (c *Client) Count(model string, dom any) (int64, error) {
	if dom == nil {
		dom = domain.Domain{}
	}
	res, err := c.Execute(model, "search_count", dom)
	if err != nil {
		return 0, err
	}
	n, ok := toInt64(res)
	if !ok {
		return 0, fmt.Errorf("search_count: unexpected result %T", res)
	}
	return n, nil
}

// Read reads fields of records. The first argument accepts a list of ids or
// a search domain. Fields may be a []string, a space-separated string, or
// nil for all fields; a single field name returns the bare values.
func (c *Client) Read(model string, idsOrDomain any, fields any) (any, error) {
	params := []any{idsOrDomain}
	var single string
	switch f := fields.(type) {
	case nil:
		// all fields
	case string:
		names := strings.Fields(f)
		if len(names) == 1 {
			single = names[0]
		}
		params = append(params, names)
	case []string:
		params = append(params, f)
	default:
		params = append(params, f)
	}
	res, err := c.Execute(model, "read", params...)
	if err != nil || res == nil {
		return nil, err
	}
	if single == "" {
		return res, nil
	}
	rows, err := toMapSlice(res)
	if err != nil {
		// A single record was read
		if row, ok := res.(map[string]any); ok {
			return row[single], nil
		}
		return res, nil
	}
	values := make([]any, len(rows))
	for i, row := range rows {
		values[i] = row[single]
	}
	return values, nil
}

// Create inserts a record and returns its id.
func (c *Client) Create(model string, values map[string]any) (int64, error) {
	res, err := c.Execute(model, "create", values)
	if err != nil {
		return 0, err
	}
	id, ok := toInt64(res)
	if !ok {
		return 0, fmt.Errorf("create: unexpected result %T", res)
	}
	return id, nil
}

// Write updates fields on the given records.
func (c *Client) Write(model string, ids []int64, values map[string]any) error {
	_, err := c.Execute(model, "write", ids, values)
	return err
}

// Unlink deletes the given records.
func (c *Client) Unlink(model string, ids []int64) error {
	_, err := c.Execute(model, "unlink", ids)
	return err
}

// NameGet returns the (id, display name) pairs for the given records.
func (c *Client) NameGet(model string, ids []int64) (any, error) {
	return c.Execute(model, "name_get", ids)
}

// ExecWorkflow sends a workflow signal to one record.
func (c *Client) ExecWorkflow(model, signal string, id int64) (any, error) {
	if c.uid == 0 {
		return nil, &AuthenticationError{Reason: "not authenticated"}
	}
	return c.object.Call("exec_workflow", c.database, c.uid, c.password, model, signal, id)
}

// Wizard drives the wizard service. With only a name it creates the wizard
// and returns its id; otherwise the action is executed with datas, creating
// the wizard first when name is a string.
func (c *Client) Wizard(name any, datas map[string]any, action string, context map[string]any) (any, error) {
	if c.uid == 0 {
		return nil, &AuthenticationError{Reason: "not authenticated"}
	}
	if action == "" {
		action = "init"
	}
	var wizID int64
	created := false
	switch v := name.(type) {
	case int64:
		wizID = v
	case int:
		wizID = int64(v)
	case string:
		res, err := c.wizard.Call("create", c.database, c.uid, c.password, v)
		if err != nil {
			return nil, err
		}
		id, ok := toInt64(res)
		if !ok {
			return nil, fmt.Errorf("wizard create: unexpected result %T", res)
		}
		wizID = id
		created = true
	default:
		return nil, fmt.Errorf("wizard: name must be a string or an id, got %T", name)
	}
	if datas == nil {
		if action == "init" && created {
			return wizID, nil
		}
		datas = map[string]any{}
	}
	var ctx any
	if context != nil {
		ctx = context
	}
	return c.wizard.Call("execute", c.database, c.uid, c.password, wizID, flatten(datas), action, ctx)
}

// Report requests a report, forwarding params to the report service.
func (c *Client) Report(params ...any) (any, error) {
	return c.reportCall("report", params...)
}

// ReportGet fetches the result of a report request.
func (c *Client) ReportGet(params ...any) (any, error) {
	return c.reportCall("report_get", params...)
}

// RenderReport renders a report in one call. Servers before 6.1 do not
// declare it.
func (c *Client) RenderReport(params ...any) (any, error) {
	return c.reportCall("render_report", params...)
}

func (c *Client) reportCall(method string, params ...any) (any, error) {
	if c.uid == 0 {
		return nil, &AuthenticationError{Reason: "not authenticated"}
	}
	args := make([]any, 0, len(params)+3)
	args = append(args, c.database, c.uid, c.password)
	args = append(args, params...)
	return c.report.Call(method, args...)
}
