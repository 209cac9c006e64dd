package client

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oerplib/oerp/pkg/domain"
	"github.com/oerplib/oerp/pkg/logger"
)

type remoteCall struct {
	key  string
	args []any
}

// fakeCaller replaces the XML-RPC transport with canned replies. Calls to
// object.execute are keyed by "model.method" so stubs read naturally.
type fakeCaller struct {
	stubs map[string]func(args []any) (any, error)
	calls []remoteCall
}

func newFakeCaller() *fakeCaller {
	f := &fakeCaller{stubs: make(map[string]func([]any) (any, error))}
	f.reply("db.server_version", "8.0")
	f.reply("common.login", int64(1))
	return f
}

func (f *fakeCaller) Call(service, method string, args []any) (any, error) {
	key := service + "." + method
	if service == "object" && (method == "execute" || method == "execute_kw") && len(args) >= 5 {
		model, _ := args[3].(string)
		name, _ := args[4].(string)
		key = model + "." + name
	}
	f.calls = append(f.calls, remoteCall{key: key, args: args})
	fn, ok := f.stubs[key]
	if !ok {
		return nil, fmt.Errorf("no reply configured for %s", key)
	}
	return fn(args)
}

func (f *fakeCaller) on(key string, fn func(args []any) (any, error)) {
	f.stubs[key] = fn
}

func (f *fakeCaller) reply(key string, value any) {
	f.on(key, func([]any) (any, error) { return value, nil })
}

func (f *fakeCaller) fail(key string, err error) {
	f.on(key, func([]any) (any, error) { return nil, err })
}

func (f *fakeCaller) count(key string) int {
	n := 0
	for _, c := range f.calls {
		if c.key == key {
			n++
		}
	}
	return n
}

func (f *fakeCaller) last(key string) []any {
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].key == key {
			return f.calls[i].args
		}
	}
	return nil
}

func newTestClient(t *testing.T, fc *fakeCaller, opts ...Option) *Client {
	t.Helper()
	// Defaults first so a test's own options win.
	opts = append([]Option{
		WithCaller(fc),
		WithLogger(logger.NewWithOutput("test", io.Discard)),
	}, opts...)
	c, err := New("http://localhost:8069", "testdb", "admin", "secret", opts...)
	require.NoError(t, err)
	return c
}

func TestMajorVersion(t *testing.T) {
	tests := []struct {
		version string
		major   string
	}{
		{"5.0.16", "5.0"},
		{"6.1", "6.1"},
		{"8.0", "8.0"},
		{"7.0-20140101", "7.0-20140101"},
		{"8", "8"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.major, majorVersion(tt.version))
	}
}

func TestNewProbesVersionAndLogsIn(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)

	assert.Equal(t, "8.0", c.ServerVersion())
	assert.Equal(t, int64(1), c.UID())
	assert.Equal(t, "admin", c.User())
	require.NotEmpty(t, fc.calls)
	assert.Equal(t, "db.server_version", fc.calls[0].key)
	assert.Equal(t, 1, fc.count("common.login"))

	creds, ok := c.sessions.lookup(sessionKey{
		Server: "http://localhost:8069", Database: "testdb", User: "admin",
	})
	require.True(t, ok)
	assert.Equal(t, Credentials{UID: 1, Password: "secret"}, creds)
}

func TestLoginExplicitPasswordBypassesCache(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)

	// A stale entry must not short-circuit an explicit password.
	key := sessionKey{Server: c.server, Database: c.database, User: "bob"}
	c.sessions.store(key, Credentials{UID: 9, Password: "old"})
	fc.reply("common.login", int64(4))

	uid, err := c.Login("bob", "newpw")
	require.NoError(t, err)
	assert.Equal(t, int64(4), uid)
	assert.Equal(t, 0, fc.count("res.users.fields_get_keys"))
	assert.Equal(t, []any{"testdb", "bob", "newpw"}, fc.last("common.login"))

	creds, ok := c.sessions.lookup(key)
	require.True(t, ok)
	assert.Equal(t, Credentials{UID: 4, Password: "newpw"}, creds)
}

func TestLoginUsesVerifiedCachedCredentials(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)

	key := sessionKey{Server: c.server, Database: c.database, User: "carol"}
	c.sessions.store(key, Credentials{UID: 7, Password: "pw"})
	fc.reply("res.users.fields_get_keys", []any{"id", "login"})

	uid, err := c.Login("carol", "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), uid)
	assert.Equal(t, 1, fc.count("common.login")) // only the initial connect
	assert.Equal(t, 1, fc.count("res.users.fields_get_keys"))
}

func TestLoginInvalidatesStaleCache(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)

	key := sessionKey{Server: c.server, Database: c.database, User: "dave"}
	c.sessions.store(key, Credentials{UID: 7, Password: "expired"})
	fc.fail("res.users.fields_get_keys", fmt.Errorf("AccessDenied"))

	_, err := c.Login("dave", "")
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "dave", authErr.User)

	_, ok := c.sessions.lookup(key)
	assert.False(t, ok, "stale entry must be evicted")
}

func TestLoginPromptsWhenNothingCached(t *testing.T) {
	fc := newFakeCaller()
	prompted := ""
	c := newTestClient(t, fc, WithPasswordFunc(func(user string) (string, error) {
		prompted = user
		return "fromprompt", nil
	}))
	fc.reply("common.login", int64(6))

	uid, err := c.Login("erin", "")
	require.NoError(t, err)
	assert.Equal(t, int64(6), uid)
	assert.Equal(t, "erin", prompted)
	assert.Equal(t, []any{"testdb", "erin", "fromprompt"}, fc.last("common.login"))
}

func TestLoginPrivilegedLookup(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)

	fc.reply("ir.model.access.check", true)
	fc.reply("res.users.search", []any{int64(5)})
	fc.reply("res.users.read", []any{
		map[string]any{"id": int64(5), "password": "s3cr3t"},
	})
	fc.reply("res.users.fields_get_keys", []any{"id", "login"})

	uid, err := c.Login("frank", "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), uid)
	assert.Equal(t, 1, fc.count("common.login")) // never needed for frank
	assert.Equal(t, "s3cr3t", c.password)
}

func TestExecuteReadWithDomainSearchesFirst(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)

	fc.reply("res.partner.search", []any{int64(2), int64(3)})
	fc.reply("res.partner.read", []any{
		map[string]any{"id": int64(2), "name": "A"},
		map[string]any{"id": int64(3), "name": "B"},
	})

	dom := domain.Domain{domain.Term{Field: "customer", Operator: "=", Value: true}}
	_, err := c.Execute("res.partner", "read", dom, []string{"name"})
	require.NoError(t, err)

	assert.Equal(t, 1, fc.count("res.partner.search"))
	args := fc.last("res.partner.read")
	require.Len(t, args, 7)
	assert.Equal(t, []any{int64(2), int64(3)}, args[5])
	assert.Equal(t, []string{"name"}, args[6])
}

func TestExecuteOptsDropsUnknownOptions(t *testing.T) {
	fc := newFakeCaller()
	var buf bytes.Buffer
	c := newTestClient(t, fc, WithLogger(logger.NewWithOutput("test", &buf)))

	fc.reply("res.partner.write", true)
	_, err := c.ExecuteOpts("res.partner", "write",
		[]any{[]int64{1}, map[string]any{"name": "X"}},
		domain.Options{"bogus": 42})
	require.NoError(t, err)

	args := fc.last("res.partner.write")
	require.Len(t, args, 7, "unknown options must not be forwarded")
	assert.Contains(t, buf.String(), "ignoring option: bogus = 42")
}

func TestSearchOptsFoldsOptions(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("res.partner.search", []any{int64(1)})

	dom := domain.Domain{domain.Term{Field: "name", Operator: "like", Value: "A%"}}
	ids, err := c.SearchOpts("res.partner", []any{dom},
		domain.Options{"limit": int64(10), "order": "name"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	args := fc.last("res.partner.search")
	require.Len(t, args, 10)
	assert.Equal(t, []any{[]any{"name", "like", "A%"}}, args[5])
	assert.Equal(t, int64(0), args[6])
	assert.Equal(t, int64(10), args[7])
	assert.Equal(t, "name", args[8])
	assert.Nil(t, args[9])
}

func TestSearchParsesStringTerms(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("res.partner.search", []any{int64(4), int64(8)})

	ids, err := c.Search("res.partner", []string{"name like A%", "credit >= 100"})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 8}, ids)

	args := fc.last("res.partner.search")
	assert.Equal(t, []any{
		[]any{"name", "like", "A%"},
		[]any{"credit", ">=", int64(100)},
	}, args[5])
}

func TestCountDefaultsToMatchAll(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("res.partner.search_count", int64(42))

	n, err := c.Count("res.partner", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	args := fc.last("res.partner.search_count")
	assert.Equal(t, []any{}, args[5])
}

func TestReadSingleFieldReturnsBareValues(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("res.partner.read", []any{
		map[string]any{"id": int64(1), "name": "A"},
		map[string]any{"id": int64(2), "name": "B"},
	})

	res, err := c.Read("res.partner", []int64{1, 2}, "name")
	require.NoError(t, err)
	assert.Equal(t, []any{"A", "B"}, res)
	assert.Equal(t, 0, fc.count("res.partner.search"))
}

func TestAccessDegradesToFalse(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)

	assert.False(t, c.Access("res.partner", "unlink"))
	fc.reply("ir.model.access.check", true)
	assert.True(t, c.Access("res.partner", ""))
	args := fc.last("ir.model.access.check")
	assert.Equal(t, "read", args[6], "empty mode defaults to read")
}

func TestWizardCreateOnly(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("wizard.create", int64(33))

	res, err := c.Wizard("module.upgrade", nil, "", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(33), res)
	assert.Equal(t, 0, fc.count("wizard.execute"))
}

func TestWizardExecute(t *testing.T) {
	fc := newFakeCaller()
	c := newTestClient(t, fc)
	fc.reply("wizard.create", int64(33))
	fc.reply("wizard.execute", map[string]any{"state": []any{}})

	_, err := c.Wizard("module.upgrade", nil, "start", nil)
	require.NoError(t, err)
	args := fc.last("wizard.execute")
	require.Len(t, args, 7)
	assert.Equal(t, int64(33), args[3])
	assert.Equal(t, "start", args[5])
}
