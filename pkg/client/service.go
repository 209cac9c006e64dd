package client

import (
	"sort"

	"github.com/oerplib/oerp/pkg/xmlrpc"
)

// Methods published per service endpoint. Servers before 6.1 expose only the
// base set.
var baseMethods = map[string][]string{
	"db": {"create", "drop", "dump", "restore", "rename", "list", "list_lang",
		"change_admin_password", "server_version", "migrate_databases"},
	"common": {"about", "login", "timezone_get", "get_server_environment",
		"login_message", "check_connectivity"},
	"object": {"execute", "exec_workflow"},
	"wizard": {"execute", "create"},
	"report": {"report", "report_get"},
}

// Additional methods published by servers 6.1 and later.
var extraMethods = map[string][]string{
	"db": {"create_database", "db_exist"},
	"common": {"get_stats", "list_http_services", "version",
		"authenticate", "get_os_time", "get_sqlcount"},
	"object": {"execute_kw"},
	"wizard": {},
	"report": {"render_report"},
}

// Service is a proxy for one RPC endpoint. It exposes exactly the methods
// declared for the connected server version; calling anything else fails
// locally with a *MethodError.
type Service struct {
	caller  xmlrpc.Caller
	name    string
	methods map[string]bool
}

func newService(caller xmlrpc.Caller, name string, methods []string) *Service {
	allowed := make(map[string]bool, len(methods))
	for _, m := range methods {
		allowed[m] = true
	}
	return &Service{caller: caller, name: name, methods: allowed}
}

// Name returns the endpoint name.
func (s *Service) Name() string {
	return s.name
}

// Methods returns the declared method names, sorted.
func (s *Service) Methods() []string {
	names := make([]string, 0, len(s.methods))
	for m := range s.methods {
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}

// Call invokes a declared method with the given positional arguments.
func (s *Service) Call(method string, args ...any) (any, error) {
	if !s.methods[method] {
		return nil, &MethodError{Service: s.name, Method: method}
	}
	return s.caller.Call(s.name, method, args)
}

// methodsFor computes the method set of an endpoint for a server major
// version.
func methodsFor(name, major string) []string {
	methods := baseMethods[name]
	if major == "" || major == "5.0" {
		return methods
	}
	return append(append([]string{}, methods...), extraMethods[name]...)
}
