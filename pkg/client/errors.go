package client

import "fmt"

// AuthenticationError reports a rejected login or a missing credential. The
// corresponding session cache entry is cleared before it is returned.
type AuthenticationError struct {
	User   string
	Reason string
}

func (e *AuthenticationError) Error() string {
	if e.User == "" {
		return "authentication failed: " + e.Reason
	}
	return fmt.Sprintf("authentication failed for %q: %s", e.User, e.Reason)
}

// MethodError reports a call to a method that is not declared for the
// connected server version on the given service endpoint.
type MethodError struct {
	Service string
	Method  string
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("service %q has no method %q", e.Service, e.Method)
}

// UnknownAttributeError reports access to a field name that is neither cached
// nor part of the model. It is raised locally, never sent to the server.
type UnknownAttributeError struct {
	Model string
	Name  string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("model %q has no field %q", e.Model, e.Name)
}
