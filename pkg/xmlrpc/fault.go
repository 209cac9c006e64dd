package xmlrpc

import "strings"

// Fault is an error reported by the server. The code and message are carried
// through unchanged from the wire.
type Fault struct {
	Code    string
	Message string
}

func (f *Fault) Error() string {
	code := strings.TrimSpace(f.Code)
	msg := strings.TrimSpace(f.Message)
	switch {
	case code == "":
		return msg
	case msg == "":
		return code
	default:
		return code + ": " + msg
	}
}
