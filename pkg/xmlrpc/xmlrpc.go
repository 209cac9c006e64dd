// Package xmlrpc implements the XML-RPC transport used to talk to the
// server. It performs synchronous calls and no retries; a fault reported by
// the server surfaces as a *Fault with the original code and message.
package xmlrpc

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Caller performs a remote call against a named service endpoint.
type Caller interface {
	Call(service, method string, args []any) (any, error)
}

// Client is an XML-RPC client for one server. Endpoints are addressed as
// <server>/xmlrpc/<service>.
type Client struct {
	server string
	http   *http.Client
}

// NewClient creates a client for the given server URL (scheme+host+port).
func NewClient(server string, timeout time.Duration) *Client {
	return &Client{
		server: strings.TrimRight(server, "/"),
		http:   &http.Client{Timeout: timeout},
	}
}

type methodResponse struct {
	XMLName xml.Name    `xml:"methodResponse"`
	Params  []wireValue `xml:"params>param>value"`
	Fault   *wireValue  `xml:"fault>value"`
}

// Call invokes method on the service endpoint with the given positional
// arguments and returns the decoded result.
func (c *Client) Call(service, method string, args []any) (any, error) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>`)
	b.WriteString("<methodCall><methodName>")
	if err := xml.EscapeText(&b, []byte(method)); err != nil {
		return nil, err
	}
	b.WriteString("</methodName><params>")
	for _, arg := range args {
		b.WriteString("<param>")
		if err := marshalValue(&b, arg); err != nil {
			return nil, err
		}
		b.WriteString("</param>")
	}
	b.WriteString("</params></methodCall>")

	url := c.server + "/xmlrpc/" + service
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(b.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %v", err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var mr methodResponse
	if err := xml.Unmarshal(body, &mr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %v", err)
	}
	if mr.Fault != nil {
		return nil, decodeFault(mr.Fault)
	}
	if len(mr.Params) == 0 {
		return nil, nil
	}
	return mr.Params[0].decode()
}

func decodeFault(v *wireValue) error {
	decoded, err := v.decode()
	if err != nil {
		return fmt.Errorf("failed to decode fault: %v", err)
	}
	fault := &Fault{}
	if m, ok := decoded.(map[string]any); ok {
		if code, ok := m["faultCode"]; ok && code != nil {
			fault.Code = fmt.Sprint(code)
		}
		if msg, ok := m["faultString"].(string); ok {
			fault.Message = msg
		}
	}
	if fault.Code == "" && fault.Message == "" {
		fault.Message = fmt.Sprint(decoded)
	}
	return fault
}
