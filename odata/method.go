// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package odata

import (
	"strings"
)

// Method is an HTTP method understood by the protocol.  MERGE is the
// OData-specific predecessor of PATCH.
type Method string

// The methods the dispatcher knows about.
const (
	GET    Method = "GET"
	POST   Method = "POST"
	PUT    Method = "PUT"
	DELETE Method = "DELETE"
	MERGE  Method = "MERGE"
	PATCH  Method = "PATCH"
)

// AllMethods lists every Method.
var AllMethods = []Method{GET, POST, PUT, DELETE, MERGE, PATCH}

// ParseMethod converts an HTTP method token to a Method.  The token is
// matched case-insensitively.  Returns ErrMethodNotAllowed if the
// token is not a known method.
func ParseMethod(token string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(token)))
	for _, known := range AllMethods {
		if m == known {
			return m, nil
		}
	}
	return "", ErrMethodNotAllowed{Method: token}
}

func (m Method) String() string {
	return string(m)
}
