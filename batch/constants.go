// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package batch

const (
	crlf = "\r\n"

	binaryEncoding = "binary"
	httpVersion    = "HTTP/1.1"

	batchBoundaryPrefix     = "batch"
	changeSetBoundaryPrefix = "changeset"
)

// queryMethods are the methods allowed in a query operation outside
// change sets; changeSetMethods are the ones allowed inside.
var (
	queryMethods     = map[string]bool{"GET": true}
	changeSetMethods = map[string]bool{
		"POST":   true,
		"PUT":    true,
		"DELETE": true,
		"MERGE":  true,
		"PATCH":  true,
	}
)
