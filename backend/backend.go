// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package backend provides a standard way to construct an OData
// service factory based on command-line flags.
package backend

import (
	"errors"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-odata/odata"
	"github.com/diffeo/go-odata/refservice"
)

// Backend describes user-visible parameters of the served data.
// This implements the flag.Value interface, and so a typical use is
//
//	func main() {
//	    backend := backend.Backend{Implementation: "reference"}
//	    flag.Var(&backend, "backend", "impl:address of the service")
//	    flag.Parse()
//	    factory, err := backend.Factory(nil)
//	}
type Backend struct {
	// Implementation holds the name of the implementation; for
	// instance, "reference".
	Implementation string

	// Address holds some backend-specific address.  For the
	// reference service it is an optional YAML file of seed data.
	Address string
}

// Implementations lists the known implementation names.
var Implementations = []string{"reference"}

// Factory creates the service factory.  This generally should be only
// called once; the reference service keeps its data in memory, and
// every call creates an independent copy of it.
func (b *Backend) Factory(clk clock.Clock) (odata.ServiceFactory, error) {
	switch b.Implementation {
	case "reference":
		ref := refservice.New(clk)
		if b.Address != "" {
			data, err := ioutil.ReadFile(b.Address)
			if err != nil {
				return nil, err
			}
			if err := ref.LoadYAML(data); err != nil {
				return nil, fmt.Errorf("%v: %w", b.Address, err)
			}
		}
		return ref, nil
	}
	return nil, fmt.Errorf("unknown backend %q", b.Implementation)
}

// String renders a backend description as a string.
func (b *Backend) String() string {
	if b.Address == "" {
		return b.Implementation
	}
	return b.Implementation + ":" + b.Address
}

// Set parses a string into an existing backend description.  The
// string should be of the form "implementation:address", where
// address can be any string.  Set checks that the implementation is
// known, but not the address.
//
// This is part of the flag.Value interface.
func (b *Backend) Set(param string) error {
	parts := strings.SplitN(param, ":", 2)
	if parts[0] == "" {
		return errors.New("must specify a backend type")
	}
	known := false
	for _, impl := range Implementations {
		if parts[0] == impl {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown backend %q", parts[0])
	}
	b.Implementation = parts[0]
	b.Address = ""
	if len(parts) == 2 {
		b.Address = parts[1]
	}
	return nil
}
