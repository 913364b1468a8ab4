// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package odata

import (
	"fmt"
)

// URIType classifies a parsed request URI into one of the resource
// shapes the protocol can address.  The set of values is closed; the
// zero value URINone is not a member of it.
type URIType int

const (
	// URINone is the zero value and never the result of parsing.
	URINone URIType = iota
	// URI0 is the service document.
	URI0
	// URI1 is an entity set.
	URI1
	// URI2 is a single entity, addressed by key.
	URI2
	// URI3 is a complex property of an entity.
	URI3
	// URI4 is a simple property of a complex property.
	URI4
	// URI5 is a simple property of an entity.
	URI5
	// URI6A is a navigation property with target multiplicity 1
	// or 0..1.
	URI6A
	// URI6B is a navigation property with target multiplicity *.
	URI6B
	// URI7A is a $links reference to a single entity.
	URI7A
	// URI7B is a $links reference to multiple entities.
	URI7B
	// URI8 is the metadata document.
	URI8
	// URI9 is a batch request.
	URI9
	// URI10 is a function import returning a single entity.
	URI10
	// URI11 is a function import returning a collection of
	// complex values.
	URI11
	// URI12 is a function import returning a single complex value.
	URI12
	// URI13 is a function import returning a collection of
	// primitive values.
	URI13
	// URI14 is a function import returning a single primitive
	// value, optionally addressed with $value.
	URI14
	// URI15 is the number of entities in a set.
	URI15
	// URI16 is the existence check of a single entity.
	URI16
	// URI17 is the media resource of an entity.
	URI17
	// URI50A is the existence check of a link to a single entity.
	URI50A
	// URI50B is the number of links to multiple entities.
	URI50B
)

// AllURITypes lists every member of the closed set of URI types, in
// declaration order.
var AllURITypes = []URIType{
	URI0, URI1, URI2, URI3, URI4, URI5, URI6A, URI6B, URI7A, URI7B,
	URI8, URI9, URI10, URI11, URI12, URI13, URI14, URI15, URI16,
	URI17, URI50A, URI50B,
}

var uriTypeNames = map[URIType]string{
	URI0:   "URI0",
	URI1:   "URI1",
	URI2:   "URI2",
	URI3:   "URI3",
	URI4:   "URI4",
	URI5:   "URI5",
	URI6A:  "URI6A",
	URI6B:  "URI6B",
	URI7A:  "URI7A",
	URI7B:  "URI7B",
	URI8:   "URI8",
	URI9:   "URI9",
	URI10:  "URI10",
	URI11:  "URI11",
	URI12:  "URI12",
	URI13:  "URI13",
	URI14:  "URI14",
	URI15:  "URI15",
	URI16:  "URI16",
	URI17:  "URI17",
	URI50A: "URI50A",
	URI50B: "URI50B",
}

// Valid returns true if t is a member of the closed set.
func (t URIType) Valid() bool {
	_, ok := uriTypeNames[t]
	return ok
}

func (t URIType) String() string {
	if name, ok := uriTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("URIType(%d)", int(t))
}

// MarshalText renders the URI type name, for logging and metrics.
func (t URIType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
