// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package odata

// URIInfo is the structured form of a request URI.  It is produced
// once per request by a URIParser and only read afterwards.
type URIInfo struct {
	// Type classifies the addressed resource.
	Type URIType

	// Value is true if the URI ends in $value, addressing the raw
	// value of a property or function result.
	Value bool

	// EntitySet is the name of the entity set the URI starts from,
	// or of the target set after navigation.
	EntitySet string

	// Key is the key predicate of the addressed entity, without
	// quotes, or empty.
	Key string

	// Navigation lists the navigation properties followed, in
	// order, each with its key predicate if one was given.
	Navigation []NavigationSegment

	// Property is the property path below the entity, e.g.
	// ["Location", "City"].
	Property []string

	// Function is the name of the function import, if any.
	Function string

	// SystemQuery holds $-prefixed query options, keyed with the
	// leading $.
	SystemQuery map[string]string

	// CustomQuery holds all other query options.
	CustomQuery map[string]string
}

// NavigationSegment is one navigation step in a resource path.
type NavigationSegment struct {
	Property string
	Key      string
	// TargetSet is the entity set the navigation leads to.
	TargetSet string
}

// Format returns the $format system query option, if any.
func (u *URIInfo) Format() string {
	return u.SystemQuery["$format"]
}

// URIParser classifies the path and query of a request.  It is the
// boundary to the service's metadata: implementations know which
// names are entity sets, properties, navigation properties, and
// function imports.
type URIParser interface {
	ParseURI(segments []string, query map[string]string) (*URIInfo, error)
}
