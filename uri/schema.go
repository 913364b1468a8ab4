// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package uri classifies OData resource paths against a small schema
// of entity sets and function imports.  It provides just enough of
// the entity data model to tell the URI shapes apart; it does not
// know property types beyond simple versus complex.
package uri

// Schema describes the resources a service exposes.
type Schema struct {
	EntitySets      map[string]*EntitySet
	FunctionImports map[string]*FunctionImport
}

// EntitySet is a named collection of entities of one type.
type EntitySet struct {
	Name string

	// Key is the name of the single key property.
	Key string

	Properties map[string]*Property
	Navigation map[string]*Navigation

	// Media is true if the entities are media link entries whose
	// stream is addressed with $value.
	Media bool
}

// Property is a structural property of an entity type.
type Property struct {
	Name string

	// Complex holds the member properties of a complex property,
	// and is nil for simple properties.
	Complex map[string]*Property
}

// IsComplex returns true if the property has members.
func (p *Property) IsComplex() bool {
	return p.Complex != nil
}

// Navigation is a navigation property leading to another entity set.
type Navigation struct {
	Name   string
	Target string

	// Many is true if the navigation leads to a collection.
	Many bool
}

// ReturnKind is the shape of a function import's result.
type ReturnKind int

// The function import result shapes.
const (
	ReturnEntity ReturnKind = iota
	ReturnComplexCollection
	ReturnComplex
	ReturnPrimitiveCollection
	ReturnPrimitive
)

// FunctionImport is a service operation callable at the service root.
type FunctionImport struct {
	Name       string
	Returns    ReturnKind
	HTTPMethod string

	// EntitySet is the set of the returned entity, for
	// ReturnEntity.
	EntitySet string
}

// SimpleProperties builds a property map of simple properties.
func SimpleProperties(names ...string) map[string]*Property {
	props := make(map[string]*Property, len(names))
	for _, name := range names {
		props[name] = &Property{Name: name}
	}
	return props
}
