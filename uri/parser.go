// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package uri

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/diffeo/go-odata/odata"
)

var segmentPattern = regexp.MustCompile(`^([^()]+)(?:\((.*)\))?$`)

// systemQueryOptions are the $-prefixed query options OData v2
// defines.
var systemQueryOptions = map[string]bool{
	"$format":      true,
	"$top":         true,
	"$skip":        true,
	"$filter":      true,
	"$orderby":     true,
	"$expand":      true,
	"$select":      true,
	"$inlinecount": true,
	"$skiptoken":   true,
}

// Parser implements odata.URIParser for a Schema.
type Parser struct {
	Schema *Schema
}

// NewParser creates a parser for a schema.
func NewParser(schema *Schema) *Parser {
	return &Parser{Schema: schema}
}

func notFound(format string, args ...interface{}) error {
	return odata.ErrNotFound{Err: fmt.Errorf(format, args...)}
}

// ParseURI classifies the path segments below the service root.
// Unknown resources are odata.ErrNotFound; unknown system query
// options are odata.ErrBadRequest.
func (p *Parser) ParseURI(segments []string, query map[string]string) (*odata.URIInfo, error) {
	info := &odata.URIInfo{
		SystemQuery: make(map[string]string),
		CustomQuery: make(map[string]string),
	}
	for name, value := range query {
		if !strings.HasPrefix(name, "$") {
			info.CustomQuery[name] = value
			continue
		}
		if !systemQueryOptions[name] {
			return nil, odata.ErrBadRequest{Err: fmt.Errorf("Unknown system query option %v", name)}
		}
		info.SystemQuery[name] = value
	}

	if len(segments) == 0 {
		info.Type = odata.URI0
		return info, nil
	}
	switch segments[0] {
	case "$metadata":
		info.Type = odata.URI8
		return info, p.expectEnd(segments[1:])
	case "$batch":
		info.Type = odata.URI9
		return info, p.expectEnd(segments[1:])
	}

	name, key, hasKey, err := splitSegment(segments[0])
	if err != nil {
		return nil, err
	}
	if fi, isFunction := p.Schema.FunctionImports[name]; isFunction && !hasKey {
		return info, p.parseFunctionImport(info, fi, segments[1:])
	}
	set, ok := p.Schema.EntitySets[name]
	if !ok {
		return nil, notFound("Could not find resource %q", name)
	}
	info.EntitySet = set.Name
	rest := segments[1:]
	if !hasKey {
		switch {
		case len(rest) == 0:
			info.Type = odata.URI1
		case len(rest) == 1 && rest[0] == "$count":
			info.Type = odata.URI15
		default:
			return nil, notFound("Could not find resource %q below a collection", rest[0])
		}
		return info, nil
	}
	info.Key = key
	return info, p.parseEntity(info, set, rest)
}

func (p *Parser) expectEnd(rest []string) error {
	if len(rest) > 0 {
		return notFound("Could not find resource %q", rest[0])
	}
	return nil
}

func (p *Parser) parseFunctionImport(info *odata.URIInfo, fi *FunctionImport, rest []string) error {
	info.Function = fi.Name
	info.EntitySet = fi.EntitySet
	switch fi.Returns {
	case ReturnEntity:
		info.Type = odata.URI10
	case ReturnComplexCollection:
		info.Type = odata.URI11
	case ReturnComplex:
		info.Type = odata.URI12
	case ReturnPrimitiveCollection:
		info.Type = odata.URI13
	case ReturnPrimitive:
		info.Type = odata.URI14
		if len(rest) == 1 && rest[0] == "$value" {
			info.Value = true
			return nil
		}
	}
	return p.expectEnd(rest)
}

// parseEntity walks the segments after a keyed entity: navigation
// chains, $links, $count, $value and property paths.
func (p *Parser) parseEntity(info *odata.URIInfo, set *EntitySet, rest []string) error {
	many := false
	for len(rest) > 0 {
		segment := rest[0]
		last := len(rest) == 1
		switch {
		case segment == "$count" && last:
			if many {
				info.Type = odata.URI15
			} else {
				info.Type = odata.URI16
			}
			return nil

		case segment == "$value" && last && !many:
			if !set.Media {
				return notFound("%v entities have no media resource", set.Name)
			}
			info.Type = odata.URI17
			info.Value = true
			return nil

		case segment == "$links" && !many:
			return p.parseLinks(info, set, rest[1:])
		}

		name, key, hasKey, err := splitSegment(segment)
		if err != nil {
			return err
		}
		if nav, isNav := set.Navigation[name]; isNav && !many {
			target, err := p.navigate(info, nav, key)
			if err != nil {
				return err
			}
			set = target
			many = nav.Many && !hasKey
			rest = rest[1:]
			continue
		}
		if prop, isProp := set.Properties[name]; isProp && !many && !hasKey {
			return p.parseProperty(info, prop, rest[1:])
		}
		return notFound("Could not find resource %q", segment)
	}

	switch {
	case many:
		info.Type = odata.URI6B
	case len(info.Navigation) == 0:
		info.Type = odata.URI2
	default:
		info.Type = odata.URI6A
	}
	return nil
}

func (p *Parser) navigate(info *odata.URIInfo, nav *Navigation, key string) (*EntitySet, error) {
	target, ok := p.Schema.EntitySets[nav.Target]
	if !ok {
		return nil, notFound("Could not find target %q of %q", nav.Target, nav.Name)
	}
	info.Navigation = append(info.Navigation, odata.NavigationSegment{
		Property:  nav.Name,
		Key:       key,
		TargetSet: target.Name,
	})
	info.EntitySet = target.Name
	return target, nil
}

func (p *Parser) parseLinks(info *odata.URIInfo, set *EntitySet, rest []string) error {
	if len(rest) == 0 {
		return notFound("Missing navigation property after $links")
	}
	name, key, hasKey, err := splitSegment(rest[0])
	if err != nil {
		return err
	}
	nav, ok := set.Navigation[name]
	if !ok {
		return notFound("Could not find navigation property %q", name)
	}
	if _, err := p.navigate(info, nav, key); err != nil {
		return err
	}
	collection := nav.Many && !hasKey
	rest = rest[1:]
	switch {
	case len(rest) == 0 && collection:
		info.Type = odata.URI7B
	case len(rest) == 0:
		info.Type = odata.URI7A
	case len(rest) == 1 && rest[0] == "$count" && collection:
		info.Type = odata.URI50B
	case len(rest) == 1 && rest[0] == "$count":
		info.Type = odata.URI50A
	default:
		return notFound("Could not find resource %q below $links", rest[0])
	}
	return nil
}

func (p *Parser) parseProperty(info *odata.URIInfo, prop *Property, rest []string) error {
	info.Property = []string{prop.Name}
	if prop.IsComplex() {
		if len(rest) == 0 {
			info.Type = odata.URI3
			return nil
		}
		member, ok := prop.Complex[rest[0]]
		if !ok || member.IsComplex() {
			return notFound("Could not find property %q of %q", rest[0], prop.Name)
		}
		info.Property = append(info.Property, member.Name)
		info.Type = odata.URI4
		rest = rest[1:]
	} else {
		info.Type = odata.URI5
	}
	switch {
	case len(rest) == 0:
		return nil
	case len(rest) == 1 && rest[0] == "$value":
		info.Value = true
		return nil
	}
	return notFound("Could not find resource %q below a property", rest[0])
}

// splitSegment splits "Name(key)" into its parts.  The key may be
// written bare, quoted, or as "Prop=value"; single quotes are removed
// and doubled quotes unescaped.
func splitSegment(segment string) (name, key string, hasKey bool, err error) {
	m := segmentPattern.FindStringSubmatch(segment)
	if m == nil {
		return "", "", false, odata.ErrBadRequest{Err: fmt.Errorf("Malformed resource segment %q", segment)}
	}
	name = m[1]
	if !strings.Contains(segment, "(") || m[2] == "" {
		return name, "", false, nil
	}
	key = m[2]
	if i := strings.Index(key, "="); i >= 0 && !strings.HasPrefix(key, "'") {
		key = key[i+1:]
	}
	if len(key) >= 2 && strings.HasPrefix(key, "'") && strings.HasSuffix(key, "'") {
		key = strings.Replace(key[1:len(key)-1], "''", "'", -1)
	}
	return name, key, true, nil
}
