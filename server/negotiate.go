// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package server

// This file picks the response media type.  The candidates depend on
// the URI type; the client chooses among them with Accept: or, taking
// precedence, the $format system query option.

import (
	"mime"
	"strings"

	"github.com/diffeo/go-odata/odata"
)

// anyType in a candidate list means the processor can produce
// whatever the client asks for.
const anyType = "*/*"

var (
	feedTypes     = []string{odata.MediaTypeAtomXML, odata.MediaTypeJSON, odata.MediaTypeXML}
	propertyTypes = []string{odata.MediaTypeXML, odata.MediaTypeJSON}
	textTypes     = []string{odata.MediaTypeTextPlain}
	valueTypes    = []string{odata.MediaTypeTextPlain, odata.MediaTypeOctetStream, anyType}
	mediaTypes    = []string{odata.MediaTypeOctetStream, anyType}
)

// candidateTypes lists the media types a response to uri can have,
// default first.
func candidateTypes(uri *odata.URIInfo) []string {
	switch uri.Type {
	case odata.URI0:
		return []string{odata.MediaTypeAtomSvcXML, odata.MediaTypeJSON, odata.MediaTypeXML}
	case odata.URI1, odata.URI2, odata.URI6A, odata.URI6B, odata.URI10:
		return feedTypes
	case odata.URI4, odata.URI5, odata.URI14:
		if uri.Value {
			return valueTypes
		}
		return propertyTypes
	case odata.URI3, odata.URI7A, odata.URI7B, odata.URI11, odata.URI12, odata.URI13:
		return propertyTypes
	case odata.URI8:
		return []string{odata.MediaTypeXML}
	case odata.URI9:
		return []string{odata.MediaTypeMultipart}
	case odata.URI15, odata.URI16, odata.URI50A, odata.URI50B:
		return textTypes
	case odata.URI17:
		return mediaTypes
	}
	return propertyTypes
}

// formatTypes maps the $format shorthands to media types.
var formatTypes = map[string]string{
	"json": odata.MediaTypeJSON,
	"xml":  odata.MediaTypeXML,
	"atom": odata.MediaTypeAtomXML,
}

// negotiate returns the response media type for uri, given the
// client's Accept: list in order of preference.
func negotiate(uri *odata.URIInfo, accept []string) (string, error) {
	candidates := candidateTypes(uri)
	if format := uri.Format(); format != "" {
		if mediaType, ok := formatTypes[strings.ToLower(format)]; ok {
			accept = []string{mediaType}
		} else {
			accept = []string{format}
		}
	}
	if len(accept) == 0 {
		return candidates[0], nil
	}
	for _, mediaRange := range accept {
		mediaType, _, err := mime.ParseMediaType(mediaRange)
		if err != nil {
			return "", odata.ErrBadRequest{Err: err}
		}
		if chosen := match(mediaType, candidates); chosen != "" {
			return chosen, nil
		}
	}
	return "", odata.ErrNotAcceptable{Accept: accept}
}

// match picks the candidate satisfying one media range, or returns
// an empty string.
func match(mediaType string, candidates []string) string {
	if mediaType == anyType {
		return candidates[0]
	}
	if strings.HasSuffix(mediaType, "/*") {
		prefix := strings.TrimSuffix(mediaType, "*")
		for _, candidate := range candidates {
			if strings.HasPrefix(candidate, prefix) {
				return candidate
			}
		}
		return ""
	}
	for _, candidate := range candidates {
		if candidate == mediaType || candidate == anyType {
			return mediaType
		}
	}
	return ""
}

// errorContentType guesses the format of an error response before
// negotiation has happened or after it failed.
func errorContentType(req *odata.Request) string {
	if req == nil {
		return odata.MediaTypeXML
	}
	if format := strings.ToLower(req.QueryParameters["$format"]); format == "json" {
		return odata.MediaTypeJSON
	}
	for _, mediaRange := range req.AcceptHeaders {
		if isJSON(mediaRange) {
			return odata.MediaTypeJSON
		}
		if strings.Contains(mediaRange, "xml") {
			return odata.MediaTypeXML
		}
	}
	return odata.MediaTypeXML
}
