// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package odata

import (
	"io"
	"mime"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// PathInfo describes where a request sits relative to its service.
type PathInfo struct {
	// ServiceRoot is the absolute URL of the service document.
	ServiceRoot *url.URL

	// PrecedingSegments are path segments between the server root
	// and the service root that identify the service.
	PrecedingSegments []string

	// ODataSegments are the path segments below the service root,
	// still containing key predicates such as "Employees('1')".
	ODataSegments []string

	// RequestURI is the complete, absolute request URL.
	RequestURI *url.URL

	// ContentIDReference is set when a batch change set member
	// addresses a resource as "$id/...".  The reference is kept
	// as written and is not resolved.
	ContentIDReference string
}

// Request is a single parsed request: either the top-level HTTP
// request or one member of a batch.
type Request struct {
	Method          Method
	PathInfo        *PathInfo
	QueryParameters map[string]string

	// Headers maps lower-cased header names to their values.
	Headers map[string][]string

	ContentType     string
	AcceptHeaders   []string
	AcceptLanguages []string
	Body            io.Reader
}

// Header returns the first value of the named header.
func (r *Request) Header(name string) string {
	values := r.Headers[strings.ToLower(name)]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// SetHeader replaces the named header.
func (r *Request) SetHeader(name, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string][]string)
	}
	r.Headers[strings.ToLower(name)] = []string{value}
}

// ContentID returns the Content-ID of a batch change set member, or
// an empty string.
func (r *Request) ContentID() string {
	return r.Header(HeaderContentID)
}

type qualified struct {
	value string
	q     float64
}

// ParseAcceptHeader splits an Accept: header into its media ranges,
// ordered by descending quality.  Ranges of equal quality keep their
// original order; ranges with q=0 are dropped.  Parameters other than
// q are preserved.
func ParseAcceptHeader(header string) ([]string, error) {
	var ranges []qualified
	for _, mediaRange := range strings.Split(header, ",") {
		mediaRange = strings.TrimSpace(mediaRange)
		if mediaRange == "" {
			continue
		}
		mediaType, params, err := mime.ParseMediaType(mediaRange)
		if err != nil {
			return nil, err
		}
		q, err := quality(params)
		if err != nil {
			return nil, err
		}
		delete(params, "q")
		if q > 0 {
			ranges = append(ranges, qualified{mime.FormatMediaType(mediaType, params), q})
		}
	}
	return sortQualified(ranges), nil
}

// ParseAcceptLanguage splits an Accept-Language: header into its
// language ranges, ordered by descending quality.
func ParseAcceptLanguage(header string) ([]string, error) {
	var ranges []qualified
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(part, ";")
		lang := strings.TrimSpace(fields[0])
		if lang == "" {
			continue
		}
		params := map[string]string{}
		for _, field := range fields[1:] {
			kv := strings.SplitN(strings.TrimSpace(field), "=", 2)
			if len(kv) == 2 {
				params[strings.ToLower(kv[0])] = kv[1]
			}
		}
		q, err := quality(params)
		if err != nil {
			return nil, err
		}
		if q > 0 {
			ranges = append(ranges, qualified{lang, q})
		}
	}
	return sortQualified(ranges), nil
}

func quality(params map[string]string) (float64, error) {
	qStr, haveQ := params["q"]
	if !haveQ {
		return 1.0, nil
	}
	q, err := strconv.ParseFloat(qStr, 64)
	if err != nil {
		return 0, err
	}
	if q < 0.0 || q > 1.0 {
		return 0, strconv.ErrRange
	}
	return q, nil
}

func sortQualified(ranges []qualified) []string {
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].q > ranges[j].q
	})
	result := make([]string, len(ranges))
	for i, r := range ranges {
		result[i] = r.value
	}
	return result
}
