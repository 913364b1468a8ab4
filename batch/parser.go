// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package batch

import (
	"bytes"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/diffeo/go-odata/odata"
)

var contentIDReferencePattern = regexp.MustCompile(`^\$([^/?]+)/([^?]*)(\?.*)?$`)

// Parser reads a multipart/mixed batch request body into its parts.
// A Parser is good for one body.
type Parser struct {
	contentType string
	pathInfo    *odata.PathInfo
	baseURI     string
	boundary    string
}

// NewParser creates a parser for a batch body sent with the given
// Content-Type.  pathInfo is the path info of the $batch request
// itself; member URIs are resolved against its service root.
func NewParser(contentType string, pathInfo *odata.PathInfo) *Parser {
	return &Parser{contentType: contentType, pathInfo: pathInfo}
}

// Parse reads the whole body and returns its parts in order.  The
// body is closed if it is an io.Closer, whether or not parsing
// succeeds.  Any framing error is an *Error.
func (p *Parser) Parse(body io.Reader) (parts []*odata.BatchPart, err error) {
	defer func() {
		if closer, isCloser := body.(io.Closer); isCloser {
			cerr := closer.Close()
			if err == nil && cerr != nil {
				parts = nil
				err = &Error{Code: IOError, Err: cerr}
			}
		}
	}()

	if p.pathInfo == nil {
		return nil, newError(InvalidPathInfo, "")
	}
	p.baseURI = baseURI(p.pathInfo)

	if strings.TrimSpace(p.contentType) == "" {
		return nil, newError(MissingContentType, "")
	}
	boundary, err := boundaryOf(p.contentType)
	if err != nil {
		return nil, err
	}
	p.boundary = boundary

	s, err := newLineScanner(body)
	if err != nil {
		return nil, err
	}
	skipPreamble(s)
	closing := isCloseDelimiter(boundary)
	for s.hasNext() && !closing(s.peek()) {
		part, err := p.parseMultipart(s, boundary)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
		if err := parseNewLine(s); err != nil {
			return nil, err
		}
	}
	if !s.hasNext() {
		return nil, newError(MissingCloseDelimiter, "--"+boundary+"--")
	}
	s.next()
	return parts, nil
}

// baseURI is the service root without a trailing slash, followed by
// the preceding segments.
func baseURI(pi *odata.PathInfo) string {
	var base string
	if pi.ServiceRoot != nil {
		base = strings.TrimRight(pi.ServiceRoot.String(), "/")
	}
	for _, segment := range pi.PrecedingSegments {
		base = base + "/" + segment
	}
	return base
}

func (p *Parser) parseMultipart(s *lineScanner, boundary string) (*odata.BatchPart, error) {
	if err := parseDelimiter(s, boundary); err != nil {
		return nil, err
	}
	headers, err := parseHeaders(s)
	if err != nil {
		return nil, err
	}
	contentType := lastValue(headers, "content-type")
	if contentType == "" {
		return nil, newError(MissingContentType, "")
	}

	switch mediaType(contentType) {
	case odata.MediaTypeHTTP:
		if err := validateEncoding(lastValue(headers, "content-transfer-encoding")); err != nil {
			return nil, err
		}
		if err := parseNewLine(s); err != nil {
			return nil, err
		}
		req, err := p.parseRequest(s, boundary, false, "")
		if err != nil {
			return nil, err
		}
		return odata.NewQueryPart(req), nil

	case odata.MediaTypeMultipart:
		changeSetBoundary, err := boundaryOf(contentType)
		if err != nil {
			return nil, err
		}
		if changeSetBoundary == boundary {
			return nil, newError(InvalidChangesetBoundary, changeSetBoundary)
		}
		if err := parseNewLine(s); err != nil {
			return nil, err
		}
		requests, err := p.parseChangeSet(s, changeSetBoundary)
		if err != nil {
			return nil, err
		}
		part, err := odata.NewChangeSet(requests)
		if err != nil {
			return nil, &Error{Code: EmptyChangeset, Token: changeSetBoundary, Err: err}
		}
		return part, nil
	}
	return nil, newError(InvalidContentType, contentType)
}

func (p *Parser) parseChangeSet(s *lineScanner, boundary string) ([]*odata.Request, error) {
	closing := isCloseDelimiter(boundary)
	var requests []*odata.Request
	for {
		if !s.hasNext() {
			return nil, newError(MissingCloseDelimiter, "--"+boundary+"--")
		}
		if closing(s.peek()) {
			s.next()
			return requests, nil
		}
		req, err := p.parseChangeSetMember(s, boundary)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
}

func (p *Parser) parseChangeSetMember(s *lineScanner, boundary string) (*odata.Request, error) {
	if err := parseDelimiter(s, boundary); err != nil {
		return nil, err
	}
	headers, err := parseHeaders(s)
	if err != nil {
		return nil, err
	}
	contentType := lastValue(headers, "content-type")
	if contentType == "" {
		return nil, newError(MissingContentType, "")
	}
	if mediaType(contentType) != odata.MediaTypeHTTP {
		return nil, newError(InvalidContentType, contentType)
	}
	if err := validateEncoding(lastValue(headers, "content-transfer-encoding")); err != nil {
		return nil, err
	}
	if err := parseNewLine(s); err != nil {
		return nil, err
	}
	return p.parseRequest(s, boundary, true, lastValue(headers, "content-id"))
}

// parseRequest reads the request line, headers, and for change set
// members the body of one embedded request, which ends at a delimiter
// of boundary.
func (p *Parser) parseRequest(s *lineScanner, boundary string, inChangeSet bool, contentID string) (*odata.Request, error) {
	line := trimCR(s.peek())
	m := requestLinePattern.FindStringSubmatch(line)
	if !s.hasNext() || m == nil {
		return nil, newError(InvalidRequestLine, line)
	}
	s.next()
	method, target := m[1], strings.TrimSpace(m[2])

	pathInfo, err := p.parseRequestURI(target)
	if err != nil {
		return nil, err
	}
	query, err := parseQueryParameters(target)
	if err != nil {
		return nil, err
	}
	if inChangeSet && !changeSetMethods[method] {
		return nil, newError(InvalidChangesetMethod, method)
	}
	if !inChangeSet && !queryMethods[method] {
		return nil, newError(InvalidQueryOperationMethod, method)
	}

	headers, err := parseHeaders(s)
	if err != nil {
		return nil, err
	}
	req := &odata.Request{
		Method:          odata.Method(method),
		PathInfo:        pathInfo,
		QueryParameters: query,
		Headers:         make(map[string][]string),
	}
	for _, h := range headers {
		req.Headers[h.name] = append(req.Headers[h.name], h.value)
	}
	if contentID != "" {
		req.SetHeader(odata.HeaderContentID, contentID)
	}
	req.ContentType = req.Header(odata.HeaderContentType)
	if accept := req.Headers["accept"]; len(accept) > 0 {
		req.AcceptHeaders, err = odata.ParseAcceptHeader(strings.Join(accept, ","))
		if err != nil {
			return nil, &Error{Code: InvalidHeader, Token: "Accept: " + strings.Join(accept, ","), Err: err}
		}
	}
	if langs := req.Headers["accept-language"]; len(langs) > 0 {
		req.AcceptLanguages, err = odata.ParseAcceptLanguage(strings.Join(langs, ","))
		if err != nil {
			return nil, &Error{Code: InvalidHeader, Token: "Accept-Language: " + strings.Join(langs, ","), Err: err}
		}
	}

	if err := parseNewLine(s); err != nil {
		return nil, err
	}
	var body []byte
	if inChangeSet {
		body = readPartBody(s, req.Header(odata.HeaderContentLength), boundary, p.boundary)
	}
	req.Body = bytes.NewReader(body)
	return req, nil
}

// parseRequestURI splits a request line target into path info.  The
// target may be absolute under the service root, relative to it, or
// a Content-ID reference "$id/...".
func (p *Parser) parseRequestURI(target string) (*odata.PathInfo, error) {
	pi := &odata.PathInfo{
		ServiceRoot:       p.pathInfo.ServiceRoot,
		PrecedingSegments: p.pathInfo.PrecedingSegments,
	}
	if m := contentIDReferencePattern.FindStringSubmatch(target); m != nil {
		pi.ContentIDReference = m[1]
		pi.ODataSegments = splitPath(m[2])
		return pi, nil
	}

	path := target
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	switch {
	case p.baseURI != "" && strings.HasPrefix(path, p.baseURI+"/"):
		path = strings.TrimPrefix(path, p.baseURI+"/")
	case path == p.baseURI && p.baseURI != "":
		path = ""
	case strings.Contains(path, "://"):
		return nil, newError(InvalidURI, target)
	}
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil, newError(InvalidURI, target)
	}

	pi.ODataSegments = splitPath(path)
	var query string
	if i := strings.Index(target, "?"); i >= 0 {
		query = target[i:]
	}
	requestURI, err := url.Parse(p.baseURI + "/" + path + query)
	if err != nil {
		return nil, &Error{Code: InvalidURI, Token: target, Err: err}
	}
	pi.RequestURI = requestURI
	return pi, nil
}

func splitPath(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// parseQueryParameters returns the query options of a request line
// target.  System query options must be "$" followed by lower-case
// letters.
func parseQueryParameters(target string) (map[string]string, error) {
	params := make(map[string]string)
	i := strings.Index(target, "?")
	if i < 0 {
		return params, nil
	}
	for _, pair := range strings.Split(target[i+1:], "&") {
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, newError(InvalidQueryParameter, pair)
		}
		name, err := url.QueryUnescape(kv[0])
		if err != nil {
			return nil, &Error{Code: InvalidQueryParameter, Token: pair, Err: err}
		}
		value, err := url.QueryUnescape(kv[1])
		if err != nil {
			return nil, &Error{Code: InvalidQueryParameter, Token: pair, Err: err}
		}
		if strings.HasPrefix(name, "$") && !systemQueryPattern.MatchString(name) {
			return nil, newError(InvalidQueryParameter, pair)
		}
		params[name] = value
	}
	return params, nil
}

func lastValue(headers []header, name string) string {
	var value string
	for _, h := range headers {
		if h.name == name {
			value = h.value
		}
	}
	return value
}
