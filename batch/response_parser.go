// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package batch

import (
	"io"
	"strconv"
	"strings"

	"github.com/diffeo/go-odata/odata"
)

// ParseResponse reads a multipart/mixed batch response body, such as
// one produced by Writer, back into its parts.  The framing
// Content-Length header of each embedded response is consumed and
// not returned.
func ParseResponse(contentType string, body io.Reader) ([]*odata.BatchResponsePart, error) {
	boundary, err := boundaryOf(contentType)
	if err != nil {
		return nil, err
	}
	s, err := newLineScanner(body)
	if err != nil {
		return nil, err
	}
	skipPreamble(s)

	var parts []*odata.BatchResponsePart
	closing := isCloseDelimiter(boundary)
	for s.hasNext() && !closing(s.peek()) {
		part, err := parseResponseMultipart(s, boundary)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
		for s.nextIs(isBlankLine) {
			s.next()
		}
	}
	if !s.hasNext() {
		return nil, newError(MissingCloseDelimiter, "--"+boundary+"--")
	}
	s.next()
	return parts, nil
}

func parseResponseMultipart(s *lineScanner, boundary string) (*odata.BatchResponsePart, error) {
	if err := parseDelimiter(s, boundary); err != nil {
		return nil, err
	}
	headers, err := parseHeaders(s)
	if err != nil {
		return nil, err
	}
	contentType := lastValue(headers, "content-type")
	switch mediaType(contentType) {
	case "":
		return nil, newError(MissingContentType, "")

	case odata.MediaTypeHTTP:
		if err := validateEncoding(lastValue(headers, "content-transfer-encoding")); err != nil {
			return nil, err
		}
		if err := parseNewLine(s); err != nil {
			return nil, err
		}
		resp, err := parseEmbeddedResponse(s, boundary)
		if err != nil {
			return nil, err
		}
		return &odata.BatchResponsePart{Responses: []*odata.Response{resp}}, nil

	case odata.MediaTypeMultipart:
		changeSetBoundary, err := boundaryOf(contentType)
		if err != nil {
			return nil, err
		}
		if err := parseNewLine(s); err != nil {
			return nil, err
		}
		part := &odata.BatchResponsePart{ChangeSet: true}
		closing := isCloseDelimiter(changeSetBoundary)
		for !s.nextIs(closing) {
			if !s.hasNext() {
				return nil, newError(MissingCloseDelimiter, "--"+changeSetBoundary+"--")
			}
			if err := parseDelimiter(s, changeSetBoundary); err != nil {
				return nil, err
			}
			if _, err := parseHeaders(s); err != nil {
				return nil, err
			}
			if err := parseNewLine(s); err != nil {
				return nil, err
			}
			resp, err := parseEmbeddedResponse(s, changeSetBoundary, boundary)
			if err != nil {
				return nil, err
			}
			part.Responses = append(part.Responses, resp)
		}
		s.next()
		return part, nil
	}
	return nil, newError(InvalidContentType, contentType)
}

func parseEmbeddedResponse(s *lineScanner, boundaries ...string) (*odata.Response, error) {
	line := trimCR(s.peek())
	m := statusLinePattern.FindStringSubmatch(line)
	if !s.hasNext() || m == nil {
		return nil, newError(InvalidStatusLine, line)
	}
	s.next()
	status, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, &Error{Code: InvalidStatusLine, Token: line, Err: err}
	}

	headers, err := parseRawHeaders(s)
	if err != nil {
		return nil, err
	}
	if err := parseNewLine(s); err != nil {
		return nil, err
	}

	builder := odata.NewResponse(status)
	var contentLength string
	for _, h := range headers {
		if strings.EqualFold(h.Name, odata.HeaderContentLength) {
			contentLength = h.Value
			continue
		}
		builder.Header(h.Name, h.Value)
	}
	if etag := headers.Get(odata.HeaderETag); etag != "" {
		builder.ETag(etag)
	}

	if body := readPartBody(s, contentLength, boundaries...); len(body) > 0 {
		builder.Entity(body)
	}
	return builder.Build(), nil
}

// parseRawHeaders is parseHeaders keeping the header names as sent.
func parseRawHeaders(s *lineScanner) (odata.Headers, error) {
	var headers odata.Headers
	for s.hasNext() && !isBlankLine(s.peek()) {
		line := trimCR(s.next())
		m := headerPattern.FindStringSubmatch(line)
		if m == nil {
			return nil, newError(InvalidHeader, line)
		}
		headers = headers.Set(m[1], strings.TrimSpace(m[2]))
	}
	return headers, nil
}
