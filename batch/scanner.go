// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package batch

// This file contains the line scanner both batch parsers are built
// on, and the small set of line matchers that make up the grammar.
// Lines keep their trailing carriage return so that bodies can be
// reassembled byte for byte; matchers ignore it.

import (
	"io"
	"io/ioutil"
	"regexp"
	"strconv"
	"strings"
)

var (
	headerPattern      = regexp.MustCompile(`^([a-zA-Z\-]+):\s?(.*)$`)
	requestLinePattern = regexp.MustCompile(`^(GET|POST|PUT|DELETE|MERGE|PATCH)\s(.*)\s?HTTP/[0-9]\.[0-9]\s*$`)
	statusLinePattern  = regexp.MustCompile(`^HTTP/[0-9]\.[0-9]\s([0-9]{3})\s?(.*)$`)

	// See RFC 2046 section 5.1.1.
	boundaryPattern = regexp.MustCompile(`^(?:[a-zA-Z0-9_\-\.'\+]{1,70}|"[a-zA-Z0-9_\-\.'\+\s\(\),/:=\?]{1,69}[a-zA-Z0-9_\-\.'\+\(\),/:=\?]")$`)

	systemQueryPattern = regexp.MustCompile(`^\$[a-z]+$`)
)

type lineScanner struct {
	lines []string
	pos   int
}

// newLineScanner reads all of r and splits it into lines at LF.
func newLineScanner(r io.Reader) (*lineScanner, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, &Error{Code: IOError, Err: err}
	}
	text := string(b)
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
	}
	return &lineScanner{lines: lines}, nil
}

func (s *lineScanner) hasNext() bool {
	return s.pos < len(s.lines)
}

// peek returns the next line without consuming it, or an empty
// string at the end of input.
func (s *lineScanner) peek() string {
	if !s.hasNext() {
		return ""
	}
	return s.lines[s.pos]
}

func (s *lineScanner) next() string {
	line := s.peek()
	if s.hasNext() {
		s.pos++
	}
	return line
}

// nextIs returns true if there is a next line and it satisfies m.
func (s *lineScanner) nextIs(m func(string) bool) bool {
	return s.hasNext() && m(s.peek())
}

func trimCR(line string) string {
	return strings.TrimSuffix(line, "\r")
}

func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}

func isAnyBoundary(line string) bool {
	return strings.HasPrefix(line, "--")
}

func isDelimiter(boundary string) func(string) bool {
	return func(line string) bool {
		return strings.TrimRight(line, " \t\r") == "--"+boundary
	}
}

func isCloseDelimiter(boundary string) func(string) bool {
	return func(line string) bool {
		return strings.TrimRight(line, " \t\r") == "--"+boundary+"--"
	}
}

func isBareBoundary(boundary string) func(string) bool {
	return func(line string) bool {
		return strings.TrimRight(line, " \t\r") == boundary
	}
}

// delimiterMismatches lists, in the order they are checked, what a
// line expected to be a boundary delimiter may look like instead,
// and the error each case raises.
var delimiterMismatches = []struct {
	match func(boundary string) func(string) bool
	code  Code
}{
	{isBareBoundary, InvalidBoundary},
	{func(string) func(string) bool { return isAnyBoundary }, NoMatchWithBoundaryString},
}

// parseDelimiter consumes a "--boundary" line.
func parseDelimiter(s *lineScanner, boundary string) error {
	if !s.hasNext() {
		return newError(MissingBoundaryDelimiter, "--"+boundary)
	}
	line := s.peek()
	if isDelimiter(boundary)(line) {
		s.next()
		return nil
	}
	for _, mismatch := range delimiterMismatches {
		if mismatch.match(boundary)(line) {
			return newError(mismatch.code, trimCR(line))
		}
	}
	return newError(MissingBoundaryDelimiter, trimCR(line))
}

// parseNewLine consumes one mandatory blank line.
func parseNewLine(s *lineScanner) error {
	if s.nextIs(isBlankLine) {
		s.next()
		return nil
	}
	return newError(MissingBlankLine, trimCR(s.peek()))
}

// skipPreamble drops everything before the first line that looks
// like a boundary delimiter.
func skipPreamble(s *lineScanner) {
	for s.hasNext() && !isAnyBoundary(s.peek()) {
		s.next()
	}
}

type header struct {
	name  string
	value string
}

// parseHeaders reads header lines up to, but not including, the next
// blank line.  Names are lower-cased; values are trimmed and keep
// their case.
func parseHeaders(s *lineScanner) ([]header, error) {
	var headers []header
	for s.hasNext() && !isBlankLine(s.peek()) {
		line := trimCR(s.peek())
		m := headerPattern.FindStringSubmatch(line)
		if m == nil {
			return nil, newError(InvalidHeader, line)
		}
		s.next()
		headers = append(headers, header{
			name:  strings.ToLower(strings.TrimSpace(m[1])),
			value: strings.TrimSpace(m[2]),
		})
	}
	return headers, nil
}

// readPartBody reads the body of an embedded request or response, which
// ends at the next delimiter of any of the given boundaries, innermost
// first.  With a valid Content-Length exactly that many bytes are
// taken, even if they contain lines that look like delimiters, and
// anything left before the next delimiter is dropped.  Without one,
// trailing blank lines belong to the framing.
func readPartBody(s *lineScanner, contentLength string, boundaries ...string) []byte {
	atDelimiter := func(line string) bool {
		for _, boundary := range boundaries {
			if isDelimiter(boundary)(line) || isCloseDelimiter(boundary)(line) {
				return true
			}
		}
		return false
	}
	if n, err := strconv.Atoi(strings.TrimSpace(contentLength)); err == nil && n >= 0 {
		var body []byte
		for i := 0; len(body) < n && s.hasNext(); i++ {
			if i > 0 {
				body = append(body, '\n')
			}
			body = append(body, s.next()...)
		}
		if len(body) > n {
			body = body[:n]
		}
		for s.hasNext() && !atDelimiter(s.peek()) {
			s.next()
		}
		return body
	}

	var lines []string
	for s.hasNext() && !atDelimiter(s.peek()) {
		lines = append(lines, s.next())
	}
	for len(lines) > 0 && isBlankLine(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return []byte(strings.TrimSuffix(strings.Join(lines, "\n"), "\r"))
}

// mediaType returns the lower-cased media type of a Content-Type
// value, without parameters.
func mediaType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// boundaryOf extracts the boundary parameter of a multipart/mixed
// Content-Type value.  Quotes around the boundary are removed.
func boundaryOf(contentType string) (string, error) {
	params := strings.Split(contentType, ";")
	if mediaType(contentType) != "multipart/mixed" {
		return "", newError(InvalidContentType, contentType)
	}
	for _, param := range params[1:] {
		kv := strings.SplitN(param, "=", 2)
		if len(kv) != 2 || strings.ToLower(strings.TrimSpace(kv[0])) != "boundary" {
			continue
		}
		value := strings.TrimSpace(kv[1])
		if !boundaryPattern.MatchString(value) {
			return "", newError(InvalidBoundary, value)
		}
		return strings.Trim(value, `"`), nil
	}
	return "", newError(MissingParameterInContentType, contentType)
}

func validateEncoding(encoding string) error {
	if !strings.EqualFold(strings.TrimSpace(encoding), binaryEncoding) {
		return newError(InvalidContentTransferEncoding, encoding)
	}
	return nil
}
