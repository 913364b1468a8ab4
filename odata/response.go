// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package odata

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
)

// Header is a single response header.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered list of headers whose names are unique when
// compared case-insensitively.
type Headers []Header

// Get returns the value of the named header, or an empty string.
func (h Headers) Get(name string) string {
	for _, header := range h {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// Has returns true if the named header is present.
func (h Headers) Has(name string) bool {
	for _, header := range h {
		if strings.EqualFold(header.Name, name) {
			return true
		}
	}
	return false
}

// Set replaces the value of the named header in place, or appends it
// if it is not yet present.
func (h Headers) Set(name, value string) Headers {
	for i, header := range h {
		if strings.EqualFold(header.Name, name) {
			h[i].Value = value
			return h
		}
	}
	return append(h, Header{Name: name, Value: value})
}

// Names returns the header names in order.
func (h Headers) Names() []string {
	names := make([]string, len(h))
	for i, header := range h {
		names[i] = header.Name
	}
	return names
}

// Response is the result of a single processor invocation.  Build
// one with a ResponseBuilder; it is not changed afterwards, except
// that a streamed entity can only be read once.
type Response struct {
	status  int
	headers Headers
	entity  interface{}
	etag    string
}

// Status returns the HTTP status code.
func (r *Response) Status() int {
	return r.status
}

// Header returns the value of a single header.
func (r *Response) Header(name string) string {
	return r.headers.Get(name)
}

// Headers returns a copy of all headers in order.
func (r *Response) Headers() Headers {
	return append(Headers(nil), r.headers...)
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string {
	return r.headers.Get(HeaderContentType)
}

// ETag returns the entity tag, if any.
func (r *Response) ETag() string {
	return r.etag
}

// Entity returns the body: nil, a string, a []byte, or an io.Reader.
func (r *Response) Entity() interface{} {
	return r.entity
}

// HasEntity returns true if the response carries a body.
func (r *Response) HasEntity() bool {
	return r.entity != nil
}

// ReadEntity materializes the body.  A streamed body is read to its
// end and closed if it is an io.Closer; the stream cannot be read
// again.
func (r *Response) ReadEntity() ([]byte, error) {
	switch e := r.entity.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(e), nil
	case []byte:
		return e, nil
	case io.Reader:
		b, err := ioutil.ReadAll(e)
		if closer, isCloser := e.(io.Closer); isCloser {
			cerr := closer.Close()
			if err == nil {
				err = cerr
			}
		}
		return b, err
	default:
		return []byte(fmt.Sprintf("%v", e)), nil
	}
}

// ResponseBuilder assembles a Response.  The zero value builds an
// empty 200 OK response.
type ResponseBuilder struct {
	response Response
}

// NewResponse starts a response with the given status code.
func NewResponse(status int) *ResponseBuilder {
	return &ResponseBuilder{response: Response{status: status}}
}

// Entity starts a 200 OK response with the given body.
func Entity(entity interface{}) *ResponseBuilder {
	return &ResponseBuilder{response: Response{status: http.StatusOK, entity: entity}}
}

// FromResponse starts a builder holding a copy of an existing
// response.
func FromResponse(r *Response) *ResponseBuilder {
	b := &ResponseBuilder{response: *r}
	b.response.headers = r.Headers()
	return b
}

// Status sets the status code.
func (b *ResponseBuilder) Status(status int) *ResponseBuilder {
	b.response.status = status
	return b
}

// Entity sets the body.
func (b *ResponseBuilder) Entity(entity interface{}) *ResponseBuilder {
	b.response.entity = entity
	return b
}

// Header sets a header, replacing any header with the same name.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.response.headers = b.response.headers.Set(name, value)
	return b
}

// ContentType sets the Content-Type header.
func (b *ResponseBuilder) ContentType(contentType string) *ResponseBuilder {
	return b.Header(HeaderContentType, contentType)
}

// ETag sets the entity tag and the matching ETag header.
func (b *ResponseBuilder) ETag(etag string) *ResponseBuilder {
	b.response.etag = etag
	if etag != "" {
		return b.Header(HeaderETag, etag)
	}
	return b
}

// Build returns the finished response.  The builder may be reused;
// later changes do not affect responses already built.
func (b *ResponseBuilder) Build() *Response {
	r := b.response
	r.headers = append(Headers(nil), b.response.headers...)
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return &r
}

// String is a convenience for tests and logging.
func (r *Response) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %s", r.status, http.StatusText(r.status))
	for _, h := range r.headers {
		fmt.Fprintf(&buf, "; %s: %s", h.Name, h.Value)
	}
	return buf.String()
}
