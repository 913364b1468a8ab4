// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package odata

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorStatus describes errors that correspond to specific HTTP status
// codes.
type ErrorStatus interface {
	// HTTPStatus returns the HTTP status code for this error.
	HTTPStatus() int
}

// ErrNotSupported is wrapped in ErrBadRequest when a request uses a
// method the protocol recognizes but forbids for the addressed
// resource, such as updating an entity through a navigation property.
var ErrNotSupported = errors.New("The request is not supported")

// ErrVersion is wrapped in ErrBadRequest when the DataServiceVersion
// or MaxDataServiceVersion request headers cannot be honored.
var ErrVersion = errors.New("Unsupported data service version")

// ErrContentIDReference is wrapped in ErrNotImplemented when a batch
// change set member addresses another member's result by Content-ID.
var ErrContentIDReference = errors.New("Content-ID references are not supported")

// ErrTunneling is wrapped in ErrNotImplemented when a POST request
// tunnels an unrecognized method in X-HTTP-Method.
var ErrTunneling = errors.New("Method tunneling is not supported for this method")

// ErrMethodNotAllowed is returned if a particular HTTP method is not
// allowed for the addressed resource.  This corresponds exactly to the
// 405 Method Not Allowed HTTP status code.
type ErrMethodNotAllowed struct {
	Method string
	Type   URIType
}

func (e ErrMethodNotAllowed) Error() string {
	if e.Type == URINone {
		return fmt.Sprintf("Method %v not allowed", e.Method)
	}
	return fmt.Sprintf("Method %v not allowed for %v", e.Method, e.Type)
}

// HTTPStatus returns a fixed 405 Method Not Allowed error code.
func (e ErrMethodNotAllowed) HTTPStatus() int {
	return http.StatusMethodNotAllowed
}

// ErrBadRequest is returned as an error when the request is
// syntactically valid but cannot be processed as sent.
type ErrBadRequest struct {
	Err error
}

func (e ErrBadRequest) Error() string {
	return e.Err.Error()
}

func (e ErrBadRequest) Unwrap() error {
	return e.Err
}

// HTTPStatus returns a fixed 400 Bad Request HTTP status code.
func (e ErrBadRequest) HTTPStatus() int {
	return http.StatusBadRequest
}

// ErrNotFound is a wrapper error that indicates that, due to the
// embedded error, the service should return a 404 Not Found error.
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string {
	return e.Err.Error()
}

func (e ErrNotFound) Unwrap() error {
	return e.Err
}

// HTTPStatus returns a fixed 404 Not Found error code.
func (e ErrNotFound) HTTPStatus() int {
	return http.StatusNotFound
}

// ErrNotImplemented is returned if the service does not provide the
// processor capability a request needs, or if a protocol feature is
// recognized but not implemented.
type ErrNotImplemented struct {
	Capability Capability
	Err        error
}

func (e ErrNotImplemented) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Capability != 0 {
		return fmt.Sprintf("%v is not implemented", e.Capability)
	}
	return "Not implemented"
}

func (e ErrNotImplemented) Unwrap() error {
	return e.Err
}

// HTTPStatus returns a fixed 501 Not Implemented error code.
func (e ErrNotImplemented) HTTPStatus() int {
	return http.StatusNotImplemented
}

// ErrNotAcceptable is returned if the Accept: header does not mention
// any media type the addressed resource can be represented as.
type ErrNotAcceptable struct {
	Accept []string
}

func (e ErrNotAcceptable) Error() string {
	return fmt.Sprintf("No acceptable representation for %q", e.Accept)
}

// HTTPStatus returns a fixed 406 Not Acceptable error code.
func (e ErrNotAcceptable) HTTPStatus() int {
	return http.StatusNotAcceptable
}

// ErrUnsupportedMediaType is returned if the request Content-Type: is
// not one the processor can read.
type ErrUnsupportedMediaType struct {
	Type string
}

func (e ErrUnsupportedMediaType) Error() string {
	return fmt.Sprintf("Unsupported media type %q", e.Type)
}

// HTTPStatus returns a fixed 415 Unsupported Media Type error code.
func (e ErrUnsupportedMediaType) HTTPStatus() int {
	return http.StatusUnsupportedMediaType
}

// ErrUnknownURIType is returned by the dispatcher for a URI type
// outside the closed set.  This is always a defect in the URI parser
// or the dispatcher, never the client's fault.
type ErrUnknownURIType struct {
	Type URIType
}

func (e ErrUnknownURIType) Error() string {
	return fmt.Sprintf("Unknown or not implemented URI type: %v", e.Type)
}

// HTTPStatus returns a fixed 500 Internal Server Error code.
func (e ErrUnknownURIType) HTTPStatus() int {
	return http.StatusInternalServerError
}
