// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package server

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/diffeo/go-odata/batch"
	"github.com/diffeo/go-odata/odata"
	"github.com/ugorji/go/codec"
)

const defaultLanguage = "en-US"

// ErrorResponse describes a failed request in a format-neutral way.
type ErrorResponse struct {
	// Status is the HTTP status code.
	Status int

	// Code is a stable identifier for well-known errors, or
	// "error".
	Code string

	// Message is the human-readable error text.
	Message string

	// Stack is the goroutine stack, only filled in after a panic.
	Stack string
}

// NewErrorResponse builds an error response for err.
func NewErrorResponse(err error) *ErrorResponse {
	e := &ErrorResponse{
		Status:  http.StatusInternalServerError,
		Code:    "error",
		Message: err.Error(),
	}
	var es odata.ErrorStatus
	if errors.As(err, &es) {
		e.Status = es.HTTPStatus()
	}
	e.FromError(err)
	return e
}

// FromError remaps well-known errors to specific e.Code values.
func (e *ErrorResponse) FromError(err error) {
	switch {
	case errors.Is(err, odata.ErrNotSupported):
		e.Code = "NotSupported"
		return
	case errors.Is(err, odata.ErrVersion):
		e.Code = "VersionError"
		return
	case errors.Is(err, odata.ErrContentIDReference):
		e.Code = "ContentIDReference"
		return
	case errors.Is(err, odata.ErrTunneling):
		e.Code = "Tunneling"
		return
	case errors.Is(err, odata.ErrQueryPartSize):
		e.Code = "ErrQueryPartSize"
		return
	}
	switch et := err.(type) {
	case odata.ErrMethodNotAllowed:
		e.Code = "ErrMethodNotAllowed"
	case odata.ErrNotImplemented:
		e.Code = "ErrNotImplemented"
	case odata.ErrNotAcceptable:
		e.Code = "ErrNotAcceptable"
	case odata.ErrUnsupportedMediaType:
		e.Code = "ErrUnsupportedMediaType"
	case odata.ErrUnknownURIType:
		e.Code = "ErrUnknownURIType"
	case *batch.Error:
		e.Code = et.ErrorCode()
	case odata.ErrNotFound:
		e.Code = "ErrNotFound"
		e.FromError(et.Err)
	case odata.ErrBadRequest:
		e.Code = "ErrBadRequest"
		e.FromError(et.Err)
	}
}

// FromPanic populates an error response based on a recovered panic.
func (e *ErrorResponse) FromPanic(obj interface{}) {
	e.Status = http.StatusInternalServerError
	e.Code = "panic"
	if recoveredError, isError := obj.(error); isError {
		e.Message = recoveredError.Error()
	} else {
		e.Message = fmt.Sprintf("%+v", obj)
	}
	var stack [4096]byte
	n := runtime.Stack(stack[:], false)
	e.Stack = string(stack[:n])
}

type jsonError struct {
	Error jsonErrorBody `codec:"error"`
}

type jsonErrorBody struct {
	Code       string      `codec:"code"`
	Message    jsonMessage `codec:"message"`
	InnerError string      `codec:"innererror,omitempty"`
}

type jsonMessage struct {
	Lang  string `codec:"lang"`
	Value string `codec:"value"`
}

type xmlError struct {
	XMLName    xml.Name   `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata error"`
	Code       string     `xml:"code"`
	Message    xmlMessage `xml:"message"`
	InnerError string     `xml:"innererror,omitempty"`
}

type xmlMessage struct {
	Lang  string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
	Value string `xml:",chardata"`
}

// isJSON returns true if a negotiated content type asks for JSON.
func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

// Response renders e as an OData error document.  JSON is used if
// contentType names JSON; XML otherwise.
func (e *ErrorResponse) Response(contentType, lang string) *odata.Response {
	if lang == "" {
		lang = defaultLanguage
	}
	builder := odata.NewResponse(e.Status).
		Header(odata.HeaderDataServiceVersion, "1.0")
	if isJSON(contentType) {
		var out []byte
		doc := jsonError{Error: jsonErrorBody{
			Code:       e.Code,
			Message:    jsonMessage{Lang: lang, Value: e.Message},
			InnerError: e.Stack,
		}}
		enc := codec.NewEncoderBytes(&out, &codec.JsonHandle{})
		if err := enc.Encode(doc); err == nil {
			return builder.ContentType(odata.MediaTypeJSON).Entity(out).Build()
		}
	}
	out, err := xml.Marshal(xmlError{
		Code:       e.Code,
		Message:    xmlMessage{Lang: lang, Value: e.Message},
		InnerError: e.Stack,
	})
	if err != nil {
		return builder.ContentType(odata.MediaTypeTextPlain).Entity(e.Message).Build()
	}
	return builder.
		ContentType(odata.MediaTypeXML).
		Entity(append([]byte(xml.Header), out...)).
		Build()
}
