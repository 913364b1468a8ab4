// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package batch

import (
	"fmt"
	"net/http"
)

// Code identifies what is wrong with a batch body.
type Code string

// The batch error codes.  Every framing error names the offending
// token in Error.Token where there is one.
const (
	MissingContentType             Code = "MISSING_CONTENT_TYPE"
	InvalidContentType             Code = "INVALID_CONTENT_TYPE"
	MissingBoundaryDelimiter       Code = "MISSING_BOUNDARY_DELIMITER"
	MissingCloseDelimiter          Code = "MISSING_CLOSE_DELIMITER"
	InvalidBoundary                Code = "INVALID_BOUNDARY"
	NoMatchWithBoundaryString      Code = "NO_MATCH_WITH_BOUNDARY_STRING"
	InvalidChangesetBoundary       Code = "INVALID_CHANGESET_BOUNDARY"
	MissingParameterInContentType  Code = "MISSING_PARAMETER_IN_CONTENT_TYPE"
	InvalidContentTransferEncoding Code = "INVALID_CONTENT_TRANSFER_ENCODING"
	InvalidHeader                  Code = "INVALID_HEADER"
	MissingBlankLine               Code = "MISSING_BLANK_LINE"
	InvalidRequestLine             Code = "INVALID_REQUEST_LINE"
	InvalidStatusLine              Code = "INVALID_STATUS_LINE"
	InvalidChangesetMethod         Code = "INVALID_CHANGESET_METHOD"
	InvalidQueryOperationMethod    Code = "INVALID_QUERY_OPERATION_METHOD"
	InvalidURI                     Code = "INVALID_URI"
	InvalidQueryParameter          Code = "INVALID_QUERY_PARAMETER"
	InvalidPathInfo                Code = "INVALID_PATHINFO"
	EmptyChangeset                 Code = "EMPTY_CHANGESET"
	IOError                        Code = "IO_ERROR"
)

var codeMessages = map[Code]string{
	MissingContentType:             "Missing Content-Type header",
	InvalidContentType:             "Invalid Content-Type, expected",
	MissingBoundaryDelimiter:       "Missing boundary delimiter",
	MissingCloseDelimiter:          "Missing close delimiter",
	InvalidBoundary:                "Invalid boundary",
	NoMatchWithBoundaryString:      "Boundary delimiter does not match boundary",
	InvalidChangesetBoundary:       "Change set boundary equals batch boundary",
	MissingParameterInContentType:  "Missing boundary parameter in Content-Type",
	InvalidContentTransferEncoding: "Content-Transfer-Encoding must be binary",
	InvalidHeader:                  "Invalid header",
	MissingBlankLine:               "Missing blank line",
	InvalidRequestLine:             "Invalid request line",
	InvalidStatusLine:              "Invalid status line",
	InvalidChangesetMethod:         "Invalid method in change set",
	InvalidQueryOperationMethod:    "Invalid method in query operation",
	InvalidURI:                     "Invalid request URI",
	InvalidQueryParameter:          "Invalid query parameter",
	InvalidPathInfo:                "Missing path info of the batch request",
	EmptyChangeset:                 "Change set contains no requests",
	IOError:                        "Error reading batch body",
}

// Error is returned for any malformed batch body.
type Error struct {
	Code Code

	// Token is the offending input: a line, a header, a
	// boundary, or an expected value.
	Token string

	// Err is the underlying error, if any.
	Err error
}

func newError(code Code, token string) *Error {
	return &Error{Code: code, Token: token}
}

func (e *Error) Error() string {
	msg := codeMessages[e.Code]
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Token != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Token)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns 400 Bad Request for framing errors and 500 for
// failures to read the body.
func (e *Error) HTTPStatus() int {
	if e.Code == IOError {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// ErrorCode returns the code as a string, for error responses.
func (e *Error) ErrorCode() string {
	return string(e.Code)
}

// HasCode returns true if err is a batch Error with the given code.
func HasCode(err error, code Code) bool {
	be, ok := err.(*Error)
	return ok && be.Code == code
}
