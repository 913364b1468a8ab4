// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package odata

import (
	"errors"
)

// ErrEmptyChangeSet is returned by NewChangeSet if it is given no
// requests.
var ErrEmptyChangeSet = errors.New("Change set contains no requests")

// ErrQueryPartSize is returned when a query operation does not hold
// exactly one request.
var ErrQueryPartSize = errors.New("Query operation must contain exactly one request")

// BatchPart is one top-level unit of a batch body: either a single
// query request or a change set of write requests.
type BatchPart struct {
	ChangeSet bool
	Requests  []*Request
}

// NewQueryPart creates a non-change-set part holding one request.
func NewQueryPart(req *Request) *BatchPart {
	return &BatchPart{Requests: []*Request{req}}
}

// NewChangeSet creates a change set part.  The requests keep their
// order, which is also the order they are executed in.
func NewChangeSet(requests []*Request) (*BatchPart, error) {
	if len(requests) == 0 {
		return nil, ErrEmptyChangeSet
	}
	return &BatchPart{ChangeSet: true, Requests: requests}, nil
}

// BatchResponsePart holds the responses of one BatchPart, in the
// order of its requests.
type BatchResponsePart struct {
	ChangeSet bool
	Responses []*Response
}

// BatchHandler executes the parts of a parsed batch against the
// service that received it.  BatchProcessor implementations call
// back into it.
type BatchHandler interface {
	// HandleBatchPart executes one part.  A query part is run
	// directly; a change set is passed as a whole to the
	// service's BatchProcessor.ExecuteChangeSet.
	HandleBatchPart(part *BatchPart) (*BatchResponsePart, error)

	// HandleRequest executes a single request in a fresh context
	// whose BatchParent is the batch's context.
	HandleRequest(req *Request) (*Response, error)
}
