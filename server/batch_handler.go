// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package server

import (
	"github.com/diffeo/go-odata/odata"
)

// batchHandler runs the parts of one $batch request.  It is bound to
// the context of that request, which becomes the BatchParent of every
// member's context.
type batchHandler struct {
	factory odata.ServiceFactory
	service *odata.Service
	parent  *odata.Context
	metrics *Metrics
}

// HandleBatchPart runs a query part through its own request handler
// and passes a change set as a whole to the service.
func (h *batchHandler) HandleBatchPart(part *odata.BatchPart) (*odata.BatchResponsePart, error) {
	if part.ChangeSet {
		h.metrics.batchPart("changeset")
		return h.service.Batch.ExecuteChangeSet(h.parent, h, part.Requests)
	}
	h.metrics.batchPart("query")
	if len(part.Requests) != 1 {
		return nil, odata.ErrQueryPartSize
	}
	resp, err := h.HandleRequest(part.Requests[0])
	if err != nil {
		return nil, err
	}
	return &odata.BatchResponsePart{Responses: []*odata.Response{resp}}, nil
}

// HandleRequest runs one request in a fresh child context.  Failures
// of the request come back as error responses.
func (h *batchHandler) HandleRequest(req *odata.Request) (*odata.Response, error) {
	ctx := h.parent.NewChildContext(req)
	ctx.Service = h.service
	handler := &RequestHandler{
		Factory: h.factory,
		Metrics: h.metrics,
	}
	return handler.Handle(ctx), nil
}
