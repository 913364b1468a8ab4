// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package batch

import (
	"io"

	"github.com/diffeo/go-odata/odata"
	"github.com/sirupsen/logrus"
)

// Execute is the usual body of BatchProcessor.ExecuteBatch: it parses
// the batch body, has handler run every part in order, and writes the
// combined response.  A framing error is returned before any part
// runs; per-request failures are already responses and do not stop
// the batch.
func Execute(ctx *odata.Context, handler odata.BatchHandler, contentType string, body io.Reader) (*odata.Response, error) {
	parts, err := NewParser(contentType, ctx.PathInfo()).Parse(body)
	if err != nil {
		return nil, err
	}
	log := ctx.Log
	if log == nil {
		log = logrus.WithField("request_id", ctx.ID)
	}
	log.WithField("parts", len(parts)).Debug("executing batch")

	responses := make([]*odata.BatchResponsePart, 0, len(parts))
	for i, part := range parts {
		resp, err := handler.HandleBatchPart(part)
		if err != nil {
			log.WithError(err).WithField("part", i).Error("batch part failed")
			return nil, err
		}
		responses = append(responses, resp)
	}
	return NewWriter().WriteResponse(responses)
}
