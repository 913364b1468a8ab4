// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package refservice

import (
	"io"
	"net/http"

	"github.com/diffeo/go-odata/batch"
	"github.com/diffeo/go-odata/odata"
	"github.com/sirupsen/logrus"
)

// ExecuteBatch parses and runs a $batch body.
func (r *Reference) ExecuteBatch(ctx *odata.Context, handler odata.BatchHandler, contentType string, content io.Reader) (*odata.Response, error) {
	return batch.Execute(ctx, handler, contentType, content)
}

// ExecuteChangeSet runs the members of a change set in order.  If any
// member fails, the data is restored to its state before the change
// set and the failing response alone answers for it.
//
// Change sets are serialized against each other, but requests outside
// a change set may still interleave with one.
func (r *Reference) ExecuteChangeSet(ctx *odata.Context, handler odata.BatchHandler, requests []*odata.Request) (*odata.BatchResponsePart, error) {
	r.changeSets.Lock()
	defer r.changeSets.Unlock()

	r.sem.Lock()
	snapshot := r.data.clone()
	r.sem.Unlock()

	responses := make([]*odata.Response, 0, len(requests))
	for i, req := range requests {
		resp, err := handler.HandleRequest(req)
		if err == nil && resp.Status() < http.StatusBadRequest {
			responses = append(responses, resp)
			continue
		}
		r.sem.Lock()
		r.data = snapshot
		r.sem.Unlock()

		log := ctx.Log.WithFields(logrus.Fields{
			"member":  i,
			"members": len(requests),
		})
		if err != nil {
			log.WithError(err).Warn("change set rolled back")
			return nil, err
		}
		log.WithField("status", resp.Status()).Info("change set rolled back")
		return &odata.BatchResponsePart{Responses: []*odata.Response{resp}}, nil
	}
	return &odata.BatchResponsePart{ChangeSet: true, Responses: responses}, nil
}
