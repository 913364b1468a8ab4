// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package odata

import (
	"github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

// Context holds everything a processor may want to know about the
// request it is answering.  Each request, including each member of a
// batch, gets its own Context; a batch member's context points at the
// context of its enclosing batch through BatchParent.
type Context struct {
	// ID correlates log lines of one request.
	ID string

	// Request is the request being answered.
	Request *Request

	// Service is the service answering the request.
	Service *Service

	// ServiceFactory created Service.
	ServiceFactory ServiceFactory

	// BatchParent is the context of the enclosing $batch request,
	// or nil outside a batch.  Children must treat it as
	// read-only.
	BatchParent *Context

	// Log is a logger carrying the correlation fields of this
	// context.
	Log *logrus.Entry

	parameters map[string]interface{}
}

// NewContext creates a top-level context for a request.
func NewContext(req *Request, factory ServiceFactory) *Context {
	id := uuid.NewV4().String()
	return &Context{
		ID:             id,
		Request:        req,
		ServiceFactory: factory,
		Log:            logrus.WithField("request_id", id),
	}
}

// NewChildContext creates the context of one batch member.  The child
// shares the parent's service and factory and logs with the parent's
// ID as batch_id.
func (c *Context) NewChildContext(req *Request) *Context {
	child := NewContext(req, c.ServiceFactory)
	child.Service = c.Service
	child.BatchParent = c
	child.Log = child.Log.WithField("batch_id", c.ID)
	return child
}

// InBatch returns true if this context belongs to a batch member.
func (c *Context) InBatch() bool {
	return c.BatchParent != nil
}

// PathInfo returns the path info of the request, if any.
func (c *Context) PathInfo() *PathInfo {
	if c.Request == nil {
		return nil
	}
	return c.Request.PathInfo
}

// AcceptableLanguages returns the languages the client accepts, in
// order of preference.
func (c *Context) AcceptableLanguages() []string {
	if c.Request == nil {
		return nil
	}
	return c.Request.AcceptLanguages
}

// SetParameter stores an arbitrary value for the processors of this
// request.
func (c *Context) SetParameter(name string, value interface{}) {
	if c.parameters == nil {
		c.parameters = make(map[string]interface{})
	}
	c.parameters[name] = value
}

// Parameter returns a value stored with SetParameter, or nil.
func (c *Context) Parameter(name string) interface{} {
	return c.parameters[name]
}
