// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package server

import (
	"io"

	"github.com/diffeo/go-odata/odata"
	"github.com/sirupsen/logrus"
)

// call carries the arguments of one dispatched request to an
// operation.
type call struct {
	uri                *odata.URIInfo
	content            io.Reader
	requestContentType string
	contentType        string
}

// operation invokes exactly one processor method.
type operation func(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error)

// dispatchEntry describes how one URI type is served.  methods holds
// the allowed methods; valueMethods replaces it for $value URIs.  any
// and valueAny, when set, serve every method without gating.
// badRequest lists methods the protocol forbids outright for the
// type, which are rejected as 400 rather than 405.
type dispatchEntry struct {
	capability      odata.Capability
	valueCapability odata.Capability
	methods         map[odata.Method]operation
	valueMethods    map[odata.Method]operation
	any             operation
	valueAny        operation
	badRequest      map[odata.Method]bool
}

// dispatchTable is the complete decision table over URI types and
// methods.  Every member of odata.AllURITypes has an entry.
var dispatchTable = map[odata.URIType]*dispatchEntry{
	odata.URI0: {
		capability: odata.CapabilityServiceDocument,
		methods: map[odata.Method]operation{
			odata.GET: readServiceDocument,
		},
	},
	odata.URI1:  entitySetEntry,
	odata.URI6B: entitySetEntry,
	odata.URI2: {
		capability: odata.CapabilityEntity,
		methods: map[odata.Method]operation{
			odata.GET:    readEntity,
			odata.PUT:    updateEntity(false),
			odata.PATCH:  updateEntity(true),
			odata.MERGE:  updateEntity(true),
			odata.DELETE: deleteEntity,
		},
	},
	odata.URI3: {
		capability: odata.CapabilityEntityComplexProperty,
		methods: map[odata.Method]operation{
			odata.GET:   readComplexProperty,
			odata.PUT:   updateComplexProperty(false),
			odata.PATCH: updateComplexProperty(true),
			odata.MERGE: updateComplexProperty(true),
		},
	},
	odata.URI4: simplePropertyEntry,
	odata.URI5: simplePropertyEntry,
	odata.URI6A: {
		capability: odata.CapabilityEntity,
		methods: map[odata.Method]operation{
			odata.GET: readEntity,
		},
		badRequest: map[odata.Method]bool{
			odata.PUT:    true,
			odata.PATCH:  true,
			odata.MERGE:  true,
			odata.DELETE: true,
		},
	},
	odata.URI7A: {
		capability: odata.CapabilityEntityLink,
		methods: map[odata.Method]operation{
			odata.GET:    readEntityLink,
			odata.PUT:    updateEntityLink,
			odata.PATCH:  updateEntityLink,
			odata.MERGE:  updateEntityLink,
			odata.DELETE: deleteEntityLink,
		},
	},
	odata.URI7B: {
		capability: odata.CapabilityEntityLinks,
		methods: map[odata.Method]operation{
			odata.GET:  readEntityLinks,
			odata.POST: createEntityLink,
		},
	},
	odata.URI8: {
		capability: odata.CapabilityMetadata,
		methods: map[odata.Method]operation{
			odata.GET: readMetadata,
		},
	},
	odata.URI9: {
		capability: odata.CapabilityBatch,
		methods: map[odata.Method]operation{
			odata.POST: executeBatch,
		},
	},
	odata.URI10: functionImportEntry,
	odata.URI11: functionImportEntry,
	odata.URI12: functionImportEntry,
	odata.URI13: functionImportEntry,
	odata.URI14: {
		capability:      odata.CapabilityFunctionImport,
		valueCapability: odata.CapabilityFunctionImportValue,
		any:             executeFunctionImport,
		valueAny:        executeFunctionImportValue,
	},
	odata.URI15: {
		capability: odata.CapabilityEntitySet,
		methods: map[odata.Method]operation{
			odata.GET: countEntitySet,
		},
	},
	odata.URI16: {
		capability: odata.CapabilityEntity,
		methods: map[odata.Method]operation{
			odata.GET: existsEntity,
		},
	},
	odata.URI17: {
		capability: odata.CapabilityEntityMedia,
		methods: map[odata.Method]operation{
			odata.GET:    readEntityMedia,
			odata.PUT:    updateEntityMedia,
			odata.DELETE: deleteEntityMedia,
		},
	},
	odata.URI50A: {
		capability: odata.CapabilityEntityLink,
		methods: map[odata.Method]operation{
			odata.GET: existsEntityLink,
		},
	},
	odata.URI50B: {
		capability: odata.CapabilityEntityLinks,
		methods: map[odata.Method]operation{
			odata.GET: countEntityLinks,
		},
	},
}

var entitySetEntry = &dispatchEntry{
	capability: odata.CapabilityEntitySet,
	methods: map[odata.Method]operation{
		odata.GET:  readEntitySet,
		odata.POST: createEntity,
	},
}

var simplePropertyEntry = &dispatchEntry{
	capability:      odata.CapabilityEntitySimpleProperty,
	valueCapability: odata.CapabilityEntitySimplePropertyValue,
	methods: map[odata.Method]operation{
		odata.GET:   readSimpleProperty,
		odata.PUT:   updateSimpleProperty,
		odata.PATCH: updateSimpleProperty,
		odata.MERGE: updateSimpleProperty,
	},
	valueMethods: map[odata.Method]operation{
		odata.GET:    readSimplePropertyValue,
		odata.PUT:    updateSimplePropertyValue,
		odata.PATCH:  updateSimplePropertyValue,
		odata.MERGE:  updateSimplePropertyValue,
		odata.DELETE: deleteSimplePropertyValue,
	},
}

var functionImportEntry = &dispatchEntry{
	capability: odata.CapabilityFunctionImport,
	any:        executeFunctionImport,
}

func (e *dispatchEntry) capabilityFor(isValue bool) odata.Capability {
	if isValue && e.valueCapability != 0 {
		return e.valueCapability
	}
	return e.capability
}

func (e *dispatchEntry) operation(uriType odata.URIType, method odata.Method, isValue bool) (operation, error) {
	if isValue && e.valueAny != nil {
		return e.valueAny, nil
	}
	if e.any != nil {
		return e.any, nil
	}
	methods := e.methods
	if isValue && e.valueMethods != nil {
		methods = e.valueMethods
	}
	if op, ok := methods[method]; ok {
		return op, nil
	}
	if e.badRequest[method] {
		return nil, odata.ErrBadRequest{Err: odata.ErrNotSupported}
	}
	return nil, odata.ErrMethodNotAllowed{Method: string(method), Type: uriType}
}

// RequiredCapability names the processor capability a URI type needs.
// It reads the same table Dispatch uses, so a service that has the
// returned capability can serve every allowed method of the type.
func RequiredCapability(uriType odata.URIType, isValue bool) (odata.Capability, error) {
	entry, ok := dispatchTable[uriType]
	if !ok {
		return 0, odata.ErrUnknownURIType{Type: uriType}
	}
	return entry.capabilityFor(isValue), nil
}

// Dispatcher routes a single parsed request to one processor method
// of its service.
type Dispatcher struct {
	// Service provides the processors.
	Service *odata.Service

	// Factory created Service; it is handed on to batch
	// handlers.
	Factory odata.ServiceFactory

	// Metrics, if not nil, counts batch parts.
	Metrics *Metrics
}

// NewDispatcher creates a dispatcher for a service.
func NewDispatcher(factory odata.ServiceFactory, service *odata.Service) *Dispatcher {
	return &Dispatcher{Service: service, Factory: factory}
}

// Dispatch invokes the one processor method the URI type and method
// select.  Errors from the processor are returned unchanged.  A
// method the URI type does not support is odata.ErrMethodNotAllowed,
// or odata.ErrBadRequest where the protocol forbids it; a missing
// capability is odata.ErrNotImplemented; a URI type outside the known
// set is odata.ErrUnknownURIType.
func (d *Dispatcher) Dispatch(ctx *odata.Context, method odata.Method, uri *odata.URIInfo, content io.Reader, requestContentType, contentType string) (*odata.Response, error) {
	entry, ok := dispatchTable[uri.Type]
	if !ok {
		return nil, odata.ErrUnknownURIType{Type: uri.Type}
	}
	op, err := entry.operation(uri.Type, method, uri.Value)
	if err != nil {
		return nil, err
	}
	capability := entry.capabilityFor(uri.Value)
	if !d.Service.Has(capability) {
		return nil, odata.ErrNotImplemented{Capability: capability}
	}
	if ctx.Log != nil {
		ctx.Log.WithFields(logrus.Fields{
			"uri_type":   uri.Type,
			"method":     method,
			"capability": capability,
		}).Debug("dispatch")
	}
	return op(d, ctx, &call{
		uri:                uri,
		content:            content,
		requestContentType: requestContentType,
		contentType:        contentType,
	})
}

func readServiceDocument(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.ServiceDocument.ReadServiceDocument(ctx, c.uri, c.contentType)
}

func readEntitySet(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntitySet.ReadEntitySet(ctx, c.uri, c.contentType)
}

func createEntity(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntitySet.CreateEntity(ctx, c.uri, c.content, c.requestContentType, c.contentType)
}

func countEntitySet(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntitySet.CountEntitySet(ctx, c.uri, c.contentType)
}

func readEntity(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.Entity.ReadEntity(ctx, c.uri, c.contentType)
}

func updateEntity(merge bool) operation {
	return func(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
		return d.Service.Entity.UpdateEntity(ctx, c.uri, c.content, c.requestContentType, merge, c.contentType)
	}
}

func deleteEntity(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.Entity.DeleteEntity(ctx, c.uri, c.contentType)
}

func existsEntity(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.Entity.ExistsEntity(ctx, c.uri, c.contentType)
}

func readComplexProperty(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntityComplexProperty.ReadEntityComplexProperty(ctx, c.uri, c.contentType)
}

func updateComplexProperty(merge bool) operation {
	return func(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
		return d.Service.EntityComplexProperty.UpdateEntityComplexProperty(ctx, c.uri, c.content, c.requestContentType, merge, c.contentType)
	}
}

func readSimpleProperty(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntitySimpleProperty.ReadEntitySimpleProperty(ctx, c.uri, c.contentType)
}

func updateSimpleProperty(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntitySimpleProperty.UpdateEntitySimpleProperty(ctx, c.uri, c.content, c.requestContentType, c.contentType)
}

func readSimplePropertyValue(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntitySimplePropertyValue.ReadEntitySimplePropertyValue(ctx, c.uri, c.contentType)
}

func updateSimplePropertyValue(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntitySimplePropertyValue.UpdateEntitySimplePropertyValue(ctx, c.uri, c.content, c.requestContentType, c.contentType)
}

func deleteSimplePropertyValue(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntitySimplePropertyValue.DeleteEntitySimplePropertyValue(ctx, c.uri, c.contentType)
}

func readEntityLink(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntityLink.ReadEntityLink(ctx, c.uri, c.contentType)
}

func updateEntityLink(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntityLink.UpdateEntityLink(ctx, c.uri, c.content, c.requestContentType, c.contentType)
}

func deleteEntityLink(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntityLink.DeleteEntityLink(ctx, c.uri, c.contentType)
}

func existsEntityLink(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntityLink.ExistsEntityLink(ctx, c.uri, c.contentType)
}

func readEntityLinks(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntityLinks.ReadEntityLinks(ctx, c.uri, c.contentType)
}

func createEntityLink(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntityLinks.CreateEntityLink(ctx, c.uri, c.content, c.requestContentType, c.contentType)
}

func countEntityLinks(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntityLinks.CountEntityLinks(ctx, c.uri, c.contentType)
}

func readMetadata(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.Metadata.ReadMetadata(ctx, c.uri, c.contentType)
}

// executeBatch hands the batch body to the service together with a
// handler bound to this request's context.
func executeBatch(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	handler := &batchHandler{
		factory: d.Factory,
		service: d.Service,
		parent:  ctx,
		metrics: d.Metrics,
	}
	return d.Service.Batch.ExecuteBatch(ctx, handler, c.requestContentType, c.content)
}

func executeFunctionImport(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.FunctionImport.ExecuteFunctionImport(ctx, c.uri, c.contentType)
}

func executeFunctionImportValue(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.FunctionImportValue.ExecuteFunctionImportValue(ctx, c.uri, c.contentType)
}

func readEntityMedia(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntityMedia.ReadEntityMedia(ctx, c.uri, c.contentType)
}

func updateEntityMedia(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntityMedia.UpdateEntityMedia(ctx, c.uri, c.content, c.requestContentType, c.contentType)
}

func deleteEntityMedia(d *Dispatcher, ctx *odata.Context, c *call) (*odata.Response, error) {
	return d.Service.EntityMedia.DeleteEntityMedia(ctx, c.uri, c.contentType)
}
