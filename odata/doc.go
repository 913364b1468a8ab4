// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package odata defines the types shared by the OData request
// dispatcher, the $batch protocol implementation, and the business
// logic that plugs into them.
//
// A request flows through three stages.  A URIParser classifies the
// request path into a URIInfo, whose URIType names one of the
// addressable resource shapes of the protocol (service document,
// entity set, single entity, property, link, and so on).  The
// dispatcher then combines the URI type with the HTTP method and
// selects exactly one method on exactly one processor capability.
// Finally the processor produces a Response.
//
// Processors
//
// Business logic is supplied as any number of processor objects, each
// implementing one or more of the capability interfaces in this
// package (EntitySetProcessor, EntityProcessor, BatchProcessor, ...).
// A Service collects them:
//
//	svc := odata.NewService(parser, "2.0", myEntityProcessor, myMetadata)
//	if !svc.Has(odata.CapabilityEntity) {
//	    // requests for single entities will fail with 501
//	}
//
// Capabilities that no processor provides are reported as
// ErrNotImplemented before dispatch.
//
// Batches
//
// A $batch request carries a multipart body with any number of query
// requests and change sets.  BatchPart and BatchResponsePart describe
// the parsed request and its result; the batch package implements the
// wire format.
package odata
