// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package odata

import (
	"fmt"
	"io"
)

// Capability names one of the processor interfaces the dispatcher can
// invoke.
type Capability int

// The processor capabilities.  Each corresponds to the interface of
// the same name with a Processor suffix.
const (
	CapabilityServiceDocument Capability = iota + 1
	CapabilityEntitySet
	CapabilityEntity
	CapabilityEntityComplexProperty
	CapabilityEntitySimpleProperty
	CapabilityEntitySimplePropertyValue
	CapabilityEntityLink
	CapabilityEntityLinks
	CapabilityMetadata
	CapabilityBatch
	CapabilityFunctionImport
	CapabilityFunctionImportValue
	CapabilityEntityMedia
)

// AllCapabilities lists every Capability.
var AllCapabilities = []Capability{
	CapabilityServiceDocument,
	CapabilityEntitySet,
	CapabilityEntity,
	CapabilityEntityComplexProperty,
	CapabilityEntitySimpleProperty,
	CapabilityEntitySimplePropertyValue,
	CapabilityEntityLink,
	CapabilityEntityLinks,
	CapabilityMetadata,
	CapabilityBatch,
	CapabilityFunctionImport,
	CapabilityFunctionImportValue,
	CapabilityEntityMedia,
}

var capabilityNames = map[Capability]string{
	CapabilityServiceDocument:           "ServiceDocumentProcessor",
	CapabilityEntitySet:                 "EntitySetProcessor",
	CapabilityEntity:                    "EntityProcessor",
	CapabilityEntityComplexProperty:     "EntityComplexPropertyProcessor",
	CapabilityEntitySimpleProperty:      "EntitySimplePropertyProcessor",
	CapabilityEntitySimplePropertyValue: "EntitySimplePropertyValueProcessor",
	CapabilityEntityLink:                "EntityLinkProcessor",
	CapabilityEntityLinks:               "EntityLinksProcessor",
	CapabilityMetadata:                  "MetadataProcessor",
	CapabilityBatch:                     "BatchProcessor",
	CapabilityFunctionImport:            "FunctionImportProcessor",
	CapabilityFunctionImportValue:       "FunctionImportValueProcessor",
	CapabilityEntityMedia:               "EntityMediaProcessor",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Capability(%d)", int(c))
}

// In every processor method, contentType is the negotiated media type
// of the response and requestContentType is the media type of
// content.

// ServiceDocumentProcessor serves the service document (URI0).
type ServiceDocumentProcessor interface {
	ReadServiceDocument(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
}

// EntitySetProcessor serves entity sets (URI1, URI6B) and their counts
// (URI15).
type EntitySetProcessor interface {
	ReadEntitySet(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
	CreateEntity(ctx *Context, uri *URIInfo, content io.Reader, requestContentType, contentType string) (*Response, error)
	CountEntitySet(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
}

// EntityProcessor serves single entities (URI2, URI6A) and their
// existence checks (URI16).
type EntityProcessor interface {
	ReadEntity(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
	UpdateEntity(ctx *Context, uri *URIInfo, content io.Reader, requestContentType string, merge bool, contentType string) (*Response, error)
	DeleteEntity(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
	ExistsEntity(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
}

// EntityComplexPropertyProcessor serves complex properties (URI3).
type EntityComplexPropertyProcessor interface {
	ReadEntityComplexProperty(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
	UpdateEntityComplexProperty(ctx *Context, uri *URIInfo, content io.Reader, requestContentType string, merge bool, contentType string) (*Response, error)
}

// EntitySimplePropertyProcessor serves simple properties (URI4, URI5).
type EntitySimplePropertyProcessor interface {
	ReadEntitySimpleProperty(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
	UpdateEntitySimpleProperty(ctx *Context, uri *URIInfo, content io.Reader, requestContentType, contentType string) (*Response, error)
}

// EntitySimplePropertyValueProcessor serves the raw $value of simple
// properties (URI4, URI5 with $value).
type EntitySimplePropertyValueProcessor interface {
	ReadEntitySimplePropertyValue(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
	UpdateEntitySimplePropertyValue(ctx *Context, uri *URIInfo, content io.Reader, requestContentType, contentType string) (*Response, error)
	DeleteEntitySimplePropertyValue(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
}

// EntityLinkProcessor serves links to a single entity (URI7A) and
// their existence checks (URI50A).
type EntityLinkProcessor interface {
	ReadEntityLink(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
	UpdateEntityLink(ctx *Context, uri *URIInfo, content io.Reader, requestContentType, contentType string) (*Response, error)
	DeleteEntityLink(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
	ExistsEntityLink(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
}

// EntityLinksProcessor serves links to multiple entities (URI7B) and
// their counts (URI50B).
type EntityLinksProcessor interface {
	ReadEntityLinks(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
	CreateEntityLink(ctx *Context, uri *URIInfo, content io.Reader, requestContentType, contentType string) (*Response, error)
	CountEntityLinks(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
}

// MetadataProcessor serves the metadata document (URI8).
type MetadataProcessor interface {
	ReadMetadata(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
}

// BatchProcessor executes $batch requests (URI9).
//
// ExecuteBatch receives the whole multipart body; a typical
// implementation is batch.Execute, which parses the body, passes each
// part to handler.HandleBatchPart, and writes the multipart response.
//
// ExecuteChangeSet receives all member requests of one change set
// together and is responsible for applying them all or not at all.
// It usually calls handler.HandleRequest once per member, in order.
type BatchProcessor interface {
	ExecuteBatch(ctx *Context, handler BatchHandler, contentType string, content io.Reader) (*Response, error)
	ExecuteChangeSet(ctx *Context, handler BatchHandler, requests []*Request) (*BatchResponsePart, error)
}

// FunctionImportProcessor executes function imports (URI10-URI14).
// The HTTP method is not checked; the function decides.
type FunctionImportProcessor interface {
	ExecuteFunctionImport(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
}

// FunctionImportValueProcessor returns the raw $value of a function
// import returning a single primitive (URI14 with $value).
type FunctionImportValueProcessor interface {
	ExecuteFunctionImportValue(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
}

// EntityMediaProcessor serves media resources (URI17).
type EntityMediaProcessor interface {
	ReadEntityMedia(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
	UpdateEntityMedia(ctx *Context, uri *URIInfo, content io.Reader, requestContentType, contentType string) (*Response, error)
	DeleteEntityMedia(ctx *Context, uri *URIInfo, contentType string) (*Response, error)
}
