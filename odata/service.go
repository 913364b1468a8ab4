// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package odata

// Service is the registry of processor capabilities one OData service
// provides.  Each field is optional; a nil field means the service
// does not implement that capability.
type Service struct {
	ServiceDocument           ServiceDocumentProcessor
	EntitySet                 EntitySetProcessor
	Entity                    EntityProcessor
	EntityComplexProperty     EntityComplexPropertyProcessor
	EntitySimpleProperty      EntitySimplePropertyProcessor
	EntitySimplePropertyValue EntitySimplePropertyValueProcessor
	EntityLink                EntityLinkProcessor
	EntityLinks               EntityLinksProcessor
	Metadata                  MetadataProcessor
	Batch                     BatchProcessor
	FunctionImport            FunctionImportProcessor
	FunctionImportValue       FunctionImportValueProcessor
	EntityMedia               EntityMediaProcessor

	// Parser classifies request URIs against this service's
	// metadata.
	Parser URIParser

	// Version is the highest DataServiceVersion the service
	// speaks; empty means DefaultVersion.
	Version string
}

// NewService builds a Service from any number of processors.  Each
// processor is registered for every capability interface it
// implements; a later processor replaces an earlier one for the same
// capability.
func NewService(parser URIParser, version string, processors ...interface{}) *Service {
	s := &Service{Parser: parser, Version: version}
	for _, p := range processors {
		s.Register(p)
	}
	return s
}

// Register adds p under every capability interface it implements.
// Returns the capabilities it was registered for.
func (s *Service) Register(p interface{}) []Capability {
	var caps []Capability
	if x, ok := p.(ServiceDocumentProcessor); ok {
		s.ServiceDocument = x
		caps = append(caps, CapabilityServiceDocument)
	}
	if x, ok := p.(EntitySetProcessor); ok {
		s.EntitySet = x
		caps = append(caps, CapabilityEntitySet)
	}
	if x, ok := p.(EntityProcessor); ok {
		s.Entity = x
		caps = append(caps, CapabilityEntity)
	}
	if x, ok := p.(EntityComplexPropertyProcessor); ok {
		s.EntityComplexProperty = x
		caps = append(caps, CapabilityEntityComplexProperty)
	}
	if x, ok := p.(EntitySimplePropertyProcessor); ok {
		s.EntitySimpleProperty = x
		caps = append(caps, CapabilityEntitySimpleProperty)
	}
	if x, ok := p.(EntitySimplePropertyValueProcessor); ok {
		s.EntitySimplePropertyValue = x
		caps = append(caps, CapabilityEntitySimplePropertyValue)
	}
	if x, ok := p.(EntityLinkProcessor); ok {
		s.EntityLink = x
		caps = append(caps, CapabilityEntityLink)
	}
	if x, ok := p.(EntityLinksProcessor); ok {
		s.EntityLinks = x
		caps = append(caps, CapabilityEntityLinks)
	}
	if x, ok := p.(MetadataProcessor); ok {
		s.Metadata = x
		caps = append(caps, CapabilityMetadata)
	}
	if x, ok := p.(BatchProcessor); ok {
		s.Batch = x
		caps = append(caps, CapabilityBatch)
	}
	if x, ok := p.(FunctionImportProcessor); ok {
		s.FunctionImport = x
		caps = append(caps, CapabilityFunctionImport)
	}
	if x, ok := p.(FunctionImportValueProcessor); ok {
		s.FunctionImportValue = x
		caps = append(caps, CapabilityFunctionImportValue)
	}
	if x, ok := p.(EntityMediaProcessor); ok {
		s.EntityMedia = x
		caps = append(caps, CapabilityEntityMedia)
	}
	return caps
}

// Has returns true if the service provides capability c.
func (s *Service) Has(c Capability) bool {
	switch c {
	case CapabilityServiceDocument:
		return s.ServiceDocument != nil
	case CapabilityEntitySet:
		return s.EntitySet != nil
	case CapabilityEntity:
		return s.Entity != nil
	case CapabilityEntityComplexProperty:
		return s.EntityComplexProperty != nil
	case CapabilityEntitySimpleProperty:
		return s.EntitySimpleProperty != nil
	case CapabilityEntitySimplePropertyValue:
		return s.EntitySimplePropertyValue != nil
	case CapabilityEntityLink:
		return s.EntityLink != nil
	case CapabilityEntityLinks:
		return s.EntityLinks != nil
	case CapabilityMetadata:
		return s.Metadata != nil
	case CapabilityBatch:
		return s.Batch != nil
	case CapabilityFunctionImport:
		return s.FunctionImport != nil
	case CapabilityFunctionImportValue:
		return s.FunctionImportValue != nil
	case CapabilityEntityMedia:
		return s.EntityMedia != nil
	}
	return false
}

// DataServiceVersion returns the service's version, defaulting to
// DefaultVersion.
func (s *Service) DataServiceVersion() string {
	if s.Version == "" {
		return DefaultVersion
	}
	return s.Version
}

// ServiceFactory creates the Service that answers one request.  It is
// called once per top-level HTTP request; batch members share the
// service of their batch.
type ServiceFactory interface {
	CreateService(ctx *Context) (*Service, error)
}

// ServiceFactoryFunc adapts a function to ServiceFactory.
type ServiceFactoryFunc func(ctx *Context) (*Service, error)

// CreateService calls f.
func (f ServiceFactoryFunc) CreateService(ctx *Context) (*Service, error) {
	return f(ctx)
}
