// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package odata

// HTTP header names used throughout.
const (
	HeaderContentType             = "Content-Type"
	HeaderContentLength           = "Content-Length"
	HeaderContentID               = "Content-ID"
	HeaderContentTransferEncoding = "Content-Transfer-Encoding"
	HeaderAccept                  = "Accept"
	HeaderAcceptLanguage          = "Accept-Language"
	HeaderETag                    = "ETag"
	HeaderLocation                = "Location"
	HeaderDataServiceVersion      = "DataServiceVersion"
	HeaderMaxDataServiceVersion   = "MaxDataServiceVersion"
	HeaderXHTTPMethod             = "X-HTTP-Method"
)

// Media types the protocol layer itself produces or recognizes.
const (
	MediaTypeAtomXML     = "application/atom+xml"
	MediaTypeAtomSvcXML  = "application/atomsvc+xml"
	MediaTypeXML         = "application/xml"
	MediaTypeJSON        = "application/json"
	MediaTypeTextPlain   = "text/plain"
	MediaTypeOctetStream = "application/octet-stream"
	MediaTypeHTTP        = "application/http"
	MediaTypeMultipart   = "multipart/mixed"
)

// DefaultVersion is the data service version this implementation
// speaks unless a Service says otherwise.
const DefaultVersion = "2.0"
