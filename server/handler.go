// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/diffeo/go-odata/odata"
	"github.com/sirupsen/logrus"
)

var (
	errNoService = errors.New("No service for request")
	errNoParser  = errors.New("Service has no URI parser")

	minVersion = semver.MustParse("1.0")
)

// RequestHandler runs the full lifecycle of one request: it parses
// the URI, checks versions and capabilities, negotiates the response
// format, dispatches, and turns any failure into an error response.
type RequestHandler struct {
	// Factory creates the service if the context has none yet.
	Factory odata.ServiceFactory

	// Metrics, if not nil, records every handled request.
	Metrics *Metrics
}

// Handle answers the request in ctx.  It always returns a response;
// errors become OData error documents with the matching status.
func (h *RequestHandler) Handle(ctx *odata.Context) *odata.Response {
	start := h.Metrics.now()
	req := ctx.Request
	uriType := odata.URINone
	contentType := errorContentType(req)

	resp, err := h.handle(ctx, &uriType, &contentType)
	if err != nil {
		resp = h.errorResponse(ctx, err, contentType)
	}
	var method odata.Method
	if req != nil {
		method = req.Method
	}
	h.Metrics.observeRequest(uriType, method, resp.Status(), start)
	return resp
}

func (h *RequestHandler) handle(ctx *odata.Context, uriType *odata.URIType, contentType *string) (*odata.Response, error) {
	req := ctx.Request
	if req == nil || req.PathInfo == nil {
		return nil, odata.ErrBadRequest{Err: errors.New("Missing request path")}
	}
	if ctx.Service == nil {
		factory := ctx.ServiceFactory
		if factory == nil {
			factory = h.Factory
		}
		if factory == nil {
			return nil, errNoService
		}
		service, err := factory.CreateService(ctx)
		if err != nil {
			return nil, err
		}
		ctx.Service = service
	}
	service := ctx.Service

	if ref := req.PathInfo.ContentIDReference; ref != "" {
		return nil, odata.ErrNotImplemented{Err: fmt.Errorf("%w: $%v", odata.ErrContentIDReference, ref)}
	}
	if service.Parser == nil {
		return nil, errNoParser
	}
	uri, err := service.Parser.ParseURI(req.PathInfo.ODataSegments, req.QueryParameters)
	if err != nil {
		return nil, err
	}
	*uriType = uri.Type

	if err := checkVersions(req, service); err != nil {
		return nil, err
	}
	capability, err := RequiredCapability(uri.Type, uri.Value)
	if err != nil {
		return nil, err
	}
	if !service.Has(capability) {
		return nil, odata.ErrNotImplemented{Capability: capability}
	}

	negotiated, err := negotiate(uri, req.AcceptHeaders)
	if err != nil {
		return nil, err
	}
	*contentType = negotiated

	dispatcher := &Dispatcher{Service: service, Factory: ctx.ServiceFactory, Metrics: h.Metrics}
	if dispatcher.Factory == nil {
		dispatcher.Factory = h.Factory
	}
	resp, err := dispatcher.Dispatch(ctx, req.Method, uri, req.Body, req.ContentType, negotiated)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%v returned no response for %v %v", capability, req.Method, uri.Type)
	}
	if resp.Header(odata.HeaderDataServiceVersion) == "" {
		resp = odata.FromResponse(resp).
			Header(odata.HeaderDataServiceVersion, service.DataServiceVersion()).
			Build()
	}
	return resp, nil
}

func (h *RequestHandler) errorResponse(ctx *odata.Context, err error, contentType string) *odata.Response {
	e := NewErrorResponse(err)
	if ctx.Log != nil {
		entry := ctx.Log.WithError(err).WithFields(logrus.Fields{
			"status": e.Status,
			"code":   e.Code,
		})
		if e.Status >= 500 {
			entry.Error("request failed")
		} else {
			entry.Debug("request rejected")
		}
	}
	var lang string
	if langs := ctx.AcceptableLanguages(); len(langs) > 0 && langs[0] != "*" {
		lang = langs[0]
	}
	return e.Response(contentType, lang)
}

// parseVersion reads a DataServiceVersion-style header value such as
// "2.0;NetFx".
func parseVersion(value string) (*semver.Version, error) {
	if i := strings.Index(value, ";"); i >= 0 {
		value = value[:i]
	}
	v, err := semver.NewVersion(strings.TrimSpace(value))
	if err != nil {
		return nil, odata.ErrBadRequest{Err: fmt.Errorf("%w: %q", odata.ErrVersion, value)}
	}
	return v, nil
}

// checkVersions rejects requests whose DataServiceVersion is newer
// than the service speaks, or whose MaxDataServiceVersion is older
// than any version there is.
func checkVersions(req *odata.Request, service *odata.Service) error {
	max, err := semver.NewVersion(service.DataServiceVersion())
	if err != nil {
		return fmt.Errorf("Invalid service version %q: %w", service.DataServiceVersion(), err)
	}
	if value := req.Header(odata.HeaderDataServiceVersion); value != "" {
		v, err := parseVersion(value)
		if err != nil {
			return err
		}
		if v.GreaterThan(max) {
			return odata.ErrBadRequest{Err: fmt.Errorf("%w: %v is newer than %v", odata.ErrVersion, v, max)}
		}
	}
	if value := req.Header(odata.HeaderMaxDataServiceVersion); value != "" {
		v, err := parseVersion(value)
		if err != nil {
			return err
		}
		if v.LessThan(minVersion) {
			return odata.ErrBadRequest{Err: fmt.Errorf("%w: maximum %v is older than %v", odata.ErrVersion, v, minVersion)}
		}
	}
	return nil
}
