// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/diffeo/go-odata/odata"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter creates a new HTTP handler that serves the OData services
// factory creates.  The service root is the URL path root.  For more
// control over this setup, create a mux.Router and call
// PopulateRouter instead.
func NewRouter(factory odata.ServiceFactory, metrics *Metrics) http.Handler {
	r := mux.NewRouter()
	PopulateRouter(r, factory, metrics)
	return r
}

// PopulateRouter adds the OData catch-all route to an existing
// github.com/gorilla/mux router object.  This can be used to place
// the service under a subpath:
//
//	r := mux.NewRouter()
//	s := r.PathPrefix("/odata.svc").Subrouter()
//	server.PopulateRouter(s, factory, nil)
//
// The service root is then /odata.svc/.
func PopulateRouter(r *mux.Router, factory odata.ServiceFactory, metrics *Metrics) {
	api := &odataAPI{Factory: factory, Metrics: metrics}
	r.Path("/{odata:.*}").Name("odata").Handler(api)
}

// odataAPI holds the persistent state for the HTTP binding.
type odataAPI struct {
	Factory odata.ServiceFactory
	Metrics *Metrics
}

// tunneledMethods are the methods a POST request may carry in
// X-HTTP-Method.
var tunneledMethods = map[string]odata.Method{
	"GET":    odata.GET,
	"POST":   odata.POST,
	"PUT":    odata.PUT,
	"DELETE": odata.DELETE,
	"MERGE":  odata.MERGE,
	"PATCH":  odata.PATCH,
}

// requestMethod works out the OData method of an HTTP request,
// following X-HTTP-Method tunneling on POST.
func requestMethod(req *http.Request) (odata.Method, error) {
	switch req.Method {
	case http.MethodHead, http.MethodOptions:
		return "", odata.ErrNotImplemented{}
	case http.MethodPost:
		tunneled := req.Header.Get(odata.HeaderXHTTPMethod)
		if tunneled == "" {
			return odata.POST, nil
		}
		if method, ok := tunneledMethods[strings.ToUpper(tunneled)]; ok {
			return method, nil
		}
		return "", odata.ErrNotImplemented{Err: odata.ErrTunneling}
	}
	return odata.ParseMethod(req.Method)
}

// newRequest converts an HTTP request into an OData request.
// Malformed Accept: headers are reported but the rest of the request
// is still filled in, so the error can be rendered sensibly.
func (api *odataAPI) newRequest(req *http.Request) (*odata.Request, error) {
	odataPath := mux.Vars(req)["odata"]
	rootPath := strings.TrimSuffix(req.URL.Path, odataPath)
	if !strings.HasSuffix(rootPath, "/") {
		rootPath += "/"
	}
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	root := &url.URL{Scheme: scheme, Host: req.Host, Path: rootPath}
	requestURI := &url.URL{
		Scheme:   scheme,
		Host:     req.Host,
		Path:     req.URL.Path,
		RawQuery: req.URL.RawQuery,
	}

	result := &odata.Request{
		PathInfo: &odata.PathInfo{
			ServiceRoot:   root,
			ODataSegments: splitPath(odataPath),
			RequestURI:    requestURI,
		},
		QueryParameters: make(map[string]string),
		Headers:         make(map[string][]string),
		ContentType:     req.Header.Get(odata.HeaderContentType),
		Body:            req.Body,
	}
	for name, values := range req.URL.Query() {
		if len(values) > 0 {
			result.QueryParameters[name] = values[0]
		}
	}
	for name, values := range req.Header {
		result.Headers[strings.ToLower(name)] = values
	}

	var err error
	result.Method, err = requestMethod(req)
	if accept := req.Header[odata.HeaderAccept]; len(accept) > 0 {
		var aerr error
		result.AcceptHeaders, aerr = odata.ParseAcceptHeader(strings.Join(accept, ","))
		if aerr != nil && err == nil {
			err = odata.ErrBadRequest{Err: aerr}
		}
	}
	if langs := req.Header[odata.HeaderAcceptLanguage]; len(langs) > 0 {
		var lerr error
		result.AcceptLanguages, lerr = odata.ParseAcceptLanguage(strings.Join(langs, ","))
		if lerr != nil && err == nil {
			err = odata.ErrBadRequest{Err: lerr}
		}
	}
	return result, err
}

func splitPath(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

func (api *odataAPI) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	odataReq, err := api.newRequest(req)
	ctx := odata.NewContext(odataReq, api.Factory)
	var resp *odata.Response
	if err != nil {
		e := NewErrorResponse(err)
		ctx.Log.WithError(err).WithField("status", e.Status).Debug("rejected request")
		resp = e.Response(errorContentType(odataReq), "")
	} else {
		handler := &RequestHandler{Factory: api.Factory, Metrics: api.Metrics}
		resp = handler.Handle(ctx)
	}
	writeResponse(w, resp, ctx.Log)
}

// writeResponse sends resp.  Content-Length is always computed from
// the materialized body.
func writeResponse(w http.ResponseWriter, resp *odata.Response, log *logrus.Entry) {
	body, err := resp.ReadEntity()
	if err != nil {
		log.WithError(err).Error("could not read response entity")
		e := NewErrorResponse(err)
		resp = e.Response(odata.MediaTypeXML, "")
		body, _ = resp.ReadEntity()
	}
	for _, h := range resp.Headers() {
		if strings.EqualFold(h.Name, odata.HeaderContentLength) {
			continue
		}
		w.Header().Set(h.Name, h.Value)
	}
	if resp.Status() == http.StatusNoContent {
		w.WriteHeader(resp.Status())
		return
	}
	w.Header().Set(odata.HeaderContentLength, strconv.Itoa(len(body)))
	w.WriteHeader(resp.Status())
	if _, err := w.Write(body); err != nil {
		log.WithError(err).Warn("could not write response")
	}
}
