// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package server

import (
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/diffeo/go-odata/batch"
	"github.com/diffeo/go-odata/odata"
)

// recordedCall is what the recorder remembers of one processor invocation.
type recordedCall struct {
	Name        string
	Context     *odata.Context
	URI         *odata.URIInfo
	ContentType string
	Body        string
}

// recorder implements every processor capability.  Each method
// records its name (with "(merge)" appended for merging updates) and
// answers with Reply if set, or a text response with Status, or 200.
type recorder struct {
	Calls  []recordedCall
	Status int
	Reply  *odata.Response
	Panic  bool
}

func (r *recorder) record(name string, ctx *odata.Context, uri *odata.URIInfo, content io.Reader, contentType string) (*odata.Response, error) {
	if r.Panic {
		panic("processor exploded")
	}
	c := recordedCall{Name: name, Context: ctx, URI: uri, ContentType: contentType}
	if content != nil {
		b, err := ioutil.ReadAll(content)
		if err != nil {
			return nil, err
		}
		c.Body = string(b)
	}
	r.Calls = append(r.Calls, c)
	if r.Reply != nil {
		return r.Reply, nil
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	return odata.NewResponse(status).
		ContentType(odata.MediaTypeTextPlain).
		Header("X-Call", name).
		Entity(name).
		Build(), nil
}

func (r *recorder) last() recordedCall {
	if len(r.Calls) == 0 {
		return recordedCall{}
	}
	return r.Calls[len(r.Calls)-1]
}

func mergeName(name string, merge bool) string {
	if merge {
		return name + "(merge)"
	}
	return name
}

func (r *recorder) ReadServiceDocument(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ReadServiceDocument", ctx, uri, nil, ct)
}

func (r *recorder) ReadEntitySet(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ReadEntitySet", ctx, uri, nil, ct)
}

func (r *recorder) CreateEntity(ctx *odata.Context, uri *odata.URIInfo, content io.Reader, rct, ct string) (*odata.Response, error) {
	return r.record("CreateEntity", ctx, uri, content, ct)
}

func (r *recorder) CountEntitySet(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("CountEntitySet", ctx, uri, nil, ct)
}

func (r *recorder) ReadEntity(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ReadEntity", ctx, uri, nil, ct)
}

func (r *recorder) UpdateEntity(ctx *odata.Context, uri *odata.URIInfo, content io.Reader, rct string, merge bool, ct string) (*odata.Response, error) {
	return r.record(mergeName("UpdateEntity", merge), ctx, uri, content, ct)
}

func (r *recorder) DeleteEntity(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("DeleteEntity", ctx, uri, nil, ct)
}

func (r *recorder) ExistsEntity(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ExistsEntity", ctx, uri, nil, ct)
}

func (r *recorder) ReadEntityComplexProperty(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ReadEntityComplexProperty", ctx, uri, nil, ct)
}

func (r *recorder) UpdateEntityComplexProperty(ctx *odata.Context, uri *odata.URIInfo, content io.Reader, rct string, merge bool, ct string) (*odata.Response, error) {
	return r.record(mergeName("UpdateEntityComplexProperty", merge), ctx, uri, content, ct)
}

func (r *recorder) ReadEntitySimpleProperty(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ReadEntitySimpleProperty", ctx, uri, nil, ct)
}

func (r *recorder) UpdateEntitySimpleProperty(ctx *odata.Context, uri *odata.URIInfo, content io.Reader, rct, ct string) (*odata.Response, error) {
	return r.record("UpdateEntitySimpleProperty", ctx, uri, content, ct)
}

func (r *recorder) ReadEntitySimplePropertyValue(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ReadEntitySimplePropertyValue", ctx, uri, nil, ct)
}

func (r *recorder) UpdateEntitySimplePropertyValue(ctx *odata.Context, uri *odata.URIInfo, content io.Reader, rct, ct string) (*odata.Response, error) {
	return r.record("UpdateEntitySimplePropertyValue", ctx, uri, content, ct)
}

func (r *recorder) DeleteEntitySimplePropertyValue(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("DeleteEntitySimplePropertyValue", ctx, uri, nil, ct)
}

func (r *recorder) ReadEntityLink(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ReadEntityLink", ctx, uri, nil, ct)
}

func (r *recorder) UpdateEntityLink(ctx *odata.Context, uri *odata.URIInfo, content io.Reader, rct, ct string) (*odata.Response, error) {
	return r.record("UpdateEntityLink", ctx, uri, content, ct)
}

func (r *recorder) DeleteEntityLink(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("DeleteEntityLink", ctx, uri, nil, ct)
}

func (r *recorder) ExistsEntityLink(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ExistsEntityLink", ctx, uri, nil, ct)
}

func (r *recorder) ReadEntityLinks(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ReadEntityLinks", ctx, uri, nil, ct)
}

func (r *recorder) CreateEntityLink(ctx *odata.Context, uri *odata.URIInfo, content io.Reader, rct, ct string) (*odata.Response, error) {
	return r.record("CreateEntityLink", ctx, uri, content, ct)
}

func (r *recorder) CountEntityLinks(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("CountEntityLinks", ctx, uri, nil, ct)
}

func (r *recorder) ReadMetadata(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ReadMetadata", ctx, uri, nil, ct)
}

func (r *recorder) ExecuteBatch(ctx *odata.Context, handler odata.BatchHandler, rct string, content io.Reader) (*odata.Response, error) {
	return r.record("ExecuteBatch", ctx, nil, nil, rct)
}

func (r *recorder) ExecuteChangeSet(ctx *odata.Context, handler odata.BatchHandler, requests []*odata.Request) (*odata.BatchResponsePart, error) {
	r.Calls = append(r.Calls, recordedCall{Name: "ExecuteChangeSet", Context: ctx})
	part := &odata.BatchResponsePart{ChangeSet: true}
	for _, req := range requests {
		resp, err := handler.HandleRequest(req)
		if err != nil {
			return nil, err
		}
		part.Responses = append(part.Responses, resp)
	}
	return part, nil
}

func (r *recorder) ExecuteFunctionImport(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ExecuteFunctionImport", ctx, uri, nil, ct)
}

func (r *recorder) ExecuteFunctionImportValue(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ExecuteFunctionImportValue", ctx, uri, nil, ct)
}

func (r *recorder) ReadEntityMedia(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("ReadEntityMedia", ctx, uri, nil, ct)
}

func (r *recorder) UpdateEntityMedia(ctx *odata.Context, uri *odata.URIInfo, content io.Reader, rct, ct string) (*odata.Response, error) {
	return r.record("UpdateEntityMedia", ctx, uri, content, ct)
}

func (r *recorder) DeleteEntityMedia(ctx *odata.Context, uri *odata.URIInfo, ct string) (*odata.Response, error) {
	return r.record("DeleteEntityMedia", ctx, uri, nil, ct)
}

// batchRecorder runs $batch bodies through the real batch framing.
type batchRecorder struct {
	*recorder
}

func (r batchRecorder) ExecuteBatch(ctx *odata.Context, handler odata.BatchHandler, rct string, content io.Reader) (*odata.Response, error) {
	r.Calls = append(r.Calls, recordedCall{Name: "ExecuteBatch", Context: ctx})
	return batch.Execute(ctx, handler, rct, content)
}

// stubParser maps joined path segments to fixed URI infos.
type stubParser map[string]odata.URIInfo

func (p stubParser) ParseURI(segments []string, query map[string]string) (*odata.URIInfo, error) {
	info, ok := p[strings.Join(segments, "/")]
	if !ok {
		return nil, odata.ErrNotFound{Err: io.EOF}
	}
	info.SystemQuery = map[string]string{}
	info.CustomQuery = map[string]string{}
	for name, value := range query {
		if strings.HasPrefix(name, "$") {
			info.SystemQuery[name] = value
		} else {
			info.CustomQuery[name] = value
		}
	}
	return &info, nil
}

var testParser = stubParser{
	"":                      {Type: odata.URI0},
	"Employees":             {Type: odata.URI1, EntitySet: "Employees"},
	"Employees('1')":        {Type: odata.URI2, EntitySet: "Employees", Key: "1"},
	"Employees('1')/$value": {Type: odata.URI17, EntitySet: "Employees", Key: "1", Value: true},
	"Employees/$count":      {Type: odata.URI15, EntitySet: "Employees"},
	"$metadata":             {Type: odata.URI8},
	"$batch":                {Type: odata.URI9},
	"Broken":                {Type: odata.URIType(99)},
}

func newTestService(processors ...interface{}) *odata.Service {
	return odata.NewService(testParser, "", processors...)
}

func staticFactory(service *odata.Service) odata.ServiceFactory {
	return odata.ServiceFactoryFunc(func(*odata.Context) (*odata.Service, error) {
		return service, nil
	})
}
