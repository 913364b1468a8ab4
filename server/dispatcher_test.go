// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/diffeo/go-odata/odata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// everyMethod maps all methods to the same call.
func everyMethod(name string) map[odata.Method]string {
	calls := make(map[odata.Method]string)
	for _, m := range odata.AllMethods {
		calls[m] = name
	}
	return calls
}

// expectedCalls is the processor method each URI type and method
// should reach.  Absent methods must be refused.
var expectedCalls = map[odata.URIType]map[odata.Method]string{
	odata.URI0: {odata.GET: "ReadServiceDocument"},
	odata.URI1: {odata.GET: "ReadEntitySet", odata.POST: "CreateEntity"},
	odata.URI2: {
		odata.GET:    "ReadEntity",
		odata.PUT:    "UpdateEntity",
		odata.PATCH:  "UpdateEntity(merge)",
		odata.MERGE:  "UpdateEntity(merge)",
		odata.DELETE: "DeleteEntity",
	},
	odata.URI3: {
		odata.GET:   "ReadEntityComplexProperty",
		odata.PUT:   "UpdateEntityComplexProperty",
		odata.PATCH: "UpdateEntityComplexProperty(merge)",
		odata.MERGE: "UpdateEntityComplexProperty(merge)",
	},
	odata.URI4: {
		odata.GET:   "ReadEntitySimpleProperty",
		odata.PUT:   "UpdateEntitySimpleProperty",
		odata.PATCH: "UpdateEntitySimpleProperty",
		odata.MERGE: "UpdateEntitySimpleProperty",
	},
	odata.URI5: {
		odata.GET:   "ReadEntitySimpleProperty",
		odata.PUT:   "UpdateEntitySimpleProperty",
		odata.PATCH: "UpdateEntitySimpleProperty",
		odata.MERGE: "UpdateEntitySimpleProperty",
	},
	odata.URI6A: {odata.GET: "ReadEntity"},
	odata.URI6B: {odata.GET: "ReadEntitySet", odata.POST: "CreateEntity"},
	odata.URI7A: {
		odata.GET:    "ReadEntityLink",
		odata.PUT:    "UpdateEntityLink",
		odata.PATCH:  "UpdateEntityLink",
		odata.MERGE:  "UpdateEntityLink",
		odata.DELETE: "DeleteEntityLink",
	},
	odata.URI7B:  {odata.GET: "ReadEntityLinks", odata.POST: "CreateEntityLink"},
	odata.URI8:   {odata.GET: "ReadMetadata"},
	odata.URI9:   {odata.POST: "ExecuteBatch"},
	odata.URI10:  everyMethod("ExecuteFunctionImport"),
	odata.URI11:  everyMethod("ExecuteFunctionImport"),
	odata.URI12:  everyMethod("ExecuteFunctionImport"),
	odata.URI13:  everyMethod("ExecuteFunctionImport"),
	odata.URI14:  everyMethod("ExecuteFunctionImport"),
	odata.URI15:  {odata.GET: "CountEntitySet"},
	odata.URI16:  {odata.GET: "ExistsEntity"},
	odata.URI17:  {odata.GET: "ReadEntityMedia", odata.PUT: "UpdateEntityMedia", odata.DELETE: "DeleteEntityMedia"},
	odata.URI50A: {odata.GET: "ExistsEntityLink"},
	odata.URI50B: {odata.GET: "CountEntityLinks"},
}

// expectedValueCalls overrides expectedCalls for $value URIs.
var expectedValueCalls = map[odata.URIType]map[odata.Method]string{
	odata.URI4: {
		odata.GET:    "ReadEntitySimplePropertyValue",
		odata.PUT:    "UpdateEntitySimplePropertyValue",
		odata.PATCH:  "UpdateEntitySimplePropertyValue",
		odata.MERGE:  "UpdateEntitySimplePropertyValue",
		odata.DELETE: "DeleteEntitySimplePropertyValue",
	},
	odata.URI5: {
		odata.GET:    "ReadEntitySimplePropertyValue",
		odata.PUT:    "UpdateEntitySimplePropertyValue",
		odata.PATCH:  "UpdateEntitySimplePropertyValue",
		odata.MERGE:  "UpdateEntitySimplePropertyValue",
		odata.DELETE: "DeleteEntitySimplePropertyValue",
	},
	odata.URI14: everyMethod("ExecuteFunctionImportValue"),
}

// callCapabilities is the capability each processor method belongs
// to.
var callCapabilities = map[string]odata.Capability{
	"ReadServiceDocument":                odata.CapabilityServiceDocument,
	"ReadEntitySet":                      odata.CapabilityEntitySet,
	"CreateEntity":                       odata.CapabilityEntitySet,
	"CountEntitySet":                     odata.CapabilityEntitySet,
	"ReadEntity":                         odata.CapabilityEntity,
	"UpdateEntity":                       odata.CapabilityEntity,
	"UpdateEntity(merge)":                odata.CapabilityEntity,
	"DeleteEntity":                       odata.CapabilityEntity,
	"ExistsEntity":                       odata.CapabilityEntity,
	"ReadEntityComplexProperty":          odata.CapabilityEntityComplexProperty,
	"UpdateEntityComplexProperty":        odata.CapabilityEntityComplexProperty,
	"UpdateEntityComplexProperty(merge)": odata.CapabilityEntityComplexProperty,
	"ReadEntitySimpleProperty":           odata.CapabilityEntitySimpleProperty,
	"UpdateEntitySimpleProperty":         odata.CapabilityEntitySimpleProperty,
	"ReadEntitySimplePropertyValue":      odata.CapabilityEntitySimplePropertyValue,
	"UpdateEntitySimplePropertyValue":    odata.CapabilityEntitySimplePropertyValue,
	"DeleteEntitySimplePropertyValue":    odata.CapabilityEntitySimplePropertyValue,
	"ReadEntityLink":                     odata.CapabilityEntityLink,
	"UpdateEntityLink":                   odata.CapabilityEntityLink,
	"DeleteEntityLink":                   odata.CapabilityEntityLink,
	"ExistsEntityLink":                   odata.CapabilityEntityLink,
	"ReadEntityLinks":                    odata.CapabilityEntityLinks,
	"CreateEntityLink":                   odata.CapabilityEntityLinks,
	"CountEntityLinks":                   odata.CapabilityEntityLinks,
	"ReadMetadata":                       odata.CapabilityMetadata,
	"ExecuteBatch":                       odata.CapabilityBatch,
	"ExecuteFunctionImport":              odata.CapabilityFunctionImport,
	"ExecuteFunctionImportValue":         odata.CapabilityFunctionImportValue,
	"ReadEntityMedia":                    odata.CapabilityEntityMedia,
	"UpdateEntityMedia":                  odata.CapabilityEntityMedia,
	"DeleteEntityMedia":                  odata.CapabilityEntityMedia,
}

func expectedCall(uriType odata.URIType, method odata.Method, isValue bool) string {
	if isValue {
		if calls, ok := expectedValueCalls[uriType]; ok {
			return calls[method]
		}
	}
	return expectedCalls[uriType][method]
}

func isWrite(method odata.Method) bool {
	switch method {
	case odata.PUT, odata.PATCH, odata.MERGE, odata.DELETE:
		return true
	}
	return false
}

func TestEveryURITypeHasAnEntry(t *testing.T) {
	for _, uriType := range odata.AllURITypes {
		_, ok := dispatchTable[uriType]
		assert.True(t, ok, "no dispatch entry for %v", uriType)
		_, ok = expectedCalls[uriType]
		assert.True(t, ok, "no expected calls for %v", uriType)
	}
	assert.Len(t, dispatchTable, len(odata.AllURITypes))
}

func TestDispatchTable(t *testing.T) {
	for _, uriType := range odata.AllURITypes {
		for _, isValue := range []bool{false, true} {
			for _, method := range odata.AllMethods {
				rec := &recorder{}
				service := newTestService(rec)
				d := NewDispatcher(staticFactory(service), service)
				ctx := odata.NewContext(nil, nil)
				uri := &odata.URIInfo{Type: uriType, Value: isValue}

				resp, err := d.Dispatch(ctx, method, uri, strings.NewReader("body"), odata.MediaTypeJSON, odata.MediaTypeJSON)
				want := expectedCall(uriType, method, isValue)
				desc := []interface{}{"%v %v value=%v", method, uriType, isValue}

				if want == "" {
					assert.Empty(t, rec.Calls, desc...)
					assert.Nil(t, resp, desc...)
					if uriType == odata.URI6A && isWrite(method) {
						assert.IsType(t, odata.ErrBadRequest{}, err, desc...)
						assert.True(t, errors.Is(err, odata.ErrNotSupported), desc...)
					} else {
						assert.IsType(t, odata.ErrMethodNotAllowed{}, err, desc...)
					}
					continue
				}

				if assert.NoError(t, err, desc...) &&
					assert.Len(t, rec.Calls, 1, desc...) {
					assert.Equal(t, want, rec.Calls[0].Name, desc...)
					if uriType != odata.URI9 {
						assert.Same(t, uri, rec.Calls[0].URI, desc...)
					}
					assert.Equal(t, want, resp.Header("X-Call"), desc...)
				}

				capability, err := RequiredCapability(uriType, isValue)
				if assert.NoError(t, err, desc...) {
					assert.Equal(t, callCapabilities[want], capability, desc...)
				}
			}
		}
	}
}

func TestDispatchPassesContent(t *testing.T) {
	rec := &recorder{}
	service := newTestService(rec)
	d := NewDispatcher(staticFactory(service), service)
	ctx := odata.NewContext(nil, nil)

	_, err := d.Dispatch(ctx, odata.POST, &odata.URIInfo{Type: odata.URI1},
		strings.NewReader(`{"Name":"x"}`), odata.MediaTypeJSON, odata.MediaTypeAtomXML)
	require.NoError(t, err)
	require.Len(t, rec.Calls, 1)
	assert.Equal(t, "CreateEntity", rec.Calls[0].Name)
	assert.Equal(t, `{"Name":"x"}`, rec.Calls[0].Body)
	assert.Equal(t, odata.MediaTypeAtomXML, rec.Calls[0].ContentType)
	assert.Same(t, ctx, rec.Calls[0].Context)
}

func TestDispatchMissingCapability(t *testing.T) {
	service := newTestService()
	d := NewDispatcher(staticFactory(service), service)
	ctx := odata.NewContext(nil, nil)
	for _, uriType := range odata.AllURITypes {
		for _, isValue := range []bool{false, true} {
			var method odata.Method
			for _, m := range odata.AllMethods {
				if expectedCall(uriType, m, isValue) != "" {
					method = m
					break
				}
			}
			require.NotEmpty(t, method)

			_, err := d.Dispatch(ctx, method, &odata.URIInfo{Type: uriType, Value: isValue}, nil, "", "")
			want, cerr := RequiredCapability(uriType, isValue)
			require.NoError(t, cerr)
			if assert.IsType(t, odata.ErrNotImplemented{}, err, "%v %v", method, uriType) {
				assert.Equal(t, want, err.(odata.ErrNotImplemented).Capability)
				assert.Equal(t, http.StatusNotImplemented, err.(odata.ErrNotImplemented).HTTPStatus())
			}
		}
	}
}

func TestDispatchMethodCheckedBeforeCapability(t *testing.T) {
	service := newTestService()
	d := NewDispatcher(staticFactory(service), service)
	ctx := odata.NewContext(nil, nil)

	_, err := d.Dispatch(ctx, odata.POST, &odata.URIInfo{Type: odata.URI8}, nil, "", "")
	assert.IsType(t, odata.ErrMethodNotAllowed{}, err)

	_, err = d.Dispatch(ctx, odata.DELETE, &odata.URIInfo{Type: odata.URI6A}, nil, "", "")
	assert.True(t, errors.Is(err, odata.ErrNotSupported))
}

func TestDispatchPartialService(t *testing.T) {
	// Only the entity set capability; entity reads are 501.
	rec := &recorder{}
	service := odata.NewService(testParser, "")
	service.EntitySet = rec
	d := NewDispatcher(staticFactory(service), service)
	ctx := odata.NewContext(nil, nil)

	_, err := d.Dispatch(ctx, odata.GET, &odata.URIInfo{Type: odata.URI1}, nil, "", "")
	assert.NoError(t, err)
	_, err = d.Dispatch(ctx, odata.GET, &odata.URIInfo{Type: odata.URI2}, nil, "", "")
	if assert.IsType(t, odata.ErrNotImplemented{}, err) {
		assert.Equal(t, odata.CapabilityEntity, err.(odata.ErrNotImplemented).Capability)
	}
	assert.Len(t, rec.Calls, 1)
}

func TestDispatchUnknownURIType(t *testing.T) {
	rec := &recorder{}
	service := newTestService(rec)
	d := NewDispatcher(staticFactory(service), service)

	_, err := d.Dispatch(odata.NewContext(nil, nil), odata.GET, &odata.URIInfo{Type: odata.URIType(99)}, nil, "", "")
	if assert.IsType(t, odata.ErrUnknownURIType{}, err) {
		assert.Equal(t, http.StatusInternalServerError, err.(odata.ErrUnknownURIType).HTTPStatus())
	}
	assert.Empty(t, rec.Calls)

	_, err = RequiredCapability(odata.URINone, false)
	assert.IsType(t, odata.ErrUnknownURIType{}, err)
}

// A processor's response comes back untouched, even for 204.
func TestDispatchReturnsProcessorResponse(t *testing.T) {
	reply := odata.NewResponse(http.StatusNoContent).Build()
	rec := &recorder{Reply: reply}
	service := newTestService(rec)
	d := NewDispatcher(staticFactory(service), service)

	resp, err := d.Dispatch(odata.NewContext(nil, nil), odata.DELETE,
		&odata.URIInfo{Type: odata.URI2, EntitySet: "Employees", Key: "1"}, nil, "", odata.MediaTypeJSON)
	require.NoError(t, err)
	assert.Same(t, reply, resp)
	assert.Equal(t, "DeleteEntity", rec.last().Name)
	assert.Equal(t, "1", rec.last().URI.Key)
}

func TestDispatchProcessorError(t *testing.T) {
	failure := odata.ErrNotFound{Err: errors.New("no such employee")}
	service := odata.NewService(testParser, "")
	service.Entity = failingEntity{failure}
	d := NewDispatcher(staticFactory(service), service)

	_, err := d.Dispatch(odata.NewContext(nil, nil), odata.GET, &odata.URIInfo{Type: odata.URI2}, nil, "", "")
	assert.Equal(t, failure, err)
}

// failingEntity fails every entity operation with err.
type failingEntity struct {
	err error
}

func (f failingEntity) ReadEntity(*odata.Context, *odata.URIInfo, string) (*odata.Response, error) {
	return nil, f.err
}

func (f failingEntity) UpdateEntity(*odata.Context, *odata.URIInfo, io.Reader, string, bool, string) (*odata.Response, error) {
	return nil, f.err
}

func (f failingEntity) DeleteEntity(*odata.Context, *odata.URIInfo, string) (*odata.Response, error) {
	return nil, f.err
}

func (f failingEntity) ExistsEntity(*odata.Context, *odata.URIInfo, string) (*odata.Response, error) {
	return nil, f.err
}
