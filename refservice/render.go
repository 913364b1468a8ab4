// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package refservice

// This file renders entities as OData verbose JSON and decodes
// request payloads.

import (
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/diffeo/go-odata/odata"
	"github.com/jtacoma/uritemplates"
	"github.com/mitchellh/mapstructure"
	"github.com/ugorji/go/codec"
)

var jsonHandle = func() *codec.JsonHandle {
	h := &codec.JsonHandle{}
	h.Canonical = true
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return h
}()

var entityTemplate = mustParseTemplate("{+root}{set}('{key}')")

func mustParseTemplate(template string) *uritemplates.UriTemplate {
	tmpl, err := uritemplates.Parse(template)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// entityURI returns the absolute URI of an entity.
func entityURI(root string, r ref) string {
	expanded, err := entityTemplate.Expand(map[string]interface{}{
		"root": root,
		"set":  r.Set,
		"key":  r.Key,
	})
	if err != nil {
		// Only strings go in, which always expand.
		panic(err)
	}
	return expanded
}

// entityURIPattern picks the set and key out of an entity URI.
var entityURIPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\('?([^'()]*)'?\)/?$`)

func parseEntityURI(value string) (ref, bool) {
	m := entityURIPattern.FindStringSubmatch(value)
	if m == nil {
		return ref{}, false
	}
	return ref{Set: m[1], Key: m[2]}, true
}

// serviceRoot is the absolute service root of a request, ending in
// a slash.
func serviceRoot(ctx *odata.Context) string {
	pathInfo := ctx.PathInfo()
	if pathInfo == nil || pathInfo.ServiceRoot == nil {
		return "/"
	}
	root := pathInfo.ServiceRoot.String()
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root
}

// jsonDate formats a time the way OData v2 JSON does.
func jsonDate(t time.Time) string {
	return fmt.Sprintf("/Date(%d)/", t.UnixNano()/int64(time.Millisecond))
}

func deferred(uri string) map[string]interface{} {
	return map[string]interface{}{
		"__deferred": map[string]interface{}{"uri": uri},
	}
}

func locationJSON(l Location) map[string]interface{} {
	return map[string]interface{}{
		"__metadata": map[string]interface{}{"type": namespace + ".c_Location"},
		"City":       l.City,
		"Country":    l.Country,
	}
}

func employeeJSON(root string, e *Employee) map[string]interface{} {
	uri := entityURI(root, ref{employeesSet, e.EmployeeID})
	return map[string]interface{}{
		"__metadata": map[string]interface{}{
			"uri":          uri,
			"type":         namespace + ".Employee",
			"content_type": e.PhotoType,
			"media_src":    uri + "/$value",
			"edit_media":   uri + "/$value",
		},
		"EmployeeId":   e.EmployeeID,
		"EmployeeName": e.EmployeeName,
		"Age":          e.Age,
		"RoomId":       e.RoomID,
		"Location":     locationJSON(e.Location),
		"EntryDate":    jsonDate(e.EntryDate),
		navRoom:        deferred(uri + "/" + navRoom),
	}
}

func roomJSON(root string, r *Room) map[string]interface{} {
	uri := entityURI(root, ref{roomsSet, r.ID})
	return map[string]interface{}{
		"__metadata": map[string]interface{}{
			"uri":  uri,
			"type": namespace + ".Room",
		},
		"Id":         r.ID,
		"Name":       r.Name,
		"Seats":      r.Seats,
		navEmployees: deferred(uri + "/" + navEmployees),
	}
}

// properties returns the structural property values of an entity.
// Complex values are Locations.
func properties(s *store, r ref) map[string]interface{} {
	switch r.Set {
	case employeesSet:
		e := s.employees[r.Key]
		return map[string]interface{}{
			"EmployeeId":   e.EmployeeID,
			"EmployeeName": e.EmployeeName,
			"Age":          e.Age,
			"RoomId":       e.RoomID,
			"Location":     e.Location,
			"EntryDate":    e.EntryDate,
		}
	case roomsSet:
		room := s.rooms[r.Key]
		return map[string]interface{}{
			"Id":    room.ID,
			"Name":  room.Name,
			"Seats": room.Seats,
		}
	}
	return nil
}

func entityJSON(s *store, root string, r ref) map[string]interface{} {
	switch r.Set {
	case employeesSet:
		return employeeJSON(root, s.employees[r.Key])
	case roomsSet:
		return roomJSON(root, s.rooms[r.Key])
	}
	return nil
}

// isJSON returns true if a negotiated content type is JSON.
func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

// requireJSON rejects response formats other than JSON.
func requireJSON(contentType string) error {
	if !isJSON(contentType) {
		return odata.ErrNotAcceptable{Accept: []string{contentType}}
	}
	return nil
}

// jsonResponse wraps v in the "d" envelope.
func jsonResponse(status int, v interface{}) (*odata.Response, error) {
	var out []byte
	enc := codec.NewEncoderBytes(&out, jsonHandle)
	if err := enc.Encode(map[string]interface{}{"d": v}); err != nil {
		return nil, err
	}
	return odata.NewResponse(status).
		ContentType(odata.MediaTypeJSON).
		Entity(out).
		Build(), nil
}

// textValue renders a raw property value.
func textValue(v interface{}) string {
	if t, isTime := v.(time.Time); isTime {
		return t.UTC().Format("2006-01-02T15:04:05")
	}
	return fmt.Sprint(v)
}

func textResponse(v interface{}) *odata.Response {
	return odata.Entity(textValue(v)).
		ContentType(odata.MediaTypeTextPlain).
		Build()
}

func noContent() *odata.Response {
	return odata.NewResponse(http.StatusNoContent).Build()
}

// decodePayload reads a JSON request body.  A "d" envelope and
// "__metadata" are removed.
func decodePayload(content io.Reader, requestContentType string) (map[string]interface{}, error) {
	if !isJSON(requestContentType) {
		return nil, odata.ErrUnsupportedMediaType{Type: requestContentType}
	}
	if content == nil {
		return nil, odata.ErrBadRequest{Err: fmt.Errorf("Missing request body")}
	}
	var payload map[string]interface{}
	if err := codec.NewDecoder(content, jsonHandle).Decode(&payload); err != nil {
		return nil, odata.ErrBadRequest{Err: err}
	}
	if inner, ok := payload["d"].(map[string]interface{}); ok && len(payload) == 1 {
		payload = inner
	}
	delete(payload, "__metadata")
	return payload, nil
}

// decodeOnto copies payload values into the struct target points to.
// Fields absent from payload keep their value.  payload is usually a
// map[string]interface{} but may be any map mapstructure accepts.
func decodeOnto(payload interface{}, target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(payload); err != nil {
		return odata.ErrBadRequest{Err: err}
	}
	return nil
}
