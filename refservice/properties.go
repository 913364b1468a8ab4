// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package refservice

import (
	"fmt"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/diffeo/go-odata/odata"
)

// keyProperties cannot be written through property URIs.
var keyProperties = map[string]bool{
	"EmployeeId": true,
	"Id":         true,
}

// propertyValue reads the property path of info from an entity.
func propertyValue(s *store, target ref, path []string) (interface{}, error) {
	value, ok := properties(s, target)[path[0]]
	if !ok {
		return nil, odata.ErrNotFound{Err: fmt.Errorf("No property %q", path[0])}
	}
	if len(path) == 1 {
		return value, nil
	}
	location, ok := value.(Location)
	if !ok {
		return nil, odata.ErrNotFound{Err: fmt.Errorf("%q is not complex", path[0])}
	}
	switch path[1] {
	case "City":
		return location.City, nil
	case "Country":
		return location.Country, nil
	}
	return nil, odata.ErrNotFound{Err: fmt.Errorf("No property %q of %q", path[1], path[0])}
}

// setProperty writes one property path of an entity.  value is
// converted to the property's type.
func setProperty(s *store, target ref, path []string, value interface{}) error {
	if keyProperties[path[0]] || path[0] == "EntryDate" {
		return odata.ErrBadRequest{Err: fmt.Errorf("Property %q is read-only", path[0])}
	}
	var payload map[string]interface{}
	if len(path) == 1 {
		payload = map[string]interface{}{path[0]: value}
	} else {
		payload = map[string]interface{}{
			path[0]: map[string]interface{}{path[1]: value},
		}
	}
	switch target.Set {
	case employeesSet:
		return decodeOnto(payload, s.employees[target.Key])
	case roomsSet:
		return decodeOnto(payload, s.rooms[target.Key])
	}
	return nil
}

// ReadEntityComplexProperty returns the Location of an employee.
func (r *Reference) ReadEntityComplexProperty(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	if err := requireJSON(contentType); err != nil {
		return nil, err
	}
	r.sem.Lock()
	defer r.sem.Unlock()
	target, err := r.data.resolveOne(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	value, err := propertyValue(r.data, target, info.Property)
	if err != nil {
		return nil, err
	}
	location, _ := value.(Location)
	return jsonResponse(http.StatusOK, map[string]interface{}{
		info.Property[0]: locationJSON(location),
	})
}

// UpdateEntityComplexProperty replaces or merges the Location of an
// employee.  The payload may name the property or just hold its
// members.
func (r *Reference) UpdateEntityComplexProperty(ctx *odata.Context, info *odata.URIInfo, content io.Reader, requestContentType string, merge bool, contentType string) (*odata.Response, error) {
	payload, err := decodePayload(content, requestContentType)
	if err != nil {
		return nil, err
	}
	if inner, ok := payload[info.Property[0]].(map[string]interface{}); ok {
		payload = inner
	}
	r.sem.Lock()
	defer r.sem.Unlock()
	target, err := r.data.resolveOne(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	e, ok := r.data.employees[target.Key]
	if !ok || target.Set != employeesSet {
		return nil, odata.ErrNotFound{Err: fmt.Errorf("No complex property %q", info.Property[0])}
	}
	location := Location{}
	if merge {
		location = e.Location
	}
	if err := decodeOnto(payload, &location); err != nil {
		return nil, err
	}
	e.Location = location
	return noContent(), nil
}

// ReadEntitySimpleProperty returns one property in the JSON envelope.
func (r *Reference) ReadEntitySimpleProperty(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	if err := requireJSON(contentType); err != nil {
		return nil, err
	}
	r.sem.Lock()
	defer r.sem.Unlock()
	target, err := r.data.resolveOne(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	value, err := propertyValue(r.data, target, info.Property)
	if err != nil {
		return nil, err
	}
	name := info.Property[len(info.Property)-1]
	if name == "EntryDate" {
		value = jsonDate(r.data.employees[target.Key].EntryDate)
	}
	return jsonResponse(http.StatusOK, map[string]interface{}{name: value})
}

// UpdateEntitySimpleProperty sets one property from a JSON payload
// naming it.
func (r *Reference) UpdateEntitySimpleProperty(ctx *odata.Context, info *odata.URIInfo, content io.Reader, requestContentType, contentType string) (*odata.Response, error) {
	payload, err := decodePayload(content, requestContentType)
	if err != nil {
		return nil, err
	}
	name := info.Property[len(info.Property)-1]
	value, ok := payload[name]
	if !ok {
		return nil, odata.ErrBadRequest{Err: fmt.Errorf("Payload does not contain %q", name)}
	}
	r.sem.Lock()
	defer r.sem.Unlock()
	target, err := r.data.resolveOne(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	if err := setProperty(r.data, target, info.Property, value); err != nil {
		return nil, err
	}
	return noContent(), nil
}

// ReadEntitySimplePropertyValue returns a property's raw value as
// text.
func (r *Reference) ReadEntitySimplePropertyValue(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	target, err := r.data.resolveOne(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	value, err := propertyValue(r.data, target, info.Property)
	if err != nil {
		return nil, err
	}
	return textResponse(value), nil
}

// UpdateEntitySimplePropertyValue sets a property from its raw text.
func (r *Reference) UpdateEntitySimplePropertyValue(ctx *odata.Context, info *odata.URIInfo, content io.Reader, requestContentType, contentType string) (*odata.Response, error) {
	if content == nil {
		return nil, odata.ErrBadRequest{Err: fmt.Errorf("Missing request body")}
	}
	raw, err := ioutil.ReadAll(content)
	if err != nil {
		return nil, err
	}
	r.sem.Lock()
	defer r.sem.Unlock()
	target, err := r.data.resolveOne(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	if err := setProperty(r.data, target, info.Property, string(raw)); err != nil {
		return nil, err
	}
	return noContent(), nil
}

// DeleteEntitySimplePropertyValue resets a property to its zero
// value.
func (r *Reference) DeleteEntitySimplePropertyValue(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	target, err := r.data.resolveOne(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	value, err := propertyValue(r.data, target, info.Property)
	if err != nil {
		return nil, err
	}
	var zero interface{} = ""
	if _, isInt := value.(int); isInt {
		zero = 0
	}
	if err := setProperty(r.data, target, info.Property, zero); err != nil {
		return nil, err
	}
	return noContent(), nil
}

// ReadEntityMedia returns an employee's photo.
func (r *Reference) ReadEntityMedia(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	e, err := r.mediaEntity(info)
	if err != nil {
		return nil, err
	}
	mediaType := e.PhotoType
	if mediaType == "" {
		mediaType = odata.MediaTypeOctetStream
	}
	return odata.Entity(append([]byte(nil), e.Photo...)).
		ContentType(mediaType).
		Build(), nil
}

// UpdateEntityMedia stores a new photo with the request's content
// type.
func (r *Reference) UpdateEntityMedia(ctx *odata.Context, info *odata.URIInfo, content io.Reader, requestContentType, contentType string) (*odata.Response, error) {
	var photo []byte
	if content != nil {
		var err error
		if photo, err = ioutil.ReadAll(content); err != nil {
			return nil, err
		}
	}
	r.sem.Lock()
	defer r.sem.Unlock()
	e, err := r.mediaEntity(info)
	if err != nil {
		return nil, err
	}
	e.Photo = photo
	e.PhotoType = requestContentType
	return noContent(), nil
}

// DeleteEntityMedia removes an employee's photo.
func (r *Reference) DeleteEntityMedia(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	e, err := r.mediaEntity(info)
	if err != nil {
		return nil, err
	}
	e.Photo = nil
	return noContent(), nil
}

func (r *Reference) mediaEntity(info *odata.URIInfo) (*Employee, error) {
	target, err := r.data.resolveOne(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	e, ok := r.data.employees[target.Key]
	if !ok || target.Set != employeesSet {
		return nil, odata.ErrNotFound{Err: fmt.Errorf("%v has no media resource", target.Set)}
	}
	return e, nil
}
