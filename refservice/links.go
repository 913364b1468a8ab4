// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package refservice

import (
	"fmt"
	"io"
	"net/http"

	"github.com/diffeo/go-odata/odata"
)

// linkSource resolves the entity whose navigation property the link
// URI addresses, and returns it with that property.
func (s *store) linkSource(info *odata.URIInfo) (ref, odata.NavigationSegment, error) {
	if len(info.Navigation) == 0 {
		return ref{}, odata.NavigationSegment{}, odata.ErrBadRequest{Err: fmt.Errorf("%v addresses no link", info.Type)}
	}
	source, err := s.resolveOne(info, len(info.Navigation)-1)
	if err != nil {
		return ref{}, odata.NavigationSegment{}, err
	}
	return source, info.Navigation[len(info.Navigation)-1], nil
}

// decodeLink reads a {"uri": ...} payload naming an existing entity
// of set.
func (s *store) decodeLink(content io.Reader, requestContentType, set string) (ref, error) {
	payload, err := decodePayload(content, requestContentType)
	if err != nil {
		return ref{}, err
	}
	value, _ := payload["uri"].(string)
	target, ok := parseEntityURI(value)
	if !ok {
		return ref{}, odata.ErrBadRequest{Err: fmt.Errorf("Invalid link %q", value)}
	}
	if target.Set != set {
		return ref{}, odata.ErrBadRequest{Err: fmt.Errorf("Link %q does not address %v", value, set)}
	}
	if !s.exists(target) {
		return ref{}, notFound(target)
	}
	return target, nil
}

func linkJSON(root string, target ref) map[string]interface{} {
	return map[string]interface{}{"uri": entityURI(root, target)}
}

// ReadEntityLink returns the URI of the single entity a link points
// to.
func (r *Reference) ReadEntityLink(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	if err := requireJSON(contentType); err != nil {
		return nil, err
	}
	r.sem.Lock()
	defer r.sem.Unlock()
	target, err := r.data.resolveOne(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	return jsonResponse(http.StatusOK, linkJSON(serviceRoot(ctx), target))
}

// UpdateEntityLink moves an employee to another room.
func (r *Reference) UpdateEntityLink(ctx *odata.Context, info *odata.URIInfo, content io.Reader, requestContentType, contentType string) (*odata.Response, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	source, nav, err := r.data.linkSource(info)
	if err != nil {
		return nil, err
	}
	if nav.Property != navRoom {
		return nil, odata.ErrBadRequest{Err: odata.ErrNotSupported}
	}
	target, err := r.data.decodeLink(content, requestContentType, roomsSet)
	if err != nil {
		return nil, err
	}
	r.data.employees[source.Key].RoomID = target.Key
	return noContent(), nil
}

// DeleteEntityLink removes a link.  For an employee this clears its
// room; for a room it takes the named employee out of it.
func (r *Reference) DeleteEntityLink(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	source, nav, err := r.data.linkSource(info)
	if err != nil {
		return nil, err
	}
	switch nav.Property {
	case navRoom:
		r.data.employees[source.Key].RoomID = ""
	case navEmployees:
		target, err := r.data.resolveOne(info, len(info.Navigation))
		if err != nil {
			return nil, err
		}
		r.data.employees[target.Key].RoomID = ""
	}
	return noContent(), nil
}

// ExistsEntityLink answers "1" if the link is set and "0" otherwise.
func (r *Reference) ExistsEntityLink(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	source, nav, err := r.data.linkSource(info)
	if err != nil {
		return nil, err
	}
	targets := r.data.navigate(source, nav.Property)
	if nav.Key != "" {
		found := 0
		for _, target := range targets {
			if target.Key == nav.Key {
				found = 1
			}
		}
		return textResponse(found), nil
	}
	return textResponse(len(targets)), nil
}

// ReadEntityLinks returns the URIs of all entities a link leads to.
func (r *Reference) ReadEntityLinks(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	if err := requireJSON(contentType); err != nil {
		return nil, err
	}
	r.sem.Lock()
	defer r.sem.Unlock()
	targets, err := r.data.resolve(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	if targets, err = page(targets, info.SystemQuery); err != nil {
		return nil, err
	}
	root := serviceRoot(ctx)
	results := make([]interface{}, len(targets))
	for i, target := range targets {
		results[i] = linkJSON(root, target)
	}
	return jsonResponse(http.StatusOK, map[string]interface{}{"results": results})
}

// CreateEntityLink puts an employee into a room.
func (r *Reference) CreateEntityLink(ctx *odata.Context, info *odata.URIInfo, content io.Reader, requestContentType, contentType string) (*odata.Response, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	source, nav, err := r.data.linkSource(info)
	if err != nil {
		return nil, err
	}
	if nav.Property != navEmployees {
		return nil, odata.ErrBadRequest{Err: odata.ErrNotSupported}
	}
	target, err := r.data.decodeLink(content, requestContentType, employeesSet)
	if err != nil {
		return nil, err
	}
	r.data.employees[target.Key].RoomID = source.Key
	return noContent(), nil
}

// CountEntityLinks returns the number of links.
func (r *Reference) CountEntityLinks(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	targets, err := r.data.resolve(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	return textResponse(len(targets)), nil
}
