// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package refservice

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-odata/odata"
	"github.com/diffeo/go-odata/uri"
	"github.com/sirupsen/logrus"
)

// Reference is the in-memory reference service.  It implements every
// processor capability.  All data is behind a single lock.
type Reference struct {
	// Clock stamps the entry date of new employees.
	Clock clock.Clock

	sem        sync.Mutex
	changeSets sync.Mutex
	data       *store
	service    *odata.Service
}

// New creates a reference service holding the scenario data.  If clk
// is nil the real clock is used.
func New(clk clock.Clock) *Reference {
	if clk == nil {
		clk = clock.New()
	}
	r := &Reference{Clock: clk, data: newStore()}
	r.data.seed(clk.Now())
	r.service = odata.NewService(uri.NewParser(Schema), odata.DefaultVersion, r)
	return r
}

// Service returns the service registry with r under every
// capability.
func (r *Reference) Service() *odata.Service {
	return r.service
}

// CreateService makes r its own service factory; every request sees
// the same data.
func (r *Reference) CreateService(ctx *odata.Context) (*odata.Service, error) {
	return r.service, nil
}

func notFound(target ref) error {
	return odata.ErrNotFound{Err: fmt.Errorf("No %v entity with key %q", target.Set, target.Key)}
}

// resolve follows the key and the first steps navigation segments of
// info, returning the addressed entities.  Call with the lock held.
func (s *store) resolve(info *odata.URIInfo, steps int) ([]ref, error) {
	set := info.EntitySet
	if len(info.Navigation) > 0 {
		set = navigationOwner[info.Navigation[0].Property]
	}
	if info.Key == "" {
		return s.all(set), nil
	}
	current := []ref{{set, info.Key}}
	if !s.exists(current[0]) {
		return nil, notFound(current[0])
	}
	for _, nav := range info.Navigation[:steps] {
		targets := s.navigate(current[0], nav.Property)
		switch {
		case nav.Key != "":
			wanted := ref{nav.TargetSet, nav.Key}
			current = nil
			for _, target := range targets {
				if target == wanted {
					current = []ref{target}
				}
			}
			if current == nil {
				return nil, notFound(wanted)
			}
		case Schema.EntitySets[navigationOwner[nav.Property]].Navigation[nav.Property].Many:
			current = targets
		default:
			if len(targets) == 0 {
				return nil, odata.ErrNotFound{Err: fmt.Errorf("%v of %v is not set", nav.Property, current[0].Key)}
			}
			current = targets[:1]
		}
	}
	return current, nil
}

// resolveOne resolves info to exactly one entity.
func (s *store) resolveOne(info *odata.URIInfo, steps int) (ref, error) {
	refs, err := s.resolve(info, steps)
	if err != nil {
		return ref{}, err
	}
	if len(refs) != 1 {
		return ref{}, odata.ErrBadRequest{Err: fmt.Errorf("%v does not address a single entity", info.Type)}
	}
	return refs[0], nil
}

// page applies $skip and $top.
func page(refs []ref, query map[string]string) ([]ref, error) {
	if value, ok := query["$skip"]; ok {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, odata.ErrBadRequest{Err: fmt.Errorf("Invalid $skip %q", value)}
		}
		if n > len(refs) {
			n = len(refs)
		}
		refs = refs[n:]
	}
	if value, ok := query["$top"]; ok {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, odata.ErrBadRequest{Err: fmt.Errorf("Invalid $top %q", value)}
		}
		if n < len(refs) {
			refs = refs[:n]
		}
	}
	return refs, nil
}

// ReadEntitySet returns a feed of an entity set or of the targets of
// a navigation property.
func (r *Reference) ReadEntitySet(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	if err := requireJSON(contentType); err != nil {
		return nil, err
	}
	r.sem.Lock()
	defer r.sem.Unlock()

	all, err := r.data.resolve(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	refs, err := page(all, info.SystemQuery)
	if err != nil {
		return nil, err
	}
	root := serviceRoot(ctx)
	results := make([]interface{}, len(refs))
	for i, target := range refs {
		results[i] = entityJSON(r.data, root, target)
	}
	feed := map[string]interface{}{"results": results}
	if info.SystemQuery["$inlinecount"] == "allpages" {
		feed["__count"] = strconv.Itoa(len(all))
	}
	return jsonResponse(http.StatusOK, feed)
}

// CreateEntity adds an entity.  Posting to a room's nr_Employees
// places the new employee in that room.
func (r *Reference) CreateEntity(ctx *odata.Context, info *odata.URIInfo, content io.Reader, requestContentType, contentType string) (*odata.Response, error) {
	if err := requireJSON(contentType); err != nil {
		return nil, err
	}
	payload, err := decodePayload(content, requestContentType)
	if err != nil {
		return nil, err
	}
	r.sem.Lock()
	defer r.sem.Unlock()

	var room string
	if len(info.Navigation) > 0 {
		owner, err := r.data.resolveOne(info, len(info.Navigation)-1)
		if err != nil {
			return nil, err
		}
		room = owner.Key
	}

	var created ref
	switch info.EntitySet {
	case employeesSet:
		e := &Employee{}
		if err := decodeOnto(payload, e); err != nil {
			return nil, err
		}
		if e.EmployeeID == "" {
			e.EmployeeID = r.data.nextID()
		} else if _, exists := r.data.employees[e.EmployeeID]; exists {
			return nil, odata.ErrBadRequest{Err: fmt.Errorf("Employee %q already exists", e.EmployeeID)}
		}
		if room != "" {
			e.RoomID = room
		}
		e.EntryDate = r.Clock.Now()
		r.data.employees[e.EmployeeID] = e
		created = ref{employeesSet, e.EmployeeID}

	case roomsSet:
		newRoom := &Room{}
		if err := decodeOnto(payload, newRoom); err != nil {
			return nil, err
		}
		if newRoom.ID == "" {
			newRoom.ID = r.data.nextID()
		} else if _, exists := r.data.rooms[newRoom.ID]; exists {
			return nil, odata.ErrBadRequest{Err: fmt.Errorf("Room %q already exists", newRoom.ID)}
		}
		r.data.rooms[newRoom.ID] = newRoom
		created = ref{roomsSet, newRoom.ID}

	default:
		return nil, odata.ErrNotFound{Err: fmt.Errorf("No entity set %q", info.EntitySet)}
	}

	ctx.Log.WithFields(logrus.Fields{
		"set": created.Set,
		"key": created.Key,
	}).Debug("created entity")
	root := serviceRoot(ctx)
	resp, err := jsonResponse(http.StatusCreated, entityJSON(r.data, root, created))
	if err != nil {
		return nil, err
	}
	return odata.FromResponse(resp).
		Header(odata.HeaderLocation, entityURI(root, created)).
		Build(), nil
}

// CountEntitySet returns the number of entities in a set or behind
// a navigation property.
func (r *Reference) CountEntitySet(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	refs, err := r.data.resolve(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	refs, err = page(refs, info.SystemQuery)
	if err != nil {
		return nil, err
	}
	return textResponse(len(refs)), nil
}

// ReadEntity returns one entity.
func (r *Reference) ReadEntity(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	if err := requireJSON(contentType); err != nil {
		return nil, err
	}
	r.sem.Lock()
	defer r.sem.Unlock()
	target, err := r.data.resolveOne(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	return jsonResponse(http.StatusOK, entityJSON(r.data, serviceRoot(ctx), target))
}

// UpdateEntity replaces an entity's properties, or with merge only
// those present in the payload.  The key cannot change.
func (r *Reference) UpdateEntity(ctx *odata.Context, info *odata.URIInfo, content io.Reader, requestContentType string, merge bool, contentType string) (*odata.Response, error) {
	payload, err := decodePayload(content, requestContentType)
	if err != nil {
		return nil, err
	}
	r.sem.Lock()
	defer r.sem.Unlock()
	target, err := r.data.resolveOne(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}

	switch target.Set {
	case employeesSet:
		old := r.data.employees[target.Key]
		e := &Employee{EmployeeID: old.EmployeeID, EntryDate: old.EntryDate, Photo: old.Photo, PhotoType: old.PhotoType}
		if merge {
			copied := *old
			e = &copied
		}
		if err := decodeOnto(payload, e); err != nil {
			return nil, err
		}
		if e.EmployeeID != target.Key {
			return nil, odata.ErrBadRequest{Err: fmt.Errorf("Cannot change key of employee %q", target.Key)}
		}
		r.data.employees[target.Key] = e
	case roomsSet:
		room := &Room{ID: target.Key}
		if merge {
			copied := *r.data.rooms[target.Key]
			room = &copied
		}
		if err := decodeOnto(payload, room); err != nil {
			return nil, err
		}
		if room.ID != target.Key {
			return nil, odata.ErrBadRequest{Err: fmt.Errorf("Cannot change key of room %q", target.Key)}
		}
		r.data.rooms[target.Key] = room
	}
	return noContent(), nil
}

// DeleteEntity removes an entity.  Employees of a deleted room are
// left without a room.
func (r *Reference) DeleteEntity(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	target, err := r.data.resolveOne(info, len(info.Navigation))
	if err != nil {
		return nil, err
	}
	switch target.Set {
	case employeesSet:
		delete(r.data.employees, target.Key)
	case roomsSet:
		delete(r.data.rooms, target.Key)
		for _, e := range r.data.employees {
			if e.RoomID == target.Key {
				e.RoomID = ""
			}
		}
	}
	return noContent(), nil
}

// ExistsEntity answers "1" for an entity that exists.
func (r *Reference) ExistsEntity(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	r.sem.Lock()
	defer r.sem.Unlock()
	if _, err := r.data.resolveOne(info, len(info.Navigation)); err != nil {
		return nil, err
	}
	return textResponse(1), nil
}
