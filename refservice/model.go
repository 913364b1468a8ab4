// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package refservice

import (
	"sort"
	"strconv"
	"time"
)

// Location is the complex property of an employee.
type Location struct {
	City    string `mapstructure:"City"`
	Country string `mapstructure:"Country"`
}

// Employee is an entity of the Employees set.  The photo is its
// media resource.
type Employee struct {
	EmployeeID   string    `mapstructure:"EmployeeId"`
	EmployeeName string    `mapstructure:"EmployeeName"`
	Age          int       `mapstructure:"Age"`
	RoomID       string    `mapstructure:"RoomId"`
	Location     Location  `mapstructure:"Location"`
	EntryDate    time.Time `mapstructure:"-"`

	Photo     []byte `mapstructure:"-"`
	PhotoType string `mapstructure:"-"`
}

// Room is an entity of the Rooms set.
type Room struct {
	ID    string `mapstructure:"Id"`
	Name  string `mapstructure:"Name"`
	Seats int    `mapstructure:"Seats"`
}

// store is the complete data of the service.  It is copied whole to
// take a snapshot.
type store struct {
	employees map[string]*Employee
	rooms     map[string]*Room
	lastID    int
}

func newStore() *store {
	return &store{
		employees: make(map[string]*Employee),
		rooms:     make(map[string]*Room),
	}
}

// seed fills the store with the usual scenario data.
func (s *store) seed(now time.Time) {
	rooms := []Room{
		{ID: "1", Name: "Room 1", Seats: 6},
		{ID: "2", Name: "Room 2", Seats: 5},
		{ID: "3", Name: "Room 3", Seats: 2},
		{ID: "4", Name: "Room 4", Seats: 4},
	}
	for i := range rooms {
		room := rooms[i]
		s.rooms[room.ID] = &room
	}
	employees := []Employee{
		{EmployeeName: "Walter Winter", Age: 52, RoomID: "1", Location: Location{"Walldorf", "Germany"}},
		{EmployeeName: "Frederic Fall", Age: 32, RoomID: "2", Location: Location{"Walldorf", "Germany"}},
		{EmployeeName: "Jonathan Smith", Age: 56, RoomID: "2", Location: Location{"Walldorf", "Germany"}},
		{EmployeeName: "Peter Burke", Age: 39, RoomID: "2", Location: Location{"Walldorf", "Germany"}},
		{EmployeeName: "John Field", Age: 42, RoomID: "3", Location: Location{"Boston", "USA"}},
		{EmployeeName: "Susan Bay", Age: 29, RoomID: "2", Location: Location{"Boston", "USA"}},
	}
	for i := range employees {
		e := employees[i]
		e.EmployeeID = s.nextID()
		e.EntryDate = now.Add(-time.Duration(len(employees)-i) * 24 * time.Hour)
		e.PhotoType = "image/png"
		s.employees[e.EmployeeID] = &e
	}
}

// nextID returns a key not used by any entity yet.
func (s *store) nextID() string {
	for {
		s.lastID++
		id := strconv.Itoa(s.lastID)
		_, isEmployee := s.employees[id]
		_, isRoom := s.rooms[id]
		if !isEmployee && !isRoom {
			return id
		}
	}
}

// clone makes a deep copy.
func (s *store) clone() *store {
	c := newStore()
	c.lastID = s.lastID
	for id, e := range s.employees {
		copied := *e
		copied.Photo = append([]byte(nil), e.Photo...)
		c.employees[id] = &copied
	}
	for id, r := range s.rooms {
		copied := *r
		c.rooms[id] = &copied
	}
	return c
}

// ref names one entity.
type ref struct {
	Set string
	Key string
}

func (s *store) exists(r ref) bool {
	switch r.Set {
	case employeesSet:
		_, ok := s.employees[r.Key]
		return ok
	case roomsSet:
		_, ok := s.rooms[r.Key]
		return ok
	}
	return false
}

// all returns every entity of a set, ordered by key.
func (s *store) all(set string) []ref {
	var refs []ref
	switch set {
	case employeesSet:
		for id := range s.employees {
			refs = append(refs, ref{employeesSet, id})
		}
	case roomsSet:
		for id := range s.rooms {
			refs = append(refs, ref{roomsSet, id})
		}
	}
	sortRefs(refs)
	return refs
}

// navigate returns the entities a navigation property of r leads to.
func (s *store) navigate(r ref, nav string) []ref {
	var refs []ref
	switch {
	case r.Set == employeesSet && nav == navRoom:
		if e := s.employees[r.Key]; e != nil {
			if _, ok := s.rooms[e.RoomID]; ok {
				refs = append(refs, ref{roomsSet, e.RoomID})
			}
		}
	case r.Set == roomsSet && nav == navEmployees:
		for id, e := range s.employees {
			if e.RoomID == r.Key {
				refs = append(refs, ref{employeesSet, id})
			}
		}
		sortRefs(refs)
	}
	return refs
}

// sortRefs orders keys numerically where they are numbers.
func sortRefs(refs []ref) {
	sort.Slice(refs, func(i, j int) bool {
		a, aerr := strconv.Atoi(refs[i].Key)
		b, berr := strconv.Atoi(refs[j].Key)
		if aerr == nil && berr == nil {
			return a < b
		}
		return refs[i].Key < refs[j].Key
	})
}
