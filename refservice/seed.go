// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package refservice

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

// seedFile is the YAML form of the service data.  Entities use the
// property names of the service:
//
//	rooms:
//	  - Id: "1"
//	    Name: Room 1
//	    Seats: 6
//	employees:
//	  - EmployeeName: Walter Winter
//	    Age: 52
//	    RoomId: "1"
//	    Location: {City: Walldorf, Country: Germany}
type seedFile struct {
	Rooms     []map[string]interface{} `yaml:"rooms"`
	Employees []map[string]interface{} `yaml:"employees"`
}

// LoadYAML replaces all data of the service with the entities of a
// YAML document.  Employees without an EmployeeId get a fresh key;
// all get the current time as their entry date.
func (r *Reference) LoadYAML(data []byte) error {
	var seeds seedFile
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return err
	}
	s := newStore()
	for i, values := range seeds.Rooms {
		room := &Room{}
		if err := decodeOnto(values, room); err != nil {
			return fmt.Errorf("room %d: %w", i, err)
		}
		if room.ID == "" {
			return fmt.Errorf("room %d has no Id", i)
		}
		if _, exists := s.rooms[room.ID]; exists {
			return fmt.Errorf("duplicate room %q", room.ID)
		}
		s.rooms[room.ID] = room
	}
	now := r.Clock.Now()
	for i, values := range seeds.Employees {
		e := &Employee{}
		if err := decodeOnto(values, e); err != nil {
			return fmt.Errorf("employee %d: %w", i, err)
		}
		if e.EmployeeID == "" {
			e.EmployeeID = s.nextID()
		} else if _, exists := s.employees[e.EmployeeID]; exists {
			return fmt.Errorf("duplicate employee %q", e.EmployeeID)
		}
		if e.RoomID != "" {
			if _, exists := s.rooms[e.RoomID]; !exists {
				return fmt.Errorf("employee %q is in unknown room %q", e.EmployeeID, e.RoomID)
			}
		}
		e.EntryDate = now
		s.employees[e.EmployeeID] = e
	}

	r.sem.Lock()
	defer r.sem.Unlock()
	r.data = s
	return nil
}
