// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package uri

import (
	"strings"
	"testing"

	"github.com/diffeo/go-odata/odata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	employeeProps := SimpleProperties("EmployeeId", "EmployeeName", "Age")
	employeeProps["Location"] = &Property{
		Name:    "Location",
		Complex: SimpleProperties("City", "Country"),
	}
	return &Schema{
		EntitySets: map[string]*EntitySet{
			"Employees": {
				Name:       "Employees",
				Key:        "EmployeeId",
				Properties: employeeProps,
				Navigation: map[string]*Navigation{
					"ne_Room": {Name: "ne_Room", Target: "Rooms"},
				},
				Media: true,
			},
			"Rooms": {
				Name:       "Rooms",
				Key:        "Id",
				Properties: SimpleProperties("Id", "Name", "Seats"),
				Navigation: map[string]*Navigation{
					"nr_Employees": {Name: "nr_Employees", Target: "Employees", Many: true},
				},
			},
		},
		FunctionImports: map[string]*FunctionImport{
			"OldestEmployee":     {Name: "OldestEmployee", Returns: ReturnEntity, EntitySet: "Employees"},
			"AllLocations":       {Name: "AllLocations", Returns: ReturnComplexCollection},
			"MostCommonLocation": {Name: "MostCommonLocation", Returns: ReturnComplex},
			"AllNames":           {Name: "AllNames", Returns: ReturnPrimitiveCollection},
			"MaximalAge":         {Name: "MaximalAge", Returns: ReturnPrimitive},
		},
	}
}

func split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func TestParseURITypes(t *testing.T) {
	tests := []struct {
		path  string
		typ   odata.URIType
		value bool
	}{
		{"", odata.URI0, false},
		{"Employees", odata.URI1, false},
		{"Employees('1')", odata.URI2, false},
		{"Employees('1')/Location", odata.URI3, false},
		{"Employees('1')/Location/City", odata.URI4, false},
		{"Employees('1')/Location/City/$value", odata.URI4, true},
		{"Employees('1')/EmployeeName", odata.URI5, false},
		{"Employees('1')/EmployeeName/$value", odata.URI5, true},
		{"Employees('1')/ne_Room", odata.URI6A, false},
		{"Rooms('1')/nr_Employees('2')", odata.URI6A, false},
		{"Rooms('1')/nr_Employees", odata.URI6B, false},
		{"Employees('1')/$links/ne_Room", odata.URI7A, false},
		{"Rooms('1')/$links/nr_Employees('2')", odata.URI7A, false},
		{"Rooms('1')/$links/nr_Employees", odata.URI7B, false},
		{"$metadata", odata.URI8, false},
		{"$batch", odata.URI9, false},
		{"OldestEmployee", odata.URI10, false},
		{"AllLocations", odata.URI11, false},
		{"MostCommonLocation", odata.URI12, false},
		{"AllNames", odata.URI13, false},
		{"MaximalAge", odata.URI14, false},
		{"MaximalAge/$value", odata.URI14, true},
		{"Employees/$count", odata.URI15, false},
		{"Rooms('1')/nr_Employees/$count", odata.URI15, false},
		{"Employees('1')/$count", odata.URI16, false},
		{"Employees('1')/$value", odata.URI17, true},
		{"Employees('1')/$links/ne_Room/$count", odata.URI50A, false},
		{"Rooms('1')/$links/nr_Employees/$count", odata.URI50B, false},
		{"Employees('1')/ne_Room/Name", odata.URI5, false},
	}
	p := NewParser(testSchema())
	for _, test := range tests {
		info, err := p.ParseURI(split(test.path), nil)
		if assert.NoError(t, err, test.path) {
			assert.Equal(t, test.typ, info.Type, test.path)
			assert.Equal(t, test.value, info.Value, test.path)
		}
	}
}

func TestParseURIDetails(t *testing.T) {
	p := NewParser(testSchema())

	info, err := p.ParseURI(split("Rooms('1')/nr_Employees('O''Neil')"), nil)
	require.NoError(t, err)
	assert.Equal(t, "1", info.Key)
	assert.Equal(t, "Employees", info.EntitySet)
	assert.Equal(t, []odata.NavigationSegment{
		{Property: "nr_Employees", Key: "O'Neil", TargetSet: "Employees"},
	}, info.Navigation)

	info, err = p.ParseURI(split("Employees(EmployeeId='3')/Location/Country"), nil)
	require.NoError(t, err)
	assert.Equal(t, "3", info.Key)
	assert.Equal(t, []string{"Location", "Country"}, info.Property)

	info, err = p.ParseURI(split("OldestEmployee"), nil)
	require.NoError(t, err)
	assert.Equal(t, "OldestEmployee", info.Function)
	assert.Equal(t, "Employees", info.EntitySet)
}

func TestParseURIQuery(t *testing.T) {
	p := NewParser(testSchema())
	info, err := p.ParseURI(split("Employees"), map[string]string{
		"$format": "json",
		"$top":    "2",
		"custom":  "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "json", info.Format())
	assert.Equal(t, map[string]string{"$format": "json", "$top": "2"}, info.SystemQuery)
	assert.Equal(t, map[string]string{"custom": "x"}, info.CustomQuery)

	_, err = p.ParseURI(split("Employees"), map[string]string{"$bogus": "1"})
	assert.IsType(t, odata.ErrBadRequest{}, err)
}

func TestParseURINotFound(t *testing.T) {
	p := NewParser(testSchema())
	for _, path := range []string{
		"Nothing",
		"Employees/EmployeeName",
		"Employees('1')/Nothing",
		"Employees('1')/Location/Nothing",
		"Employees('1')/EmployeeName/Other",
		"Rooms('1')/$value",
		"Rooms('1')/nr_Employees/Name",
		"Employees('1')/$links",
		"Employees('1')/$links/Nothing",
		"$metadata/extra",
		"AllNames/$value",
	} {
		_, err := p.ParseURI(split(path), nil)
		assert.IsType(t, odata.ErrNotFound{}, err, path)
	}
}
