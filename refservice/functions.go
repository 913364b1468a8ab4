// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package refservice

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/diffeo/go-odata/odata"
)

// checkFunctionMethod rejects calls using another method than the
// function import declares.
func checkFunctionMethod(ctx *odata.Context, info *odata.URIInfo) error {
	fi, ok := Schema.FunctionImports[info.Function]
	if !ok {
		return odata.ErrNotFound{Err: fmt.Errorf("No function import %q", info.Function)}
	}
	if ctx.Request != nil && string(ctx.Request.Method) != fi.HTTPMethod {
		return odata.ErrMethodNotAllowed{Method: string(ctx.Request.Method), Type: info.Type}
	}
	return nil
}

func (s *store) oldestEmployee() *Employee {
	var oldest *Employee
	for _, target := range s.all(employeesSet) {
		e := s.employees[target.Key]
		if oldest == nil || e.Age > oldest.Age {
			oldest = e
		}
	}
	return oldest
}

func (s *store) maximalAge() int {
	if oldest := s.oldestEmployee(); oldest != nil {
		return oldest.Age
	}
	return 0
}

// locations returns the distinct employee locations in order of
// first appearance, with the number of employees at each.
func (s *store) locations() ([]Location, map[Location]int) {
	var order []Location
	counts := make(map[Location]int)
	for _, target := range s.all(employeesSet) {
		l := s.employees[target.Key].Location
		if counts[l] == 0 {
			order = append(order, l)
		}
		counts[l]++
	}
	return order, counts
}

// ExecuteFunctionImport runs one of the service's function imports.
func (r *Reference) ExecuteFunctionImport(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	if err := checkFunctionMethod(ctx, info); err != nil {
		return nil, err
	}
	if err := requireJSON(contentType); err != nil {
		return nil, err
	}
	r.sem.Lock()
	defer r.sem.Unlock()

	switch info.Function {
	case "OldestEmployee":
		e := r.data.oldestEmployee()
		if e == nil {
			return nil, odata.ErrNotFound{Err: fmt.Errorf("No employees")}
		}
		return jsonResponse(http.StatusOK, employeeJSON(serviceRoot(ctx), e))

	case "AllLocations":
		order, _ := r.data.locations()
		results := make([]interface{}, len(order))
		for i, l := range order {
			results[i] = locationJSON(l)
		}
		return jsonResponse(http.StatusOK, map[string]interface{}{"results": results})

	case "MostCommonLocation":
		order, counts := r.data.locations()
		if len(order) == 0 {
			return nil, odata.ErrNotFound{Err: fmt.Errorf("No employees")}
		}
		best := order[0]
		for _, l := range order[1:] {
			if counts[l] > counts[best] {
				best = l
			}
		}
		return jsonResponse(http.StatusOK, map[string]interface{}{
			info.Function: locationJSON(best),
		})

	case "AllNames":
		var names []string
		for _, e := range r.data.employees {
			names = append(names, e.EmployeeName)
		}
		sort.Strings(names)
		results := make([]interface{}, len(names))
		for i, name := range names {
			results[i] = name
		}
		return jsonResponse(http.StatusOK, map[string]interface{}{"results": results})

	case "MaximalAge":
		return jsonResponse(http.StatusOK, map[string]interface{}{
			info.Function: r.data.maximalAge(),
		})
	}
	return nil, odata.ErrNotFound{Err: fmt.Errorf("No function import %q", info.Function)}
}

// ExecuteFunctionImportValue returns the raw result of a function
// import returning a primitive.
func (r *Reference) ExecuteFunctionImportValue(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	if err := checkFunctionMethod(ctx, info); err != nil {
		return nil, err
	}
	r.sem.Lock()
	defer r.sem.Unlock()
	switch info.Function {
	case "MaximalAge":
		return textResponse(r.data.maximalAge()), nil
	}
	return nil, odata.ErrNotFound{Err: fmt.Errorf("Function import %q has no raw value", info.Function)}
}
