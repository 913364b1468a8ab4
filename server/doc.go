// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package server routes OData requests to the processors of a
// service.
//
// Dispatcher holds the decision table from URI type and method to
// processor method.  RequestHandler wraps it with URI parsing,
// version checks, content negotiation and error rendering, and is
// also what runs each query part of a $batch request.  NewRouter
// binds all of this to net/http through gorilla/mux:
//
//	factory := odata.ServiceFactoryFunc(func(*odata.Context) (*odata.Service, error) {
//		return service, nil
//	})
//	http.ListenAndServe(":8080", server.Wrap(server.NewRouter(factory, nil), true, nil))
package server
