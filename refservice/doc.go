// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package refservice provides a small in-memory OData service with
// employees and the rooms they sit in.  It implements every processor
// capability and is what odatad serves by default.
//
// Responses are rendered as verbose JSON only; requests negotiating
// Atom or XML for entity data get 406 Not Acceptable.  The service
// document and $metadata are available as XML.
//
//	ref := refservice.New(nil)
//	handler := server.NewRouter(ref, nil)
//
// Change sets in a $batch request are applied all or nothing: the
// data is snapshotted before the first member runs and restored if
// any member fails.
package refservice
