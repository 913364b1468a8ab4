// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package refservice

import (
	"encoding/xml"
	"net/http"
	"sort"

	"github.com/diffeo/go-odata/odata"
)

type serviceDocument struct {
	XMLName   xml.Name     `xml:"http://www.w3.org/2007/app service"`
	Base      string       `xml:"xml:base,attr"`
	Workspace appWorkspace `xml:"workspace"`
}

type appWorkspace struct {
	Title       string          `xml:"http://www.w3.org/2005/Atom title"`
	Collections []appCollection `xml:"collection"`
}

type appCollection struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"http://www.w3.org/2005/Atom title"`
}

func entitySetNames() []string {
	names := make([]string, 0, len(Schema.EntitySets))
	for name := range Schema.EntitySets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadServiceDocument lists the entity sets, as JSON or as an Atom
// service document.
func (r *Reference) ReadServiceDocument(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	names := entitySetNames()
	if isJSON(contentType) {
		return jsonResponse(http.StatusOK, map[string]interface{}{"EntitySets": names})
	}
	doc := serviceDocument{
		Base:      serviceRoot(ctx),
		Workspace: appWorkspace{Title: "Default"},
	}
	for _, name := range names {
		doc.Workspace.Collections = append(doc.Workspace.Collections, appCollection{Href: name, Title: name})
	}
	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return odata.Entity(append([]byte(xml.Header), out...)).
		ContentType(contentType).
		Build(), nil
}

// ReadMetadata returns the EDMX document.
func (r *Reference) ReadMetadata(ctx *odata.Context, info *odata.URIInfo, contentType string) (*odata.Response, error) {
	return odata.Entity(metadataDocument).
		ContentType(odata.MediaTypeXML).
		Build(), nil
}
