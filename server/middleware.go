// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package server

import (
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-odata/odata"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

// Wrap puts the standard middleware around an HTTP handler: panic
// recovery, and request logging if logRequests is set.
func Wrap(handler http.Handler, logRequests bool, clk clock.Clock) *negroni.Negroni {
	if clk == nil {
		clk = clock.New()
	}
	n := negroni.New()
	n.Use(negroni.HandlerFunc(recoverPanics))
	if logRequests {
		n.Use(requestLogger(clk))
	}
	n.UseHandler(handler)
	return n
}

// recoverPanics turns a panic into a 500 error document.
func recoverPanics(w http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
	defer func() {
		if recovered := recover(); recovered != nil {
			e := &ErrorResponse{}
			e.FromPanic(recovered)
			logrus.WithFields(logrus.Fields{
				"method": req.Method,
				"path":   req.URL.Path,
				"panic":  e.Message,
			}).Error(e.Stack)
			contentType := odata.MediaTypeXML
			if isJSON(req.Header.Get(odata.HeaderAccept)) || req.URL.Query().Get("$format") == "json" {
				contentType = odata.MediaTypeJSON
			}
			writeResponse(w, e.Response(contentType, ""), logrus.NewEntry(logrus.StandardLogger()))
		}
	}()
	next(w, req)
}

func requestLogger(clk clock.Clock) negroni.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
		start := clk.Now()
		next(w, req)
		status := 0
		if rw, ok := w.(negroni.ResponseWriter); ok {
			status = rw.Status()
		}
		logrus.WithFields(logrus.Fields{
			"method":   req.Method,
			"path":     req.URL.Path,
			"status":   status,
			"duration": clk.Now().Sub(start),
		}).Info("request")
	}
}
