// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/diffeo/go-odata/batch"
	"github.com/diffeo/go-odata/odata"
	"github.com/urfave/cli"
)

var dumpBatchCommand = cli.Command{
	Name:      "dump-batch",
	Usage:     "parse a $batch request body and print its parts",
	ArgsUsage: "FILE",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "content-type",
			Usage: "Content-Type of the body (default: from its first delimiter)",
		},
		cli.StringFlag{
			Name:  "root",
			Value: "http://localhost/",
			Usage: "service root member URIs are resolved against",
		},
	},
	Action: dumpBatch,
}

func dumpBatch(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("dump-batch needs exactly one FILE (- for stdin)", 2)
	}
	var body []byte
	var err error
	if filename := c.Args().First(); filename == "-" {
		body, err = ioutil.ReadAll(os.Stdin)
	} else {
		body, err = ioutil.ReadFile(filename)
	}
	if err != nil {
		return err
	}
	root, err := url.Parse(c.String("root"))
	if err != nil {
		return err
	}
	contentType := c.String("content-type")
	if contentType == "" {
		if contentType, err = detectContentType(body); err != nil {
			return err
		}
	}

	pathInfo := &odata.PathInfo{ServiceRoot: root, ODataSegments: []string{"$batch"}}
	parts, err := batch.NewParser(contentType, pathInfo).Parse(bytes.NewReader(body))
	if err != nil {
		return err
	}
	return writeParts(c.App.Writer, parts)
}

// detectContentType guesses the multipart Content-Type of a batch
// body from the first delimiter line.
func detectContentType(body []byte) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "--") && len(line) > 2 {
			return odata.MediaTypeMultipart + "; boundary=" + line[2:], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.New("no boundary delimiter found; pass --content-type")
}

func writeParts(w io.Writer, parts []*odata.BatchPart) error {
	for i, part := range parts {
		kind := "query"
		if part.ChangeSet {
			kind = "changeset"
		}
		if _, err := fmt.Fprintf(w, "part %d: %s, %d request(s)\n", i+1, kind, len(part.Requests)); err != nil {
			return err
		}
		for _, req := range part.Requests {
			if err := writeRequest(w, req); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRequest(w io.Writer, req *odata.Request) error {
	target := strings.Join(req.PathInfo.ODataSegments, "/")
	if ref := req.PathInfo.ContentIDReference; ref != "" {
		target = "$" + ref + "/" + target
	}
	fmt.Fprintf(w, "  %s %s\n", req.Method, target)

	var names []string
	for name := range req.QueryParameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "    query %s=%s\n", name, req.QueryParameters[name])
	}
	names = names[:0]
	for name := range req.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "    header %s: %s\n", name, strings.Join(req.Headers[name], ", "))
	}
	var n int64
	if req.Body != nil {
		var err error
		if n, err = io.Copy(ioutil.Discard, req.Body); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "    body %d bytes\n", n)
	return err
}
