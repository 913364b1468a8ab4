// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package batch

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/diffeo/go-odata/odata"
	"github.com/satori/go.uuid"
)

// Writer serializes batch response parts into a single multipart/mixed
// response.
type Writer struct {
	// Boundary returns a fresh boundary string with the given
	// prefix, "batch" or "changeset".
	Boundary func(prefix string) string
}

// NewWriter creates a writer using random UUID boundaries.
func NewWriter() *Writer {
	return &Writer{Boundary: uuidBoundary}
}

func uuidBoundary(prefix string) string {
	return prefix + "_" + uuid.NewV4().String()
}

// WriteResponse produces a 202 Accepted response whose body frames
// every part in order.  A non-change-set part must hold exactly one
// response.
func (w *Writer) WriteResponse(parts []*odata.BatchResponsePart) (*odata.Response, error) {
	var buf bytes.Buffer
	boundary := w.Boundary(batchBoundaryPrefix)
	for _, part := range parts {
		buf.WriteString("--" + boundary + crlf)
		if part.ChangeSet {
			if err := w.writeChangeSet(&buf, part.Responses); err != nil {
				return nil, err
			}
			continue
		}
		if len(part.Responses) != 1 {
			return nil, odata.ErrQueryPartSize
		}
		if err := writeResponsePart(&buf, part.Responses[0]); err != nil {
			return nil, err
		}
	}
	buf.WriteString("--" + boundary + "--")

	body := buf.Bytes()
	return odata.NewResponse(http.StatusAccepted).
		Entity(body).
		ContentType(odata.MediaTypeMultipart+"; boundary="+boundary).
		Header(odata.HeaderContentLength, strconv.Itoa(len(body))).
		Build(), nil
}

func (w *Writer) writeChangeSet(buf *bytes.Buffer, responses []*odata.Response) error {
	boundary := w.Boundary(changeSetBoundaryPrefix)
	buf.WriteString(odata.HeaderContentType + ": " + odata.MediaTypeMultipart + "; boundary=" + boundary + crlf)
	buf.WriteString(crlf)
	for _, resp := range responses {
		buf.WriteString("--" + boundary + crlf)
		if err := writeResponsePart(buf, resp); err != nil {
			return err
		}
	}
	buf.WriteString("--" + boundary + "--" + crlf)
	buf.WriteString(crlf)
	return nil
}

func writeResponsePart(buf *bytes.Buffer, resp *odata.Response) error {
	buf.WriteString(odata.HeaderContentType + ": " + odata.MediaTypeHTTP + crlf)
	buf.WriteString(odata.HeaderContentTransferEncoding + ": " + binaryEncoding + crlf)
	buf.WriteString(crlf)
	fmt.Fprintf(buf, "%s %d %s%s", httpVersion, resp.Status(), http.StatusText(resp.Status()), crlf)
	for _, h := range resp.Headers() {
		if strings.EqualFold(h.Name, odata.HeaderContentLength) {
			continue
		}
		buf.WriteString(h.Name + ": " + h.Value + crlf)
	}
	if resp.Status() != http.StatusNoContent {
		body, err := resp.ReadEntity()
		if err != nil {
			return &Error{Code: IOError, Err: err}
		}
		buf.WriteString(odata.HeaderContentLength + ": " + strconv.Itoa(len(body)) + crlf)
		buf.WriteString(crlf)
		buf.Write(body)
	}
	buf.WriteString(crlf + crlf)
	return nil
}
