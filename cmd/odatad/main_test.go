// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-odata/backend"
	"github.com/diffeo/go-odata/config"
	"github.com/diffeo/go-odata/odata"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	b := backend.Backend{Implementation: "reference"}
	factory, err := b.Factory(clock.NewMock())
	require.NoError(t, err)
	handler, err := newHandler(cfg, versioned(factory, cfg.MaxDataServiceVersion), prometheus.NewRegistry())
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, url string) (*http.Response, string) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServeReference(t *testing.T) {
	server := newTestServer(t, config.Default())

	resp, body := get(t, server.URL+"/odata.svc/Employees/$count")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "6", body)
	assert.Equal(t, "2.0", resp.Header.Get(odata.HeaderDataServiceVersion))

	resp, body = get(t, server.URL+"/odata.svc/Employees('1')/ne_Room?$format=json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, server.URL+"/odata.svc/Rooms('1')")

	resp, _ = get(t, server.URL+"/Employees/$count")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = get(t, server.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `odata_requests_total{method="GET",status="200",uri_type="URI15"} 1`)
}

func TestServeRootAndVersion(t *testing.T) {
	cfg := config.Default()
	cfg.ServicePath = "/"
	cfg.MetricsPath = ""
	cfg.MaxDataServiceVersion = "1.0"
	server := newTestServer(t, cfg)

	resp, body := get(t, server.URL+"/Rooms/$count")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "4", body)
	assert.Equal(t, "1.0", resp.Header.Get(odata.HeaderDataServiceVersion))

	resp, _ = get(t, server.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

const dumpInput = `--batch_1
Content-Type: application/http
Content-Transfer-Encoding: binary

GET Employees('1')?$format=json HTTP/1.1
Accept: application/json


--batch_1
Content-Type: multipart/mixed; boundary=changeset_1

--changeset_1
Content-Type: application/http
Content-Transfer-Encoding: binary

PUT Employees('2') HTTP/1.1
Content-Type: application/json

{"EmployeeName":"Frederic"}

--changeset_1--

--batch_1--
`

const dumpOutput = `part 1: query, 1 request(s)
  GET Employees('1')
    query $format=json
    header accept: application/json
    body 0 bytes
part 2: changeset, 1 request(s)
  PUT Employees('2')
    header content-type: application/json
    body 27 bytes
`

func runApp(t *testing.T, args ...string) (string, error) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	err := app.Run(append([]string{"odatad"}, args...))
	return out.String(), err
}

func TestDumpBatch(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "batch.txt")
	crlf := strings.Replace(dumpInput, "\n", "\r\n", -1)
	require.NoError(t, ioutil.WriteFile(filename, []byte(crlf), 0644))

	out, err := runApp(t, "dump-batch", filename)
	require.NoError(t, err)
	assert.Equal(t, dumpOutput, out)

	out, err = runApp(t, "dump-batch", "--content-type", "multipart/mixed; boundary=batch_1", filename)
	require.NoError(t, err)
	assert.Equal(t, dumpOutput, out)

	_, err = runApp(t, "dump-batch", "--content-type", "multipart/mixed; boundary=other", filename)
	assert.Error(t, err)
}

func TestDetectContentType(t *testing.T) {
	contentType, err := detectContentType([]byte("preamble\r\n--batch_x\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed; boundary=batch_x", contentType)

	_, err = detectContentType([]byte("no delimiter here\n"))
	assert.Error(t, err)
}

func TestLoadConfigFlags(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "odatad.yaml")
	require.NoError(t, ioutil.WriteFile(filename, []byte("listen: :9000\nlog_level: debug\n"), 0644))

	var loaded config.Config
	app := newApp()
	app.Action = func(c *cli.Context) error {
		var err error
		loaded, err = loadConfig(c)
		return err
	}
	err := app.Run([]string{"odatad", "--config", filename, "--listen", ":9100", "--backend", "reference:seed.yaml", "--log-requests"})
	require.NoError(t, err)
	assert.Equal(t, ":9100", loaded.Listen)
	assert.Equal(t, "debug", loaded.LogLevel)
	assert.Equal(t, "reference:seed.yaml", loaded.Backend)
	assert.True(t, loaded.LogRequests)

	err = app.Run([]string{"odatad", "--backend", "postgres"})
	assert.Error(t, err)
}
