package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tidyqa-cli/internal/config"
	"github.com/KaramelBytes/tidyqa-cli/internal/ingest"
	"github.com/KaramelBytes/tidyqa-cli/internal/session"
)

const peopleCSV = `Age,Income,Home Region,Joined
30,100,n,2021-01-05
40,500,s,2021-02-10
50,,n,2021-03-15
30,100,n,2021-01-05
,300, s ,2021-04-20
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log, _ := test.NewNullLogger()
	srv := httptest.NewServer(New(config.Default(), session.NewStore(log), log).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, srv *httptest.Server, name, body string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.WriteString(fw, body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	resp, err := http.Post(srv.URL+"/api/sessions", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := upload(t, srv, "people.csv", peopleCSV)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var info session.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	require.NotEmpty(t, info.ID)
	return info.ID
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode(t, resp)["status"])
}

func TestCreateSessionCleans(t *testing.T) {
	srv := newTestServer(t)
	resp := upload(t, srv, "people.csv", peopleCSV)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var info session.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	resp.Body.Close()

	assert.Equal(t, 5, info.RawRows)
	assert.Equal(t, 4, info.Rows, "duplicate row dropped")
	names := make([]string, len(info.Columns))
	for i, c := range info.Columns {
		names[i] = c.Name
		assert.Zero(t, c.Missing, c.Name)
	}
	assert.Equal(t, []string{"age", "income", "home_region", "joined"}, names)
	assert.Equal(t, "datetime", info.Columns[3].Kind)

	resp, err := http.Get(srv.URL + "/api/sessions")
	require.NoError(t, err)
	var list []session.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Len(t, list, 1)
}

func TestCreateSessionRejectsBadUploads(t *testing.T) {
	srv := newTestServer(t)
	resp := upload(t, srv, "legacy.xls", "whatever")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp2, err := http.Post(srv.URL+"/api/sessions", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/sessions/nope/preview")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode(t, resp)["error"])
}

func TestRecleanAndPreview(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/api/sessions/" + id

	resp := postJSON(t, base+"/clean", `{"drop_duplicates": false, "standardize_colnames": false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode(t, resp)
	assert.EqualValues(t, 5, info["rows"])

	resp, err := http.Get(base + "/preview?rows=2")
	require.NoError(t, err)
	out := decode(t, resp)
	assert.EqualValues(t, 5, out["rows"])
	preview := out["preview"].(map[string]any)
	assert.Len(t, preview["rows"], 2)
	first := preview["columns"].([]any)[0].(map[string]any)
	assert.Equal(t, "Age", first["name"])

	resp = postJSON(t, base+"/clean", `{"missing": {"strategy_numeric": "mode"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CONFIG_INVALID", decode(t, resp)["error"])
}

func TestPreprocessKeepsCleanedTable(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/api/sessions/" + id

	resp := postJSON(t, base+"/preprocess", `{"encoder": "onehot", "scaler": "minmax", "split": true, "test_size": 0.25}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, "onehot", out["encoder"])
	assert.Equal(t, []any{"home_region"}, out["encoded_columns"])
	assert.Contains(t, out["columns"], "home_region_n")
	split := out["split"].(map[string]any)
	assert.EqualValues(t, 1, split["test"].(map[string]any)["rows"])

	resp, err := http.Get(base)
	require.NoError(t, err)
	info := decode(t, resp)
	assert.Len(t, info["columns"], 4)

	resp = postJSON(t, base+"/preprocess", `{"encoder": "hashing"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAskAndQuery(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/api/sessions/" + id

	out := decode(t, postJSON(t, base+"/ask", `{"question": "distribution of age"}`))
	assert.Equal(t, "histogram", out["chart"].(map[string]any)["kind"])

	out = decode(t, postJSON(t, base+"/ask", `{"question": "average of income by home_region"}`))
	tbl := out["table"].(map[string]any)
	assert.Len(t, tbl["rows"], 2)

	out = decode(t, postJSON(t, base+"/ask", `{"question": "give me a summary"}`))
	assert.Contains(t, out["report"], "# Dataset summary: people.csv")

	out = decode(t, postJSON(t, base+"/ask", `{"question": "tell me a joke"}`))
	assert.Equal(t, "unknown", out["intent"].(map[string]any)["type"])
	assert.NotEmpty(t, out["message"])

	resp := postJSON(t, base+"/ask", `{"question": "distribution of salary"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	out = decode(t, postJSON(t, base+"/query", `{"sql": "SELECT COUNT(*) AS n FROM t"}`))
	assert.Equal(t, []any{[]any{4.0}}, out["table"].(map[string]any)["rows"])
	assert.Equal(t, false, out["truncated"])

	resp = postJSON(t, base+"/query", `{"sql": "SELECT nope FROM t"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "QUERY_FAILED", body["error"])
	assert.Contains(t, body["message"], "no such column: nope")
}

func TestStatsAndExport(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/api/sessions/" + id

	resp, err := http.Get(base + "/stats")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")
	assert.Contains(t, string(b), "## Schema")

	resp, err = http.Get(base + "/stats?format=html")
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(b), "<h2")

	resp, err = http.Get(base + "/export.csv")
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "people_cleaned.csv")
	back, err := ingest.ReadAny(b, "x.csv")
	require.NoError(t, err)
	assert.Equal(t, 4, back.NumRows())

	resp, err = http.Get(base + "/export.xlsx")
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	back, err = ingest.ReadAny(b, "x.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 4, back.NumRows())

	req, _ := http.NewRequest(http.MethodDelete, base, nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.EOF))
}
