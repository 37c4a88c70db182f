package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/August26/proxyprobe/internal/model"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	dir := t.TempDir()
	return NewRecorder(filepath.Join(dir, "aktif.txt"), filepath.Join(dir, "dead.txt"))
}

func TestNewRecorder_Defaults(t *testing.T) {
	r := NewRecorder("", "")
	assert.Equal(t, "aktif.txt", r.ActiveFile)
	assert.Equal(t, "dead.txt", r.DeadFile)
}

func TestRecorder_RoutesBySuccess(t *testing.T) {
	r := newTestRecorder(t)

	require.NoError(t, r.Record(model.ProbeResult{Address: "http://1.2.3.4:8080", Success: true, NetworkType: model.NetworkDatacenter}))
	require.NoError(t, r.Record(model.ProbeResult{Address: "http://5.6.7.8:80", Success: false, NetworkType: model.NetworkUnknown}))
	require.NoError(t, r.Record(model.ProbeResult{Address: "socks5://9.9.9.9:1080", Success: true, NetworkType: model.NetworkResidential}))

	assert.Equal(t, "http://1.2.3.4:8080\nsocks5://9.9.9.9:1080\n", readFile(t, r.ActiveFile))
	assert.Equal(t, "http://5.6.7.8:80\n", readFile(t, r.DeadFile))
}

func TestRecorder_AppendsAcrossRuns(t *testing.T) {
	r := newTestRecorder(t)
	res := model.ProbeResult{Address: "http://1.2.3.4:8080", Success: true}

	require.NoError(t, r.Record(res))
	again := NewRecorder(r.ActiveFile, r.DeadFile)
	require.NoError(t, again.Record(res))

	assert.Equal(t, "http://1.2.3.4:8080\nhttp://1.2.3.4:8080\n", readFile(t, r.ActiveFile))
	_, err := os.Stat(r.DeadFile)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRecorder_AnnotateType(t *testing.T) {
	r := newTestRecorder(t)
	r.AnnotateType = true

	require.NoError(t, r.Record(model.ProbeResult{Address: "http://1.2.3.4:8080", Success: true, NetworkType: model.NetworkDatacenter}))
	require.NoError(t, r.Record(model.Failed("http://5.6.7.8:80", nil)))

	assert.Equal(t, "http://1.2.3.4:8080,Datacenter\n", readFile(t, r.ActiveFile))
	assert.Equal(t, "http://5.6.7.8:80,Unknown\n", readFile(t, r.DeadFile))
}

func TestRecorder_OpenError(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(filepath.Join(dir, "missing", "aktif.txt"), filepath.Join(dir, "dead.txt"))
	err := r.Record(model.ProbeResult{Address: "http://1.2.3.4:8080", Success: true})
	assert.Error(t, err)
}

var sampleResults = []model.ProbeResult{
	{Address: "http://1.2.3.4:8080", Success: true, NetworkType: model.NetworkDatacenter, ExitIP: "5.6.7.8", StatusCode: 200, LatencyMs: 120},
	{Address: "http://5.6.7.8:80", NetworkType: model.NetworkUnknown, StatusCode: 502, Error: "status code: 502"},
}

func TestWriteFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	stats := model.BatchStats{TotalProxies: 2, ActiveProxies: 1, DeadProxies: 1}
	require.NoError(t, WriteFile(path, "json", sampleResults, stats))

	var got struct {
		Results []model.ProbeResult `json:"results"`
		Summary model.BatchStats    `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(readFile(t, path)), &got))
	assert.Equal(t, sampleResults, got.Results)
	assert.Equal(t, stats, got.Summary)
}

func TestWriteFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, WriteFile(path, "csv", sampleResults, model.BatchStats{}))

	rows, err := csv.NewReader(bytes.NewReader([]byte(readFile(t, path)))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "address", rows[0][0])
	assert.Equal(t, []string{"http://1.2.3.4:8080", "y", "Datacenter", "5.6.7.8", "120", "200", ""}, rows[1])
	assert.Equal(t, "n", rows[2][1])
}

func TestWriteFile_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xml")
	assert.Error(t, WriteFile(path, "xml", sampleResults, model.BatchStats{}))
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPrintResultsTableAndSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintResultsTable(&buf, sampleResults)
	PrintSummary(&buf, model.BatchStats{TotalProxies: 2, ActiveProxies: 1, DeadProxies: 1, SuccessRatePct: 50})

	out := buf.String()
	assert.Contains(t, out, "PROXY")
	assert.Contains(t, out, "http://1.2.3.4:8080")
	assert.Contains(t, out, "Datacenter")
	assert.Contains(t, out, "502")
	assert.Contains(t, out, "Success rate:             50.0%")
}
