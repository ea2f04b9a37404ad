package upload

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

// --- Mocks ---

type call struct {
	Op    string
	Table string
	Size  int
}

type mockClient struct {
	calls     []call
	healthErr error
	schemaErr error
	failTable string
	schema    json.RawMessage
	batches   map[string]json.RawMessage
}

func (m *mockClient) Health(context.Context) error {
	m.calls = append(m.calls, call{Op: "health"})
	return m.healthErr
}

func (m *mockClient) PutSchema(_ context.Context, schema json.RawMessage) error {
	m.calls = append(m.calls, call{Op: "schema", Size: len(schema)})
	m.schema = schema
	return m.schemaErr
}

func (m *mockClient) UploadBatch(_ context.Context, table string, rows json.RawMessage) error {
	m.calls = append(m.calls, call{Op: "batch", Table: table, Size: len(rows)})
	if m.batches == nil {
		m.batches = map[string]json.RawMessage{}
	}
	m.batches[table] = rows
	if table == m.failTable {
		return errors.New("boom")
	}
	return nil
}

func (m *mockClient) UploadFile(_ context.Context, table, _ string, content []byte) error {
	m.calls = append(m.calls, call{Op: "file", Table: table, Size: len(content)})
	if table == m.failTable {
		return errors.New("boom")
	}
	return nil
}

// --- Helpers ---

const testSchema = `{"schema":{"users":{"type":"table"},"products":{"type":"table"}}}`

func writeDataDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func fullDataDir(t *testing.T) string {
	t.Helper()
	files := map[string]string{SchemaFile: testSchema}
	for _, tbl := range Tables {
		if tbl.Method == MethodFile {
			files[tbl.File] = "{\"a\":1}\n{\"a\":2}\n"
			continue
		}
		files[tbl.File] = `[ {"id": "` + tbl.Name + `-1"} ]`
	}
	return writeDataDir(t, files)
}

func newTestUploader(c Client) (*Uploader, *[]time.Duration) {
	var slept []time.Duration
	u := New(c, zap.NewNop())
	u.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return u, &slept
}

// --- Tests ---

func TestRun_UploadsInDependencyOrder(t *testing.T) {
	c := &mockClient{}
	u, slept := newTestUploader(c)

	sum, err := u.Run(context.Background(), Options{DataDir: fullDataDir(t), Delay: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.OK() || sum.Succeeded != len(Tables) {
		t.Errorf("expected %d successes, got %+v", len(Tables), sum)
	}

	var ops []string
	for _, cl := range c.calls {
		if cl.Table != "" {
			ops = append(ops, cl.Op+":"+cl.Table)
		} else {
			ops = append(ops, cl.Op)
		}
	}
	want := []string{
		"health", "schema",
		"batch:users", "batch:products", "batch:employees", "batch:glCodes", "batch:answers",
		"batch:visits", "batch:contexts", "file:impressions", "batch:prompts", "batch:questions",
		"batch:invoices",
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}

	if got := string(c.batches["users"]); got != `[{"id":"users-1"}]` {
		t.Errorf("expected compacted batch body, got %s", got)
	}
	if len(*slept) != len(Tables)-1 {
		t.Errorf("expected %d delays, got %d", len(Tables)-1, len(*slept))
	}
}

func TestRun_DryRunMakesNoCalls(t *testing.T) {
	c := &mockClient{}
	u, slept := newTestUploader(c)

	sum, err := u.Run(context.Background(), Options{DataDir: fullDataDir(t), DryRun: true, Delay: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.calls) != 0 {
		t.Errorf("expected no client calls, got %v", c.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("expected no delays in dry run, got %d", len(*slept))
	}
	if sum.Succeeded != len(Tables) {
		t.Errorf("expected all tables validated, got %+v", sum)
	}
}

func TestRun_OnlyTableSkipSchema(t *testing.T) {
	c := &mockClient{}
	u, _ := newTestUploader(c)

	sum, err := u.Run(context.Background(), Options{
		DataDir:    fullDataDir(t),
		SkipSchema: true,
		OnlyTable:  "products",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []call{{Op: "health"}, {Op: "batch", Table: "products", Size: len(`[{"id":"products-1"}]`)}}
	if diff := cmp.Diff(want, c.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if len(sum.Results) != 1 || sum.Results[0].Rows != 1 {
		t.Errorf("unexpected results %+v", sum.Results)
	}
}

func TestRun_UnknownTable(t *testing.T) {
	u, _ := newTestUploader(&mockClient{})
	_, err := u.Run(context.Background(), Options{DataDir: t.TempDir(), OnlyTable: "pets"})
	if !errors.Is(err, ErrUnknownTable) {
		t.Errorf("expected ErrUnknownTable, got %v", err)
	}
}

func TestRun_HealthFailureAborts(t *testing.T) {
	c := &mockClient{healthErr: errors.New("connection refused")}
	u, _ := newTestUploader(c)

	_, err := u.Run(context.Background(), Options{DataDir: fullDataDir(t)})
	if err == nil || !strings.Contains(err.Error(), "health check") {
		t.Fatalf("expected health check error, got %v", err)
	}
	if len(c.calls) != 1 {
		t.Errorf("expected only the health call, got %v", c.calls)
	}
}

func TestRun_SchemaFailureAborts(t *testing.T) {
	c := &mockClient{schemaErr: errors.New("bad schema")}
	u, _ := newTestUploader(c)

	_, err := u.Run(context.Background(), Options{DataDir: fullDataDir(t)})
	if err == nil || !strings.Contains(err.Error(), "upload schema") {
		t.Fatalf("expected schema error, got %v", err)
	}
	for _, cl := range c.calls {
		if cl.Op == "batch" || cl.Op == "file" {
			t.Errorf("expected no table uploads after schema failure, got %v", cl)
		}
	}
}

func TestRun_TableFailuresAreCounted(t *testing.T) {
	c := &mockClient{failTable: "visits"}
	u, _ := newTestUploader(c)

	sum, err := u.Run(context.Background(), Options{DataDir: fullDataDir(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.OK() || sum.Failed != 1 || sum.Succeeded != len(Tables)-1 {
		t.Errorf("expected one failure, got %+v", sum)
	}
}

func TestUploadTable_Errors(t *testing.T) {
	dir := writeDataDir(t, map[string]string{"users.json": `{"id":"not-an-array"}`})
	u, _ := newTestUploader(&mockClient{})

	users, _ := Lookup("users")
	if res := u.uploadTable(context.Background(), Options{DataDir: dir}, users); res.Err == nil ||
		!strings.Contains(res.Err.Error(), "must contain a JSON array") {
		t.Errorf("expected array error, got %v", res.Err)
	}

	products, _ := Lookup("products")
	if res := u.uploadTable(context.Background(), Options{DataDir: dir}, products); res.Err == nil ||
		!errors.Is(res.Err, os.ErrNotExist) {
		t.Errorf("expected missing file error, got %v", res.Err)
	}
}

func TestUploadTable_LargeBatchSwitchesToFile(t *testing.T) {
	row := `{"id":"` + strings.Repeat("x", 1024) + `"}`
	rows := make([]string, MaxBatchBytes/len(row)+1)
	for i := range rows {
		rows[i] = row
	}
	dir := writeDataDir(t, map[string]string{"visits.json": "[" + strings.Join(rows, ",") + "]"})

	c := &mockClient{}
	u, _ := newTestUploader(c)

	visits, _ := Lookup("visits")
	res := u.uploadTable(context.Background(), Options{DataDir: dir}, visits)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Method != MethodFile {
		t.Errorf("expected file method, got %s", res.Method)
	}
	if len(c.calls) != 1 || c.calls[0].Op != "file" {
		t.Errorf("expected one file upload, got %v", c.calls)
	}
}

func TestSleepCtx_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepCtx(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
