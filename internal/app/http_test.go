package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"proposalkit/internal/artifact"
	"proposalkit/internal/catalog"
	"proposalkit/internal/docx"
	"proposalkit/internal/export"
	"proposalkit/internal/store"
)

var testNow = time.Date(2026, 10, 18, 10, 30, 0, 0, time.UTC)

const testDocOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
	`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

func para(text string) string {
	return `<w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

func tableRow(cells ...string) string {
	var b strings.Builder
	b.WriteString("<w:tr>")
	for _, c := range cells {
		b.WriteString(`<w:tc><w:p><w:r><w:t>` + c + `</w:t></w:r></w:p></w:tc>`)
	}
	b.WriteString("</w:tr>")
	return b.String()
}

func writeMakeCRMTemplate(t *testing.T, dir string) {
	t.Helper()
	body := para("Proposal for &lt;&lt;client_name&gt;&gt;") +
		para("Valid till &lt;&lt;VDate&gt;&gt;") +
		`<w:tbl>` +
		tableRow("Description", "Timeline", "Cost") +
		tableRow("Make Automation", "2 weeks", "&lt;&lt;M-Price&gt;&gt;") +
		tableRow("CRM Automations", "3 weeks", "&lt;&lt;C-Price&gt;&gt;") +
		tableRow("Annual Maintenance", "yearly", "&lt;&lt;AM-Price&gt;&gt;") +
		tableRow("Total", "", "&lt;&lt;T-Price&gt;&gt;") +
		`</w:tbl><w:sectPr/></w:body></w:document>`
	doc, err := docx.Parse([]byte(testDocOpen + body))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := doc.Save(filepath.Join(dir, "Make & CRM Automation.docx")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

type fakeAudit struct {
	mu        sync.Mutex
	records   []store.Generation
	insertErr error
	pingErr   error
}

func (f *fakeAudit) InsertGeneration(_ context.Context, g store.Generation) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, g)
	return nil
}

func (f *fakeAudit) ListGenerations(_ context.Context, filter store.GenerationFilter) ([]store.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.Generation{}
	for i := len(f.records) - 1; i >= 0; i-- {
		if filter.Kind == "" || f.records[i].Kind == filter.Kind {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeAudit) GetGeneration(_ context.Context, id string) (store.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.records {
		if g.ID == id {
			return g, nil
		}
	}
	return store.Generation{}, store.ErrGenerationNotFound
}

func (f *fakeAudit) Ping(context.Context) error {
	return f.pingErr
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) Put(_ context.Context, key string, data []byte, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeObjects) Open(_ context.Context, key string) (io.ReadCloser, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, 0, artifact.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (f *fakeObjects) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeObjects) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newLinkStore(t *testing.T) *artifact.LinkStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return artifact.NewLinkStoreWithClient(client, time.Minute)
}

func newTestServer(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	reg, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	dir := t.TempDir()
	writeMakeCRMTemplate(t, dir)
	generator := export.NewService(reg, dir,
		export.WithClock(func() time.Time { return testNow }),
		export.WithShortID(func() string { return "1a2b3c4d" }),
	)
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewHTTPServer(NewService(generator, opts...), "*").Handler()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse response %q: %v", rr.Body.String(), err)
	}
	return out
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
	if got := decodeJSON(t, rr)["code"]; got != code {
		t.Fatalf("expected code %s, got %v", code, got)
	}
}

const makeCRMBody = `{
	"client": {"name": "Acme Corp", "email": "ops@acme.test", "phone": "+919876543210", "country": "India"},
	"date": "2026-10-18",
	"currency": "INR",
	"prices": {"M-Price": 4000, "C-Price": 6000}
}`

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t)
	rr := doRequest(t, h, http.MethodGet, "/api/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if ok := decodeJSON(t, rr)["ok"]; ok != true {
		t.Errorf("expected ok=true, got %v", ok)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want req-123", got)
	}
}

func TestPreflight(t *testing.T) {
	h := newTestServer(t)
	rr := doRequest(t, h, http.MethodOptions, "/api/proposals/make-crm/generate", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Errorf("missing POST in allowed methods: %q", rr.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newTestServer(t)
	expectError(t, doRequest(t, h, http.MethodGet, "/api/nothing", ""), http.StatusNotFound, "NOT_FOUND")
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("no backends", func(t *testing.T) {
		rr := doRequest(t, newTestServer(t), http.MethodGet, "/api/ready", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("database down", func(t *testing.T) {
		audit := &fakeAudit{pingErr: errors.New("connection refused")}
		rr := doRequest(t, newTestServer(t, WithAuditStore(audit), WithLinkStore(newLinkStore(t))), http.MethodGet, "/api/ready", "")
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
		body := decodeJSON(t, rr)
		checks := body["checks"].(map[string]any)
		if db := checks["database"].(map[string]any); db["status"] != "error" {
			t.Errorf("database check = %v", db)
		}
		if r := checks["redis"].(map[string]any); r["status"] != "ok" {
			t.Errorf("redis check = %v", r)
		}
	})
}

func TestProposalCatalogEndpoints(t *testing.T) {
	h := newTestServer(t)

	rr := doRequest(t, h, http.MethodGet, "/api/proposals", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	proposals := decodeJSON(t, rr)["proposals"].([]any)
	if len(proposals) != 19 {
		t.Errorf("expected 19 proposals, got %d", len(proposals))
	}

	rr = doRequest(t, h, http.MethodGet, "/api/proposals/make-crm", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	def := decodeJSON(t, rr)
	if def["name"] != "Make & CRM Automation" || def["team_type"] != "general" {
		t.Errorf("unexpected definition: %v", def)
	}
	if team := def["team"].([]any); len(team) != 8 {
		t.Errorf("expected 8 general roles, got %d", len(team))
	}

	expectError(t, doRequest(t, h, http.MethodGet, "/api/proposals/nope", ""), http.StatusNotFound, "UNKNOWN_PROPOSAL")
}

func TestQuoteEndpoint(t *testing.T) {
	h := newTestServer(t)

	rr := doRequest(t, h, http.MethodPost, "/api/proposals/make-crm/quote", makeCRMBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	quote := decodeJSON(t, rr)["quote"].(map[string]any)
	if quote["total"] != float64(11000) || quote["maintenance"] != float64(1000) {
		t.Errorf("unexpected quote: %v", quote)
	}
	placeholders := quote["placeholders"].(map[string]any)
	if got := placeholders["<<T-Price>>"]; got != "₹11,000 + 18% GST" {
		t.Errorf("<<T-Price>> = %v", got)
	}

	// a proposal can be addressed by display name too
	rr = doRequest(t, h, http.MethodPost, "/api/proposals/Make%20&%20CRM%20Automation/quote", `{"prices": {"M-Price": 100}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for name lookup, got %d", rr.Code)
	}

	expectError(t, doRequest(t, h, http.MethodPost, "/api/proposals/make-crm/quote", `{"prices": {"M-Price": -1}}`), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	expectError(t, doRequest(t, h, http.MethodPost, "/api/proposals/make-crm/quote", `{"prices": `), http.StatusBadRequest, "INVALID_BODY")
	expectError(t, doRequest(t, h, http.MethodPost, "/api/proposals/make-crm/quote", `{"price": {}}`), http.StatusBadRequest, "INVALID_BODY")
	expectError(t, doRequest(t, h, http.MethodPost, "/api/proposals/make-crm/quote", `{"date": "tomorrow"}`), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestGenerateReturnsDOCX(t *testing.T) {
	h := newTestServer(t)

	rr := doRequest(t, h, http.MethodPost, "/api/proposals/make-crm/generate", makeCRMBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); got != export.MimeTypeDOCX {
		t.Errorf("Content-Type = %q", got)
	}
	wantDisposition := `attachment; filename="Make & CRM Automation_Acme Corp_18 Oct 2026_1a2b3c4d.docx"`
	if got := rr.Header().Get("Content-Disposition"); got != wantDisposition {
		t.Errorf("Content-Disposition = %q, want %q", got, wantDisposition)
	}
	if rr.Header().Get("X-Generation-ID") == "" {
		t.Error("expected X-Generation-ID header")
	}
	if got := rr.Header().Get(warningsHeader); got != "" {
		t.Errorf("unexpected warnings: %q", got)
	}

	doc, err := docx.Read(rr.Body.Bytes())
	if err != nil {
		t.Fatalf("docx.Read() error = %v", err)
	}
	paras := doc.Paragraphs()
	if got := paras[0].Text(); got != "Proposal for Acme Corp" {
		t.Errorf("first paragraph = %q", got)
	}
	if got := paras[1].Text(); got != "Valid till 18-10-2026" {
		t.Errorf("validity paragraph = %q", got)
	}
	rows := doc.Tables()[0].Rows()
	if len(rows) != 5 {
		t.Fatalf("expected all 5 rows to survive, got %d", len(rows))
	}
	if got := rows[4].Cells()[2].Text(); got != "₹11,000 + 18% GST" {
		t.Errorf("total cell = %q", got)
	}
}

func TestGenerateMissingTemplate(t *testing.T) {
	h := newTestServer(t)
	expectError(t, doRequest(t, h, http.MethodPost, "/api/proposals/make-manychat/generate", `{}`), http.StatusNotFound, "TEMPLATE_NOT_FOUND")
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	h := newTestServer(t)
	expectError(t, doRequest(t, h, http.MethodPost, "/api/proposals/make-crm/generate?format=odt", makeCRMBody), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestGeneratePDFFallsBackToDOCX(t *testing.T) {
	h := newTestServer(t)

	rr := doRequest(t, h, http.MethodPost, "/api/proposals/make-crm/generate?format=pdf", makeCRMBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); got != export.MimeTypeDOCX {
		t.Errorf("Content-Type = %q, want the DOCX fallback", got)
	}
	if got := rr.Header().Get(warningsHeader); got != "pdf conversion is not enabled" {
		t.Errorf("%s = %q", warningsHeader, got)
	}
}

func TestGenerateJSONDeliversLinksAndHistory(t *testing.T) {
	audit := &fakeAudit{}
	objects := newFakeObjects()
	h := newTestServer(t, WithAuditStore(audit), WithObjectStore(objects), WithLinkStore(newLinkStore(t)))

	rr := doRequest(t, h, http.MethodPost, "/api/proposals/make-crm/generate?format=json", makeCRMBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeJSON(t, rr)
	id, _ := body["id"].(string)
	if !strings.HasPrefix(id, "gen_") {
		t.Errorf("id = %q", id)
	}
	if body["filename"] != "Make & CRM Automation_Acme Corp_18 Oct 2026_1a2b3c4d.docx" {
		t.Errorf("filename = %v", body["filename"])
	}
	if warnings := body["warnings"].([]any); len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	report := body["report"].(map[string]any)
	if report["rewritten"] != float64(6) {
		t.Errorf("report = %v", report)
	}

	keys := objects.keys()
	wantKey := "proposals/2026/10/18/" + id + "/Make & CRM Automation_Acme Corp_18 Oct 2026_1a2b3c4d.docx"
	if len(keys) != 1 || keys[0] != wantKey {
		t.Fatalf("stored keys = %v, want [%s]", keys, wantKey)
	}

	links := body["links"].(map[string]any)
	docxLink := links["docx"].(map[string]any)
	linkID := docxLink["id"].(string)

	rr = doRequest(t, h, http.MethodGet, "/api/downloads/"+linkID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("download expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !bytes.Equal(rr.Body.Bytes(), objects.objects[wantKey]) {
		t.Error("downloaded bytes differ from the stored object")
	}
	if got := rr.Header().Get("Content-Type"); got != export.MimeTypeDOCX {
		t.Errorf("download Content-Type = %q", got)
	}

	if len(audit.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(audit.records))
	}
	rec := audit.records[0]
	if rec.ID != id || rec.Kind != "make-crm" || rec.Total != 11000 || rec.Currency != "INR" || rec.DOCXKey != wantKey || rec.PDFKey != "" {
		t.Errorf("unexpected audit record: %+v", rec)
	}

	rr = doRequest(t, h, http.MethodGet, "/api/generations?kind=make-crm", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("history expected 200, got %d", rr.Code)
	}
	if items := decodeJSON(t, rr)["generations"].([]any); len(items) != 1 {
		t.Errorf("expected 1 generation, got %d", len(items))
	}
	rr = doRequest(t, h, http.MethodGet, "/api/generations/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("generation expected 200, got %d", rr.Code)
	}
	expectError(t, doRequest(t, h, http.MethodGet, "/api/generations/gen_missing", ""), http.StatusNotFound, "NOT_FOUND")
	expectError(t, doRequest(t, h, http.MethodGet, "/api/generations?limit=x", ""), http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	rr = doRequest(t, h, http.MethodDelete, "/api/downloads/"+linkID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("revoke expected 204, got %d", rr.Code)
	}
	expectError(t, doRequest(t, h, http.MethodGet, "/api/downloads/"+linkID, ""), http.StatusNotFound, "LINK_NOT_FOUND")
	expectError(t, doRequest(t, h, http.MethodDelete, "/api/downloads/"+linkID, ""), http.StatusNotFound, "LINK_NOT_FOUND")
}

func TestDeleteGenerationFiles(t *testing.T) {
	audit := &fakeAudit{}
	objects := newFakeObjects()
	h := newTestServer(t, WithAuditStore(audit), WithObjectStore(objects), WithLinkStore(newLinkStore(t)))

	rr := doRequest(t, h, http.MethodPost, "/api/proposals/make-crm/generate?format=json", makeCRMBody)
	body := decodeJSON(t, rr)
	id := body["id"].(string)
	linkID := body["links"].(map[string]any)["docx"].(map[string]any)["id"].(string)

	rr = doRequest(t, h, http.MethodDelete, "/api/generations/"+id+"/files", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if keys := objects.keys(); len(keys) != 0 {
		t.Errorf("expected stored files to be removed, got %v", keys)
	}
	expectError(t, doRequest(t, h, http.MethodGet, "/api/downloads/"+linkID, ""), http.StatusNotFound, "FILE_NOT_FOUND")
}

func TestDeliveryFailuresBecomeWarnings(t *testing.T) {
	audit := &fakeAudit{insertErr: errors.New("db down")}
	objects := newFakeObjects()
	objects.putErr = errors.New("bucket gone")
	h := newTestServer(t, WithAuditStore(audit), WithObjectStore(objects), WithLinkStore(newLinkStore(t)))

	rr := doRequest(t, h, http.MethodPost, "/api/proposals/make-crm/generate?format=json", makeCRMBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeJSON(t, rr)
	var warnings []string
	for _, w := range body["warnings"].([]any) {
		warnings = append(warnings, w.(string))
	}
	want := []string{"docx upload failed", "generation history unavailable"}
	if strings.Join(warnings, "|") != strings.Join(want, "|") {
		t.Errorf("warnings = %v, want %v", warnings, want)
	}
	if body["links"] != nil {
		t.Errorf("expected no links, got %v", body["links"])
	}
}

func TestDisabledBackends(t *testing.T) {
	h := newTestServer(t)
	expectError(t, doRequest(t, h, http.MethodGet, "/api/generations", ""), http.StatusServiceUnavailable, "HISTORY_DISABLED")
	expectError(t, doRequest(t, h, http.MethodGet, "/api/downloads/abc", ""), http.StatusServiceUnavailable, "DOWNLOADS_DISABLED")
	expectError(t, doRequest(t, h, http.MethodDelete, "/api/generations/abc/files", ""), http.StatusServiceUnavailable, "HISTORY_DISABLED")
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{catalog.ErrUnknownProposal, http.StatusNotFound, "UNKNOWN_PROPOSAL"},
		{export.ErrInvalidRequest, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{export.ErrTemplateNotFound, http.StatusNotFound, "TEMPLATE_NOT_FOUND"},
		{artifact.ErrLinkNotFound, http.StatusNotFound, "LINK_NOT_FOUND"},
		{store.ErrGenerationNotFound, http.StatusNotFound, "NOT_FOUND"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		{domainError(http.StatusConflict, "CONFLICT", "Conflict", nil), http.StatusConflict, "CONFLICT"},
		{errors.New("boom"), http.StatusInternalServerError, "SERVER_ERROR"},
	}
	for _, tc := range tests {
		status, code, _, _ := mapError(tc.err)
		if status != tc.status || code != tc.code {
			t.Errorf("mapError(%v) = %d %s, want %d %s", tc.err, status, code, tc.status, tc.code)
		}
	}
}
