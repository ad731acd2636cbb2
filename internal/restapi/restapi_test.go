package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/impact/internal/form"
)

// fakeBackend is a tiny json-server stand-in for /projects.
type fakeBackend struct {
	mu       sync.Mutex
	projects []Project
	nextID   int
	fail     bool
	lists    atomic.Int32
	gate     chan struct{} // when set, list requests wait on it
	lastAuth string
	lastBody string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.lastAuth = r.Header.Get("Authorization")
	fail := b.fail
	b.mu.Unlock()

	if fail {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}

	raw, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.lastBody = string(raw)
	b.mu.Unlock()

	id := strings.TrimPrefix(r.URL.Path, "/projects/")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/projects":
		b.lists.Add(1)
		if b.gate != nil {
			<-b.gate
		}
		b.mu.Lock()
		_ = json.NewEncoder(w).Encode(b.projects)
		b.mu.Unlock()

	case r.Method == http.MethodGet:
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, p := range b.projects {
			if string(p.ID) == id {
				_ = json.NewEncoder(w).Encode(p)
				return
			}
		}
		http.NotFound(w, r)

	case r.Method == http.MethodPost:
		var p Project
		_ = json.Unmarshal(raw, &p)
		b.mu.Lock()
		b.nextID++
		p.ID = ID(strconv.Itoa(b.nextID))
		b.projects = append(b.projects, p)
		b.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(p)

	case r.Method == http.MethodPut:
		var p Project
		_ = json.Unmarshal(raw, &p)
		p.ID = ID(id)
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.projects {
			if string(b.projects[i].ID) == id {
				b.projects[i] = p
				_ = json.NewEncoder(w).Encode(p)
				return
			}
		}
		http.NotFound(w, r)

	case r.Method == http.MethodDelete:
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.projects {
			if string(b.projects[i].ID) == id {
				b.projects = append(b.projects[:i], b.projects[i+1:]...)
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("{}"))
				return
			}
		}
		http.NotFound(w, r)
	}
}

func (b *fakeBackend) setFail(v bool) {
	b.mu.Lock()
	b.fail = v
	b.mu.Unlock()
}

func (b *fakeBackend) seen() (auth, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAuth, b.lastBody
}

func newTestClient(t *testing.T, h http.Handler, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]ClientOption{WithLogger(zap.NewNop().Sugar())}, opts...)
	c, err := NewClient(srv.URL+"/", time.Second, opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func sampleProject() Project {
	return Project{
		Name:          "Clean Water",
		Description:   "Wells for three villages",
		Beneficiaries: 300,
		StartDate:     "2030-07-01",
		EndDate:       "2030-12-01",
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient("ftp://example.org", 0); err == nil {
		t.Fatalf("ftp scheme accepted")
	}
	if _, err := NewClient("::nope", 0); err == nil {
		t.Fatalf("unparsable url accepted")
	}
}

func TestResourceCRUD(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be, WithToken("secret"))
	res := NewResource[Project](c, "/projects")
	ctx := context.Background()

	created, err := res.Create(ctx, sampleProject())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "1" {
		t.Fatalf("unexpected id %q", created.ID)
	}
	auth, body := be.seen()
	if auth != "Bearer secret" {
		t.Fatalf("authorization header %q", auth)
	}
	if !strings.Contains(body, `"startDate":"2030-07-01"`) {
		t.Fatalf("unexpected body %s", body)
	}

	got, err := res.Get(ctx, "1")
	if err != nil || got.Name != "Clean Water" {
		t.Fatalf("Get: %+v, %v", got, err)
	}

	upd := sampleProject()
	upd.Name = "Clean Water II"
	if _, err := res.Update(ctx, "1", upd); err != nil {
		t.Fatalf("Update: %v", err)
	}

	list, err := res.List(ctx, url.Values{"_page": {"1"}, "_limit": {"10"}})
	if err != nil || len(list) != 1 || list[0].Name != "Clean Water II" {
		t.Fatalf("List: %+v, %v", list, err)
	}

	if err := res.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := res.Get(ctx, "1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestResourceValidatesPayload(t *testing.T) {
	be := &fakeBackend{}
	res := NewResource[Donor](newTestClient(t, be), "/donors")
	_, err := res.Create(context.Background(), Donor{Name: "Ana", Email: "not-an-email"})
	if err == nil {
		t.Fatalf("invalid donor accepted")
	}
	if _, body := be.seen(); body != "" {
		t.Fatalf("invalid payload reached the backend")
	}
}

func TestStatusError(t *testing.T) {
	be := &fakeBackend{fail: true}
	res := NewResource[Project](newTestClient(t, be), "/projects")
	_, err := res.List(context.Background(), nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusInternalServerError {
		t.Fatalf("want StatusError 500, got %v", err)
	}
}

func TestIDJSON(t *testing.T) {
	var p Project
	if err := json.Unmarshal([]byte(`{"id":7,"managerId":"m-1"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ID != "7" || p.ManagerID != "m-1" {
		t.Fatalf("unexpected ids: %+v", p)
	}
	raw, _ := json.Marshal(Setting{ID: "12", Key: "k"})
	if !strings.Contains(string(raw), `"id":12`) {
		t.Fatalf("numeric id not encoded as number: %s", raw)
	}
	raw, _ = json.Marshal(Setting{ID: "ab3", Key: "k"})
	if !strings.Contains(string(raw), `"id":"ab3"`) {
		t.Fatalf("string id not encoded as string: %s", raw)
	}
}

func TestCollectionOptimisticCreate(t *testing.T) {
	be := &fakeBackend{}
	col := NewCollection(NewResource[Project](newTestClient(t, be), "/projects"), nil)
	ctx := context.Background()

	created, err := col.Create(ctx, sampleProject())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	items := col.Items()
	if len(items) != 1 || items[0].ID != created.ID {
		t.Fatalf("placeholder not replaced: %+v", items)
	}

	be.setFail(true)
	if _, err := col.Create(ctx, sampleProject()); err == nil {
		t.Fatalf("expected failure")
	}
	if got := col.Items(); len(got) != 1 || got[0].ID != created.ID {
		t.Fatalf("rollback failed: %+v", got)
	}
}

func TestCollectionRollbackUpdateAndDelete(t *testing.T) {
	be := &fakeBackend{}
	col := NewCollection(NewResource[Project](newTestClient(t, be), "/projects"), nil)
	ctx := context.Background()

	created, err := col.Create(ctx, sampleProject())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	be.setFail(true)
	changed := sampleProject()
	changed.Name = "Renamed"
	if _, err := col.Update(ctx, created.ID, changed); err == nil {
		t.Fatalf("expected update failure")
	}
	if got, _ := col.Find(created.ID); got.Name != "Clean Water" {
		t.Fatalf("update not rolled back: %+v", got)
	}

	if err := col.Delete(ctx, created.ID); err == nil {
		t.Fatalf("expected delete failure")
	}
	if _, ok := col.Find(created.ID); !ok {
		t.Fatalf("delete not rolled back")
	}

	be.setFail(false)
	if err := col.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(col.Items()) != 0 {
		t.Fatalf("item not removed")
	}
}

// heldFailure fails every request whose body or path mentions marker, after
// signalling arrival and waiting for release.  Other requests reach next.
func heldFailure(next http.Handler, marker string, arrived, release chan struct{}) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if strings.Contains(string(raw), marker) || strings.Contains(r.URL.Path, marker) {
			arrived <- struct{}{}
			<-release
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		r.Body = io.NopCloser(strings.NewReader(string(raw)))
		next.ServeHTTP(w, r)
	})
}

func TestCollectionConcurrentCreateRollback(t *testing.T) {
	be := &fakeBackend{}
	arrived, release := make(chan struct{}), make(chan struct{})
	col := NewCollection(NewResource[Project](
		newTestClient(t, heldFailure(be, "Doomed", arrived, release)), "/projects"), nil)
	ctx := context.Background()

	doomed := sampleProject()
	doomed.Name = "Doomed Project"
	errc := make(chan error, 1)
	go func() {
		_, err := col.Create(ctx, doomed)
		errc <- err
	}()
	<-arrived

	created, err := col.Create(ctx, sampleProject())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	close(release)
	if err := <-errc; err == nil {
		t.Fatal("expected the held create to fail")
	}

	items := col.Items()
	if len(items) != 1 || items[0].ID != created.ID {
		t.Fatalf("items = %+v, want only %s", items, created.ID)
	}
}

func TestCollectionConcurrentUpdateAndDeleteRollback(t *testing.T) {
	be := &fakeBackend{projects: []Project{
		{ID: "7", Name: "Keep Me"},
		{ID: "8", Name: "Remove Me"},
	}, nextID: 8}
	arrived, release := make(chan struct{}), make(chan struct{})
	col := NewCollection(NewResource[Project](
		newTestClient(t, heldFailure(be, "/projects/7", arrived, release)), "/projects"), nil)
	ctx := context.Background()
	if err := col.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	changed := sampleProject()
	changed.Name = "Renamed"
	errc := make(chan error, 1)
	go func() {
		_, err := col.Update(ctx, "7", changed)
		errc <- err
	}()
	<-arrived

	if err := col.Delete(ctx, "8"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	created, err := col.Create(ctx, sampleProject())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	close(release)
	if err := <-errc; err == nil {
		t.Fatal("expected the held update to fail")
	}

	if got, _ := col.Find("7"); got.Name != "Keep Me" {
		t.Fatalf("update not rolled back: %+v", got)
	}
	if _, ok := col.Find("8"); ok {
		t.Fatal("deleted record came back")
	}
	if _, ok := col.Find(created.ID); !ok {
		t.Fatal("created record lost")
	}

	// A failed delete puts the record back where it was.
	be.setFail(true)
	if err := col.Delete(ctx, created.ID); err == nil {
		t.Fatal("expected delete failure")
	}
	if items := col.Items(); len(items) != 2 || items[1].ID != created.ID {
		t.Fatalf("items = %+v, want %s restored second", items, created.ID)
	}
}

func TestCollectionRefreshSharesRequest(t *testing.T) {
	be := &fakeBackend{gate: make(chan struct{}), projects: []Project{{ID: "1", Name: "A"}}}
	col := NewCollection(NewResource[Project](newTestClient(t, be), "/projects"), nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := col.Refresh(context.Background()); err != nil {
				t.Errorf("Refresh: %v", err)
			}
		}()
	}
	// Let the waiting callers pile up behind the first request.
	for be.lists.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(be.gate)
	wg.Wait()

	if n := be.lists.Load(); n != 1 {
		t.Fatalf("want one backend list call, got %d", n)
	}
	if !col.Loaded() || len(col.Items()) != 1 {
		t.Fatalf("list not loaded: %+v", col.Items())
	}
}

func TestProjectPersister(t *testing.T) {
	be := &fakeBackend{}
	col := NewCollection(NewResource[Project](newTestClient(t, be), "/projects"), nil)
	p := NewProjectPersister(col)
	ctx := context.Background()

	snap := form.Snapshot{}.
		With(form.FieldName, form.Text("  Clean Water  ")).
		With(form.FieldDescription, form.Text("Wells <b>for</b> three villages & schools")).
		With(form.FieldBeneficiaries, form.Text("300")).
		With(form.FieldStartDate, form.Text("2030-07-01")).
		With(form.FieldEndDate, form.Text("2030-12-01"))

	if err := p.Persist(ctx, form.Submission{Mode: form.ModeCreate, Values: snap}); err != nil {
		t.Fatalf("Persist create: %v", err)
	}
	got := col.Items()[0]
	if got.Name != "Clean Water" || got.Description != "Wells for three villages & schools" || got.Beneficiaries != 300 {
		t.Fatalf("unexpected stored project: %+v", got)
	}
	if got.Budget != nil || got.Status != "" {
		t.Fatalf("extended fields should be omitted: %+v", got)
	}

	edit := ProjectSnapshot(got).With(form.FieldName, form.Text("Clean Water II"))
	if err := p.Persist(ctx, form.Submission{Mode: form.ModeUpdate, ID: string(got.ID), Values: edit}); err != nil {
		t.Fatalf("Persist update: %v", err)
	}
	if upd, _ := col.Find(got.ID); upd.Name != "Clean Water II" {
		t.Fatalf("update not applied: %+v", upd)
	}

	if err := p.Persist(ctx, form.Submission{Mode: form.ModeUpdate, Values: edit}); err == nil {
		t.Fatalf("update without id accepted")
	}
}

func TestProjectSnapshotExtended(t *testing.T) {
	budget, kpi := 1200.5, 3.0
	snap := ProjectSnapshot(Project{Name: "X", Status: "active", Budget: &budget, MainKPI: &kpi})
	if snap.Get(form.FieldStatus) != form.Text("active") || snap.Get(form.FieldBudget) != form.Number(1200.5) {
		t.Fatalf("extended fields not mapped: %s %s", snap.Get(form.FieldStatus), snap.Get(form.FieldBudget))
	}
	if !snap.Get(form.FieldBeneficiaries).IsEmpty() {
		t.Fatalf("zero beneficiaries should seed an empty input")
	}
}
