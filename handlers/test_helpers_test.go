package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bqestimator/services"
	"bqestimator/testhelpers"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

func newTestEstimator(app *pocketbase.PocketBase) *services.Estimator {
	return services.NewEstimator(services.NewRecordStore(app), services.DefaultEstimatorOptions())
}

// estimateFixture is a project with one structure, one element and two
// items worth 50 + 100.
type estimateFixture struct {
	ProjectID   string
	StructureID string
	ElementID   string
	ItemIDs     []string
}

func newEstimateFixture(t *testing.T, app *pocketbase.PocketBase, name string) estimateFixture {
	t.Helper()
	proj := testhelpers.CreateTestProject(t, app, name)
	s := testhelpers.CreateTestStructure(t, app, proj.Id, "Substructure", 1)
	el := testhelpers.CreateTestElement(t, app, proj.Id, s.Id, "Excavation", 1)
	a := testhelpers.CreateTestItem(t, app, proj.Id, el.Id, "Bulk dig", 1, 10, 5)
	b := testhelpers.CreateTestItem(t, app, proj.Id, el.Id, "Trench dig", 2, 4, 25)
	return estimateFixture{
		ProjectID:   proj.Id,
		StructureID: s.Id,
		ElementID:   el.Id,
		ItemIDs:     []string{a.Id, b.Id},
	}
}

// serve runs handler against a request and returns the recorder.
func serve(t *testing.T, app *pocketbase.PocketBase, handler func(*core.RequestEvent) error, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func jsonRequest(method, target string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeTable(t *testing.T, rec *httptest.ResponseRecorder) services.Table {
	t.Helper()
	var table services.Table
	if err := json.Unmarshal(rec.Body.Bytes(), &table); err != nil {
		t.Fatalf("response is not a JSON table: %v\n%s", err, rec.Body.String())
	}
	return table
}
