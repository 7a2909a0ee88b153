package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"bqestimator/services"
	"bqestimator/testhelpers"
)

func TestHandleProjectList_JSON(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestProject(t, app, "Alpha")
	testhelpers.CreateTestProject(t, app, "Beta")

	rec := serve(t, app, HandleProjectList(newTestEstimator(app)), httptest.NewRequest(http.MethodGet, "/projects", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var projects []services.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &projects); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(projects) != 2 {
		t.Errorf("expected 2 projects, got %d", len(projects))
	}
}

func TestHandleProjectList_EmptyJSONArray(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	rec := serve(t, app, HandleProjectList(newTestEstimator(app)), httptest.NewRequest(http.MethodGet, "/projects", nil))
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", rec.Body.String())
	}
}

func TestHandleProjectList_HTML(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProject(t, app, "Villa Project")
	testhelpers.LockTestProject(t, app, p.Id)

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Accept", "text/html")
	rec := serve(t, app, HandleProjectList(newTestEstimator(app)), req)

	testhelpers.AssertHTMLContains(t, rec.Body.String(),
		"Villa Project", fmt.Sprintf("/projects/%s/estimate", p.Id), "Locked")
}

func TestHandleProjectCreate_JSON(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	rec := serve(t, app, HandleProjectCreate(newTestEstimator(app)),
		jsonRequest(http.MethodPost, "/projects", map[string]string{"name": "Tower", "client": "Acme", "reference_number": "BQ-3"}))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var p services.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.ID == "" || p.Name != "Tower" || p.ReferenceNumber != "BQ-3" || p.Locked {
		t.Errorf("project = %+v", p)
	}
}

func TestHandleProjectCreate_FormRedirects(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	form := url.Values{"name": {"Form Project"}}
	req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(t, app, HandleProjectCreate(newTestEstimator(app)), req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/projects/") || !strings.HasSuffix(loc, "/estimate") {
		t.Errorf("Location = %q", loc)
	}
}

func TestHandleProjectCreate_HTMXRedirect(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	form := url.Values{"name": {"HX Project"}}
	req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rec := serve(t, app, HandleProjectCreate(newTestEstimator(app)), req)

	projects, _ := services.NewRecordStore(app).ListProjects(t.Context())
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	testhelpers.AssertHXRedirect(t, rec.Header().Get("HX-Redirect"), fmt.Sprintf("/projects/%s/estimate", projects[0].ID))
}

func TestHandleProjectCreate_MissingName(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	rec := serve(t, app, HandleProjectCreate(newTestEstimator(app)),
		jsonRequest(http.MethodPost, "/projects", map[string]string{"name": "  "}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSetLocked(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProject(t, app, "Lock Project")
	est := newTestEstimator(app)

	lockReq := httptest.NewRequest(http.MethodPost, "/projects/"+p.Id+"/estimate/lock", nil)
	lockReq.SetPathValue("projectId", p.Id)
	lockReq.Header.Set("HX-Request", "true")
	rec := serve(t, app, HandleSetLocked(est, true), lockReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("HX-Refresh") != "true" {
		t.Error("expected HX-Refresh for HTMX requests")
	}
	got, _ := est.Project(t.Context(), p.Id)
	if !got.Locked {
		t.Fatal("project should be locked")
	}

	unlockReq := httptest.NewRequest(http.MethodPost, "/projects/"+p.Id+"/estimate/unlock", nil)
	unlockReq.SetPathValue("projectId", p.Id)
	serve(t, app, HandleSetLocked(est, false), unlockReq)
	got, _ = est.Project(t.Context(), p.Id)
	if got.Locked {
		t.Error("project should be unlocked")
	}

	missing := httptest.NewRequest(http.MethodPost, "/projects/nope/estimate/lock", nil)
	missing.SetPathValue("projectId", "nope")
	if rec := serve(t, app, HandleSetLocked(est, true), missing); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
