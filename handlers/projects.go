package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"bqestimator/services"
	"bqestimator/templates"
)

func wantsHTML(e *core.RequestEvent) bool {
	return strings.Contains(e.Request.Header.Get("Accept"), "text/html")
}

// HandleProjectList lists the projects as a page for browsers and as JSON
// otherwise.
func HandleProjectList(est *services.Estimator) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projects, err := est.Projects(e.Request.Context())
		if err != nil {
			return failWith(e, "project_list", err)
		}
		if projects == nil {
			projects = []services.Project{}
		}
		if !wantsHTML(e) {
			return e.JSON(http.StatusOK, projects)
		}

		items := make([]templates.ProjectListItem, 0, len(projects))
		for _, p := range projects {
			created := "—"
			if !p.CreatedAt.IsZero() {
				created = p.CreatedAt.Format("02 Jan 2006")
			}
			items = append(items, templates.ProjectListItem{
				ID:              p.ID,
				Name:            p.Name,
				Client:          p.Client,
				ReferenceNumber: p.ReferenceNumber,
				Locked:          p.Locked,
				CreatedDate:     created,
			})
		}
		return templates.ProjectListPage(items).Render(e.Request.Context(), e.Response)
	}
}

type projectInput struct {
	Name            string `json:"name" form:"name"`
	Client          string `json:"client" form:"client"`
	ReferenceNumber string `json:"reference_number" form:"reference_number"`
}

// HandleProjectCreate stores a new project. Form posts are redirected to the
// new estimate page.
func HandleProjectCreate(est *services.Estimator) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in projectInput
		if err := e.BindBody(&in); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		p, err := est.CreateProject(e.Request.Context(), services.Project{
			Name:            in.Name,
			Client:          in.Client,
			ReferenceNumber: in.ReferenceNumber,
		})
		if err != nil {
			return failWith(e, "project_create", err)
		}

		SetToast(e, "success", "Project created")
		if strings.HasPrefix(e.Request.Header.Get("Content-Type"), "application/json") {
			return e.JSON(http.StatusCreated, p)
		}
		target := fmt.Sprintf("/projects/%s/estimate", p.ID)
		if isHTMX(e) {
			e.Response.Header().Set("HX-Redirect", target)
			return e.NoContent(http.StatusOK)
		}
		return e.Redirect(http.StatusFound, target)
	}
}

// HandleSetLocked sets or clears the project's lock flag.
func HandleSetLocked(est *services.Estimator, locked bool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		if err := est.SetLocked(e.Request.Context(), projectID, locked); err != nil {
			return failWith(e, "project_lock", err)
		}

		msg := "Estimate unlocked"
		if locked {
			msg = "Estimate locked"
		}
		SetToast(e, "success", msg)
		if isHTMX(e) {
			e.Response.Header().Set("HX-Refresh", "true")
		}
		return e.JSON(http.StatusOK, map[string]any{"id": projectID, "locked": locked})
	}
}
