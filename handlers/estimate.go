package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"bqestimator/services"
	"bqestimator/templates"
)

// viewQuery is the filter and column selection of a request.
type viewQuery struct {
	Filter  services.Filter
	Columns services.ColumnSet
}

// parseViewQuery reads search, status and cols from the query string. cols
// may be repeated (checkboxes) or comma separated.
func parseViewQuery(e *core.RequestEvent, def services.ColumnSet) (viewQuery, error) {
	q := e.Request.URL.Query()
	status := strings.ToLower(strings.TrimSpace(q.Get("status")))
	if status != "" && status != services.StatusAll && !services.ValidStatus(status) {
		return viewQuery{}, fmt.Errorf("unknown status %q", status)
	}

	cols, err := services.ParseColumns(strings.Join(q["cols"], ","), def)
	if err != nil {
		return viewQuery{}, err
	}
	return viewQuery{
		Filter:  services.Filter{Search: strings.TrimSpace(q.Get("search")), Status: status},
		Columns: cols,
	}, nil
}

func pageData(est *services.Estimator, p services.Project, forest services.Forest, vq viewQuery) templates.EstimatePageData {
	return templates.EstimatePageData{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Client:      p.Client,
		Reference:   p.ReferenceNumber,
		Locked:      p.Locked,
		Currency:    est.Options().Currency,
		Filter:      vq.Filter,
		Table:       services.ExportToTable(forest, vq.Columns),
		Excluded:    len(forest.Report.Excluded),
	}
}

// HandleEstimateView renders the estimate page, or only the table for HTMX
// requests.
func HandleEstimateView(est *services.Estimator) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		vq, err := parseViewQuery(e, est.Options().Columns)
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid filter: "+err.Error())
		}
		project, err := currentProject(e, est)
		if err != nil {
			return failWith(e, "estimate_view", err)
		}
		forest, err := est.View(e.Request.Context(), project.ID, vq.Filter)
		if err != nil {
			return failWith(e, "estimate_view", err)
		}

		data := pageData(est, project, forest, vq)
		if isHTMX(e) {
			return templates.EstimateTable(data).Render(e.Request.Context(), e.Response)
		}
		return templates.EstimatePage(data).Render(e.Request.Context(), e.Response)
	}
}

// HandleEstimateRows returns the filtered table as JSON.
func HandleEstimateRows(est *services.Estimator) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		vq, err := parseViewQuery(e, est.Options().Columns)
		if err != nil {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "invalid filter: " + err.Error()})
		}
		project, err := currentProject(e, est)
		if err != nil {
			status, msg := errorStatus(err)
			return e.JSON(status, map[string]string{"error": msg})
		}
		forest, err := est.View(e.Request.Context(), project.ID, vq.Filter)
		if err != nil {
			status, msg := errorStatus(err)
			return e.JSON(status, map[string]string{"error": msg})
		}
		return e.JSON(http.StatusOK, services.ExportToTable(forest, vq.Columns))
	}
}

// respondTable answers a successful mutation: the table fragment for HTMX,
// the JSON table otherwise. The view keeps the filter of the request.
func respondTable(e *core.RequestEvent, est *services.Estimator, projectID string, forest services.Forest, status int) error {
	vq, err := parseViewQuery(e, est.Options().Columns)
	if err != nil {
		vq = viewQuery{Columns: est.Options().Columns}
	}
	project, err := est.Project(e.Request.Context(), projectID)
	if err != nil {
		return failWith(e, "estimate_table", err)
	}
	filtered := services.FilterTree(forest, vq.Filter)

	if isHTMX(e) {
		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		e.Response.WriteHeader(status)
		return templates.EstimateTable(pageData(est, project, filtered, vq)).Render(e.Request.Context(), e.Response)
	}
	return e.JSON(status, services.ExportToTable(filtered, vq.Columns))
}
