package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"bqestimator/services"
)

type contextKey string

const ProjectKey contextKey = "project"

// GetProject extracts the project loaded by ProjectMiddleware.
func GetProject(r *http.Request) *services.Project {
	if val, ok := r.Context().Value(ProjectKey).(*services.Project); ok {
		return val
	}
	return nil
}

// ProjectMiddleware loads the project named by the {projectId} path value
// and stores it in the request context. Unknown projects end the request
// with 404.
func ProjectMiddleware(est *services.Estimator) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		if projectID == "" {
			return e.Next()
		}

		project, err := est.Project(e.Request.Context(), projectID)
		if err != nil {
			return failWith(e, "middleware", err)
		}

		ctx := context.WithValue(e.Request.Context(), ProjectKey, &project)
		e.Request = e.Request.WithContext(ctx)
		return e.Next()
	}
}

// currentProject returns the project from the context, loading it when the
// handler runs without ProjectMiddleware.
func currentProject(e *core.RequestEvent, est *services.Estimator) (services.Project, error) {
	if p := GetProject(e.Request); p != nil && p.ID == e.Request.PathValue("projectId") {
		return *p, nil
	}
	return est.Project(e.Request.Context(), e.Request.PathValue("projectId"))
}

func isHTMX(e *core.RequestEvent) bool {
	return e.Request.Header.Get("HX-Request") == "true"
}
