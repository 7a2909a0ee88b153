package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"bqestimator/services"
)

// sanitizeFilename removes characters that are unsafe in a
// Content-Disposition filename.
func sanitizeFilename(s string) string {
	r := strings.NewReplacer(" ", "-", "/", "-", "\\", "-", ":", "-", `"`, "")
	return r.Replace(s)
}

// HandleEstimateExport returns a handler that renders the filtered estimate
// in format (xlsx or pdf) and sends it as a download.
func HandleEstimateExport(est *services.Estimator, format string) func(*core.RequestEvent) error {
	op := "export_" + format
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		if projectID == "" {
			return e.String(http.StatusBadRequest, "Missing project ID")
		}

		vq, err := parseViewQuery(e, est.Options().Columns)
		if err != nil {
			return e.String(http.StatusBadRequest, "Invalid filter: "+err.Error())
		}

		res, err := est.Export(e.Request.Context(), projectID, services.ExportRequest{
			Format:  format,
			Filter:  vq.Filter,
			Columns: vq.Columns,
		})
		if err != nil {
			status, msg := errorStatus(err)
			if status == http.StatusInternalServerError {
				log.Printf("%s: failed to generate: %v", op, err)
				msg = "Failed to generate the export"
			}
			return e.String(status, msg)
		}

		e.Response.Header().Set("Content-Type", res.ContentType)
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sanitizeFilename(res.Filename)))
		_, err = e.Response.Write(res.Body)
		return err
	}
}
