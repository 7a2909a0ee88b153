package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"bqestimator/services"
)

const maxImportSize = 10 << 20

// importResponse is the JSON answer of an import request.
type importResponse struct {
	Errors []services.ValidationError `json:"errors,omitempty"`
	Result *services.ImportResult     `json:"result,omitempty"`
}

// HandleEstimateImport reads an uploaded xlsx or csv file and creates its
// rows in order. Files with validation errors are rejected as a whole;
// otherwise rows are created until the first store failure.
// Route: POST /projects/{projectId}/estimate/import
func HandleEstimateImport(est *services.Estimator) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")

		if err := e.Request.ParseMultipartForm(maxImportSize); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "File too large or invalid form data")
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		rows, verrs, err := services.ParseImportFile(file, header.Filename)
		if err != nil {
			status, msg := errorStatus(err)
			if status == http.StatusInternalServerError {
				log.Printf("estimate_import: %v", err)
				status, msg = http.StatusBadRequest, err.Error()
			}
			return ErrorToast(e, status, msg)
		}
		if len(verrs) > 0 {
			SetToast(e, "warning", fmt.Sprintf("%d problems found, nothing was imported", len(verrs)))
			return e.JSON(http.StatusUnprocessableEntity, importResponse{Errors: verrs})
		}

		res, err := est.Import(e.Request.Context(), projectID, rows)
		if err != nil {
			return failWith(e, "estimate_import", err)
		}

		if !res.OK() {
			SetToast(e, "warning", fmt.Sprintf("Imported %d of %d rows, stopped at row %d: %s",
				len(res.Created), res.Total, res.Failed.Row, res.Failed.Message))
			return e.JSON(http.StatusUnprocessableEntity, importResponse{Result: &res})
		}
		SetToast(e, "success", fmt.Sprintf("Imported %d rows", len(res.Created)))
		return e.JSON(http.StatusOK, importResponse{Result: &res})
	}
}

// HandleImportTemplate serves the blank import workbook.
// Route: GET /projects/{projectId}/estimate/import/template
func HandleImportTemplate() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		xlsxBytes, err := services.GenerateImportTemplate()
		if err != nil {
			log.Printf("import_template: failed to generate: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to generate template")
		}

		filename := fmt.Sprintf("Estimate_Template_%d.xlsx", time.Now().Year())
		e.Response.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, filename))
		_, err = e.Response.Write(xlsxBytes)
		return err
	}
}
