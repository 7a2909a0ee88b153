package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"bqestimator/services"
)

// itemInput is the body of an item create request.
type itemInput struct {
	ParentID string  `json:"parent_id" form:"parent_id"`
	Level    *int    `json:"level" form:"level"`
	Name     string  `json:"name" form:"name"`
	Order    int     `json:"order" form:"order"`
	Quantity float64 `json:"quantity" form:"quantity"`
	Unit     string  `json:"unit" form:"unit"`
	UnitCost float64 `json:"unit_cost" form:"unit_cost"`
	Status   string  `json:"status" form:"status"`
}

// patchInput is the body of an item update request. Absent fields are left
// unchanged.
type patchInput struct {
	Name     *string  `json:"name" form:"name"`
	Order    *int     `json:"order" form:"order"`
	Quantity *float64 `json:"quantity" form:"quantity"`
	Unit     *string  `json:"unit" form:"unit"`
	UnitCost *float64 `json:"unit_cost" form:"unit_cost"`
	Status   *string  `json:"status" form:"status"`
}

func (p patchInput) fields() services.ItemFields {
	return services.ItemFields{
		Name:     p.Name,
		Order:    p.Order,
		Quantity: p.Quantity,
		Unit:     p.Unit,
		UnitCost: p.UnitCost,
		Status:   p.Status,
	}
}

// HandleItemCreate adds a structure, element or item and answers with the
// rebuilt table.
func HandleItemCreate(est *services.Estimator) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")

		var in itemInput
		if err := e.BindBody(&in); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid request body")
		}
		if in.Level == nil {
			return ErrorToast(e, http.StatusBadRequest, "Level is required")
		}

		created, forest, err := est.CreateItem(e.Request.Context(), projectID, services.EstimateItem{
			ParentID: in.ParentID,
			Level:    *in.Level,
			Name:     in.Name,
			Order:    in.Order,
			Quantity: in.Quantity,
			Unit:     in.Unit,
			UnitCost: in.UnitCost,
			Status:   in.Status,
		})
		if errors.Is(err, services.ErrRefreshFailed) {
			return savedButStale(e, "create_item", err, http.StatusCreated, created,
				services.LevelName(created.Level)+" added")
		}
		if err != nil {
			return failWith(e, "create_item", err)
		}

		SetToast(e, "success", services.LevelName(created.Level)+" added")
		return respondTable(e, est, projectID, forest, http.StatusCreated)
	}
}

// HandleItemPatch updates individual fields of a record.
func HandleItemPatch(est *services.Estimator) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		itemID := e.Request.PathValue("itemId")
		if itemID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing item ID")
		}

		var in patchInput
		if err := e.BindBody(&in); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid request body")
		}
		fields := in.fields()
		if fields.Empty() {
			return ErrorToast(e, http.StatusBadRequest, "Nothing to update")
		}

		forest, err := est.UpdateItem(e.Request.Context(), projectID, itemID, fields)
		if errors.Is(err, services.ErrRefreshFailed) {
			return savedButStale(e, "patch_item", err, http.StatusOK, map[string]any{"id": itemID}, "Saved")
		}
		if err != nil {
			return failWith(e, "patch_item", err)
		}

		SetToast(e, "success", "Saved")
		return respondTable(e, est, projectID, forest, http.StatusOK)
	}
}

// HandleItemDelete removes a record; the store deletes its descendants.
func HandleItemDelete(est *services.Estimator) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		itemID := e.Request.PathValue("itemId")
		if itemID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing item ID")
		}

		forest, err := est.DeleteItem(e.Request.Context(), projectID, itemID)
		if errors.Is(err, services.ErrRefreshFailed) {
			return savedButStale(e, "delete_item", err, http.StatusOK,
				map[string]any{"id": itemID, "deleted": true}, "Item deleted")
		}
		if err != nil {
			return failWith(e, "delete_item", err)
		}

		SetToast(e, "success", "Item deleted")
		return respondTable(e, est, projectID, forest, http.StatusOK)
	}
}

// savedButStale answers a committed write whose table refresh failed. HTMX
// clients reload the page; others get body instead of the table.
func savedButStale(e *core.RequestEvent, op string, err error, status int, body any, done string) error {
	log.Printf("%s: %v", op, err)
	SetToast(e, "warning", done+", but the table could not be refreshed. Reload the page.")
	if isHTMX(e) {
		e.Response.Header().Set("HX-Refresh", "true")
		e.Response.Header().Set("HX-Reswap", "none")
		return e.NoContent(status)
	}
	return e.JSON(status, body)
}
