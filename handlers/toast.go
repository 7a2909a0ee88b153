package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/pocketbase/pocketbase/core"

	"bqestimator/services"
)

const genericError = "Something went wrong. Please try again."

// SetToast merges a showToast event into the HX-Trigger response header so
// HTMX shows a notification. A short-lived flash cookie carries the same
// toast across regular (non-HTMX) redirects.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	payload := map[string]string{"message": message, "type": toastType}

	trigger := map[string]any{}
	if existing := e.Response.Header().Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &trigger); err != nil {
			log.Printf("toast: existing HX-Trigger is not valid JSON, overwriting: %v", err)
			trigger = map[string]any{}
		}
	}
	trigger["showToast"] = payload

	data, err := json.Marshal(trigger)
	if err != nil {
		log.Printf("toast: failed to marshal HX-Trigger JSON: %v", err)
		return
	}
	e.Response.Header().Set("HX-Trigger", string(data))

	if cookieVal, err := json.Marshal(payload); err == nil {
		http.SetCookie(e.Response, &http.Cookie{
			Name:     "flash_toast",
			Value:    url.QueryEscape(string(cookieVal)),
			Path:     "/",
			MaxAge:   10,
			HttpOnly: false, // read by the toast script
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ErrorToast sets an error toast and tells HTMX not to swap the body.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, "error", message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.String(statusCode, message)
}

// errorStatus maps estimator errors to an HTTP status and a message that is
// safe to show to the user.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrEstimateLocked):
		return http.StatusLocked, "This estimate is locked"
	case errors.Is(err, services.ErrProjectNotFound):
		return http.StatusNotFound, "Project not found"
	case errors.Is(err, services.ErrItemNotFound):
		return http.StatusNotFound, "Item not found"
	case errors.Is(err, services.ErrParentNotFound):
		return http.StatusBadRequest, "Parent item not found"
	case errors.Is(err, services.ErrInvalidLevel):
		return http.StatusBadRequest, "Items must be nested structure > element > item"
	case errors.Is(err, services.ErrUnsupportedFormat):
		return http.StatusBadRequest, "Unsupported file format"
	case errors.Is(err, services.ErrInvalidItem), errors.Is(err, services.ErrInvalidProject):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, genericError
}

// failWith logs err under op and answers with the mapped status.
func failWith(e *core.RequestEvent, op string, err error) error {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s: %v", op, err)
	}
	return ErrorToast(e, status, msg)
}
