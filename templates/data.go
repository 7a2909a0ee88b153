// Package templates holds the templ components for the estimate pages.
// Run `templ generate` after editing a .templ file.
package templates

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"bqestimator/services"
)

// EstimatePageData is everything the estimate page shows.
type EstimatePageData struct {
	ProjectID   string
	ProjectName string
	Client      string
	Reference   string
	Locked      bool
	Currency    string
	Filter      services.Filter
	Table       services.Table
	// Excluded counts records the tree builder could not place.
	Excluded int
}

// query returns the current filter and column selection as a query string.
func (d EstimatePageData) query() string {
	v := url.Values{}
	if d.Filter.Search != "" {
		v.Set("search", d.Filter.Search)
	}
	if d.Filter.Status != "" {
		v.Set("status", d.Filter.Status)
	}
	if len(d.Table.Columns) > 0 {
		v.Set("cols", d.Table.Columns.String())
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (d EstimatePageData) base() string {
	return projectEstimateURL(d.ProjectID)
}

// ProjectListItem is one row of the project list.
type ProjectListItem struct {
	ID              string
	Name            string
	Client          string
	ReferenceNumber string
	Locked          bool
	CreatedDate     string
}

func projectEstimateURL(id string) string {
	return "/projects/" + url.PathEscape(id) + "/estimate"
}

func projectSubtitle(d EstimatePageData) string {
	if d.Reference == "" {
		return d.Client
	}
	if d.Client == "" {
		return "Ref " + d.Reference
	}
	return d.Client + " · Ref " + d.Reference
}

func lockAction(locked bool) (path, label string) {
	if locked {
		return "unlock", "Unlock estimate"
	}
	return "lock", "Lock estimate"
}

func lockURL(d EstimatePageData) string {
	path, _ := lockAction(d.Locked)
	return d.base() + "/" + path
}

func lockLabel(locked bool) string {
	_, label := lockAction(locked)
	return label
}

func statusChoices() []string {
	return append([]string{services.StatusAll}, services.StatusOptions...)
}

func selectedStatus(f services.Filter) string {
	if f.Status == "" {
		return services.StatusAll
	}
	return f.Status
}

func statusLabel(s string) string {
	switch s {
	case "":
		return ""
	case services.StatusAll:
		return "All statuses"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func excludedMessage(n int) string {
	return fmt.Sprintf("%d records could not be placed in the estimate and are hidden.", n)
}

func emptyMessage(f services.Filter) string {
	if f.IsZero() {
		return "No items yet."
	}
	return "No items match the current filter."
}

func rowClass(level int) string {
	return fmt.Sprintf("level-%d", level)
}

func cellClass(c services.Column) string {
	if c == services.ColUnit {
		return "unit"
	}
	return "num"
}

func indent(level int) templ.Attributes {
	return templ.Attributes{"style": fmt.Sprintf("padding-left:%dem", 1+level*2)}
}

func deleteAttrs(d EstimatePageData, r services.RowRecord) templ.Attributes {
	return templ.Attributes{
		"hx-delete":  d.base() + "/items/" + url.PathEscape(r.ID),
		"hx-confirm": "Delete " + r.Name + " and everything under it?",
		"hx-target":  "#estimate-table",
	}
}

// totalCell is the footer text for c; leaf-only columns have no total.
func totalCell(d EstimatePageData, c services.Column) string {
	if c.LeafOnly() {
		return ""
	}
	return services.FormatAmount(services.RowRecord{Breakdown: d.Table.Totals}.Value(c), d.Currency)
}
