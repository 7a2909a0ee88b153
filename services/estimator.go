package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Export formats accepted by Estimator.Export.
const (
	FormatSpreadsheet = "xlsx"
	FormatDocument    = "pdf"
)

// EstimatorOptions are the values loaded once at startup.
type EstimatorOptions struct {
	Rates       Rates
	Columns     ColumnSet // default visible columns
	Currency    string
	TitlePrefix string
}

// DefaultEstimatorOptions returns the built-in rates with amount-only columns.
func DefaultEstimatorOptions() EstimatorOptions {
	return EstimatorOptions{
		Rates:   DefaultRates(),
		Columns: NewColumnSet(ColQuantity, ColUnit, ColRate, ColAmount),
	}
}

// Estimator runs the fetch → build → filter → export pipeline for one
// project at a time. Every mutation is written to the store first and the
// tree is then rebuilt from a fresh fetch; nothing is patched in place.
type Estimator struct {
	store Store
	opts  EstimatorOptions
}

// NewEstimator returns an Estimator over store.
func NewEstimator(store Store, opts EstimatorOptions) *Estimator {
	if opts.Columns == nil {
		opts.Columns = DefaultEstimatorOptions().Columns
	}
	return &Estimator{store: store, opts: opts}
}

// Options returns the startup options.
func (e *Estimator) Options() EstimatorOptions {
	return e.opts
}

// Project returns the project.
func (e *Estimator) Project(ctx context.Context, projectID string) (Project, error) {
	return e.store.FindProject(ctx, projectID)
}

// Projects lists every project, newest first.
func (e *Estimator) Projects(ctx context.Context) ([]Project, error) {
	return e.store.ListProjects(ctx)
}

// CreateProject stores a new unlocked project.
func (e *Estimator) CreateProject(ctx context.Context, p Project) (Project, error) {
	return e.store.CreateProject(ctx, p)
}

// Load fetches the project's records and builds the full tree.
func (e *Estimator) Load(ctx context.Context, projectID string) (Forest, error) {
	items, err := e.store.FetchItems(ctx, projectID)
	if err != nil {
		return Forest{}, err
	}
	forest := BuildTree(items, e.opts.Rates)
	logExclusions(projectID, forest.Report)
	return forest, nil
}

// View loads the tree and applies f.
func (e *Estimator) View(ctx context.Context, projectID string, f Filter) (Forest, error) {
	forest, err := e.Load(ctx, projectID)
	if err != nil {
		return Forest{}, err
	}
	return FilterTree(forest, f), nil
}

// ExportRequest selects what Export renders.
type ExportRequest struct {
	Format  string
	Filter  Filter
	Columns ColumnSet // nil selects the default columns
	Now     time.Time // zero means time.Now()
}

// ExportResult is a rendered file.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Export renders the filtered estimate of a project as a spreadsheet or a
// paginated document.
func (e *Estimator) Export(ctx context.Context, projectID string, req ExportRequest) (ExportResult, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format != FormatSpreadsheet && format != FormatDocument {
		return ExportResult{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format)
	}

	project, err := e.store.FindProject(ctx, projectID)
	if err != nil {
		return ExportResult{}, err
	}
	forest, err := e.View(ctx, projectID, req.Filter)
	if err != nil {
		return ExportResult{}, err
	}

	cols := req.Columns
	if cols == nil {
		cols = e.opts.Columns
	}
	meta := ExportMeta{
		Title:       strings.TrimSpace(e.opts.TitlePrefix + " " + project.Name),
		Reference:   project.ReferenceNumber,
		Currency:    e.opts.Currency,
		GeneratedAt: req.Now,
		Filter:      req.Filter,
	}

	res := ExportResult{Filename: exportFilename(project.Name, format)}
	switch format {
	case FormatSpreadsheet:
		res.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		res.Body, err = ExportToSpreadsheet(forest, cols, meta)
	case FormatDocument:
		res.ContentType = "application/pdf"
		res.Body, err = ExportToDocument(forest, cols, meta)
	}
	if err != nil {
		return ExportResult{}, err
	}
	return res, nil
}

// exportFilename builds a download name from the project name.
func exportFilename(name, format string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, strings.TrimSpace(name))
	if safe == "" {
		safe = "estimate"
	}
	return safe + "_estimate." + format
}

// ── Mutations ───────────────────────────────────────────────────────────

// checkUnlocked refuses mutations on a locked project.
func (e *Estimator) checkUnlocked(ctx context.Context, projectID string) error {
	project, err := e.store.FindProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project.Locked {
		return ErrEstimateLocked
	}
	return nil
}

// checkOwned makes sure id is a record of the project.
func (e *Estimator) checkOwned(ctx context.Context, projectID, id string) error {
	items, err := e.store.FetchItems(ctx, projectID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.ID == id {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// reload rebuilds the tree after a committed write.
func (e *Estimator) reload(ctx context.Context, projectID string) (Forest, error) {
	forest, err := e.Load(ctx, projectID)
	if err != nil {
		return Forest{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return forest, nil
}

// CreateItem stores a new record and returns it with the rebuilt tree. When
// only the reload fails the created record is still returned.
func (e *Estimator) CreateItem(ctx context.Context, projectID string, item EstimateItem) (EstimateItem, Forest, error) {
	if err := e.checkUnlocked(ctx, projectID); err != nil {
		return EstimateItem{}, Forest{}, err
	}
	item.ProjectID = projectID
	created, err := e.store.CreateItem(ctx, item)
	if err != nil {
		return EstimateItem{}, Forest{}, err
	}
	forest, err := e.reload(ctx, projectID)
	return created, forest, err
}

// UpdateItem applies fields to one record and returns the rebuilt tree.
func (e *Estimator) UpdateItem(ctx context.Context, projectID, id string, fields ItemFields) (Forest, error) {
	if err := e.checkUnlocked(ctx, projectID); err != nil {
		return Forest{}, err
	}
	if err := e.checkOwned(ctx, projectID, id); err != nil {
		return Forest{}, err
	}
	if err := e.store.UpdateItem(ctx, id, fields); err != nil {
		return Forest{}, err
	}
	return e.reload(ctx, projectID)
}

// DeleteItem removes a record with its descendants and returns the rebuilt
// tree.
func (e *Estimator) DeleteItem(ctx context.Context, projectID, id string) (Forest, error) {
	if err := e.checkUnlocked(ctx, projectID); err != nil {
		return Forest{}, err
	}
	if err := e.checkOwned(ctx, projectID, id); err != nil {
		return Forest{}, err
	}
	if err := e.store.DeleteItem(ctx, id); err != nil {
		return Forest{}, err
	}
	return e.reload(ctx, projectID)
}

// SetLocked toggles the project's lock flag. Locking never affects reads.
func (e *Estimator) SetLocked(ctx context.Context, projectID string, locked bool) error {
	return e.store.SetLocked(ctx, projectID, locked)
}

// Import creates rows one at a time in file order. It stops at the first
// failure; rows created before it are kept and listed in the result.
func (e *Estimator) Import(ctx context.Context, projectID string, rows []ImportRow) (ImportResult, error) {
	res := ImportResult{Total: len(rows)}
	if err := e.checkUnlocked(ctx, projectID); err != nil {
		return res, err
	}

	ids := make(map[string]string, len(rows)) // index → created id
	for i, row := range rows {
		item, err := row.item(projectID, ids)
		if err == nil {
			item, err = e.store.CreateItem(ctx, item)
		}
		if err != nil {
			res.Failed = &ImportFailure{Row: row.Row, Index: row.Index, Message: err.Error()}
			res.NotAttempted = len(rows) - i - 1
			log.Printf("estimate_import: project %s stopped at row %d: %v", projectID, row.Row, err)
			return res, nil
		}
		ids[row.Index] = item.ID
		res.Created = append(res.Created, ImportedRow{Row: row.Row, Index: row.Index, ID: item.ID})
	}
	return res, nil
}

// IsUserError reports whether err comes from bad input rather than from the
// store being unavailable.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidItem) ||
		errors.Is(err, ErrInvalidProject) ||
		errors.Is(err, ErrInvalidLevel) ||
		errors.Is(err, ErrParentNotFound) ||
		errors.Is(err, ErrUnsupportedFormat)
}

func logExclusions(projectID string, report BuildReport) {
	if len(report.Excluded) == 0 {
		return
	}
	ids := make([]string, 0, len(report.Excluded))
	for _, ex := range report.Excluded {
		ids = append(ids, fmt.Sprintf("%s (%s)", ex.ID, ex.Reason))
	}
	log.Printf("estimate_tree: project %s placed %d of %d records, excluded: %s",
		projectID, report.Placed, report.Input, strings.Join(ids, ", "))
}
