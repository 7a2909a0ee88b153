package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Collection names used by RecordStore.
const (
	ProjectsCollection      = "projects"
	EstimateItemsCollection = "estimate_items"
)

// RecordStore is the PocketBase backed Store.
type RecordStore struct {
	app *pocketbase.PocketBase
}

// NewRecordStore returns a store over the app's collections.
func NewRecordStore(app *pocketbase.PocketBase) *RecordStore {
	return &RecordStore{app: app}
}

var _ Store = (*RecordStore)(nil)

// ── Items ───────────────────────────────────────────────────────────────

// FetchItems returns every estimate record of the project.
func (s *RecordStore) FetchItems(ctx context.Context, projectID string) ([]EstimateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := s.app.FindRecordsByFilter(
		EstimateItemsCollection,
		"project = {:project}",
		"sort_order,created",
		0, 0,
		map[string]any{"project": projectID},
	)
	if err != nil {
		return nil, fmt.Errorf("fetch estimate items: %w", err)
	}

	items := make([]EstimateItem, 0, len(records))
	for _, r := range records {
		items = append(items, itemFromRecord(r))
	}
	return items, nil
}

// CreateItem validates and stores a new record. A zero Order places the
// record after its current siblings.
func (s *RecordStore) CreateItem(ctx context.Context, item EstimateItem) (EstimateItem, error) {
	if err := ctx.Err(); err != nil {
		return EstimateItem{}, err
	}

	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return EstimateItem{}, fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if item.Level < LevelStructure || item.Level > LevelItem {
		return EstimateItem{}, fmt.Errorf("%w: %d", ErrInvalidLevel, item.Level)
	}
	if _, err := s.findProjectRecord(item.ProjectID); err != nil {
		return EstimateItem{}, err
	}

	if item.Level == LevelStructure {
		if item.ParentID != "" {
			return EstimateItem{}, fmt.Errorf("%w: a structure has no parent", ErrInvalidLevel)
		}
	} else {
		if item.ParentID == "" {
			return EstimateItem{}, fmt.Errorf("%w: %s requires a parent", ErrInvalidLevel, strings.ToLower(LevelName(item.Level)))
		}
		parent, err := s.app.FindRecordById(EstimateItemsCollection, item.ParentID)
		if err != nil || parent.GetString("project") != item.ProjectID {
			return EstimateItem{}, fmt.Errorf("%w: %s", ErrParentNotFound, item.ParentID)
		}
		if parent.GetInt("level") != item.Level-1 {
			return EstimateItem{}, fmt.Errorf("%w: %s cannot be placed under a %s", ErrInvalidLevel,
				strings.ToLower(LevelName(item.Level)), strings.ToLower(LevelName(parent.GetInt("level"))))
		}
	}

	if err := checkItemValues(item); err != nil {
		return EstimateItem{}, err
	}
	if item.IsLeaf() && item.Status == "" {
		item.Status = StatusDraft
	}

	if item.Order <= 0 {
		next, err := s.nextOrder(item.ProjectID, item.ParentID)
		if err != nil {
			return EstimateItem{}, err
		}
		item.Order = next
	}

	col, err := s.app.FindCollectionByNameOrId(EstimateItemsCollection)
	if err != nil {
		return EstimateItem{}, fmt.Errorf("find %s collection: %w", EstimateItemsCollection, err)
	}
	record := core.NewRecord(col)
	record.Set("project", item.ProjectID)
	record.Set("parent", item.ParentID)
	record.Set("level", item.Level)
	record.Set("name", item.Name)
	record.Set("sort_order", item.Order)
	setLeafValues(record, item)

	if err := s.app.Save(record); err != nil {
		return EstimateItem{}, fmt.Errorf("save estimate item: %w", err)
	}
	return itemFromRecord(record), nil
}

// UpdateItem applies a partial update. Quantity, unit, unit cost and status
// may only be set on level-2 records.
func (s *RecordStore) UpdateItem(ctx context.Context, id string, fields ItemFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	record, err := s.findItemRecord(id)
	if err != nil {
		return err
	}

	item := itemFromRecord(record)
	if !item.IsLeaf() && (fields.Quantity != nil || fields.Unit != nil || fields.UnitCost != nil || fields.Status != nil) {
		return fmt.Errorf("%w: quantity, unit, rate and status only apply to items", ErrInvalidItem)
	}

	if fields.Name != nil {
		item.Name = strings.TrimSpace(*fields.Name)
		if item.Name == "" {
			return fmt.Errorf("%w: name is required", ErrInvalidItem)
		}
	}
	if fields.Order != nil {
		item.Order = *fields.Order
	}
	if fields.Quantity != nil {
		item.Quantity = *fields.Quantity
	}
	if fields.Unit != nil {
		item.Unit = strings.TrimSpace(*fields.Unit)
	}
	if fields.UnitCost != nil {
		item.UnitCost = *fields.UnitCost
	}
	if fields.Status != nil {
		item.Status = *fields.Status
	}
	if err := checkItemValues(item); err != nil {
		return err
	}

	record.Set("name", item.Name)
	record.Set("sort_order", item.Order)
	setLeafValues(record, item)

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("update estimate item: %w", err)
	}
	return nil
}

// DeleteItem removes the record. Descendants go with it through the cascading
// parent relation.
func (s *RecordStore) DeleteItem(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	record, err := s.findItemRecord(id)
	if err != nil {
		return err
	}
	if err := s.app.Delete(record); err != nil {
		return fmt.Errorf("delete estimate item: %w", err)
	}
	return nil
}

func (s *RecordStore) findItemRecord(id string) (*core.Record, error) {
	record, err := s.app.FindRecordById(EstimateItemsCollection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		return nil, fmt.Errorf("find estimate item: %w", err)
	}
	return record, nil
}

// nextOrder returns one past the highest sibling order.
func (s *RecordStore) nextOrder(projectID, parentID string) (int, error) {
	// An unset relation only matches the empty literal, not an empty param.
	filter := "project = {:project} && parent = {:parent}"
	if parentID == "" {
		filter = "project = {:project} && parent = ''"
	}
	records, err := s.app.FindRecordsByFilter(
		EstimateItemsCollection,
		filter,
		"-sort_order",
		1, 0,
		map[string]any{"project": projectID, "parent": parentID},
	)
	if err != nil {
		return 0, fmt.Errorf("find sibling order: %w", err)
	}
	if len(records) == 0 {
		return 1, nil
	}
	return records[0].GetInt("sort_order") + 1, nil
}

// checkItemValues rejects values a record can never hold.
func checkItemValues(item EstimateItem) error {
	if !item.IsLeaf() {
		if item.Quantity != 0 || item.UnitCost != 0 || item.Unit != "" || item.Status != "" {
			return fmt.Errorf("%w: quantity, unit, rate and status only apply to items", ErrInvalidItem)
		}
		return nil
	}
	for name, v := range map[string]float64{"quantity": item.Quantity, "unit cost": item.UnitCost} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidItem, name)
		}
	}
	if item.Status != "" && !ValidStatus(item.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidItem, item.Status)
	}
	return nil
}

// setLeafValues writes the priced fields. The stored amount of a structure or
// element is always zero; it is derived on every read.
func setLeafValues(record *core.Record, item EstimateItem) {
	if !item.IsLeaf() {
		record.Set("quantity", 0)
		record.Set("unit", "")
		record.Set("unit_cost", 0)
		record.Set("amount", 0)
		record.Set("status", "")
		return
	}
	record.Set("quantity", item.Quantity)
	record.Set("unit", item.Unit)
	record.Set("unit_cost", item.UnitCost)
	record.Set("amount", CalcLeafAmount(item.Quantity, item.UnitCost))
	record.Set("status", item.Status)
}

func itemFromRecord(r *core.Record) EstimateItem {
	return EstimateItem{
		ID:        r.Id,
		ProjectID: r.GetString("project"),
		ParentID:  r.GetString("parent"),
		Name:      r.GetString("name"),
		Level:     r.GetInt("level"),
		Order:     r.GetInt("sort_order"),
		Quantity:  r.GetFloat("quantity"),
		Unit:      r.GetString("unit"),
		UnitCost:  r.GetFloat("unit_cost"),
		Amount:    r.GetFloat("amount"),
		Status:    r.GetString("status"),
		CreatedAt: r.GetDateTime("created").Time(),
		UpdatedAt: r.GetDateTime("updated").Time(),
	}
}

// ── Projects ────────────────────────────────────────────────────────────

// ListProjects returns all projects, newest first.
func (s *RecordStore) ListProjects(ctx context.Context) ([]Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := s.app.FindAllRecords(ProjectsCollection)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]Project, 0, len(records))
	for _, r := range records {
		projects = append(projects, projectFromRecord(r))
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

// FindProject returns a single project.
func (s *RecordStore) FindProject(ctx context.Context, id string) (Project, error) {
	if err := ctx.Err(); err != nil {
		return Project{}, err
	}
	record, err := s.findProjectRecord(id)
	if err != nil {
		return Project{}, err
	}
	return projectFromRecord(record), nil
}

// CreateProject stores a new, unlocked project.
func (s *RecordStore) CreateProject(ctx context.Context, p Project) (Project, error) {
	if err := ctx.Err(); err != nil {
		return Project{}, err
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Project{}, fmt.Errorf("%w: name is required", ErrInvalidProject)
	}

	col, err := s.app.FindCollectionByNameOrId(ProjectsCollection)
	if err != nil {
		return Project{}, fmt.Errorf("find %s collection: %w", ProjectsCollection, err)
	}
	record := core.NewRecord(col)
	record.Set("name", p.Name)
	record.Set("client", strings.TrimSpace(p.Client))
	record.Set("reference_number", strings.TrimSpace(p.ReferenceNumber))
	record.Set("locked", false)
	if err := s.app.Save(record); err != nil {
		return Project{}, fmt.Errorf("save project: %w", err)
	}
	return projectFromRecord(record), nil
}

// SetLocked sets the project's lock flag.
func (s *RecordStore) SetLocked(ctx context.Context, id string, locked bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	record, err := s.findProjectRecord(id)
	if err != nil {
		return err
	}
	record.Set("locked", locked)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func (s *RecordStore) findProjectRecord(id string) (*core.Record, error) {
	if id == "" {
		return nil, ErrProjectNotFound
	}
	record, err := s.app.FindRecordById(ProjectsCollection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return record, nil
}

func projectFromRecord(r *core.Record) Project {
	return Project{
		ID:              r.Id,
		Name:            r.GetString("name"),
		Client:          r.GetString("client"),
		ReferenceNumber: r.GetString("reference_number"),
		Locked:          r.GetBool("locked"),
		CreatedAt:       r.GetDateTime("created").Time(),
		UpdatedAt:       r.GetDateTime("updated").Time(),
	}
}
