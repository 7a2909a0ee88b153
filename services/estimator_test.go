package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"
)

// memStore is an in-memory Store. failOn makes CreateItem fail for a name.
type memStore struct {
	projects map[string]Project
	items    []EstimateItem
	nextID   int
	failOn   string
	fetchErr error
	// reloadErr becomes fetchErr once a create has been stored.
	reloadErr error
}

func newMemStore(items ...EstimateItem) *memStore {
	s := &memStore{projects: map[string]Project{"p1": {ID: "p1", Name: "Demo House", ReferenceNumber: "BQ-7"}}}
	for _, it := range items {
		it.ProjectID = "p1"
		s.items = append(s.items, it)
	}
	return s
}

func (s *memStore) FetchItems(_ context.Context, projectID string) ([]EstimateItem, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []EstimateItem
	for _, it := range s.items {
		if it.ProjectID == projectID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *memStore) CreateItem(_ context.Context, item EstimateItem) (EstimateItem, error) {
	if item.Name == s.failOn {
		return EstimateItem{}, fmt.Errorf("%w: rejected", ErrInvalidItem)
	}
	s.nextID++
	item.ID = fmt.Sprintf("n%d", s.nextID)
	s.items = append(s.items, item)
	if s.reloadErr != nil {
		s.fetchErr = s.reloadErr
	}
	return item, nil
}

func (s *memStore) UpdateItem(_ context.Context, id string, f ItemFields) error {
	for i := range s.items {
		if s.items[i].ID == id {
			if f.Quantity != nil {
				s.items[i].Quantity = *f.Quantity
			}
			if f.Name != nil {
				s.items[i].Name = *f.Name
			}
			return nil
		}
	}
	return ErrItemNotFound
}

func (s *memStore) DeleteItem(_ context.Context, id string) error {
	gone := map[string]bool{id: true}
	// parents come before children in sampleItems
	kept := s.items[:0]
	for _, it := range s.items {
		if gone[it.ID] || gone[it.ParentID] {
			gone[it.ID] = true
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	return nil
}

func (s *memStore) ListProjects(context.Context) ([]Project, error) {
	var out []Project
	for _, p := range s.projects {
		out = append(out, p)
	}
	return out, nil
}

func (s *memStore) FindProject(_ context.Context, id string) (Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	return p, nil
}

func (s *memStore) CreateProject(_ context.Context, p Project) (Project, error) {
	p.ID = "p" + fmt.Sprint(len(s.projects)+1)
	s.projects[p.ID] = p
	return p, nil
}

func (s *memStore) SetLocked(_ context.Context, id string, locked bool) error {
	p, ok := s.projects[id]
	if !ok {
		return ErrProjectNotFound
	}
	p.Locked = locked
	s.projects[id] = p
	return nil
}

func TestEstimator_View(t *testing.T) {
	e := NewEstimator(newMemStore(sampleItems()...), DefaultEstimatorOptions())

	tests := []struct {
		search string
		want   []string
		total  float64
	}{
		// A matching element survives, but its leaves still have to match.
		{"walling", []string{"s2", "e3"}, 0},
		{"block", []string{"s2", "e3", "i4"}, 300},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			forest, err := e.View(context.Background(), "p1", Filter{Search: tt.search})
			if err != nil {
				t.Fatalf("View() error = %v", err)
			}
			if got := nodeIDs(forest.Roots); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
			if got := forest.Totals().Amount; got != tt.total {
				t.Errorf("total = %v, want %v", got, tt.total)
			}
		})
	}
}

func TestEstimator_LoadError(t *testing.T) {
	store := newMemStore()
	store.fetchErr = errors.New("connection refused")
	e := NewEstimator(store, DefaultEstimatorOptions())

	if _, err := e.Load(context.Background(), "p1"); err == nil {
		t.Error("expected fetch error")
	}
}

func TestEstimator_MutationsRebuild(t *testing.T) {
	store := newMemStore(sampleItems()...)
	e := NewEstimator(store, DefaultEstimatorOptions())
	ctx := context.Background()

	created, forest, err := e.CreateItem(ctx, "p1", EstimateItem{ParentID: "e3", Level: LevelItem, Name: "Lintel", Quantity: 2, UnitCost: 50})
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	if created.ProjectID != "p1" {
		t.Errorf("created project = %q", created.ProjectID)
	}
	if got := forest.Totals().Amount; got != 850 {
		t.Errorf("after create amount = %v, want 850", got)
	}

	qty := 200.0
	forest, err = e.UpdateItem(ctx, "p1", "i4", ItemFields{Quantity: &qty})
	if err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	if got := findNode(forest.Roots, "s2").Amount(); got != 700 {
		t.Errorf("after update s2 = %v, want 700", got)
	}

	forest, err = e.DeleteItem(ctx, "p1", "s1")
	if err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	if got := forest.Totals().Amount; got != 700 {
		t.Errorf("after delete amount = %v, want 700", got)
	}
	if forest.Len() != 4 {
		t.Errorf("after delete nodes = %d, want 4", forest.Len())
	}
}

func TestEstimator_CreateReloadFailure(t *testing.T) {
	store := newMemStore(sampleItems()...)
	store.reloadErr = errors.New("database is locked")
	e := NewEstimator(store, DefaultEstimatorOptions())

	created, _, err := e.CreateItem(context.Background(), "p1", EstimateItem{ParentID: "e3", Level: LevelItem, Name: "Lintel", Quantity: 2, UnitCost: 50})
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("err = %v, want ErrRefreshFailed", err)
	}
	if created.ID == "" || created.Name != "Lintel" {
		t.Errorf("created = %+v, want the stored item", created)
	}
	if len(store.items) != len(sampleItems())+1 {
		t.Errorf("items = %d, the write should stand", len(store.items))
	}
}

func TestEstimator_Locked(t *testing.T) {
	store := newMemStore(sampleItems()...)
	e := NewEstimator(store, DefaultEstimatorOptions())
	ctx := context.Background()

	if err := e.SetLocked(ctx, "p1", true); err != nil {
		t.Fatalf("SetLocked() error = %v", err)
	}

	if _, _, err := e.CreateItem(ctx, "p1", EstimateItem{Level: LevelStructure, Name: "X"}); !errors.Is(err, ErrEstimateLocked) {
		t.Errorf("CreateItem err = %v, want ErrEstimateLocked", err)
	}
	if _, err := e.DeleteItem(ctx, "p1", "i1"); !errors.Is(err, ErrEstimateLocked) {
		t.Errorf("DeleteItem err = %v, want ErrEstimateLocked", err)
	}
	if _, err := e.Import(ctx, "p1", []ImportRow{{Row: 2, Index: "1", Name: "S"}}); !errors.Is(err, ErrEstimateLocked) {
		t.Errorf("Import err = %v, want ErrEstimateLocked", err)
	}

	// Reads are unaffected.
	if _, err := e.View(ctx, "p1", Filter{}); err != nil {
		t.Errorf("View() on locked project error = %v", err)
	}
	if len(store.items) != 9 {
		t.Errorf("store changed while locked: %d items", len(store.items))
	}
}

func TestEstimator_ForeignItem(t *testing.T) {
	store := newMemStore(sampleItems()...)
	store.projects["p2"] = Project{ID: "p2", Name: "Other"}
	e := NewEstimator(store, DefaultEstimatorOptions())

	if _, err := e.DeleteItem(context.Background(), "p2", "i1"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("err = %v, want ErrItemNotFound", err)
	}
}

func TestEstimator_ImportStopsAtFirstFailure(t *testing.T) {
	store := newMemStore()
	store.failOn = "Broken"
	e := NewEstimator(store, DefaultEstimatorOptions())

	rows := []ImportRow{
		{Row: 2, Index: "1", Name: "Substructure"},
		{Row: 3, Index: "1.1", Name: "Excavation"},
		{Row: 4, Index: "1.1.1", Name: "Broken", Quantity: 1, UnitCost: 1},
		{Row: 5, Index: "1.1.2", Name: "Never tried"},
		{Row: 6, Index: "2", Name: "Never tried either"},
	}
	res, err := e.Import(context.Background(), "p1", rows)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.OK() {
		t.Fatal("expected a failed import")
	}
	if len(res.Created) != 2 || res.Created[1].Index != "1.1" {
		t.Errorf("created = %+v", res.Created)
	}
	if res.Failed == nil || res.Failed.Row != 4 {
		t.Errorf("failed = %+v", res.Failed)
	}
	if res.NotAttempted != 2 {
		t.Errorf("not attempted = %d, want 2", res.NotAttempted)
	}
	if len(store.items) != 2 {
		t.Errorf("store holds %d items, want 2", len(store.items))
	}
}

func TestEstimator_ImportBuildsHierarchy(t *testing.T) {
	store := newMemStore()
	e := NewEstimator(store, DefaultEstimatorOptions())
	ctx := context.Background()

	rows := []ImportRow{
		{Row: 2, Index: "1", Name: "A"},
		{Row: 3, Index: "1.1", Name: "B"},
		{Row: 4, Index: "1.1.1", Name: "C", Quantity: 10, UnitCost: 5},
	}
	res, err := e.Import(ctx, "p1", rows)
	if err != nil || !res.OK() {
		t.Fatalf("Import() = %+v, %v", res, err)
	}

	forest, err := e.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if forest.Len() != 3 || forest.Totals().Amount != 50 {
		t.Errorf("imported forest has %d nodes, amount %v", forest.Len(), forest.Totals().Amount)
	}
}

func TestEstimator_Export(t *testing.T) {
	e := NewEstimator(newMemStore(sampleItems()...), EstimatorOptions{
		Rates:       DefaultRates(),
		Currency:    "KES",
		TitlePrefix: "Bill of Quantities:",
	})
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	for _, format := range []string{FormatSpreadsheet, "PDF"} {
		res, err := e.Export(ctx, "p1", ExportRequest{Format: format, Now: now})
		if err != nil {
			t.Fatalf("Export(%s) error = %v", format, err)
		}
		if len(res.Body) == 0 {
			t.Errorf("Export(%s) returned empty body", format)
		}
	}

	res, err := e.Export(ctx, "p1", ExportRequest{Format: FormatSpreadsheet, Now: now})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Filename != "Demo_House_estimate.xlsx" {
		t.Errorf("filename = %q", res.Filename)
	}
	f, sheet := openSheet(t, res.Body)
	if title, _ := f.GetCellValue(sheet, "A1"); title != "Bill of Quantities: Demo House" {
		t.Errorf("title = %q", title)
	}

	if _, err := e.Export(ctx, "p1", ExportRequest{Format: "docx"}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := e.Export(ctx, "missing", ExportRequest{Format: "pdf"}); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		name, format, want string
	}{
		{"Tower A", "pdf", "Tower_A_estimate.pdf"},
		{"", "xlsx", "estimate_estimate.xlsx"},
		{"a/b:c", "xlsx", "abc_estimate.xlsx"},
	}
	for _, tt := range tests {
		if got := exportFilename(tt.name, tt.format); got != tt.want {
			t.Errorf("exportFilename(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
