package services

import "time"

// Hierarchy levels of a bill of quantities.
const (
	LevelStructure = 0
	LevelElement   = 1
	LevelItem      = 2
)

// Leaf workflow statuses. StatusAll is only a filter selector.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusAll       = "all"
)

// StatusOptions lists the statuses a leaf item can carry.
var StatusOptions = []string{StatusDraft, StatusSubmitted, StatusApproved, StatusRejected}

// EstimateItem is one flat estimate record as held by the store.
//
// Amount is only meaningful for level-2 items. For structures and elements
// the stored value is ignored and recomputed from the children.
type EstimateItem struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project"`
	ParentID  string    `json:"parent_id,omitempty"` // empty for level 0
	Name      string    `json:"name"`
	Level     int       `json:"level"`
	Order     int       `json:"order"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	UnitCost  float64   `json:"unit_cost"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLeaf reports whether the item is a priced line (level 2).
func (it EstimateItem) IsLeaf() bool {
	return it.Level == LevelItem
}

// ItemFields is a partial update. Nil fields are left untouched.
type ItemFields struct {
	Name     *string  `json:"name,omitempty"`
	Order    *int     `json:"order,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     *string  `json:"unit,omitempty"`
	UnitCost *float64 `json:"unit_cost,omitempty"`
	Status   *string  `json:"status,omitempty"`
}

// Empty reports whether the update carries no field at all.
func (f ItemFields) Empty() bool {
	return f.Name == nil && f.Order == nil && f.Quantity == nil &&
		f.Unit == nil && f.UnitCost == nil && f.Status == nil
}

// ValidStatus reports whether s is a storable leaf status.
func ValidStatus(s string) bool {
	for _, v := range StatusOptions {
		if v == s {
			return true
		}
	}
	return false
}

// LevelName returns the display name of a hierarchy level.
func LevelName(level int) string {
	switch level {
	case LevelStructure:
		return "Structure"
	case LevelElement:
		return "Element"
	case LevelItem:
		return "Item"
	}
	return "Unknown"
}
