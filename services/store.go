package services

import (
	"context"
	"errors"
	"time"
)

var (
	ErrItemNotFound      = errors.New("estimate item not found")
	ErrProjectNotFound   = errors.New("project not found")
	ErrEstimateLocked    = errors.New("estimate is locked")
	ErrInvalidLevel      = errors.New("invalid level")
	ErrParentNotFound    = errors.New("parent item not found")
	ErrInvalidItem       = errors.New("invalid estimate item")
	ErrInvalidProject    = errors.New("invalid project")
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrRefreshFailed means a write was committed but the tree could not be
	// reloaded afterwards.
	ErrRefreshFailed = errors.New("saved, but reloading the estimate failed")
)

// ItemStore is the remote estimate store. Every call may block and may fail.
type ItemStore interface {
	FetchItems(ctx context.Context, projectID string) ([]EstimateItem, error)
	CreateItem(ctx context.Context, item EstimateItem) (EstimateItem, error)
	UpdateItem(ctx context.Context, id string, fields ItemFields) error
	DeleteItem(ctx context.Context, id string) error
}

// Project owns one estimate.
type Project struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Client          string    `json:"client,omitempty"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	Locked          bool      `json:"locked"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProjectStore keeps the projects and their lock flag.
type ProjectStore interface {
	ListProjects(ctx context.Context) ([]Project, error)
	FindProject(ctx context.Context, id string) (Project, error)
	CreateProject(ctx context.Context, p Project) (Project, error)
	SetLocked(ctx context.Context, id string, locked bool) error
}

// Store is everything the Estimator needs.
type Store interface {
	ItemStore
	ProjectStore
}
