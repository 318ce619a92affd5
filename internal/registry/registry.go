// Package registry is the keyed collection of live child windows. It is
// owned by the UI loop: callers must already be serialized, so there is no
// internal locking.
package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aurapanel/aurapanel/internal/model"
)

var (
	// ErrDuplicateID is returned by Insert when the id is already live.
	ErrDuplicateID = errors.New("duplicate window id")

	// ErrNotFound is returned for operations against an id that is not
	// live.
	ErrNotFound = errors.New("window not found")
)

// Registry maps window ids to records with a label reverse index.
type Registry struct {
	logger  *slog.Logger
	byID    map[string]*model.WindowRecord
	byLabel map[string]string
}

// New returns an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:  logger,
		byID:    make(map[string]*model.WindowRecord),
		byLabel: make(map[string]string),
	}
}

// Insert adds a record. The id must not be live.
func (r *Registry) Insert(rec model.WindowRecord) error {
	if _, exists := r.byID[rec.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	stored := rec
	r.byID[rec.ID] = &stored
	r.byLabel[rec.Label] = rec.ID
	return nil
}

// LookupByID returns a copy of the record for id.
func (r *Registry) LookupByID(id string) (model.WindowRecord, bool) {
	rec, ok := r.byID[id]
	if !ok {
		return model.WindowRecord{}, false
	}
	return *rec, true
}

// LookupByLabel resolves a native label to its record.
func (r *Registry) LookupByLabel(label string) (model.WindowRecord, bool) {
	id, ok := r.byLabel[label]
	if !ok {
		return model.WindowRecord{}, false
	}
	return r.LookupByID(id)
}

// UpdateRectangle records a new solved rectangle for id.
func (r *Registry) UpdateRectangle(id string, rect model.Rect) error {
	rec, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec.Rectangle = rect
	return nil
}

// SetStatus moves the record through its lifecycle.
func (r *Registry) SetStatus(id string, status model.Status) error {
	rec, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec.Status = status
	return nil
}

// SetPosition replaces the stored declarative descriptor for id.
func (r *Registry) SetPosition(id string, pos model.Position) error {
	rec, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec.Position = &pos
	return nil
}

// Remove deletes the record, freeing the id for reuse. Removing a missing
// id is a no-op.
func (r *Registry) Remove(id string) {
	rec, ok := r.byID[id]
	if !ok {
		r.logger.Debug("remove of unknown window id", "id", id)
		return
	}
	delete(r.byLabel, rec.Label)
	delete(r.byID, id)
}

// All returns copies of every live record, in unspecified order.
func (r *Registry) All() []model.WindowRecord {
	out := make([]model.WindowRecord, 0, len(r.byID))
	for _, rec := range r.byID {
		out = append(out, *rec)
	}
	return out
}

// Count returns the number of live records.
func (r *Registry) Count() int { return len(r.byID) }
