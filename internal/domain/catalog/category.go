package catalog

import (
	"strings"

	"github.com/erp/edisync/internal/domain/shared"
	"github.com/google/uuid"
)

// Category is a node of the product category tree.
// IgnoredInExport excludes the category and everything below it from partner exchange.
type Category struct {
	shared.BaseEntity
	Name            string
	ParentID        *uuid.UUID
	IgnoredInExport bool
}

// NewCategory creates a root category
func NewCategory(name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
	}, nil
}

// NewChildCategory creates a category under parent
func NewChildCategory(name string, parent *Category) (*Category, error) {
	if parent == nil {
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent category is required")
	}
	c, err := NewCategory(name)
	if err != nil {
		return nil, err
	}
	parentID := parent.ID
	c.ParentID = &parentID
	return c, nil
}

// CategorySet is a set of category IDs
type CategorySet map[uuid.UUID]struct{}

// Contains reports whether id is in the set. A nil id is never contained.
func (s CategorySet) Contains(id *uuid.UUID) bool {
	if id == nil || s == nil {
		return false
	}
	_, ok := s[*id]
	return ok
}

// IgnoredCategories returns every category flagged IgnoredInExport together with
// all of its descendants.
func IgnoredCategories(all []Category) CategorySet {
	children := make(map[uuid.UUID][]uuid.UUID, len(all))
	queue := make([]uuid.UUID, 0)
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
		if c.IgnoredInExport {
			queue = append(queue, c.ID)
		}
	}

	set := make(CategorySet, len(queue))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := set[id]; seen {
			continue
		}
		set[id] = struct{}{}
		queue = append(queue, children[id]...)
	}
	return set
}
