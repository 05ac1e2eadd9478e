package catalog

import "context"

// CategoryRepository loads the category tree
type CategoryRepository interface {
	FindAll(ctx context.Context) ([]Category, error)
	Save(ctx context.Context, category *Category) error
}
