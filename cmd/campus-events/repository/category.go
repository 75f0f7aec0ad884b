package repository

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type CategoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) *CategoryRepo {
	return &CategoryRepo{
		db: db,
	}
}

func (r *CategoryRepo) CreateCategory(ctx context.Context, category *model.Category) error {

	result := conn(ctx, r.db).
		Create(category)

	return translate(result.Error, "category")
}

func (r *CategoryRepo) GetCategory(ctx context.Context, id string) (model.Category, error) {

	var category model.Category

	result := conn(ctx, r.db).
		Where("id = ?", id).
		First(&category)

	return category, translate(result.Error, "category")
}

func (r *CategoryRepo) UpdateCategory(ctx context.Context, category *model.Category) error {

	result := conn(ctx, r.db).
		Save(category)

	return translate(result.Error, "category")
}

func (r *CategoryRepo) DeleteCategory(ctx context.Context, id string) error {

	result := conn(ctx, r.db).
		Where("id = ?", id).
		Delete(&model.Category{})

	if result.Error != nil {
		return translate(result.Error, "category")
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound("category not found")
	}

	return nil
}

func (r *CategoryRepo) ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error) {

	var categories []model.Category

	q := conn(ctx, r.db).
		Model(&model.Category{})

	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	result := q.
		Order("sort_order ASC, name ASC").
		Find(&categories)

	if result.Error != nil {
		return nil, translate(result.Error, "category")
	}

	return categories, nil
}

// ReparentChildren moves every direct child of id under newParent, or to
// the root when newParent is nil.
func (r *CategoryRepo) ReparentChildren(ctx context.Context, id string, newParent *string) error {

	result := conn(ctx, r.db).
		Model(&model.Category{}).
		Where("parent_category_id = ?", id).
		UpdateColumns(map[string]any{
			"parent_category_id": newParent,
			"update_date":        time.Now(),
		})

	return translate(result.Error, "category")
}
