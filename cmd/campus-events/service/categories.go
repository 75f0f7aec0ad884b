package service

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	gocache "github.com/patrickmn/go-cache"
)

const (
	categoryTreeTTL     = 5 * time.Minute
	categoryTreeCleanup = 10 * time.Minute
	treeKeyActive       = "tree:active"
	treeKeyAll          = "tree:all"
)

type CategoryService struct {
	tx         Transactor
	categories CategoryStore
	events     EventStore
	cache      *gocache.Cache
	logger     *log.Logger
	now        func() time.Time
}

func NewCategoryService(tx Transactor, categories CategoryStore, events EventStore, logger *log.Logger) *CategoryService {
	return &CategoryService{
		tx:         tx,
		categories: categories,
		events:     events,
		cache:      gocache.New(categoryTreeTTL, categoryTreeCleanup),
		logger:     logger,
		now:        time.Now,
	}
}

// Tree returns the category forest. Trees are cached until the next write.
func (s *CategoryService) Tree(ctx context.Context, includeInactive bool) ([]*model.Category, error) {
	key := treeKeyActive
	if includeInactive {
		key = treeKeyAll
	}

	if cached, found := s.cache.Get(key); found {
		return cached.([]*model.Category), nil
	}

	categories, err := s.categories.ListCategories(ctx, !includeInactive)
	if err != nil {
		return nil, err
	}

	tree := model.BuildCategoryTree(categories)
	s.cache.Set(key, tree, gocache.DefaultExpiration)

	return tree, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (model.Category, error) {
	return s.categories.GetCategory(ctx, id)
}

func (s *CategoryService) invalidate() {
	s.cache.Flush()
}

func (s *CategoryService) checkParent(ctx context.Context, parentID string) error {
	if _, err := s.categories.GetCategory(ctx, parentID); err != nil {
		if model.IsKind(err, model.KindNotFound) {
			return model.ErrValidation("parent category not found")
		}
		return err
	}
	return nil
}

func (s *CategoryService) Create(ctx context.Context, actor model.Actor, req model.CategoryRequest) (model.Category, error) {
	now := s.now()

	var parent *string
	if req.ParentCategoryID != nil && *req.ParentCategoryID != "" {
		if err := s.checkParent(ctx, *req.ParentCategoryID); err != nil {
			return model.Category{}, err
		}
		parent = req.ParentCategoryID
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Category{}, model.ErrInternal(err, "failed to generate category id")
	}

	createdBy := actor.ID
	category := model.Category{
		ID:               id.String(),
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		Color:            req.Color,
		Icon:             req.Icon,
		ParentCategoryID: parent,
		IsActive:         true,
		SortOrder:        req.SortOrder,
		CreatedBy:        &createdBy,
		CreateDate:       now,
		UpdateDate:       now,
	}
	if category.Color == "" {
		category.Color = model.DefaultCategoryColor
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.categories.CreateCategory(ctx, &category); err != nil {
		return model.Category{}, err
	}
	s.invalidate()

	return category, nil
}

// Update edits a category. Re-parenting is rejected when the new parent is
// the category itself or one of its descendants.
func (s *CategoryService) Update(ctx context.Context, id string, req model.CategoryUpdateRequest) (model.Category, error) {
	category, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return model.Category{}, err
	}

	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.Color != nil {
		category.Color = *req.Color
	}
	if req.Icon != nil {
		category.Icon = *req.Icon
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if req.ParentCategoryID != nil {
		newParent := *req.ParentCategoryID
		if newParent == "" {
			category.ParentCategoryID = nil
		} else {
			if err := s.checkParent(ctx, newParent); err != nil {
				return model.Category{}, err
			}
			if err := s.checkCycle(ctx, id, newParent); err != nil {
				return model.Category{}, err
			}
			category.ParentCategoryID = &newParent
		}
	}
	category.UpdateDate = s.now()

	if err := s.categories.UpdateCategory(ctx, &category); err != nil {
		return model.Category{}, err
	}
	s.invalidate()

	return category, nil
}

func (s *CategoryService) checkCycle(ctx context.Context, id, newParent string) error {
	all, err := s.categories.ListCategories(ctx, false)
	if err != nil {
		return err
	}

	parents := make(map[string]*string, len(all))
	for _, c := range all {
		parents[c.ID] = c.ParentCategoryID
	}

	if model.CreatesCycle(parents, id, newParent) {
		return model.ErrValidation("a category cannot be moved under itself or its subcategories")
	}
	return nil
}

// Delete removes a category that no event references. Its children move up
// to its own parent.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		category, err := s.categories.GetCategory(ctx, id)
		if err != nil {
			return err
		}

		inUse, err := s.events.CountEventsByCategory(ctx, id)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return model.ErrState("cannot delete category with %d associated events", inUse)
		}

		if err := s.categories.ReparentChildren(ctx, id, category.ParentCategoryID); err != nil {
			return err
		}
		return s.categories.DeleteCategory(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate()

	s.logger.Infoj(log.JSON{
		"message":     "category deleted",
		"category_id": id,
	})

	return nil
}
