package model

import (
	"sort"
	"time"
)

const DefaultCategoryColor = "#007bff"

type Category struct {
	ID               string    `gorm:"column:id;primaryKey" json:"id"`
	Name             string    `gorm:"column:name" json:"name"`
	Description      string    `gorm:"column:description" json:"description,omitempty"`
	Color            string    `gorm:"column:color" json:"color"`
	Icon             string    `gorm:"column:icon" json:"icon,omitempty"`
	ParentCategoryID *string   `gorm:"column:parent_category_id" json:"parent_category_id,omitempty"`
	IsActive         bool      `gorm:"column:is_active" json:"is_active"`
	SortOrder        int       `gorm:"column:sort_order" json:"sort_order"`
	CreatedBy        *string   `gorm:"column:created_by" json:"created_by,omitempty"`
	CreateDate       time.Time `gorm:"column:create_date" json:"create_date"`
	UpdateDate       time.Time `gorm:"column:update_date" json:"update_date"`

	Subcategories []*Category `gorm:"-" json:"subcategories,omitempty"`
}

func (m *Category) TableName() string {
	return "categories"
}

func sortCategories(cs []*Category) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].SortOrder != cs[j].SortOrder {
			return cs[i].SortOrder < cs[j].SortOrder
		}
		return cs[i].Name < cs[j].Name
	})
}

// BuildCategoryTree arranges a flat category list into a forest. Nodes
// whose parent is missing from the list are treated as roots.
func BuildCategoryTree(categories []Category) []*Category {
	nodes := make(map[string]*Category, len(categories))
	for i := range categories {
		c := categories[i]
		c.Subcategories = nil
		nodes[c.ID] = &c
	}

	var roots []*Category
	for i := range categories {
		node := nodes[categories[i].ID]
		if node.ParentCategoryID != nil {
			if parent, ok := nodes[*node.ParentCategoryID]; ok && parent != node {
				parent.Subcategories = append(parent.Subcategories, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	var walk func([]*Category)
	walk = func(level []*Category) {
		sortCategories(level)
		for _, n := range level {
			walk(n.Subcategories)
		}
	}
	walk(roots)
	return roots
}

// CreatesCycle reports whether pointing id at newParent would make id its
// own ancestor. parents maps every category id to its parent id.
func CreatesCycle(parents map[string]*string, id, newParent string) bool {
	seen := map[string]bool{}
	for cur := newParent; cur != ""; {
		if cur == id {
			return true
		}
		if seen[cur] {
			return true
		}
		seen[cur] = true
		p := parents[cur]
		if p == nil {
			return false
		}
		cur = *p
	}
	return false
}
