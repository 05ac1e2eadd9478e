package models

import (
	"github.com/erp/edisync/internal/domain/catalog"
	"github.com/google/uuid"
)

// CategoryModel is the persistence model for catalog.Category
type CategoryModel struct {
	BaseModel
	Name            string     `gorm:"type:varchar(128);not null"`
	ParentID        *uuid.UUID `gorm:"type:uuid;index"`
	IgnoredInExport bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "product_categories"
}

// ToDomain converts the persistence model to a domain Category
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity:      m.BaseModel.ToDomain(),
		Name:            m.Name,
		ParentID:        m.ParentID,
		IgnoredInExport: m.IgnoredInExport,
	}
}

// FromDomain populates the persistence model from a domain Category
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Name = c.Name
	m.ParentID = c.ParentID
	m.IgnoredInExport = c.IgnoredInExport
}
