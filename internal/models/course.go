package models

import (
	"time"
)

type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusPublished CourseStatus = "PUBLISHED"
)

type Course struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	Title         string       `json:"title" gorm:"not null;size:200"`
	Slug          string       `json:"slug" gorm:"uniqueIndex;not null;size:220"`
	Description   string       `json:"description" gorm:"type:text"`
	ThumbnailURL  *string      `json:"thumbnailUrl" gorm:"size:500"`
	Price         float64      `json:"price" gorm:"not null;default:0"`
	DiscountPrice *float64     `json:"discountPrice"`
	Status        CourseStatus `json:"status" gorm:"not null;size:20;default:DRAFT;index"`
	IsDeleted     bool         `json:"-" gorm:"not null;default:false;index"`
	CreatedByID   string       `json:"createdById" gorm:"not null;size:36;index"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Modules []CourseModule `json:"modules,omitempty" gorm:"foreignKey:CourseID"`
}

func (Course) TableName() string {
	return "courses"
}

// IsEnrollable reports whether students may enroll in or pay for the course.
func (c *Course) IsEnrollable() bool {
	return !c.IsDeleted && c.Status == CourseStatusPublished
}

// EffectivePrice is the discounted price when one is set.
func (c *Course) EffectivePrice() float64 {
	if c.DiscountPrice != nil && *c.DiscountPrice > 0 && *c.DiscountPrice < c.Price {
		return *c.DiscountPrice
	}
	return c.Price
}
