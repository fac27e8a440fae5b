package models

import "time"

// ImageCategory groups uploaded image assets.
type ImageCategory struct {
	ID        uint      `gorm:"primaryKey" json:"image_category_id"`
	Name      string    `gorm:"unique;size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the ImageCategory model.
func (ImageCategory) TableName() string {
	return "image_categories"
}

// Image is the metadata record of a stored image asset. The binary content
// lives in external object storage; only the location is kept here.
type Image struct {
	ID   uint   `gorm:"primaryKey" json:"image_id"`
	Name string `gorm:"size:255;not null" json:"name"`
	// URL points at the stored asset.
	URL string `gorm:"size:512;not null" json:"url"`
	// CategoryID references the image category.
	CategoryID uint          `gorm:"column:category_id;not null" json:"category_id"`
	Category   ImageCategory `gorm:"foreignKey:CategoryID;references:ID" json:"-"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// TableName specifies the database table name for the Image model.
func (Image) TableName() string {
	return "images"
}
