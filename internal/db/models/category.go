package models

import "time"

// Category is a named bucket for articles.
type Category struct {
	ID uint `gorm:"primaryKey" json:"category_id"`
	// Name is the unique category name.
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// ImgURL is the cover image shown for the category.
	ImgURL    string    `gorm:"column:img_url;size:512" json:"img_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Category model.
func (Category) TableName() string {
	return "categories"
}
