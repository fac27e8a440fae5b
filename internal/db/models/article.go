package models

import "time"

// Article is a blog post belonging to exactly one category.
type Article struct {
	ID uint `gorm:"primaryKey" json:"article_id"`
	// Title of the article.
	Title string `gorm:"size:255;not null" json:"title"`
	// CategoryID references the category this article is filed under.
	CategoryID uint     `gorm:"column:category_id;not null" json:"category_id"`
	Category   Category `gorm:"foreignKey:CategoryID;references:ID" json:"-"`
	// ImgURL is the cover image of the article.
	ImgURL string `gorm:"column:img_url;size:512" json:"img_url"`
	// ImgSource credits where the cover image came from.
	ImgSource string `gorm:"column:img_source;size:255" json:"img_source"`
	// Content is the article body (markdown).
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Article model.
func (Article) TableName() string {
	return "articles"
}
