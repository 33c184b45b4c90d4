package models

import "time"

// PropertyImage は物件の画像情報
type PropertyImage struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID string    `gorm:"type:varchar(32);not null;index" json:"property_id"`
	ImageURL   string    `gorm:"type:text;not null" json:"image_url"`
	SortOrder  int       `gorm:"type:int;not null;default:0" json:"sort_order"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PropertyImage) TableName() string {
	return "property_images"
}
