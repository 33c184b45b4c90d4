package models

import (
	"strings"
	"time"
)

type Property struct {
	// 基本情報
	ID          string `gorm:"type:varchar(32);primaryKey" json:"id"`
	Title       string `gorm:"type:text;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// フィルタ用属性
	Price        float64 `gorm:"type:decimal(14,2);not null;index" json:"price"`
	Address      string  `gorm:"type:text" json:"address,omitempty"`
	City         string  `gorm:"type:varchar(100);index" json:"city,omitempty"`
	Country      string  `gorm:"type:varchar(100)" json:"country,omitempty"`
	Bedrooms     *int    `gorm:"type:int;index" json:"bedrooms,omitempty"`
	Bathrooms    *int    `gorm:"type:int" json:"bathrooms,omitempty"`
	SquareFeet   *int    `gorm:"type:int" json:"square_feet,omitempty"`
	PropertyType string  `gorm:"type:varchar(50);index" json:"property_type,omitempty"`
	ListingType  string  `gorm:"type:varchar(50);index" json:"listing_type,omitempty"`

	// 位置情報（両方セットか両方なし）
	Latitude  *float64 `gorm:"type:decimal(10,7)" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"type:decimal(10,7)" json:"longitude,omitempty"`

	// Comma-separated feature tags ("garden,garage,pool")
	Features string `gorm:"type:text" json:"features,omitempty"`

	OwnerID    string `gorm:"type:varchar(32);not null;index" json:"owner_id"`
	IsVerified bool   `gorm:"not null;default:false" json:"is_verified"`
	IsPremium  bool   `gorm:"not null;default:false" json:"is_premium"`

	// タイムスタンプ
	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime;index:idx_properties_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName はテーブル名を明示的に指定
func (Property) TableName() string {
	return "properties"
}

// HasLocation は物件が地図上に配置できるかどうか
func (p *Property) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// FeatureList splits the stored feature tags into a slice.
func (p *Property) FeatureList() []string {
	if p.Features == "" {
		return nil
	}
	parts := strings.Split(p.Features, ",")
	features := make([]string, 0, len(parts))
	for _, part := range parts {
		if f := strings.TrimSpace(part); f != "" {
			features = append(features, f)
		}
	}
	return features
}

// SetFeatureList stores a slice of feature tags in the serialized form.
func (p *Property) SetFeatureList(features []string) {
	p.Features = strings.Join(features, ",")
}

// HasFeature reports whether the property carries the given feature tag.
func (p *Property) HasFeature(feature string) bool {
	for _, f := range p.FeatureList() {
		if strings.EqualFold(f, feature) {
			return true
		}
	}
	return false
}
