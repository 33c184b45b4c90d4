package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"realty-marketplace/internal/models"
)

// AdminHandler serves the dashboard statistics. It queries GORM directly
// and is only wired when the MySQL backend is in use.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	// Property counts
	var totalProperties, verifiedCount, premiumCount int64
	h.db.Model(&models.Property{}).Count(&totalProperties)
	h.db.Model(&models.Property{}).Where("is_verified = ?", true).Count(&verifiedCount)
	h.db.Model(&models.Property{}).Where("is_premium = ?", true).Count(&premiumCount)

	stats["properties"] = map[string]interface{}{
		"total":    totalProperties,
		"verified": verifiedCount,
		"premium":  premiumCount,
	}

	// Tour counts by status
	tourCounts := make(map[string]int64)
	for _, status := range []models.TourStatus{
		models.TourStatusPending, models.TourStatusConfirmed,
		models.TourStatusCompleted, models.TourStatusCanceled,
	} {
		var count int64
		h.db.Model(&models.PropertyTour{}).Where("status = ?", status).Count(&count)
		tourCounts[string(status)] = count
	}
	stats["tours"] = tourCounts

	// Recent booking activity (last 24 hours)
	last24h := time.Now().AddDate(0, 0, -1)
	var recentTours int64
	h.db.Model(&models.PropertyTour{}).Where("created_at >= ?", last24h).Count(&recentTours)
	stats["recent_activity"] = map[string]interface{}{
		"tours_last_24h": recentTours,
	}

	// User counts by role
	var agentCount int64
	h.db.Model(&models.User{}).Where("role = ?", models.RoleAgent).Count(&agentCount)
	stats["agents"] = map[string]interface{}{
		"total": agentCount,
	}

	c.JSON(http.StatusOK, stats)
}

// GetRecentActivity returns recently created tours
func (h *AdminHandler) GetRecentActivity(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, _ := strconv.Atoi(limitStr)

	var tours []models.PropertyTour
	err := h.db.Order("created_at DESC").Limit(limit).Find(&tours).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tours": tours,
		"count": len(tours),
	})
}

// GetCityStats returns listing statistics by city
func (h *AdminHandler) GetCityStats(c *gin.Context) {
	type CityStat struct {
		City     string  `json:"city"`
		Count    int64   `json:"count"`
		AvgPrice float64 `json:"avg_price"`
	}

	var stats []CityStat
	err := h.db.Model(&models.Property{}).
		Select("city, count(*) as count, avg(price) as avg_price").
		Where("city IS NOT NULL AND city != ''").
		Group("city").
		Order("count DESC").
		Limit(20).
		Scan(&stats).Error

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"city_stats": stats,
		"count":      len(stats),
	})
}

// GetPriceDistribution returns listing price distribution
func (h *AdminHandler) GetPriceDistribution(c *gin.Context) {
	type PriceRange struct {
		RangeLabel string  `json:"range_label"`
		MinPrice   float64 `json:"min_price"`
		MaxPrice   float64 `json:"max_price"`
		Count      int64   `json:"count"`
	}

	ranges := []PriceRange{
		{RangeLabel: "under 100k", MinPrice: 0, MaxPrice: 100000},
		{RangeLabel: "100k-250k", MinPrice: 100000, MaxPrice: 250000},
		{RangeLabel: "250k-500k", MinPrice: 250000, MaxPrice: 500000},
		{RangeLabel: "500k-1m", MinPrice: 500000, MaxPrice: 1000000},
		{RangeLabel: "1m-2m", MinPrice: 1000000, MaxPrice: 2000000},
		{RangeLabel: "over 2m", MinPrice: 2000000, MaxPrice: 1000000000},
	}

	for i := range ranges {
		var count int64
		h.db.Model(&models.Property{}).
			Where("price >= ? AND price < ?", ranges[i].MinPrice, ranges[i].MaxPrice).
			Count(&count)
		ranges[i].Count = count
	}

	c.JSON(http.StatusOK, gin.H{
		"price_distribution": ranges,
	})
}
