package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"realty-marketplace/internal/apperr"
	"realty-marketplace/internal/cache"
	"realty-marketplace/internal/geo"
	"realty-marketplace/internal/models"
	"realty-marketplace/internal/repository"
	"realty-marketplace/internal/search"
)

// PropertyHandler exposes property listing, search and CRUD.
type PropertyHandler struct {
	properties repository.PropertyRepository
	searchSvc  *search.Service
	indexer    *search.IndexClient
	cache      *cache.Client
}

// NewPropertyHandler creates a property handler. indexer and cacheClient may
// be nil when Meilisearch / Redis are not configured.
func NewPropertyHandler(properties repository.PropertyRepository, searchSvc *search.Service, indexer *search.IndexClient, cacheClient *cache.Client) *PropertyHandler {
	return &PropertyHandler{
		properties: properties,
		searchSvc:  searchSvc,
		indexer:    indexer,
		cache:      cacheClient,
	}
}

const searchCachePrefix = "property_search"

// SearchProperties handles GET /api/properties: attribute filters, optional
// proximity restriction, pagination.
func (h *PropertyHandler) SearchProperties(c *gin.Context) {
	params := search.Params{Filters: parsePropertyFilters(c)}

	if latStr := c.Query("lat"); latStr != "" {
		if lat, parseErr := strconv.ParseFloat(latStr, 64); parseErr == nil {
			params.CenterLat = &lat
		}
	}
	if lngStr := c.Query("lng"); lngStr != "" {
		if lng, parseErr := strconv.ParseFloat(lngStr, 64); parseErr == nil {
			params.CenterLng = &lng
		}
	}
	if radiusStr := c.Query("radius_km"); radiusStr != "" {
		radius, parseErr := strconv.ParseFloat(radiusStr, 64)
		if parseErr != nil {
			respondError(c, apperr.Validation("radius_km", "must be a number"))
			return
		}
		params.RadiusKm = &radius
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, parseErr := strconv.Atoi(limitStr); parseErr == nil && limit > 0 {
			params.Limit = limit
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if offset, parseErr := strconv.Atoi(offsetStr); parseErr == nil && offset >= 0 {
			params.Offset = offset
		}
	}

	cacheKey := searchCacheKey(c)
	if h.cache != nil {
		var cached search.Result
		if hit, err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && hit {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	start := time.Now()
	result, err := h.searchSvc.Search(params)
	if err != nil {
		respondError(c, err)
		return
	}

	// Log search API performance for monitoring
	log.Printf("[Search API] duration_ms=%d total=%d limit=%d spatial=%v",
		time.Since(start).Milliseconds(), result.Total, params.Limit, params.CenterLat != nil)

	if h.cache != nil {
		if err := h.cache.Set(c.Request.Context(), cacheKey, result); err != nil {
			log.Printf("[Search API] cache write failed: %v", err)
		}
	}

	c.JSON(http.StatusOK, result)
}

// parsePropertyFilters builds the structured filter record from query
// parameters. Unparsable numeric values are ignored rather than rejected,
// matching the listing UI's lenient behavior.
func parsePropertyFilters(c *gin.Context) repository.PropertyFilters {
	filters := repository.PropertyFilters{
		Query:        c.Query("q"),
		City:         c.Query("city"),
		PropertyType: c.Query("property_type"),
		ListingType:  c.Query("listing_type"),
	}

	if minPriceStr := c.Query("min_price"); minPriceStr != "" {
		if minPrice, parseErr := strconv.ParseFloat(minPriceStr, 64); parseErr == nil {
			filters.MinPrice = &minPrice
		}
	}
	if maxPriceStr := c.Query("max_price"); maxPriceStr != "" {
		if maxPrice, parseErr := strconv.ParseFloat(maxPriceStr, 64); parseErr == nil {
			filters.MaxPrice = &maxPrice
		}
	}
	if minBedroomsStr := c.Query("min_bedrooms"); minBedroomsStr != "" {
		if minBedrooms, parseErr := strconv.Atoi(minBedroomsStr); parseErr == nil {
			filters.MinBedrooms = &minBedrooms
		}
	}
	if minBathroomsStr := c.Query("min_bathrooms"); minBathroomsStr != "" {
		if minBathrooms, parseErr := strconv.Atoi(minBathroomsStr); parseErr == nil {
			filters.MinBathrooms = &minBathrooms
		}
	}
	if minSqftStr := c.Query("min_square_feet"); minSqftStr != "" {
		if minSqft, parseErr := strconv.Atoi(minSqftStr); parseErr == nil {
			filters.MinSquareFeet = &minSqft
		}
	}
	if maxSqftStr := c.Query("max_square_feet"); maxSqftStr != "" {
		if maxSqft, parseErr := strconv.Atoi(maxSqftStr); parseErr == nil {
			filters.MaxSquareFeet = &maxSqft
		}
	}

	// Multi-select filter (comma-separated)
	if featuresStr := c.Query("features"); featuresStr != "" {
		filters.Features = strings.Split(featuresStr, ",")
	}

	return filters
}

func searchCacheKey(c *gin.Context) string {
	flat := make(map[string]string)
	for k, v := range c.Request.URL.Query() {
		flat[k] = strings.Join(v, ",")
	}
	return cache.QueryKey(searchCachePrefix, flat)
}

// GetProperty handles GET /api/properties/:id.
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	property, err := h.properties.GetByID(c.Param("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			respondError(c, apperr.NotFound("property not found"))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

type propertyRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	Country      string   `json:"country"`
	Bedrooms     *int     `json:"bedrooms"`
	Bathrooms    *int     `json:"bathrooms"`
	SquareFeet   *int     `json:"square_feet"`
	PropertyType string   `json:"property_type"`
	ListingType  string   `json:"listing_type"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Features     []string `json:"features"`
}

func (r *propertyRequest) validate() error {
	if r.Price < 0 {
		return apperr.Validation("price", "must not be negative")
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return apperr.Validation("location", "latitude and longitude must be supplied together")
	}
	if r.Latitude != nil && !geo.ValidCoordinates(*r.Latitude, *r.Longitude) {
		return apperr.Validation("location", "coordinates out of range")
	}
	return nil
}

func (r *propertyRequest) apply(p *models.Property) {
	p.Title = r.Title
	p.Description = r.Description
	p.Price = r.Price
	p.Address = r.Address
	p.City = r.City
	p.Country = r.Country
	p.Bedrooms = r.Bedrooms
	p.Bathrooms = r.Bathrooms
	p.SquareFeet = r.SquareFeet
	p.PropertyType = r.PropertyType
	p.ListingType = r.ListingType
	p.Latitude = r.Latitude
	p.Longitude = r.Longitude
	p.SetFeatureList(r.Features)
}

// CreateProperty handles POST /api/properties. Only agents and admins may
// list properties; the owner is the authenticated user.
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	role := c.GetString("user_role")
	if role != string(models.RoleAgent) && role != string(models.RoleAdmin) {
		respondError(c, apperr.Authorization("only agents may list properties"))
		return
	}

	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}

	property := &models.Property{
		ID:      models.NewID(),
		OwnerID: c.GetString("user_id"),
	}
	req.apply(property)

	if err := h.properties.Create(property); err != nil {
		respondError(c, err)
		return
	}

	h.afterWrite(c, property, false)
	c.JSON(http.StatusCreated, property)
}

// UpdateProperty handles PUT /api/properties/:id.
func (h *PropertyHandler) UpdateProperty(c *gin.Context) {
	property, err := h.properties.GetByID(c.Param("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			respondError(c, apperr.NotFound("property not found"))
			return
		}
		respondError(c, err)
		return
	}

	if !canManageProperty(c, property) {
		respondError(c, apperr.Authorization("you are not authorized to update this property"))
		return
	}

	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}

	req.apply(property)
	if err := h.properties.Save(property); err != nil {
		respondError(c, err)
		return
	}

	h.afterWrite(c, property, false)
	c.JSON(http.StatusOK, property)
}

// DeleteProperty handles DELETE /api/properties/:id.
func (h *PropertyHandler) DeleteProperty(c *gin.Context) {
	property, err := h.properties.GetByID(c.Param("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			respondError(c, apperr.NotFound("property not found"))
			return
		}
		respondError(c, err)
		return
	}

	if !canManageProperty(c, property) {
		respondError(c, apperr.Authorization("you are not authorized to delete this property"))
		return
	}

	if err := h.properties.Delete(property.ID); err != nil {
		respondError(c, err)
		return
	}

	h.afterWrite(c, property, true)
	c.JSON(http.StatusOK, gin.H{"message": "property deleted"})
}

// FreeTextSearch handles GET /api/search via the Meilisearch index.
func (h *PropertyHandler) FreeTextSearch(c *gin.Context) {
	if h.indexer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "full-text search is not configured"})
		return
	}

	filters := parsePropertyFilters(c)

	var limit, offset int64
	if limitStr := c.Query("limit"); limitStr != "" {
		if v, parseErr := strconv.ParseInt(limitStr, 10, 64); parseErr == nil && v > 0 {
			limit = v
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if v, parseErr := strconv.ParseInt(offsetStr, 10, 64); parseErr == nil && v >= 0 {
			offset = v
		}
	}

	properties, total, err := h.indexer.FreeTextSearch(filters, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": properties, "total": total})
}

// afterWrite keeps the secondary stores in step with the database: the
// full-text index and the search cache.
func (h *PropertyHandler) afterWrite(c *gin.Context, property *models.Property, deleted bool) {
	if h.indexer != nil {
		var err error
		if deleted {
			err = h.indexer.RemoveProperty(property.ID)
		} else {
			err = h.indexer.IndexProperty(property)
		}
		if err != nil {
			log.Printf("[Properties] index update failed for %s: %v", property.ID, err)
		}
	}
	if h.cache != nil {
		if err := h.cache.InvalidatePrefix(c.Request.Context(), searchCachePrefix); err != nil {
			log.Printf("[Properties] cache invalidation failed: %v", err)
		}
	}
}

func canManageProperty(c *gin.Context, property *models.Property) bool {
	return c.GetString("user_role") == string(models.RoleAdmin) ||
		c.GetString("user_id") == property.OwnerID
}
