package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-marketplace/internal/models"
	"realty-marketplace/internal/repository"
	"realty-marketplace/internal/search"
)

func newPropertyRouter(t *testing.T) (*gin.Engine, *repository.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	handler := NewPropertyHandler(store.Properties(), search.NewService(store.Properties()), nil, nil)

	r := gin.New()
	// Test stand-in for the auth middleware: identity comes from headers.
	r.Use(func(c *gin.Context) {
		c.Set("user_id", c.GetHeader("X-User"))
		c.Set("user_role", c.GetHeader("X-Role"))
	})
	r.GET("/api/properties", handler.SearchProperties)
	r.GET("/api/properties/:id", handler.GetProperty)
	r.POST("/api/properties", handler.CreateProperty)
	r.PUT("/api/properties/:id", handler.UpdateProperty)
	r.DELETE("/api/properties/:id", handler.DeleteProperty)
	return r, store
}

func doJSONAs(r *gin.Engine, method, path, body, userID, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", userID)
	req.Header.Set("X-Role", role)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreatePropertyEndpoint(t *testing.T) {
	r, store := newPropertyRouter(t)

	body := `{
		"title": "Seaside Villa",
		"price": 450000,
		"city": "Lisbon",
		"latitude": 38.7223,
		"longitude": -9.1393,
		"features": ["pool", "garden"]
	}`
	w := doJSONAs(r, http.MethodPost, "/api/properties", body, "agent-1", "agent")
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Property
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "agent-1", created.OwnerID)
	assert.Equal(t, []string{"pool", "garden"}, created.FeatureList())

	stored, err := store.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Seaside Villa", stored.Title)

	// Plain users may not list properties.
	w = doJSONAs(r, http.MethodPost, "/api/properties", body, "user-1", "user")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"authorization"`)
}

func TestCreatePropertyEndpointValidation(t *testing.T) {
	r, _ := newPropertyRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"negative price", `{"title": "Flat", "price": -1}`},
		{"latitude without longitude", `{"title": "Flat", "price": 1000, "latitude": 38.7}`},
		{"coordinates out of range", `{"title": "Flat", "price": 1000, "latitude": 99.0, "longitude": 0.0}`},
		{"missing title", `{"price": 1000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSONAs(r, http.MethodPost, "/api/properties", tt.body, "agent-1", "agent")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestUpdateAndDeletePropertyEndpoints(t *testing.T) {
	r, store := newPropertyRouter(t)
	require.NoError(t, store.Create(&models.Property{
		ID: "p1", Title: "Old Title", Price: 100000, OwnerID: "agent-1",
	}))

	update := `{"title": "New Title", "price": 120000}`

	// Another agent is not the owner.
	w := doJSONAs(r, http.MethodPut, "/api/properties/p1", update, "agent-2", "agent")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The owner may update.
	w = doJSONAs(r, http.MethodPut, "/api/properties/p1", update, "agent-1", "agent")
	require.Equal(t, http.StatusOK, w.Code)
	stored, err := store.GetByID("p1")
	require.NoError(t, err)
	assert.Equal(t, "New Title", stored.Title)

	// So may an admin who is not the owner.
	w = doJSONAs(r, http.MethodPut, "/api/properties/p1", `{"title": "Admin Title", "price": 1}`, "admin-1", "admin")
	assert.Equal(t, http.StatusOK, w.Code)

	// Delete: stranger rejected, owner succeeds, record gone.
	w = doJSONAs(r, http.MethodDelete, "/api/properties/p1", "", "agent-2", "agent")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSONAs(r, http.MethodDelete, "/api/properties/p1", "", "agent-1", "agent")
	require.Equal(t, http.StatusOK, w.Code)
	_, err = store.GetByID("p1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	w = doJSONAs(r, http.MethodDelete, "/api/properties/p1", "", "agent-1", "agent")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPropertyEndpoint(t *testing.T) {
	r, store := newPropertyRouter(t)
	require.NoError(t, store.Create(&models.Property{
		ID: "p1", Title: "Loft", Price: 100000, OwnerID: "agent-1",
	}))

	w := doJSONAs(r, http.MethodGet, "/api/properties/p1", "", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Loft"`)

	w = doJSONAs(r, http.MethodGet, "/api/properties/missing", "", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchPropertiesEndpoint(t *testing.T) {
	r, store := newPropertyRouter(t)
	require.NoError(t, store.Create(&models.Property{
		ID: "p1", Title: "Lisbon Loft", Price: 200000, City: "Lisbon", OwnerID: "agent-1",
	}))
	require.NoError(t, store.Create(&models.Property{
		ID: "p2", Title: "Porto Flat", Price: 150000, City: "Porto", OwnerID: "agent-1",
	}))

	w := doJSONAs(r, http.MethodGet, "/api/properties?city=lisbon", "", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var result search.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, int64(1), result.Total)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "p1", result.Items[0].ID)

	// A radius without a center point is rejected.
	w = doJSONAs(r, http.MethodGet, "/api/properties?radius_km=5", "", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"validation"`)
}
