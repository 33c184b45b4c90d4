package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"realty-marketplace/internal/models"
	"realty-marketplace/internal/repository"
)

// IndexClient mirrors the listing catalog into Meilisearch for the
// free-text search endpoint. The database stays the source of truth; the
// index is rebuilt by the nightly reindex job and updated on writes.
type IndexClient struct {
	client *meilisearch.Client
	index  string
}

func NewIndexClient(host, apiKey string) *IndexClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &IndexClient{
		client: client,
		index:  "properties",
	}
}

// InitIndex initializes the Meilisearch index
func (s *IndexClient) InitIndex() error {
	// Create index if it doesn't exist
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	// Configure searchable attributes
	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"title",
		"description",
		"address",
		"city",
		"features",
	})
	if err != nil {
		return err
	}

	// Configure filterable attributes
	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"price",
		"city",
		"bedrooms",
		"bathrooms",
		"square_feet",
		"property_type",
		"listing_type",
		"features",
	})
	if err != nil {
		return err
	}

	// Configure sortable attributes
	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"price",
		"bedrooms",
		"square_feet",
		"created_at",
	})
	return err
}

// indexDocument is the property as stored in the index. Features become an
// array so `features = 'x'` filters match individual entries rather than
// the comma-joined column value.
type indexDocument struct {
	models.Property
	Features []string `json:"features"`
}

func toDocument(p *models.Property) indexDocument {
	return indexDocument{Property: *p, Features: p.FeatureList()}
}

func (d *indexDocument) property() models.Property {
	p := d.Property
	p.SetFeatureList(d.Features)
	return p
}

// IndexProperty indexes a single property
func (s *IndexClient) IndexProperty(property *models.Property) error {
	_, err := s.client.Index(s.index).AddDocuments([]indexDocument{toDocument(property)})
	return err
}

// IndexProperties indexes multiple properties
func (s *IndexClient) IndexProperties(properties []models.Property) error {
	if len(properties) == 0 {
		return nil
	}
	docs := make([]indexDocument, 0, len(properties))
	for i := range properties {
		docs = append(docs, toDocument(&properties[i]))
	}
	_, err := s.client.Index(s.index).AddDocuments(docs)
	return err
}

// RemoveProperty removes a property from the index
func (s *IndexClient) RemoveProperty(id string) error {
	_, err := s.client.Index(s.index).DeleteDocument(id)
	return err
}

// FreeTextSearch performs a relevance-ranked full-text search, narrowed by
// whatever attribute filters are set. The free-text matching itself is
// Meilisearch's; the filters map onto the same fields the database
// predicate uses.
func (s *IndexClient) FreeTextSearch(f repository.PropertyFilters, limit, offset int64) ([]models.Property, int64, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	searchReq := &meilisearch.SearchRequest{
		Limit:  limit,
		Offset: offset,
	}
	if expr := buildFilterExpression(f); expr != "" {
		searchReq.Filter = expr
	}

	searchRes, err := s.client.Index(s.index).Search(f.Query, searchReq)
	if err != nil {
		return nil, 0, err
	}

	// Convert hits to properties
	var properties []models.Property
	for _, hit := range searchRes.Hits {
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc indexDocument
		if err := json.Unmarshal(hitJSON, &doc); err != nil {
			continue
		}
		properties = append(properties, doc.property())
	}

	return properties, searchRes.EstimatedTotalHits, nil
}

// buildFilterExpression renders the filter conjunction in Meilisearch
// filter syntax, over the same fields the database predicate uses. An empty
// expression means no filters were set.
func buildFilterExpression(f repository.PropertyFilters) string {
	var filters []string

	if f.City != "" {
		filters = append(filters, fmt.Sprintf("city = '%s'", escapeFilterValue(f.City)))
	}
	if f.MinPrice != nil {
		filters = append(filters, fmt.Sprintf("price >= %g", *f.MinPrice))
	}
	if f.MaxPrice != nil {
		filters = append(filters, fmt.Sprintf("price <= %g", *f.MaxPrice))
	}
	if f.MinBedrooms != nil {
		filters = append(filters, fmt.Sprintf("bedrooms >= %d", *f.MinBedrooms))
	}
	if f.MinBathrooms != nil {
		filters = append(filters, fmt.Sprintf("bathrooms >= %d", *f.MinBathrooms))
	}
	if f.PropertyType != "" {
		filters = append(filters, fmt.Sprintf("property_type = '%s'", escapeFilterValue(f.PropertyType)))
	}
	if f.ListingType != "" {
		filters = append(filters, fmt.Sprintf("listing_type = '%s'", escapeFilterValue(f.ListingType)))
	}
	if f.MinSquareFeet != nil {
		filters = append(filters, fmt.Sprintf("square_feet >= %d", *f.MinSquareFeet))
	}
	if f.MaxSquareFeet != nil {
		filters = append(filters, fmt.Sprintf("square_feet <= %d", *f.MaxSquareFeet))
	}
	// Documents store features as an array, so equality means "contains".
	for _, feature := range f.Features {
		filters = append(filters, fmt.Sprintf("features = '%s'", escapeFilterValue(strings.TrimSpace(feature))))
	}

	return strings.Join(filters, " AND ")
}

func escapeFilterValue(v string) string {
	return strings.ReplaceAll(v, "'", "\\'")
}
