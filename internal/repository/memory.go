package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"realty-marketplace/internal/models"
)

// MemoryStore is an in-memory implementation of all three repositories.
// Filter semantics mirror the SQL implementations (case-insensitive
// substring match for Query, case-insensitive equality for the exact-match
// fields). Used by the test suites and the local demo mode.
type MemoryStore struct {
	mu         sync.Mutex
	properties map[string]models.Property
	tours      map[string]models.PropertyTour
	users      map[string]models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		properties: make(map[string]models.Property),
		tours:      make(map[string]models.PropertyTour),
		users:      make(map[string]models.User),
	}
}

func (m *MemoryStore) GetByID(id string) (*models.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.properties[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) Create(p *models.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.properties[p.ID] = *p
	return nil
}

func (m *MemoryStore) Save(p *models.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.properties[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	m.properties[p.ID] = *p
	return nil
}

func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.properties[id]; !ok {
		return ErrNotFound
	}
	delete(m.properties, id)
	return nil
}

func (m *MemoryStore) List(f PropertyFilters) ([]models.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Property
	for _, p := range m.properties {
		if matchesFilters(&p, f) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MemoryStore) ListPage(f PropertyFilters, limit, offset int) ([]models.Property, int64, error) {
	matched, err := m.List(f)
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if offset >= len(matched) {
		return []models.Property{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func matchesFilters(p *models.Property, f PropertyFilters) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		haystacks := []string{p.Title, p.Description, p.Address, p.City}
		hit := false
		for _, h := range haystacks {
			if strings.Contains(strings.ToLower(h), q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.City != "" && !strings.EqualFold(p.City, f.City) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinBedrooms != nil && (p.Bedrooms == nil || *p.Bedrooms < *f.MinBedrooms) {
		return false
	}
	if f.MinBathrooms != nil && (p.Bathrooms == nil || *p.Bathrooms < *f.MinBathrooms) {
		return false
	}
	if f.PropertyType != "" && !strings.EqualFold(p.PropertyType, f.PropertyType) {
		return false
	}
	if f.ListingType != "" && !strings.EqualFold(p.ListingType, f.ListingType) {
		return false
	}
	if f.MinSquareFeet != nil && (p.SquareFeet == nil || *p.SquareFeet < *f.MinSquareFeet) {
		return false
	}
	if f.MaxSquareFeet != nil && (p.SquareFeet == nil || *p.SquareFeet > *f.MaxSquareFeet) {
		return false
	}
	for _, feature := range f.Features {
		if !p.HasFeature(feature) {
			return false
		}
	}
	return true
}

func (m *MemoryStore) GetTourByID(id string) (*models.PropertyTour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tours[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *MemoryStore) ActiveForProperty(propertyID string) ([]models.PropertyTour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.PropertyTour
	for _, t := range m.tours {
		if t.PropertyID == propertyID && t.IsActive() {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *MemoryStore) CreateTour(t *models.PropertyTour) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// The check and the insert happen under the same lock, mirroring the
	// exclusion constraint of the SQL implementations.
	for _, existing := range m.tours {
		if existing.PropertyID != t.PropertyID || !existing.IsActive() {
			continue
		}
		if t.ScheduledDate.Before(existing.EndTime) && existing.ScheduledDate.Before(t.EndTime) {
			return ErrTourOverlap
		}
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	m.tours[t.ID] = *t
	return nil
}

func (m *MemoryStore) SaveTour(t *models.PropertyTour) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tours[t.ID]; !ok {
		return ErrNotFound
	}
	t.UpdatedAt = time.Now()
	m.tours[t.ID] = *t
	return nil
}

func (m *MemoryStore) CompleteElapsed(now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.tours {
		if t.Status == models.TourStatusConfirmed && !t.EndTime.After(now) {
			t.Status = models.TourStatusCompleted
			t.UpdatedAt = now
			m.tours[id] = t
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) ExpireElapsedPending(now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.tours {
		if t.Status == models.TourStatusPending && !t.EndTime.After(now) {
			t.Status = models.TourStatusCanceled
			t.UpdatedAt = now
			m.tours[id] = t
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) GetUserByID(id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateUser(u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

// TourCount returns the number of stored tours regardless of status.
func (m *MemoryStore) TourCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tours)
}

// Adapters so one MemoryStore satisfies all three repository interfaces
// despite the overlapping method names.

type memoryTours struct{ *MemoryStore }
type memoryUsers struct{ *MemoryStore }

func (m memoryTours) GetByID(id string) (*models.PropertyTour, error) { return m.GetTourByID(id) }
func (m memoryTours) Create(t *models.PropertyTour) error            { return m.CreateTour(t) }
func (m memoryTours) Save(t *models.PropertyTour) error              { return m.SaveTour(t) }

func (m memoryUsers) GetByID(id string) (*models.User, error)       { return m.GetUserByID(id) }
func (m memoryUsers) GetByEmail(email string) (*models.User, error) { return m.GetUserByEmail(email) }
func (m memoryUsers) Create(u *models.User) error                   { return m.CreateUser(u) }

// Properties returns the store as a PropertyRepository.
func (m *MemoryStore) Properties() PropertyRepository { return m }

// Tours returns the store as a TourRepository.
func (m *MemoryStore) Tours() TourRepository { return memoryTours{m} }

// Users returns the store as a UserRepository.
func (m *MemoryStore) Users() UserRepository { return memoryUsers{m} }
