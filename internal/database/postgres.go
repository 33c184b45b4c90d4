package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"realty-marketplace/internal/models"
	"realty-marketplace/internal/repository"
)

type DB struct {
	conn *sql.DB
}

func NewDB(host, port, user, password, dbname string) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the tables if they don't exist. The exclusion
// constraint on property_tours is the authoritative guard against two
// overlapping bookings committing for the same property: the insert itself
// is rejected with 23P01 regardless of what any application-level check saw.
func (db *DB) InitSchema() error {
	query := `
	CREATE EXTENSION IF NOT EXISTS btree_gist;

	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(32) PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		name VARCHAR(100) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		phone VARCHAR(30),
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS properties (
		id VARCHAR(32) PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,

		-- Filter fields
		price DECIMAL(14, 2) NOT NULL CHECK (price >= 0),
		address TEXT,
		city VARCHAR(100),
		country VARCHAR(100),
		bedrooms INTEGER,
		bathrooms INTEGER,
		square_feet INTEGER,
		property_type VARCHAR(50),
		listing_type VARCHAR(50),

		latitude DECIMAL(10, 7),
		longitude DECIMAL(10, 7),
		CHECK ((latitude IS NULL) = (longitude IS NULL)),

		features TEXT,
		owner_id VARCHAR(32) NOT NULL,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		is_premium BOOLEAN NOT NULL DEFAULT FALSE,

		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS property_images (
		id SERIAL PRIMARY KEY,
		property_id VARCHAR(32) NOT NULL REFERENCES properties(id),
		image_url TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS property_tours (
		id VARCHAR(32) PRIMARY KEY,
		property_id VARCHAR(32) NOT NULL REFERENCES properties(id),
		user_id VARCHAR(32) NOT NULL REFERENCES users(id),
		agent_id VARCHAR(32) NOT NULL REFERENCES users(id),
		scheduled_date TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		notes TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

		CHECK (end_time > scheduled_date),
		CONSTRAINT property_tours_no_overlap EXCLUDE USING gist (
			property_id WITH =,
			tsrange(scheduled_date, end_time) WITH &&
		) WHERE (status IN ('pending', 'confirmed'))
	);

	-- Indexes for filtering
	CREATE INDEX IF NOT EXISTS idx_properties_created_at ON properties(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_properties_price ON properties(price);
	CREATE INDEX IF NOT EXISTS idx_properties_city ON properties(city);
	CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties(owner_id);
	CREATE INDEX IF NOT EXISTS idx_tours_property ON property_tours(property_id);
	CREATE INDEX IF NOT EXISTS idx_tours_status ON property_tours(status);
	`
	_, err := db.conn.Exec(query)
	return err
}

func (db *DB) Properties() repository.PropertyRepository {
	return &pqPropertyRepo{conn: db.conn}
}

func (db *DB) Tours() repository.TourRepository {
	return &pqTourRepo{conn: db.conn}
}

func (db *DB) Users() repository.UserRepository {
	return &pqUserRepo{conn: db.conn}
}

const propertyColumns = `id, title, description, price, address, city, country,
	bedrooms, bathrooms, square_feet, property_type, listing_type,
	latitude, longitude, features, owner_id, is_verified, is_premium,
	created_at, updated_at`

func scanProperty(row interface{ Scan(...interface{}) error }) (*models.Property, error) {
	var p models.Property
	var description, address, city, country, propertyType, listingType, features sql.NullString
	err := row.Scan(
		&p.ID, &p.Title, &description, &p.Price, &address, &city, &country,
		&p.Bedrooms, &p.Bathrooms, &p.SquareFeet, &propertyType, &listingType,
		&p.Latitude, &p.Longitude, &features, &p.OwnerID, &p.IsVerified, &p.IsPremium,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.Address = address.String
	p.City = city.String
	p.Country = country.String
	p.PropertyType = propertyType.String
	p.ListingType = listingType.String
	p.Features = features.String
	return &p, nil
}

type pqPropertyRepo struct {
	conn *sql.DB
}

func (r *pqPropertyRepo) GetByID(id string) (*models.Property, error) {
	row := r.conn.QueryRow(`SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return p, err
}

func (r *pqPropertyRepo) Create(p *models.Property) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := r.conn.Exec(`
	INSERT INTO properties (
		id, title, description, price, address, city, country,
		bedrooms, bathrooms, square_feet, property_type, listing_type,
		latitude, longitude, features, owner_id, is_verified, is_premium,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		p.ID, p.Title, p.Description, p.Price, p.Address, p.City, p.Country,
		p.Bedrooms, p.Bathrooms, p.SquareFeet, p.PropertyType, p.ListingType,
		p.Latitude, p.Longitude, p.Features, p.OwnerID, p.IsVerified, p.IsPremium,
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *pqPropertyRepo) Save(p *models.Property) error {
	p.UpdatedAt = time.Now()
	result, err := r.conn.Exec(`
	UPDATE properties SET
		title = $2, description = $3, price = $4, address = $5, city = $6,
		country = $7, bedrooms = $8, bathrooms = $9, square_feet = $10,
		property_type = $11, listing_type = $12, latitude = $13, longitude = $14,
		features = $15, is_verified = $16, is_premium = $17, updated_at = $18
	WHERE id = $1`,
		p.ID, p.Title, p.Description, p.Price, p.Address, p.City,
		p.Country, p.Bedrooms, p.Bathrooms, p.SquareFeet,
		p.PropertyType, p.ListingType, p.Latitude, p.Longitude,
		p.Features, p.IsVerified, p.IsPremium, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pqPropertyRepo) Delete(id string) error {
	result, err := r.conn.Exec(`DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// buildFilterClause renders the filter conjunction as a WHERE fragment with
// positional arguments. Shared by List and ListPage so both modes of the
// search run the same predicate.
func buildFilterClause(f repository.PropertyFilters) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Query != "" {
		pattern := "%" + strings.ToLower(f.Query) + "%"
		n := arg(pattern)
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(title) LIKE %[1]s OR LOWER(description) LIKE %[1]s OR LOWER(address) LIKE %[1]s OR LOWER(city) LIKE %[1]s)", n))
	}
	if f.City != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(city) = LOWER(%s)", arg(f.City)))
	}
	if f.MinPrice != nil {
		clauses = append(clauses, fmt.Sprintf("price >= %s", arg(*f.MinPrice)))
	}
	if f.MaxPrice != nil {
		clauses = append(clauses, fmt.Sprintf("price <= %s", arg(*f.MaxPrice)))
	}
	if f.MinBedrooms != nil {
		clauses = append(clauses, fmt.Sprintf("bedrooms >= %s", arg(*f.MinBedrooms)))
	}
	if f.MinBathrooms != nil {
		clauses = append(clauses, fmt.Sprintf("bathrooms >= %s", arg(*f.MinBathrooms)))
	}
	if f.PropertyType != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(property_type) = LOWER(%s)", arg(f.PropertyType)))
	}
	if f.ListingType != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(listing_type) = LOWER(%s)", arg(f.ListingType)))
	}
	if f.MinSquareFeet != nil {
		clauses = append(clauses, fmt.Sprintf("square_feet >= %s", arg(*f.MinSquareFeet)))
	}
	if f.MaxSquareFeet != nil {
		clauses = append(clauses, fmt.Sprintf("square_feet <= %s", arg(*f.MaxSquareFeet)))
	}
	for _, feature := range f.Features {
		clauses = append(clauses, fmt.Sprintf(
			"%s = ANY(string_to_array(COALESCE(features, ''), ','))", arg(strings.TrimSpace(feature))))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *pqPropertyRepo) List(f repository.PropertyFilters) ([]models.Property, error) {
	where, args := buildFilterClause(f)
	rows, err := r.conn.Query(`SELECT `+propertyColumns+` FROM properties`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, *p)
	}
	return properties, rows.Err()
}

func (r *pqPropertyRepo) ListPage(f repository.PropertyFilters, limit, offset int) ([]models.Property, int64, error) {
	where, args := buildFilterClause(f)

	var total int64
	if err := r.conn.QueryRow(`SELECT COUNT(*) FROM properties`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageArgs := append(args, limit, offset)
	query := fmt.Sprintf(`SELECT `+propertyColumns+` FROM properties%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := r.conn.Query(query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, err
		}
		properties = append(properties, *p)
	}
	return properties, total, rows.Err()
}

const tourColumns = `id, property_id, user_id, agent_id, scheduled_date, end_time,
	status, notes, created_at, updated_at`

func scanTour(row interface{ Scan(...interface{}) error }) (*models.PropertyTour, error) {
	var t models.PropertyTour
	var notes sql.NullString
	err := row.Scan(
		&t.ID, &t.PropertyID, &t.UserID, &t.AgentID, &t.ScheduledDate, &t.EndTime,
		&t.Status, &notes, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Notes = notes.String
	return &t, nil
}

type pqTourRepo struct {
	conn *sql.DB
}

func (r *pqTourRepo) GetByID(id string) (*models.PropertyTour, error) {
	row := r.conn.QueryRow(`SELECT `+tourColumns+` FROM property_tours WHERE id = $1`, id)
	t, err := scanTour(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return t, err
}

func (r *pqTourRepo) ActiveForProperty(propertyID string) ([]models.PropertyTour, error) {
	rows, err := r.conn.Query(`
	SELECT `+tourColumns+` FROM property_tours
	WHERE property_id = $1 AND status IN ('pending', 'confirmed')
	ORDER BY scheduled_date ASC`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tours []models.PropertyTour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, *t)
	}
	return tours, rows.Err()
}

// Create relies on the property_tours_no_overlap exclusion constraint; a
// 23P01 rejection means another active tour holds an overlapping interval.
func (r *pqTourRepo) Create(t *models.PropertyTour) error {
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	_, err := r.conn.Exec(`
	INSERT INTO property_tours (
		id, property_id, user_id, agent_id, scheduled_date, end_time,
		status, notes, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.PropertyID, t.UserID, t.AgentID, t.ScheduledDate, t.EndTime,
		t.Status, t.Notes, t.CreatedAt, t.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23P01" {
		return repository.ErrTourOverlap
	}
	return err
}

func (r *pqTourRepo) Save(t *models.PropertyTour) error {
	t.UpdatedAt = time.Now()
	result, err := r.conn.Exec(`
	UPDATE property_tours SET
		status = $2, notes = $3, updated_at = $4
	WHERE id = $1`,
		t.ID, t.Status, t.Notes, t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pqTourRepo) CompleteElapsed(now time.Time) (int64, error) {
	result, err := r.conn.Exec(`
	UPDATE property_tours SET status = 'completed', updated_at = $1
	WHERE status = 'confirmed' AND end_time <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *pqTourRepo) ExpireElapsedPending(now time.Time) (int64, error) {
	result, err := r.conn.Exec(`
	UPDATE property_tours SET status = 'canceled', updated_at = $1
	WHERE status = 'pending' AND end_time <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type pqUserRepo struct {
	conn *sql.DB
}

func (r *pqUserRepo) GetByID(id string) (*models.User, error) {
	var u models.User
	var phone sql.NullString
	err := r.conn.QueryRow(`
	SELECT id, email, name, role, phone, created_at, updated_at
	FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &phone, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Phone = phone.String
	return &u, nil
}

func (r *pqUserRepo) GetByEmail(email string) (*models.User, error) {
	var u models.User
	var phone sql.NullString
	err := r.conn.QueryRow(`
	SELECT id, email, name, role, phone, created_at, updated_at
	FROM users WHERE LOWER(email) = LOWER($1)`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &phone, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Phone = phone.String
	return &u, nil
}

func (r *pqUserRepo) Create(u *models.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	_, err := r.conn.Exec(`
	INSERT INTO users (id, email, name, role, phone, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Name, u.Role, u.Phone, u.CreatedAt, u.UpdatedAt,
	)
	return err
}
