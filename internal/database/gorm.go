package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"realty-marketplace/internal/models"
	"realty-marketplace/internal/repository"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB wraps an existing gorm.DB instance.
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance.
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.PropertyImage{},
		&models.PropertyTour{},
	)
}

func (gdb *GormDB) Properties() repository.PropertyRepository {
	return &gormPropertyRepo{db: gdb.db}
}

func (gdb *GormDB) Tours() repository.TourRepository {
	return &gormTourRepo{db: gdb.db}
}

func (gdb *GormDB) Users() repository.UserRepository {
	return &gormUserRepo{db: gdb.db}
}

type gormPropertyRepo struct {
	db *gorm.DB
}

func (r *gormPropertyRepo) GetByID(id string) (*models.Property, error) {
	var property models.Property
	err := r.db.Where("id = ?", id).First(&property).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *gormPropertyRepo) Create(p *models.Property) error {
	return r.db.Create(p).Error
}

func (r *gormPropertyRepo) Save(p *models.Property) error {
	return r.db.Save(p).Error
}

func (r *gormPropertyRepo) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Property{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *gormPropertyRepo) List(f repository.PropertyFilters) ([]models.Property, error) {
	var properties []models.Property
	err := applyPropertyFilters(r.db.Model(&models.Property{}), f).Find(&properties).Error
	return properties, err
}

func (r *gormPropertyRepo) ListPage(f repository.PropertyFilters, limit, offset int) ([]models.Property, int64, error) {
	var total int64
	if err := applyPropertyFilters(r.db.Model(&models.Property{}), f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var properties []models.Property
	err := applyPropertyFilters(r.db.Model(&models.Property{}), f).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&properties).Error
	return properties, total, err
}

// applyPropertyFilters folds the structured filter record into a query.
// Every provided condition joins the conjunction; the free-text query is an
// OR-group across title/description/address/city that itself joins the
// conjunction. Both callers (paged listing and proximity search) share this
// one builder.
func applyPropertyFilters(q *gorm.DB, f repository.PropertyFilters) *gorm.DB {
	if f.Query != "" {
		pattern := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(address) LIKE ? OR LOWER(city) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if f.City != "" {
		q = q.Where("LOWER(city) = LOWER(?)", f.City)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinBedrooms != nil {
		q = q.Where("bedrooms >= ?", *f.MinBedrooms)
	}
	if f.MinBathrooms != nil {
		q = q.Where("bathrooms >= ?", *f.MinBathrooms)
	}
	if f.PropertyType != "" {
		q = q.Where("LOWER(property_type) = LOWER(?)", f.PropertyType)
	}
	if f.ListingType != "" {
		q = q.Where("LOWER(listing_type) = LOWER(?)", f.ListingType)
	}
	if f.MinSquareFeet != nil {
		q = q.Where("square_feet >= ?", *f.MinSquareFeet)
	}
	if f.MaxSquareFeet != nil {
		q = q.Where("square_feet <= ?", *f.MaxSquareFeet)
	}
	for _, feature := range f.Features {
		q = q.Where("FIND_IN_SET(?, features) > 0", strings.TrimSpace(feature))
	}
	return q
}

type gormTourRepo struct {
	db *gorm.DB
}

func (r *gormTourRepo) GetByID(id string) (*models.PropertyTour, error) {
	var tour models.PropertyTour
	err := r.db.Where("id = ?", id).First(&tour).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tour, nil
}

func (r *gormTourRepo) ActiveForProperty(propertyID string) ([]models.PropertyTour, error) {
	var tours []models.PropertyTour
	err := r.db.
		Where("property_id = ? AND status IN ?", propertyID, models.ActiveTourStatuses()).
		Order("scheduled_date ASC").
		Find(&tours).Error
	return tours, err
}

// Create inserts the tour inside a transaction that re-checks the interval
// against the locked active rows of the property. Two concurrent bookings
// for the same property serialize on the row locks, so both cannot pass the
// overlap count.
func (r *gormTourRepo) Create(t *models.PropertyTour) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var overlapping int64
		err := tx.Model(&models.PropertyTour{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("property_id = ? AND status IN ?", t.PropertyID, models.ActiveTourStatuses()).
			Where("scheduled_date < ? AND ? < end_time", t.EndTime, t.ScheduledDate).
			Count(&overlapping).Error
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return repository.ErrTourOverlap
		}
		return tx.Create(t).Error
	})
}

func (r *gormTourRepo) Save(t *models.PropertyTour) error {
	return r.db.Save(t).Error
}

func (r *gormTourRepo) CompleteElapsed(now time.Time) (int64, error) {
	result := r.db.Model(&models.PropertyTour{}).
		Where("status = ? AND end_time <= ?", models.TourStatusConfirmed, now).
		Updates(map[string]interface{}{
			"status":     models.TourStatusCompleted,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *gormTourRepo) ExpireElapsedPending(now time.Time) (int64, error) {
	result := r.db.Model(&models.PropertyTour{}).
		Where("status = ? AND end_time <= ?", models.TourStatusPending, now).
		Updates(map[string]interface{}{
			"status":     models.TourStatusCanceled,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

type gormUserRepo struct {
	db *gorm.DB
}

func (r *gormUserRepo) GetByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepo) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepo) Create(u *models.User) error {
	return r.db.Create(u).Error
}
