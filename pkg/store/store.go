// Package store is the persistence layer. It owns every entity and is the
// only package that talks to gorm directly.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ravijp/portfolio-advisor/pkg/apperrors"
	"github.com/ravijp/portfolio-advisor/pkg/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps a gorm connection with typed operations
type Store struct {
	db *gorm.DB
}

// New creates a store over an already migrated connection
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(entity, id)
	}
	return err
}

// --- holdings ---------------------------------------------------------------

func (s *Store) CreateHolding(ctx context.Context, h *models.Holding) error {
	return s.db.WithContext(ctx).Create(h).Error
}

func (s *Store) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	var items []models.Holding
	if err := s.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	return items, nil
}

func (s *Store) GetHolding(ctx context.Context, id uint) (*models.Holding, error) {
	var h models.Holding
	if err := s.db.WithContext(ctx).First(&h, id).Error; err != nil {
		return nil, notFound(err, "holding", id)
	}
	return &h, nil
}

func (s *Store) DeleteHolding(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Holding{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("holding", id)
	}
	return nil
}

// UpdateHoldingPrice sets the current price only; quantity and average cost
// are never touched by a refresh.
func (s *Store) UpdateHoldingPrice(ctx context.Context, id uint, price float64, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Holding{}).Where("id = ?", id).
		Updates(map[string]any{"current_price": price, "last_updated": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("holding", id)
	}
	return nil
}

// SetRecommendations replaces the whole recommendation set of a holding
func (s *Store) SetRecommendations(ctx context.Context, id uint, set models.RecommendationSet, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Holding{}).Where("id = ?", id).
		Updates(map[string]any{
			"recommendations": datatypes.NewJSONType(set),
			"last_updated":    at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("holding", id)
	}
	return nil
}

// --- price history ------------------------------------------------------------

func (s *Store) AddPriceHistory(ctx context.Context, entry *models.PriceHistory) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// ListPriceHistory returns the newest entries first
func (s *Store) ListPriceHistory(ctx context.Context, symbol string, limit int) ([]models.PriceHistory, error) {
	var items []models.PriceHistory
	err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("recorded_at desc").
		Limit(normalizeLimit(limit, 100)).
		Find(&items).Error
	return items, err
}

// --- wishlist -----------------------------------------------------------------

func (s *Store) CreateWishlistItem(ctx context.Context, item *models.WishlistItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListWishlist(ctx context.Context) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if err := s.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return items, nil
}

func (s *Store) DeleteWishlistItem(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.WishlistItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("wishlist item", id)
	}
	return nil
}

// --- goals --------------------------------------------------------------------

func (s *Store) CreateGoal(ctx context.Context, g *models.Goal) error {
	return s.db.WithContext(ctx).Create(g).Error
}

func (s *Store) ListGoals(ctx context.Context) ([]models.Goal, error) {
	var items []models.Goal
	if err := s.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return items, nil
}

func (s *Store) DeleteGoal(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Goal{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("goal", id)
	}
	return nil
}

// --- preferences --------------------------------------------------------------

// UpsertPreferences inserts or fully replaces the preferences keyed by email.
// It reports whether a new record was created.
func (s *Store) UpsertPreferences(ctx context.Context, p *models.UserPreferences) (bool, error) {
	var existing models.UserPreferences
	err := s.db.WithContext(ctx).Where("email = ?", p.Email).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, err
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	err = s.db.WithContext(ctx).Model(&existing).
		Select("notification_time", "risk_profile", "preferred_sectors", "daily_summary_enabled", "updated_at").
		Updates(p).Error
	if err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) GetPreferences(ctx context.Context, email string) (*models.UserPreferences, error) {
	var p models.UserPreferences
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		return nil, notFound(err, "preferences", email)
	}
	return &p, nil
}

// ListSummaryRecipients returns every user with daily summaries enabled
func (s *Store) ListSummaryRecipients(ctx context.Context) ([]models.UserPreferences, error) {
	var items []models.UserPreferences
	err := s.db.WithContext(ctx).
		Where("daily_summary_enabled = ?", true).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list summary recipients: %w", err)
	}
	return items, nil
}

// --- news cache ---------------------------------------------------------------

// ReplaceNews swaps the cached articles for a fresh batch
func (s *Store) ReplaceNews(ctx context.Context, items []models.NewsArticle, fetchedAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.NewsArticle{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ID = 0
			items[i].FetchedAt = fetchedAt
		}
		return tx.Create(&items).Error
	})
}

// ListNewsSince returns cached articles fetched at or after since, newest published first
func (s *Store) ListNewsSince(ctx context.Context, since time.Time) ([]models.NewsArticle, error) {
	var items []models.NewsArticle
	err := s.db.WithContext(ctx).
		Where("fetched_at >= ?", since).
		Order("published_at desc").
		Order("id asc").
		Find(&items).Error
	return items, err
}

// --- portfolio snapshots ------------------------------------------------------

func (s *Store) InsertSnapshot(ctx context.Context, snap *models.PortfolioSnapshot) error {
	return s.db.WithContext(ctx).Create(snap).Error
}

// LatestSnapshotBefore returns the most recent snapshot captured strictly
// before t, or nil when there is none.
func (s *Store) LatestSnapshotBefore(ctx context.Context, t time.Time) (*models.PortfolioSnapshot, error) {
	var snaps []models.PortfolioSnapshot
	err := s.db.WithContext(ctx).
		Where("captured_at < ?", t).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "captured_at"}, Desc: true}).
		Limit(1).
		Find(&snaps).Error
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]models.PortfolioSnapshot, error) {
	var items []models.PortfolioSnapshot
	err := s.db.WithContext(ctx).
		Order("captured_at desc").
		Limit(normalizeLimit(limit, 90)).
		Find(&items).Error
	return items, err
}

// --- deliveries ---------------------------------------------------------------

func (s *Store) RecordDelivery(ctx context.Context, d *models.SummaryDelivery) error {
	return s.db.WithContext(ctx).Create(d).Error
}

func (s *Store) ListDeliveries(ctx context.Context, limit int) ([]models.SummaryDelivery, error) {
	var items []models.SummaryDelivery
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Limit(normalizeLimit(limit, 100)).
		Find(&items).Error
	return items, err
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
