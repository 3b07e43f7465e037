package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/minato-edu/tutoring-api/internal/models"
)

// DiscountRepository handles persistence of the discount catalog.
type DiscountRepository struct {
	db *sqlx.DB
}

// NewDiscountRepository constructs the repository.
func NewDiscountRepository(db *sqlx.DB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

// ListActive returns the active discount catalog.
func (r *DiscountRepository) ListActive(ctx context.Context) ([]models.Discount, error) {
	const query = `SELECT id, description, amount, active, created_at FROM discounts WHERE active = TRUE ORDER BY description`
	var discounts []models.Discount
	if err := r.db.SelectContext(ctx, &discounts, query); err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	return discounts, nil
}

// FindByID returns a discount by its ID.
func (r *DiscountRepository) FindByID(ctx context.Context, id string) (*models.Discount, error) {
	const query = `SELECT id, description, amount, active, created_at FROM discounts WHERE id = $1`
	var discount models.Discount
	if err := r.db.GetContext(ctx, &discount, query, id); err != nil {
		return nil, err
	}
	return &discount, nil
}
