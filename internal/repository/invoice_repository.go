package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/minato-edu/tutoring-api/internal/models"
)

// InvoiceRepository handles persistence of invoices and their line items.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository constructs the repository.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts the invoice head and its items in one transaction.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice, items []models.InvoiceItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin invoice tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now().UTC()
	}

	const headQuery = `INSERT INTO invoices (id, student_id, description, total_amount, created_at)
        VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, headQuery, invoice.ID, invoice.StudentID, invoice.Description, invoice.TotalAmount, invoice.CreatedAt); err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	const itemQuery = `INSERT INTO invoice_items (id, invoice_id, discount_id, description, amount)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5)`
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.InvoiceID = invoice.ID
		if _, err := tx.ExecContext(ctx, itemQuery, item.ID, item.InvoiceID, item.DiscountID, item.Description, item.Amount); err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit invoice tx: %w", err)
	}
	return nil
}

// FindByID returns an invoice by its ID.
func (r *InvoiceRepository) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	const query = `SELECT id, student_id, description, total_amount, created_at FROM invoices WHERE id = $1`
	var invoice models.Invoice
	if err := r.db.GetContext(ctx, &invoice, query, id); err != nil {
		return nil, err
	}
	return &invoice, nil
}
