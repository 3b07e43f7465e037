package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minato-edu/tutoring-api/internal/models"
	appErrors "github.com/minato-edu/tutoring-api/pkg/errors"
)

type discountReader interface {
	FindByID(ctx context.Context, id string) (*models.Discount, error)
	ListActive(ctx context.Context) ([]models.Discount, error)
}

type invoiceWriter interface {
	Create(ctx context.Context, invoice *models.Invoice, items []models.InvoiceItem) error
}

type invoiceStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// OpenInvoiceRequest opens an invoice draft with its immutable base item.
type OpenInvoiceRequest struct {
	StudentID       string `json:"student_id" validate:"required"`
	BaseDescription string `json:"base_description" validate:"required"`
	BaseAmount      int64  `json:"base_amount" validate:"required,gt=0"`
}

// InvoiceView is the API shape of a draft with its derived total.
type InvoiceView struct {
	Draft       *models.InvoiceDraft `json:"draft"`
	TotalAmount int64                `json:"total_amount"`
}

// InvoiceService accumulates invoice drafts and computes totals. The total is
// recomputed from base + discount rows on every read; it is never cached.
type InvoiceService struct {
	discounts discountReader
	invoices  invoiceWriter
	students  invoiceStudentReader
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	store     *invoiceDraftStore
	now       func() time.Time
}

// NewInvoiceService constructs an InvoiceService.
func NewInvoiceService(discounts discountReader, invoices invoiceWriter, students invoiceStudentReader, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, draftTTL time.Duration) *InvoiceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if draftTTL <= 0 {
		draftTTL = 2 * time.Hour
	}
	return &InvoiceService{
		discounts: discounts,
		invoices:  invoices,
		students:  students,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		store:     newInvoiceDraftStore(draftTTL, time.Now),
		now:       time.Now,
	}
}

// Open creates a draft from the base tuition item.
func (s *InvoiceService) Open(ctx context.Context, req OpenInvoiceRequest) (*InvoiceView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invoice payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	draft := &models.InvoiceDraft{
		ID:              uuid.NewString(),
		StudentID:       req.StudentID,
		BaseDescription: req.BaseDescription,
		BaseAmount:      req.BaseAmount,
		CreatedAt:       s.now().UTC(),
	}
	s.store.Save(draft)
	return s.view(draft), nil
}

// Get returns the draft with its recomputed total.
func (s *InvoiceService) Get(id string) (*InvoiceView, error) {
	draft, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return s.view(draft), nil
}

// ListDiscounts exposes the active discount catalog.
func (s *InvoiceService) ListDiscounts(ctx context.Context) ([]models.Discount, error) {
	discounts, err := s.discounts.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list discounts")
	}
	return discounts, nil
}

// AddDiscount appends a catalog discount row. Applying the same discount
// twice is rejected to prevent silent double-counting.
func (s *InvoiceService) AddDiscount(ctx context.Context, id, discountID string) (*InvoiceView, error) {
	draft, err := s.get(id)
	if err != nil {
		return nil, err
	}
	for _, row := range draft.Discounts {
		if row.DiscountID == discountID {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("discount %s already applied", row.Description))
		}
	}

	discount, err := s.discounts.FindByID(ctx, discountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "discount not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discount")
	}
	if !discount.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "discount is inactive")
	}

	draft.Discounts = append(draft.Discounts, models.DiscountRow{
		DiscountID:  discount.ID,
		Description: discount.Description,
		Amount:      discount.Amount,
	})
	s.store.Save(draft)
	return s.view(draft), nil
}

// RemoveDiscount removes exactly the one row keyed by the discount id.
func (s *InvoiceService) RemoveDiscount(id, discountID string) (*InvoiceView, error) {
	draft, err := s.get(id)
	if err != nil {
		return nil, err
	}
	kept := draft.Discounts[:0]
	removed := false
	for _, row := range draft.Discounts {
		if !removed && row.DiscountID == discountID {
			removed = true
			continue
		}
		kept = append(kept, row)
	}
	if !removed {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "discount not applied to this invoice")
	}
	draft.Discounts = kept
	s.store.Save(draft)
	return s.view(draft), nil
}

// Submit persists the invoice with one line per item. On failure the draft is
// kept so the caller can retry; on success it is removed.
func (s *InvoiceService) Submit(ctx context.Context, id string) (*models.Invoice, error) {
	draft, err := s.get(id)
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		ID:          uuid.NewString(),
		StudentID:   draft.StudentID,
		Description: draft.BaseDescription,
		TotalAmount: draft.Total(),
	}
	items := make([]models.InvoiceItem, 0, len(draft.Discounts)+1)
	items = append(items, models.InvoiceItem{
		Description: draft.BaseDescription,
		Amount:      draft.BaseAmount,
	})
	for _, row := range draft.Discounts {
		items = append(items, models.InvoiceItem{
			DiscountID:  row.DiscountID,
			Description: row.Description,
			Amount:      row.Amount,
		})
	}

	if err := s.invoices.Create(ctx, invoice, items); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invoice")
	}

	s.store.Delete(id)
	if s.metrics != nil {
		s.metrics.RecordInvoiceSubmitted()
	}
	s.logger.Info("invoice created",
		zap.String("invoice_id", invoice.ID),
		zap.String("student_id", invoice.StudentID),
		zap.Int64("total_amount", invoice.TotalAmount))
	return invoice, nil
}

// Cancel discards the draft.
func (s *InvoiceService) Cancel(id string) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	s.store.Delete(id)
	return nil
}

func (s *InvoiceService) get(id string) (*models.InvoiceDraft, error) {
	draft, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrDraftExpired, "")
	}
	return draft, nil
}

func (s *InvoiceService) view(draft *models.InvoiceDraft) *InvoiceView {
	return &InvoiceView{Draft: draft, TotalAmount: draft.Total()}
}

type invoiceDraftStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]*models.InvoiceDraft
}

func newInvoiceDraftStore(ttl time.Duration, now func() time.Time) *invoiceDraftStore {
	return &invoiceDraftStore{ttl: ttl, now: now, items: make(map[string]*models.InvoiceDraft)}
}

func (s *invoiceDraftStore) Save(draft *models.InvoiceDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[draft.ID] = draft
}

func (s *invoiceDraftStore) Get(id string) (*models.InvoiceDraft, bool) {
	s.mu.RLock()
	draft, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().Sub(draft.CreatedAt) > s.ttl {
		s.Delete(id)
		return nil, false
	}
	return draft, true
}

func (s *invoiceDraftStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}
