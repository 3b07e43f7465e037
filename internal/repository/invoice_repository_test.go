package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minato-edu/tutoring-api/internal/models"
)

func TestInvoiceCreateInsertsHeadAndItems(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoices")).
		WithArgs(sqlmock.AnyArg(), "s1", "Algebra Intensive tuition", int64(2500), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoice_items")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "", "Algebra Intensive tuition", int64(3000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoice_items")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "d1", "Early Bird", int64(-500)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	invoice := &models.Invoice{
		StudentID:   "s1",
		Description: "Algebra Intensive tuition",
		TotalAmount: 2500,
	}
	items := []models.InvoiceItem{
		{Description: "Algebra Intensive tuition", Amount: 3000},
		{DiscountID: "d1", Description: "Early Bird", Amount: -500},
	}

	require.NoError(t, repo.Create(context.Background(), invoice, items))
	assert.NotEmpty(t, invoice.ID)
	assert.Equal(t, invoice.ID, items[0].InvoiceID)
	assert.Equal(t, invoice.ID, items[1].InvoiceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceCreateRollsBackOnItemFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoices")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoice_items")).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	invoice := &models.Invoice{StudentID: "s1", Description: "tuition", TotalAmount: 3000}
	items := []models.InvoiceItem{{Description: "tuition", Amount: 3000}}

	err := repo.Create(context.Background(), invoice, items)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM invoices WHERE id = $1")).
		WithArgs("inv1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "description", "total_amount", "created_at"}).
			AddRow("inv1", "s1", "tuition", int64(2500), time.Now()))

	invoice, err := repo.FindByID(context.Background(), "inv1")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), invoice.TotalAmount)
}
