package models

import "time"

// Discount is a catalog discount that can be applied to an invoice draft.
type Discount struct {
	ID          string    `db:"id" json:"id"`
	Description string    `db:"description" json:"description"`
	Amount      int64     `db:"amount" json:"amount"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DiscountRow is one applied discount on an invoice draft. Amounts follow the
// backend sign convention: discounts carry negative amounts and are summed
// into the total as-is.
type DiscountRow struct {
	DiscountID  string `json:"discount_id"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

// InvoiceDraft accumulates billable line items before submission. The base
// item is immutable once the draft is opened; the total is never stored, only
// derived.
type InvoiceDraft struct {
	ID              string        `json:"id"`
	StudentID       string        `json:"student_id"`
	BaseDescription string        `json:"base_description"`
	BaseAmount      int64         `json:"base_amount"`
	Discounts       []DiscountRow `json:"discounts,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Total recomputes base + sum of discount amounts on every read.
func (d *InvoiceDraft) Total() int64 {
	total := d.BaseAmount
	for _, row := range d.Discounts {
		total += row.Amount
	}
	return total
}

// Invoice is a persisted, submitted invoice.
type Invoice struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	Description string    `db:"description" json:"description"`
	TotalAmount int64     `db:"total_amount" json:"total_amount"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// InvoiceItem is one persisted invoice line (base tuition or discount).
type InvoiceItem struct {
	ID          string `db:"id" json:"id"`
	InvoiceID   string `db:"invoice_id" json:"invoice_id"`
	DiscountID  string `db:"discount_id" json:"discount_id,omitempty"`
	Description string `db:"description" json:"description"`
	Amount      int64  `db:"amount" json:"amount"`
}
