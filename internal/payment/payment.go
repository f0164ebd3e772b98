// Package payment holds payments and the proofs customers attach to them.
package payment

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/partyland-backend/internal/money"
)

// Status is the moderation state of a payment.
type Status string

const (
	StatusAwaitingProof Status = "awaiting_proof"
	StatusUnderReview   Status = "under_review"
	StatusPaid          Status = "paid"
	StatusRejected      Status = "rejected"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusAwaitingProof, StatusUnderReview, StatusPaid, StatusRejected:
		return st, true
	}
	return "", false
}

func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusRejected
}

// Payment is one payment obligation of an order. At most one payment per
// order is active.
type Payment struct {
	ID              int             `json:"id"`
	OrderID         int             `json:"order_id"`
	AmountUZS       decimal.Decimal `json:"amount_uzs"`
	Provider        string          `json:"provider"`
	Status          Status          `json:"status"`
	IsActive        bool            `json:"is_active"`
	RejectionReason string          `json:"rejection_reason"`
	ReviewedBy      *int            `json:"reviewed_by"`
	ReviewedAt      *time.Time      `json:"reviewed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (p Payment) FormattedAmount() string {
	return money.Format(p.AmountUZS)
}

// Proof is evidence of payment: an uploaded image or a Telegram file.
type Proof struct {
	ID                  int       `json:"id"`
	PaymentID           int       `json:"-"`
	Image               *string   `json:"image"`
	TelegramFileID      *string   `json:"telegram_file_id"`
	SubmittedByUser     *int      `json:"-"`
	SubmittedByTelegram *int64    `json:"-"`
	Comment             string    `json:"comment"`
	MessageID           *string   `json:"message_id"`
	SubmittedAt         time.Time `json:"submitted_at"`
}

// SubmittedBy names the submitter for display.
func (p Proof) SubmittedBy() string {
	switch {
	case p.SubmittedByUser != nil:
		return "user " + strconv.Itoa(*p.SubmittedByUser)
	case p.SubmittedByTelegram != nil:
		return strconv.FormatInt(*p.SubmittedByTelegram, 10)
	}
	return ""
}

// ProofView is the API shape of a proof.
type ProofView struct {
	Proof
	ImageURL    *string `json:"image_url"`
	SubmittedBy string  `json:"submitted_by"`
}

// Detail is the API shape of a payment.
type Detail struct {
	Payment
	OrderStatus     string      `json:"order_status"`
	FormattedAmount string      `json:"formatted_amount"`
	Proofs          []ProofView `json:"proofs"`
}

// ImageURLPrefix is where uploaded proof images are served from.
const ImageURLPrefix = "/uploads/"

func newProofView(p Proof) ProofView {
	v := ProofView{Proof: p, SubmittedBy: p.SubmittedBy()}
	if p.Image != nil && *p.Image != "" {
		url := ImageURLPrefix + *p.Image
		v.ImageURL = &url
	}
	return v
}
