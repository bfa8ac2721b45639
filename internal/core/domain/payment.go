package domain

import "io"

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentInitiated            PaymentStatus = "initiated"
	PaymentAwaitingVerification PaymentStatus = "awaiting_verification"
	PaymentSuccess              PaymentStatus = "success"
	PaymentFailed               PaymentStatus = "failed"
	PaymentCancelled            PaymentStatus = "cancelled"
)

// Final reports whether no further verification can change the payment.
func (s PaymentStatus) Final() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

// Offline payment methods.
const (
	MethodBankTransfer = "bank_transfer"
	MethodCash         = "cash"
)

// Receipt is the proof attached to an offline payment.
type Receipt struct {
	Method        string `json:"method"`
	Reference     string `json:"reference"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

// PaymentEvent is one entry of a payment's audit trail.
type PaymentEvent map[string]any

// PaymentMeta holds the service-maintained event trail.
type PaymentMeta struct {
	Events []PaymentEvent `json:"events,omitempty"`
}

// Payment is a payment record as listed by the payment service.
type Payment struct {
	ID         int           `json:"id"`
	OrderID    int           `json:"order_id"`
	Amount     float64       `json:"amount"`
	Provider   string        `json:"provider,omitempty"`
	Channel    string        `json:"channel"`
	Status     PaymentStatus `json:"status"`
	PaymentRef string        `json:"payment_ref"`
	CreatedAt  *Timestamp    `json:"created_at,omitempty"`
	Meta       *PaymentMeta  `json:"meta,omitempty"`
	Receipt    *Receipt      `json:"receipt,omitempty"`
}

// PaymentList is the envelope the list endpoints return.
type PaymentList struct {
	OrderID  int       `json:"order_id,omitempty"`
	Page     int       `json:"page,omitempty"`
	Total    int       `json:"total,omitempty"`
	Payments []Payment `json:"payments"`
}

// PaymentStats summarises payments for the admin dashboard.
type PaymentStats struct {
	Total   int     `json:"total"`
	Success int     `json:"success"`
	Pending int     `json:"pending"`
	Failed  int     `json:"failed"`
	Revenue float64 `json:"revenue"`
	Today   struct {
		Payments int     `json:"payments"`
		Revenue  float64 `json:"revenue"`
	} `json:"today"`
}

// PaymentQuery filters GET /payments/.
type PaymentQuery struct {
	Page    int
	Status  string
	Channel string
}

// OfflinePayment is submitted as a multipart form to POST /payments/offline.
type OfflinePayment struct {
	OrderID   int     `validate:"required,gt=0"`
	Method    string  `validate:"required,oneof=bank_transfer cash"`
	Reference string  `validate:"required"`
	Amount    float64 `validate:"gt=0"`
	// Attachment is optional proof of payment.
	Attachment *Attachment `validate:"omitempty"`
}

// Attachment is a file uploaded alongside an offline payment.
type Attachment struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// PaymentSubmitted is the result of an offline submission or initiation.
type PaymentSubmitted struct {
	PaymentID   int           `json:"payment_id"`
	PaymentRef  string        `json:"payment_ref"`
	Status      PaymentStatus `json:"status"`
	RedirectURL *string       `json:"redirect_url,omitempty"`
}

// PaymentVerified is the result of an admin verification.
type PaymentVerified struct {
	PaymentID   int           `json:"payment_id"`
	Status      PaymentStatus `json:"status"`
	OrderStatus OrderStatus   `json:"order_status,omitempty"`
	Message     string        `json:"message,omitempty"`
}

// PaymentInitiation is the body of POST /payments/initiate.
type PaymentInitiation struct {
	OrderID  int     `json:"order_id" validate:"required,gt=0"`
	Amount   float64 `json:"amount" validate:"gt=0"`
	Provider string  `json:"provider,omitempty" validate:"omitempty,oneof=mock mpesa tigo airtel stripe"`
}
