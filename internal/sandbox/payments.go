package sandbox

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/smartretail/storefront/internal/core/domain"
)

// PaymentsPageSize is the page length of the admin payment list.
const PaymentsPageSize = 20

var errPaymentNotFound = &Error{Status: http.StatusNotFound, Message: "not found"}

// OfflineSubmission is a decoded offline payment form.
type OfflineSubmission struct {
	OrderID        int
	Method         string
	Reference      string
	Amount         float64
	AttachmentName string
}

// InitiatePayment opens an online payment for an order.
func (s *Store) InitiatePayment(caller Caller, in domain.PaymentInitiation) (*domain.PaymentSubmitted, error) {
	if in.OrderID <= 0 || in.Amount <= 0 {
		return nil, errorf(http.StatusBadRequest, "order_id and positive amount required")
	}
	provider := in.Provider
	if provider == "" {
		provider = "mock"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOrderAccess(caller, in.OrderID); err != nil {
		return nil, err
	}
	p := s.addPayment(domain.Payment{
		OrderID:    in.OrderID,
		Amount:     in.Amount,
		Provider:   provider,
		Channel:    "online",
		Status:     domain.PaymentInitiated,
		PaymentRef: "PMT_" + randomHex(8),
	}, domain.PaymentEvent{"type": "initiate", "provider": provider})

	return &domain.PaymentSubmitted{PaymentID: p.ID, PaymentRef: p.PaymentRef, Status: p.Status}, nil
}

// SubmitOffline records a bank transfer or cash payment awaiting an admin's
// verification.
func (s *Store) SubmitOffline(caller Caller, in OfflineSubmission) (*domain.PaymentSubmitted, error) {
	if in.OrderID <= 0 || in.Method == "" || in.Reference == "" || in.Amount <= 0 {
		return nil, errorf(http.StatusBadRequest, "order_id, method, reference, amount required")
	}
	if in.Method != domain.MethodBankTransfer && in.Method != domain.MethodCash {
		return nil, errorf(http.StatusBadRequest, "method must be bank_transfer or cash")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOrderAccess(caller, in.OrderID); err != nil {
		return nil, err
	}
	receipt := &domain.Receipt{Method: in.Method, Reference: in.Reference}
	p := s.addPayment(domain.Payment{
		OrderID:    in.OrderID,
		Amount:     in.Amount,
		Provider:   "offline",
		Channel:    "offline",
		Status:     domain.PaymentAwaitingVerification,
		PaymentRef: "OFF_" + randomHex(8),
		Receipt:    receipt,
	}, domain.PaymentEvent{"type": "offline_submit", "method": in.Method, "reference": in.Reference})
	if in.AttachmentName != "" {
		receipt.AttachmentURL = fmt.Sprintf("/uploads/payments/%d/%s", p.ID, in.AttachmentName)
	}

	return &domain.PaymentSubmitted{PaymentID: p.ID, PaymentRef: p.PaymentRef, Status: p.Status}, nil
}

// VerifyPayment finalizes a payment. Approval marks the order paid; a payment
// that is already final is reported as such and left unchanged.
func (s *Store) VerifyPayment(caller Caller, id int, approved bool) (*domain.PaymentVerified, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, errPaymentNotFound
	}
	if p.Status.Final() {
		return &domain.PaymentVerified{PaymentID: p.ID, Status: p.Status, Message: "already finalized"}, nil
	}

	p.Status = domain.PaymentFailed
	if approved {
		p.Status = domain.PaymentSuccess
	}
	p.Meta.Events = append(p.Meta.Events, s.event(domain.PaymentEvent{"type": "offline_verify", "approved": approved}))

	res := &domain.PaymentVerified{PaymentID: p.ID, Status: p.Status}
	if approved {
		s.setOrderStatus(p.OrderID, domain.OrderPaid)
		res.OrderStatus = domain.OrderPaid
	}
	return res, nil
}

// MyPayments lists payments made against the caller's orders, newest first.
func (s *Store) MyPayments(caller Caller) *domain.PaymentList {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Payment, 0)
	for _, p := range s.sortedPayments() {
		if o, ok := s.orders[p.OrderID]; ok && o.UserID == caller.UserID {
			out = append(out, copyPayment(p))
		}
	}
	return &domain.PaymentList{Total: len(out), Payments: out}
}

// ListPayments pages through every payment, optionally filtered by status
// and channel. Pages start at 1.
func (s *Store) ListPayments(caller Caller, q domain.PaymentQuery) (*domain.PaymentList, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*domain.Payment, 0)
	for _, p := range s.sortedPayments() {
		if q.Status != "" && string(p.Status) != q.Status {
			continue
		}
		if q.Channel != "" && p.Channel != q.Channel {
			continue
		}
		matched = append(matched, p)
	}

	out := make([]domain.Payment, 0, PaymentsPageSize)
	start := (page - 1) * PaymentsPageSize
	for i := start; i < len(matched) && i < start+PaymentsPageSize; i++ {
		out = append(out, copyPayment(matched[i]))
	}
	return &domain.PaymentList{Page: page, Total: len(matched), Payments: out}, nil
}

func (s *Store) GetPayment(caller Caller, id int) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, errPaymentNotFound
	}
	if err := s.checkOrderAccess(caller, p.OrderID); err != nil {
		return nil, err
	}
	out := copyPayment(p)
	return &out, nil
}

func (s *Store) PaymentsByOrder(caller Caller, orderID int) (*domain.PaymentList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOrderAccess(caller, orderID); err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0)
	for _, p := range s.sortedPayments() {
		if p.OrderID == orderID {
			out = append(out, copyPayment(p))
		}
	}
	return &domain.PaymentList{OrderID: orderID, Payments: out}, nil
}

func (s *Store) PaymentStats(caller Caller) (*domain.PaymentStats, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	var st domain.PaymentStats
	for _, p := range s.payments {
		st.Total++
		switch p.Status {
		case domain.PaymentSuccess:
			st.Success++
			st.Revenue += p.Amount
		case domain.PaymentFailed:
			st.Failed++
		case domain.PaymentInitiated, domain.PaymentAwaitingVerification:
			st.Pending++
		}
		if p.CreatedAt != nil && !p.CreatedAt.Before(today) {
			st.Today.Payments++
			if p.Status == domain.PaymentSuccess {
				st.Today.Revenue += p.Amount
			}
		}
	}
	st.Revenue = round2(st.Revenue)
	st.Today.Revenue = round2(st.Today.Revenue)
	return &st, nil
}

// checkOrderAccess expects s.mu to be held.
func (s *Store) checkOrderAccess(caller Caller, orderID int) error {
	o, ok := s.orders[orderID]
	if !ok {
		return errOrderNotFound
	}
	if !caller.admin() && o.UserID != caller.UserID {
		return errorf(http.StatusForbidden, "Not authorized to access this order")
	}
	return nil
}

func (s *Store) addPayment(p domain.Payment, first domain.PaymentEvent) *domain.Payment {
	s.nextPayment++
	p.ID = s.nextPayment
	p.CreatedAt = s.timestamp()
	p.Meta = &domain.PaymentMeta{Events: []domain.PaymentEvent{s.event(first)}}
	stored := &p
	s.payments[p.ID] = stored
	return stored
}

func (s *Store) event(ev domain.PaymentEvent) domain.PaymentEvent {
	ev["ts"] = s.now().UTC().Format(time.RFC3339)
	return ev
}

// sortedPayments returns payments newest first.
func (s *Store) sortedPayments() []*domain.Payment {
	out := make([]*domain.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func copyPayment(p *domain.Payment) domain.Payment {
	cp := *p
	if p.Receipt != nil {
		r := *p.Receipt
		cp.Receipt = &r
	}
	if p.Meta != nil {
		cp.Meta = &domain.PaymentMeta{Events: append([]domain.PaymentEvent(nil), p.Meta.Events...)}
	}
	return cp
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%0*x", n*2, time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
