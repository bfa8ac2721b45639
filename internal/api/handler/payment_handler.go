package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/sandbox"
)

type PaymentHandler struct {
	store *sandbox.Store
}

func NewPaymentHandler(store *sandbox.Store) *PaymentHandler {
	return &PaymentHandler{store: store}
}

type offlineJSONRequest struct {
	OrderID       int     `json:"order_id"`
	Method        string  `json:"method"`
	Reference     string  `json:"reference"`
	Amount        float64 `json:"amount"`
	AttachmentURL string  `json:"attachment_url"`
}

type verifyRequest struct {
	Approved bool `json:"approved"`
}

type paymentListQuery struct {
	Page    int    `query:"page" validate:"gte=0"`
	Status  string `query:"status" validate:"omitempty,oneof=initiated awaiting_verification success failed cancelled"`
	Channel string `query:"channel" validate:"omitempty,oneof=online offline"`
}

// Initiate handles POST /payments/initiate.
func (h *PaymentHandler) Initiate(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req domain.PaymentInitiation
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "order_id and positive amount required"})
	}

	res, err := h.store.InitiatePayment(caller, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// SubmitOffline handles POST /payments/offline. The body is multipart form
// data with an optional "attachment" file; a JSON body is accepted too.
func (h *PaymentHandler) SubmitOffline(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var sub sandbox.OfflineSubmission
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var req offlineJSONRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		}
		sub = sandbox.OfflineSubmission{
			OrderID:   req.OrderID,
			Method:    req.Method,
			Reference: req.Reference,
			Amount:    req.Amount,
		}
		if req.AttachmentURL != "" {
			sub.AttachmentName = filepath.Base(req.AttachmentURL)
		}
	} else {
		sub.OrderID, _ = strconv.Atoi(c.FormValue("order_id"))
		sub.Method = c.FormValue("method")
		sub.Reference = c.FormValue("reference")
		sub.Amount, _ = strconv.ParseFloat(c.FormValue("amount"), 64)

		file, err := c.FormFile("attachment")
		switch {
		case err == nil:
			sub.AttachmentName = filepath.Base(file.Filename)
		case !errors.Is(err, http.ErrMissingFile):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid attachment"})
		}
	}

	res, err := h.store.SubmitOffline(caller, sub)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Verify handles POST /payments/:id/verify.
func (h *PaymentHandler) Verify(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	res, err := h.store.VerifyPayment(caller, id, req.Approved)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Mine handles GET /payments/mine.
func (h *PaymentHandler) Mine(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.MyPayments(caller))
}

// List handles GET /payments/.
func (h *PaymentHandler) List(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var q paymentListQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}

	res, err := h.store.ListPayments(caller, domain.PaymentQuery{Page: q.Page, Status: q.Status, Channel: q.Channel})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Get handles GET /payments/:id.
func (h *PaymentHandler) Get(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	p, err := h.store.GetPayment(caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// ByOrder handles GET /payments/by-order/:order_id.
func (h *PaymentHandler) ByOrder(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "order_id")
	if err != nil {
		return err
	}

	res, err := h.store.PaymentsByOrder(caller, orderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Stats handles GET /payments/stats.
func (h *PaymentHandler) Stats(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	res, err := h.store.PaymentStats(caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
