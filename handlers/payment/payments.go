package payment

import (
	"errors"
	"strconv"

	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/services/payments"
	"github.com/coinacademy/api/utils/middleware"
	"github.com/coinacademy/api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// PaymentHandler handles payment views for students and the admin
// confirmation queue
type PaymentHandler struct {
	db       *gorm.DB
	payments *payments.Service
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB, paymentService *payments.Service) *PaymentHandler {
	return &PaymentHandler{
		db:       db,
		payments: paymentService,
	}
}

// ListMyPayments handles GET /api/v1/payments and returns the viewer's
// own payment history, newest first
func (h *PaymentHandler) ListMyPayments(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var list []model.Payment
	if err := h.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch payments")
	}

	return response.Success(c, list)
}

// ListMyEnrollments handles GET /api/v1/enrollments
func (h *PaymentHandler) ListMyEnrollments(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var list []model.Enrollment
	if err := h.db.Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	return response.Success(c, list)
}

// ListMySubscriptions handles GET /api/v1/subscriptions
func (h *PaymentHandler) ListMySubscriptions(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var list []model.Subscription
	if err := h.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch subscriptions")
	}

	return response.Success(c, list)
}

// GetMyInvoice handles GET /api/v1/payments/:id/invoice. Students can
// only read invoices attached to their own payments.
func (h *PaymentHandler) GetMyInvoice(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	paymentID := c.Params("id")

	var payment model.Payment
	if err := h.db.Where("id = ? AND user_id = ?", paymentID, userID).First(&payment).Error; err != nil {
		return response.NotFound(c, "Payment not found")
	}

	var invoice model.Invoice
	if err := h.db.Where("payment_id = ?", payment.ID).First(&invoice).Error; err != nil {
		return response.NotFound(c, "No invoice for this payment")
	}

	return response.Success(c, invoice)
}

// ListPayments handles GET /api/v1/admin/payments. Defaults to the
// pending confirmation queue; ?status= widens the view.
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	status := c.Query("status", model.PaymentStatusPending)

	query := h.db.Model(&model.Payment{})
	if status != "all" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count payments")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var list []model.Payment
	if err := query.Preload("User").
		Order("created_at ASC"). // oldest submissions first in the queue
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch payments")
	}

	return response.Paginated(c, list, pagination)
}

// ActivatePayment handles POST /api/v1/admin/payments/:id/activate.
// Confirms the payment and provisions its entitlement; repeating the
// call on a confirmed payment is a harmless no-op.
func (h *PaymentHandler) ActivatePayment(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok || admin == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	paymentID := c.Params("id")

	result, err := h.payments.ActivatePayment(c.Context(), paymentID, admin.ID)
	if err != nil {
		if errors.Is(err, payments.ErrPaymentNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to activate payment")
	}

	return response.Success(c, result)
}

// RejectPayment handles POST /api/v1/admin/payments/:id/reject
func (h *PaymentHandler) RejectPayment(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok || admin == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	paymentID := c.Params("id")

	if err := h.payments.RejectPayment(c.Context(), paymentID, admin.ID); err != nil {
		switch {
		case errors.Is(err, payments.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		case errors.Is(err, payments.ErrPaymentNotActive):
			return response.Conflict(c, "Only pending payments can be rejected")
		default:
			return response.InternalServerError(c, "Failed to reject payment")
		}
	}

	return response.Success(c, fiber.Map{
		"message": "Payment rejected",
	})
}
