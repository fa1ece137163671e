package checkout

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/coinacademy/api/services/payments"
	"github.com/coinacademy/api/services/pricefeed"
	"github.com/coinacademy/api/services/storage"
	"github.com/coinacademy/api/utils/middleware"
	"github.com/coinacademy/api/utils/response"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxScreenshotSize = 10 * 1024 * 1024 // 10MB

var allowedScreenshotExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// CheckoutHandler handles storefront checkout submissions
type CheckoutHandler struct {
	payments  *payments.Service
	spaces    *storage.SpacesClient
	priceFeed *pricefeed.Poller
}

// NewCheckoutHandler creates a new checkout handler. spaces and
// priceFeed may be nil; checkout then runs without screenshot upload or
// display rates.
func NewCheckoutHandler(paymentService *payments.Service, spaces *storage.SpacesClient, priceFeed *pricefeed.Poller) *CheckoutHandler {
	return &CheckoutHandler{
		payments:  paymentService,
		spaces:    spaces,
		priceFeed: priceFeed,
	}
}

// CreateCheckout handles POST /api/v1/checkout. The submission is a
// multipart form so the payment screenshot can ride along:
//
//	type       "course" or "subscription"
//	plan       subscription plan, ignored for course checkouts
//	coin       BTC, USDT or USDC
//	course_id  required for course checkouts
//	screenshot optional payment evidence image
func (h *CheckoutHandler) CreateCheckout(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	in := payments.CheckoutInput{
		Type: c.FormValue("type"),
		Plan: c.FormValue("plan"),
		Coin: c.FormValue("coin"),
	}

	if courseID := c.FormValue("course_id"); courseID != "" {
		id, err := strconv.ParseUint(courseID, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid course id")
		}
		in.CourseID = uint(id)
	}

	// Screenshot is optional at submission time; admins can still ask
	// for evidence out of band before confirming
	if file, err := c.FormFile("screenshot"); err == nil && file != nil {
		url, err := h.uploadScreenshot(c, userID, file)
		if err != nil {
			return response.BadRequest(c, err.Error())
		}
		in.ScreenshotURL = url
	}

	payment, err := h.payments.CreateCheckout(c.Context(), userID, in)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrInvalidType),
			errors.Is(err, payments.ErrInvalidCoin),
			errors.Is(err, payments.ErrInvalidPlan),
			errors.Is(err, payments.ErrCourseRequired):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, payments.ErrCourseNotFound):
			return response.NotFound(c, "Course not found")
		default:
			return response.InternalServerError(c, "Failed to create checkout")
		}
	}

	return response.Created(c, payment)
}

// GetRates handles GET /api/v1/checkout/rates and returns coin/USD
// display rates for the payment instructions page
func (h *CheckoutHandler) GetRates(c *fiber.Ctx) error {
	if h.priceFeed == nil {
		return response.Error(c, fiber.StatusServiceUnavailable, "Price feed not configured", "PRICE_FEED_UNAVAILABLE")
	}

	rates, err := h.priceFeed.GetRates(c.Context())
	if err != nil {
		log.Printf("[CHECKOUT] Price feed lookup failed: %v", err)
		return response.Error(c, fiber.StatusServiceUnavailable, "Price feed unavailable", "PRICE_FEED_UNAVAILABLE")
	}

	return response.Success(c, rates)
}

// uploadScreenshot validates and stores the payment evidence image
func (h *CheckoutHandler) uploadScreenshot(c *fiber.Ctx, userID uint, file *multipart.FileHeader) (string, error) {
	if h.spaces == nil {
		return "", fmt.Errorf("screenshot storage is not configured")
	}

	if file.Size > maxScreenshotSize {
		return "", fmt.Errorf("screenshot exceeds the 10MB limit")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedScreenshotExt[ext] {
		return "", fmt.Errorf("screenshot must be a png, jpg or webp image")
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to read screenshot")
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("screenshots/%d/%d-%s%s", userID, time.Now().Unix(), uuid.NewString()[:8], ext)

	url, err := h.spaces.UploadFile(c.Context(), key, src, contentType)
	if err != nil {
		log.Printf("[CHECKOUT] Screenshot upload failed for user %d: %v", userID, err)
		return "", fmt.Errorf("failed to store screenshot")
	}

	return url, nil
}
