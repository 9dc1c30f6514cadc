// Package payment hands a pending booking to the hosted checkout gateway
// and watches the redirect the gateway issues afterwards to learn the
// outcome.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"careline/internal/clinicapi"
	"careline/internal/metrics"
	"careline/internal/models"
)

var (
	// ErrNotPending means the booking already moved past the payable state.
	ErrNotPending = errors.New("payment: booking is not pending")
	// ErrNoPrice means the service carries no positive price to charge.
	ErrNoPrice = errors.New("payment: service has no payable price")
)

// API is the slice of the clinic client the handoff needs.
type API interface {
	CreatePaymentLink(ctx context.Context, userID int64, req clinicapi.CreatePaymentRequest) (*models.Payment, error)
}

// Config locates the redirect watcher from the gateway's point of view.
type Config struct {
	// ReturnBaseURL is the externally reachable base of the redirect
	// watcher, e.g. "http://localhost:8392".
	ReturnBaseURL string
	// SuccessMarker and CancelMarker are the path fragments the watcher
	// looks for in redirect hits.
	SuccessMarker string
	CancelMarker  string
}

// Handoff builds checkout links for payable bookings.
type Handoff struct {
	api    API
	cfg    Config
	logger *zerolog.Logger
	now    func() time.Time
}

func NewHandoff(api API, cfg Config, logger *zerolog.Logger) *Handoff {
	return &Handoff{api: api, cfg: cfg, logger: logger, now: time.Now}
}

// OrderCode derives the gateway order reference for a booking. The backend
// booking code wins; a timestamp reference covers records created before
// codes were issued.
func (h *Handoff) OrderCode(booking *models.Booking) string {
	if booking.BookingCode != "" {
		return booking.BookingCode
	}
	return fmt.Sprintf("CL%d", h.now().UnixMilli())
}

// Start validates the booking, requests a checkout link and returns the
// payment the gateway created. Only pending bookings with a positively
// priced service are payable.
func (h *Handoff) Start(ctx context.Context, userID int64, booking *models.Booking, service *models.Service) (*models.Payment, error) {
	if booking.Status != models.StatusPending {
		return nil, ErrNotPending
	}
	if service == nil || service.Price <= 0 {
		return nil, ErrNoPrice
	}

	orderCode := h.OrderCode(booking)
	req := clinicapi.CreatePaymentRequest{
		OrderCode:   orderCode,
		Amount:      service.Price,
		Description: service.Name,
		ReturnURL:   h.redirectURL(h.cfg.SuccessMarker, orderCode),
		CancelURL:   h.redirectURL(h.cfg.CancelMarker, orderCode),
	}

	payment, err := h.api.CreatePaymentLink(ctx, userID, req)
	if err != nil {
		metrics.IncPaymentOutcome("link_failed")
		return nil, err
	}
	if payment.OrderCode == "" {
		payment.OrderCode = orderCode
	}
	h.logger.Info().Str("order_code", orderCode).Float64("amount", service.Price).Msg("checkout link created")
	return payment, nil
}

func (h *Handoff) redirectURL(marker, orderCode string) string {
	return fmt.Sprintf("%s%s?orderCode=%s", h.cfg.ReturnBaseURL, marker, url.QueryEscape(orderCode))
}
