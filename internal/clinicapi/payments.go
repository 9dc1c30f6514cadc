package clinicapi

import (
	"context"

	"careline/internal/models"
)

const opCreatePayment = "create_payment_link"

// CreatePaymentRequest is the payload for POST /create-payment-link.
// returnUrl/cancelUrl tell the gateway where to redirect after checkout;
// the redirect watcher inspects those hits for the outcome markers.
type CreatePaymentRequest struct {
	OrderCode   string  `json:"orderCode"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	ReturnURL   string  `json:"returnUrl,omitempty"`
	CancelURL   string  `json:"cancelUrl,omitempty"`
}

// CreatePaymentLink requests a hosted checkout link for a booking.
func (c *Client) CreatePaymentLink(ctx context.Context, userID int64, req CreatePaymentRequest) (*models.Payment, error) {
	var payment models.Payment
	if err := c.doPost(ctx, userID, "/create-payment-link", opCreatePayment, req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
