package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careline",
			Name:      "api_requests_total",
			Help:      "Count of clinic API requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careline",
			Name:      "logins_total",
			Help:      "Count of login attempts by result.",
		},
		[]string{"result"},
	)

	sessionExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "careline",
			Name:      "session_expired_total",
			Help:      "Count of sessions invalidated by a 401 response.",
		},
	)

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "careline",
			Name:      "booking_created_total",
			Help:      "Count of bookings submitted successfully.",
		},
	)

	paymentOutcome = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careline",
			Name:      "payment_outcome_total",
			Help:      "Count of payment redirect outcomes.",
		},
		[]string{"outcome"},
	)

	otpSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "careline",
			Name:      "otp_sent_total",
			Help:      "Count of OTP send/resend requests.",
		},
	)

	remindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careline",
			Name:      "reminders_sent_total",
			Help:      "Count of appointment reminders by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(apiRequests, logins, sessionExpired,
			bookingCreated, paymentOutcome, otpSent, remindersSent)
	})
}

func IncAPIRequest(endpoint, outcome string) {
	apiRequests.WithLabelValues(endpoint, outcome).Inc()
}

func IncLogin(result string) {
	logins.WithLabelValues(result).Inc()
}

func IncSessionExpired() {
	sessionExpired.Inc()
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncPaymentOutcome(outcome string) {
	paymentOutcome.WithLabelValues(outcome).Inc()
}

func IncOTPSent() {
	otpSent.Inc()
}

func IncReminderSent(outcome string) {
	remindersSent.WithLabelValues(outcome).Inc()
}
