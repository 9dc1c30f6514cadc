package payment

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"careline/internal/metrics"
)

// Outcome is what a redirect hit tells us about a checkout attempt.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeUnknown   Outcome = "unknown"
)

// DetectOutcome classifies a navigated URL by marker substring. The
// cancel marker wins ties because gateways append success-looking query
// noise to cancel redirects more often than the reverse.
func DetectOutcome(rawURL, successMarker, cancelMarker string) Outcome {
	if cancelMarker != "" && strings.Contains(rawURL, cancelMarker) {
		return OutcomeCancelled
	}
	if successMarker != "" && strings.Contains(rawURL, successMarker) {
		return OutcomeSuccess
	}
	return OutcomeUnknown
}

// Callback receives the final outcome for one order code.
type Callback func(orderCode string, outcome Outcome)

// RedirectWatcher is a local HTTP endpoint the checkout gateway redirects
// back to. It stands in for the in-app browser of a mobile client: the
// URL the user lands on, not its body, carries the outcome.
type RedirectWatcher struct {
	cfg    Config
	logger *zerolog.Logger
	server *http.Server

	mu      sync.Mutex
	pending map[string]Callback
}

func NewRedirectWatcher(addr string, cfg Config, logger *zerolog.Logger) *RedirectWatcher {
	w := &RedirectWatcher{
		cfg:     cfg,
		logger:  logger,
		pending: make(map[string]Callback),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", w.handleRedirect)
	w.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return w
}

// Watch registers a callback for an order code. The callback fires at most
// once; later hits for the same code are acknowledged but ignored.
func (w *RedirectWatcher) Watch(orderCode string, cb Callback) {
	w.mu.Lock()
	w.pending[orderCode] = cb
	w.mu.Unlock()
}

// Forget drops a registration, e.g. when the user abandons the flow.
func (w *RedirectWatcher) Forget(orderCode string) {
	w.mu.Lock()
	delete(w.pending, orderCode)
	w.mu.Unlock()
}

func (w *RedirectWatcher) handleRedirect(rw http.ResponseWriter, r *http.Request) {
	outcome := DetectOutcome(r.URL.String(), w.cfg.SuccessMarker, w.cfg.CancelMarker)
	orderCode := r.URL.Query().Get("orderCode")

	w.logger.Info().
		Str("order_code", orderCode).
		Str("outcome", string(outcome)).
		Str("path", r.URL.Path).
		Msg("payment redirect received")

	if outcome != OutcomeUnknown && orderCode != "" {
		w.mu.Lock()
		cb, ok := w.pending[orderCode]
		if ok {
			delete(w.pending, orderCode)
		}
		w.mu.Unlock()
		if ok {
			metrics.IncPaymentOutcome(string(outcome))
			cb(orderCode, outcome)
		}
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	switch outcome {
	case OutcomeSuccess:
		_, _ = rw.Write([]byte("<html><body><h2>Payment received</h2><p>You can return to the chat.</p></body></html>"))
	case OutcomeCancelled:
		_, _ = rw.Write([]byte("<html><body><h2>Payment cancelled</h2><p>You can return to the chat.</p></body></html>"))
	default:
		rw.WriteHeader(http.StatusNotFound)
	}
}

// Start serves redirect hits until the listener fails or Shutdown is
// called.
func (w *RedirectWatcher) Start() error {
	w.logger.Info().Str("addr", w.server.Addr).Msg("payment redirect watcher listening")
	err := w.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (w *RedirectWatcher) Shutdown(ctx context.Context) error {
	return w.server.Shutdown(ctx)
}
