// Package bot is the Telegram front end: menus, the booking wizard, auth
// flows and account screens, all running against the clinic REST backend.
package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"careline/internal/clinicapi"
	"careline/internal/events"
	"careline/internal/models"
	"careline/internal/payment"
	"careline/internal/session"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	SelfUser() tgbotapi.User
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.api.Request(msg)
}

func (c *realTelegramClient) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

func (c *realTelegramClient) SelfUser() tgbotapi.User {
	return c.api.Self
}

// Options tune per-chat behavior.
type Options struct {
	SlotInterval      time.Duration
	OTPResendCooldown time.Duration
	// RateLimit throttles how many updates per second one user may spend.
	RateLimit rate.Limit
	RateBurst int
}

func (o *Options) fillDefaults() {
	if o.SlotInterval <= 0 {
		o.SlotInterval = 30 * time.Minute
	}
	if o.OTPResendCooldown <= 0 {
		o.OTPResendCooldown = time.Minute
	}
	if o.RateLimit <= 0 {
		o.RateLimit = rate.Limit(1)
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 5
	}
}

// bookingMirror pushes appointment changes to an external calendar.
type bookingMirror interface {
	MirrorBooking(ctx context.Context, booking *models.Booking) error
	RemoveBooking(ctx context.Context, bookingID string) error
}

// Bot wires the Telegram transport to the clinic backend.
type Bot struct {
	tg       telegramClient
	api      *clinicapi.Client
	sessions *session.Manager
	handoff  *payment.Handoff
	watcher  *payment.RedirectWatcher
	mirror   bookingMirror // optional
	state    *stateStore
	opts     Options
	logger   *zerolog.Logger

	limiterMu sync.Mutex
	limiters  map[int64]*rate.Limiter
}

func New(
	token string,
	api *clinicapi.Client,
	sessions *session.Manager,
	handoff *payment.Handoff,
	watcher *payment.RedirectWatcher,
	bus *events.Bus,
	opts Options,
	logger *zerolog.Logger,
) (*Bot, error) {
	tgAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return newBot(&realTelegramClient{api: tgAPI}, api, sessions, handoff, watcher, bus, opts, logger), nil
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(
	tg telegramClient,
	api *clinicapi.Client,
	sessions *session.Manager,
	handoff *payment.Handoff,
	watcher *payment.RedirectWatcher,
	bus *events.Bus,
	opts Options,
	logger *zerolog.Logger,
) *Bot {
	return newBot(tg, api, sessions, handoff, watcher, bus, opts, logger)
}

func newBot(
	tg telegramClient,
	api *clinicapi.Client,
	sessions *session.Manager,
	handoff *payment.Handoff,
	watcher *payment.RedirectWatcher,
	bus *events.Bus,
	opts Options,
	logger *zerolog.Logger,
) *Bot {
	opts.fillDefaults()
	b := &Bot{
		tg:       tg,
		api:      api,
		sessions: sessions,
		handoff:  handoff,
		watcher:  watcher,
		state:    newStateStore(),
		opts:     opts,
		logger:   logger,
		limiters: make(map[int64]*rate.Limiter),
	}
	if bus != nil {
		bus.Subscribe(events.SessionExpired, b.onSessionExpired)
	}
	return b
}

// SetBookingMirror attaches an external calendar mirror. Mirroring is best
// effort and never blocks a chat interaction.
func (b *Bot) SetBookingMirror(m bookingMirror) {
	b.mirror = m
}

func (b *Bot) mirrorBooking(ctx context.Context, booking *models.Booking) {
	if b.mirror == nil {
		return
	}
	if err := b.mirror.MirrorBooking(ctx, booking); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("booking_id", booking.ID).Msg("calendar mirror failed")
	}
}

func (b *Bot) unmirrorBooking(ctx context.Context, bookingID string) {
	if b.mirror == nil {
		return
	}
	if err := b.mirror.RemoveBooking(ctx, bookingID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("booking_id", bookingID).Msg("calendar unmirror failed")
	}
}

// onSessionExpired tells the user their login lapsed. The chat id equals
// the Telegram user id for private chats, which is the only place sessions
// live.
func (b *Bot) onSessionExpired(e events.Event) {
	b.state.reset(e.UserID)
	b.reply(e.UserID, "🔒 Your session has expired. Please log in again with /login.")
}

var (
	guestMenu = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🔑 Log in"),
			tgbotapi.NewKeyboardButton("📝 Register"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🩺 Services"),
			tgbotapi.NewKeyboardButton("ℹ️ Help"),
		),
	)

	patientMenu = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🗓 Book appointment"),
			tgbotapi.NewKeyboardButton("📌 My bookings"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🧪 My results"),
			tgbotapi.NewKeyboardButton("🔔 Notifications"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("👤 Profile"),
			tgbotapi.NewKeyboardButton("ℹ️ Help"),
		),
	)
)

func (b *Bot) sendMainMenu(ctx context.Context, chatID, userID int64) {
	msg := tgbotapi.NewMessage(chatID, "What would you like to do?")
	if profile, _ := b.sessions.Hydrate(ctx, userID); profile != nil {
		msg.ReplyMarkup = patientMenu
	} else {
		msg.ReplyMarkup = guestMenu
	}
	_, _ = b.tg.Send(msg)
}

// Start begins polling updates and dispatches them until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("bot authorized")

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			requestID := uuid.New().String()
			l := b.logger.With().Str("request_id", requestID).Logger()
			updateCtx := l.WithContext(ctx)
			b.handleUpdate(updateCtx, &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	if update.CallbackQuery != nil {
		if !b.allow(update.CallbackQuery.From.ID) {
			return
		}
		l.Debug().
			Int64("user_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("handling callback query")
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil {
		if update.Message.From == nil || !b.allow(update.Message.From.ID) {
			return
		}
		l.Debug().
			Int64("user_id", update.Message.From.ID).
			Msg("handling message")
		b.handleMessage(ctx, update.Message)
		return
	}
}

// allow enforces the per-user rate limit. Over-limit updates are dropped
// silently; Telegram retries nothing and the user simply taps again.
func (b *Bot) allow(userID int64) bool {
	b.limiterMu.Lock()
	limiter, ok := b.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(b.opts.RateLimit, b.opts.RateBurst)
		b.limiters[userID] = limiter
	}
	b.limiterMu.Unlock()
	return limiter.Allow()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	userID := msg.From.ID
	chatID := msg.Chat.ID

	// Commands and menu buttons interrupt any active flow.
	switch {
	case strings.HasPrefix(text, "/start"):
		b.state.reset(userID)
		b.reply(chatID, "👋 Welcome to the clinic assistant. Everything here stays between you and the clinic.")
		b.sendMainMenu(ctx, chatID, userID)
		return
	case text == "ℹ️ Help" || strings.HasPrefix(text, "/help"):
		b.reply(chatID, helpText)
		return
	case text == "🔑 Log in" || strings.HasPrefix(text, "/login"):
		b.startLoginFlow(ctx, chatID, userID)
		return
	case text == "📝 Register" || strings.HasPrefix(text, "/register"):
		b.startRegisterFlow(chatID, userID)
		return
	case strings.HasPrefix(text, "/forgot_password"):
		b.startForgotFlow(chatID, userID)
		return
	case strings.HasPrefix(text, "/logout"):
		b.handleLogout(ctx, chatID, userID)
		return
	case text == "🗓 Book appointment" || strings.HasPrefix(text, "/book"):
		b.startBookingFlow(ctx, chatID, userID)
		return
	case text == "🩺 Services" || strings.HasPrefix(text, "/services"):
		b.sendCategories(ctx, chatID, userID, false)
		return
	case text == "📌 My bookings" || strings.HasPrefix(text, "/my_bookings"):
		b.handleMyBookings(ctx, chatID, userID)
		return
	case text == "🧪 My results" || strings.HasPrefix(text, "/results"):
		b.handleMyResults(ctx, chatID, userID)
		return
	case text == "🔔 Notifications" || strings.HasPrefix(text, "/notifications"):
		b.handleNotifications(ctx, chatID, userID)
		return
	case text == "👤 Profile" || strings.HasPrefix(text, "/profile"):
		b.handleProfile(ctx, chatID, userID)
		return
	case strings.HasPrefix(text, "/export"):
		b.handleExport(ctx, chatID, userID)
		return
	case strings.HasPrefix(text, "/cancel"):
		b.state.reset(userID)
		b.reply(chatID, "Okay, cancelled.")
		b.sendMainMenu(ctx, chatID, userID)
		return
	}

	b.handleFlowInput(ctx, chatID, userID, text)
}

// handleFlowInput routes free text to whichever flow is waiting for it.
func (b *Bot) handleFlowInput(ctx context.Context, chatID, userID int64, text string) {
	st := b.state.get(userID)
	switch st.Step {
	case stepLoginEmail, stepLoginPassword,
		stepRegisterName, stepRegisterEmail, stepRegisterPassword,
		stepVerifyOTP, stepForgotEmail, stepResetOTP, stepResetPassword:
		b.handleAuthInput(ctx, chatID, userID, st, text)
	case stepName, stepPhone, stepNotes:
		b.handleBookingInput(ctx, chatID, userID, st, text)
	case stepEditName, stepEditPhone:
		b.handleProfileInput(ctx, chatID, userID, st, text)
	default:
		b.reply(chatID, "I didn't catch that. Use the menu below or /help.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq == nil || cq.Message == nil {
		return
	}
	data := cq.Data
	_ = b.answerCallback(cq.ID)
	if data == "noop" {
		return
	}

	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	st := b.state.get(userID)

	switch {
	case strings.HasPrefix(data, "cat:"):
		b.handleCategoryCallback(ctx, chatID, userID, st, strings.TrimPrefix(data, "cat:"))
	case strings.HasPrefix(data, "svc:"):
		b.handleServiceCallback(ctx, chatID, userID, st, strings.TrimPrefix(data, "svc:"))
	case strings.HasPrefix(data, "date:"):
		b.handleDateCallback(ctx, chatID, userID, st, strings.TrimPrefix(data, "date:"))
	case strings.HasPrefix(data, "doc:"):
		b.handleDoctorCallback(ctx, chatID, userID, st, strings.TrimPrefix(data, "doc:"))
	case strings.HasPrefix(data, "slot:"):
		b.handleSlotCallback(ctx, chatID, userID, st, strings.TrimPrefix(data, "slot:"))
	case strings.HasPrefix(data, "anon:"):
		b.handleVisibilityCallback(ctx, chatID, userID, st, strings.TrimPrefix(data, "anon:"))
	case strings.HasPrefix(data, "back:"):
		b.handleBack(ctx, chatID, userID, st, strings.TrimPrefix(data, "back:"))
	case data == "confirm":
		b.handleConfirmCallback(ctx, chatID, userID, st)
	case data == "cancel":
		b.state.reset(userID)
		b.reply(chatID, "Okay, cancelled. /book to start over.")
	case data == "otp:resend":
		b.handleResendOTP(ctx, chatID, userID, st)
	case strings.HasPrefix(data, "bk:"):
		b.handleBookingAction(ctx, chatID, userID, strings.TrimPrefix(data, "bk:"))
	case strings.HasPrefix(data, "profile:"):
		b.handleProfileCallback(ctx, chatID, userID, st, strings.TrimPrefix(data, "profile:"))
	}
}

const helpText = `Available commands:
/book — book an appointment
/my_bookings — view or cancel your bookings
/results — your medical results
/notifications — clinic notifications
/profile — view and edit your profile
/export — download your history as a spreadsheet
/login, /logout, /register, /forgot_password
/cancel — abort the current flow`

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = b.tg.Send(msg)
}

func (b *Bot) replyWithMarkup(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, _ = b.tg.Send(msg)
}

func (b *Bot) answerCallback(id string) error {
	_, err := b.tg.Request(tgbotapi.NewCallback(id, ""))
	return err
}

// requireLogin hydrates the session and nudges guests toward /login.
func (b *Bot) requireLogin(ctx context.Context, chatID, userID int64) *models.User {
	profile, err := b.sessions.Hydrate(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("session hydrate failed")
		b.reply(chatID, "Something went wrong loading your session. Please try again.")
		return nil
	}
	if profile == nil {
		b.reply(chatID, "You need to log in first. Use 🔑 Log in or /login.")
		return nil
	}
	return profile
}
