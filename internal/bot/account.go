package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"careline/internal/clinicapi"
	"careline/internal/export"
	"careline/internal/models"
	"careline/internal/payment"
)

func (b *Bot) handleMyBookings(ctx context.Context, chatID, userID int64) {
	profile := b.requireLogin(ctx, chatID, userID)
	if profile == nil {
		return
	}
	bookings, err := b.api.BookingsByUser(ctx, userID, profile.ID)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	if len(bookings) == 0 {
		b.reply(chatID, "You have no bookings yet. Start one with /book.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your bookings:\n\n")
	for i := range bookings {
		sb.WriteString(formatBookingLine(&bookings[i]))
		sb.WriteString("\n")
	}
	b.reply(chatID, sb.String())

	// Offer actions for bookings that still accept them.
	for i := range bookings {
		bk := &bookings[i]
		var buttons []tgbotapi.InlineKeyboardButton
		if bk.Status == models.StatusPending {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData("💳 Pay", "bk:pay:"+bk.ID))
		}
		if bk.Status.IsActive() {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", "bk:cancel:"+bk.ID))
		}
		if len(buttons) == 0 {
			continue
		}
		b.replyWithMarkup(chatID,
			fmt.Sprintf("%s %s — %s", bk.Status.Emoji(), bk.BookingCode, bk.ServiceName),
			tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...)))
	}
}

func formatBookingLine(bk *models.Booking) string {
	date := bk.BookingDate.Format("02 Jan")
	return fmt.Sprintf("%s %s | %s %s | %s | %s",
		bk.Status.Emoji(), bk.BookingCode, date, bk.StartTime, bk.ServiceName, bk.Status.Label())
}

func (b *Bot) handleBookingAction(ctx context.Context, chatID, userID int64, data string) {
	switch {
	case strings.HasPrefix(data, "pay:"):
		b.handlePayBooking(ctx, chatID, userID, strings.TrimPrefix(data, "pay:"))
	case strings.HasPrefix(data, "cancel:"):
		b.handleCancelBooking(ctx, chatID, userID, strings.TrimPrefix(data, "cancel:"))
	}
}

func (b *Bot) handlePayBooking(ctx context.Context, chatID, userID int64, bookingID string) {
	if b.requireLogin(ctx, chatID, userID) == nil {
		return
	}
	bk, err := b.api.Booking(ctx, userID, bookingID)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	service, err := b.api.Service(ctx, userID, bk.ServiceID)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}

	pay, err := b.handoff.Start(ctx, userID, bk, service)
	if err != nil {
		switch err {
		case payment.ErrNotPending:
			b.reply(chatID, "This booking is not awaiting payment.")
		case payment.ErrNoPrice:
			b.reply(chatID, "This service has nothing to pay for.")
		default:
			b.reply(chatID, "❌ "+err.Error())
		}
		return
	}

	b.watcher.Watch(pay.OrderCode, func(orderCode string, outcome payment.Outcome) {
		switch outcome {
		case payment.OutcomeSuccess:
			b.reply(chatID, fmt.Sprintf("✅ Payment for %s received. Thank you!", orderCode))
		case payment.OutcomeCancelled:
			b.reply(chatID, fmt.Sprintf("Payment for %s was cancelled. You can retry from 📌 My bookings.", orderCode))
		}
	})

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💳 Open checkout", pay.CheckoutURL),
		),
	)
	b.replyWithMarkup(chatID,
		fmt.Sprintf("Checkout for %s (%s). I'll message you once the payment settles.",
			pay.OrderCode, formatPrice(pay.Amount)),
		markup)
}

func (b *Bot) handleCancelBooking(ctx context.Context, chatID, userID int64, bookingID string) {
	if b.requireLogin(ctx, chatID, userID) == nil {
		return
	}
	if err := b.api.DeleteBooking(ctx, userID, bookingID); err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	b.unmirrorBooking(ctx, bookingID)
	b.reply(chatID, "✖️ Booking cancelled.")
}

func (b *Bot) handleMyResults(ctx context.Context, chatID, userID int64) {
	profile := b.requireLogin(ctx, chatID, userID)
	if profile == nil {
		return
	}
	results, err := b.api.ResultsByUser(ctx, userID, profile.ID)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	if len(results) == 0 {
		b.reply(chatID, "No results yet. They appear here as soon as the clinic publishes them.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🧪 Your results:\n\n")
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("• %s (%s)", r.ServiceName, r.ResultDate.Format("02 Jan 2006")))
		if r.DoctorName != "" {
			sb.WriteString(" — " + r.DoctorName)
		}
		sb.WriteString("\n  " + r.Summary + "\n")
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handleNotifications(ctx context.Context, chatID, userID int64) {
	profile := b.requireLogin(ctx, chatID, userID)
	if profile == nil {
		return
	}
	notifications, err := b.api.NotificationsByUser(ctx, userID, profile.ID)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	if len(notifications) == 0 {
		b.reply(chatID, "No notifications.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🔔 Notifications:\n\n")
	for _, n := range notifications {
		marker := "•"
		if !n.IsRead {
			marker = "🆕"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n  %s\n", marker, n.Title, n.Body))
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handleProfile(ctx context.Context, chatID, userID int64) {
	profile := b.requireLogin(ctx, chatID, userID)
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString("👤 Your profile:\n\n")
	sb.WriteString("Name: " + profile.UserName + "\n")
	sb.WriteString("Email: " + profile.Email + "\n")
	if profile.Phone != "" {
		sb.WriteString("Phone: " + profile.Phone + "\n")
	}
	if profile.IsVerified {
		sb.WriteString("Verified: yes\n")
	} else {
		sb.WriteString("Verified: no\n")
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Name", "profile:edit_name"),
			tgbotapi.NewInlineKeyboardButtonData("✏️ Phone", "profile:edit_phone"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete account", "profile:delete"),
		),
	)
	b.replyWithMarkup(chatID, sb.String(), markup)
}

func (b *Bot) handleProfileCallback(ctx context.Context, chatID, userID int64, st *userState, action string) {
	profile := b.requireLogin(ctx, chatID, userID)
	if profile == nil {
		return
	}
	switch action {
	case "edit_name":
		st.Step = stepEditName
		b.reply(chatID, "New name:")
	case "edit_phone":
		st.Step = stepEditPhone
		b.reply(chatID, "New phone number:")
	case "delete":
		markup := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⚠️ Yes, delete everything", "profile:delete_confirm"),
				tgbotapi.NewInlineKeyboardButtonData("Keep my account", "noop"),
			),
		)
		b.replyWithMarkup(chatID,
			"Deleting your account removes your profile and history at the clinic. This cannot be undone. Are you sure?",
			markup)
	case "delete_confirm":
		if err := b.sessions.DeleteUser(ctx, userID, profile.ID); err != nil {
			b.reply(chatID, "❌ "+err.Error())
			return
		}
		b.state.reset(userID)
		b.reply(chatID, "Your account has been deleted. Take care. 💙")
	}
}

func (b *Bot) handleProfileInput(ctx context.Context, chatID, userID int64, st *userState, text string) {
	profile := b.requireLogin(ctx, chatID, userID)
	if profile == nil {
		return
	}
	patch := profilePatch(st.Step, text)
	if patch == nil {
		b.reply(chatID, "That value doesn't look right. Try again:")
		return
	}
	updated, err := b.sessions.UpdateUser(ctx, userID, profile.ID, *patch)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	st.Step = stepNone
	b.reply(chatID, "✅ Profile updated.")
	zerolog.Ctx(ctx).Info().Str("backend_id", updated.ID).Msg("profile updated")
}

// SendReminder implements the reminder notifier: a short heads-up message
// ahead of an appointment. Private chat ids equal Telegram user ids.
func (b *Bot) SendReminder(userID int64, bk *models.Booking) error {
	text := fmt.Sprintf("⏰ Reminder: %s on %s at %s with %s. See you there!",
		bk.ServiceName, bk.BookingDate.Format("Monday, Jan 2"), bk.StartTime, bk.DoctorName)
	_, err := b.tg.Send(tgbotapi.NewMessage(userID, text))
	return err
}

// profilePatch builds the update payload for a profile-edit step, nil when
// the input fails validation.
func profilePatch(step flowStep, text string) *clinicapi.UserPatch {
	switch step {
	case stepEditName:
		name := strings.TrimSpace(text)
		if name == "" {
			return nil
		}
		return &clinicapi.UserPatch{UserName: &name}
	case stepEditPhone:
		phone, ok := normalizePhone(text)
		if !ok {
			return nil
		}
		return &clinicapi.UserPatch{Phone: &phone}
	}
	return nil
}

func (b *Bot) handleExport(ctx context.Context, chatID, userID int64) {
	profile := b.requireLogin(ctx, chatID, userID)
	if profile == nil {
		return
	}
	bookings, err := b.api.BookingsByUser(ctx, userID, profile.ID)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	results, err := b.api.ResultsByUser(ctx, userID, profile.ID)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}

	data, err := export.History(bookings, results)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("history export failed")
		b.reply(chatID, "Could not build the export. Please try again later.")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("careline-history-%s.xlsx", time.Now().Format("2006-01-02")),
		Bytes: data,
	})
	doc.Caption = "Your bookings and results."
	_, _ = b.tg.Send(doc)
}
