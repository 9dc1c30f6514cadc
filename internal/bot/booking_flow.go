package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"careline/internal/booking"
	"careline/internal/metrics"
	"careline/internal/models"
)

func (b *Bot) startBookingFlow(ctx context.Context, chatID, userID int64) {
	if b.requireLogin(ctx, chatID, userID) == nil {
		return
	}
	b.state.reset(userID)
	st := b.state.get(userID)
	st.Step = stepCategory
	b.sendCategories(ctx, chatID, userID, true)
}

// sendCategories shows the service catalog. In the wizard the picks drive
// the draft; outside it the same screens are read-only browsing.
func (b *Bot) sendCategories(ctx context.Context, chatID, userID int64, inWizard bool) {
	categories, err := b.api.Categories(ctx, userID)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	if len(categories) == 0 {
		b.reply(chatID, "No services are available right now.")
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories))
	for _, cat := range categories {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(cat.Name, "cat:"+cat.ID),
		})
	}
	if inWizard {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", "cancel"),
		})
	}
	b.replyWithMarkup(chatID, "Choose a category:", tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows})
}

func (b *Bot) handleCategoryCallback(ctx context.Context, chatID, userID int64, st *userState, categoryID string) {
	services, err := b.api.ServicesByCategory(ctx, userID, categoryID)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	if len(services) == 0 {
		b.reply(chatID, "This category has no services yet. Pick another one.")
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(services)+1)
	for _, svc := range services {
		label := svc.Name
		if svc.Price > 0 {
			label = fmt.Sprintf("%s — %s", svc.Name, formatPrice(svc.Price))
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, "svc:"+svc.ID),
		})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "back:category"),
	})
	if st.Step == stepCategory {
		st.Step = stepService
	}
	b.replyWithMarkup(chatID, "Choose a service:", tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows})
}

func (b *Bot) handleServiceCallback(ctx context.Context, chatID, userID int64, st *userState, serviceID string) {
	if st.Step != stepService && st.Step != stepCategory {
		// browsing outside the wizard: show details only
		b.sendServiceDetails(ctx, chatID, userID, serviceID)
		return
	}
	service, err := b.api.Service(ctx, userID, serviceID)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	st.Draft.Service = service
	st.Step = stepDate
	b.sendCalendar(ctx, chatID, userID, st)
}

func (b *Bot) sendServiceDetails(ctx context.Context, chatID, userID int64, serviceID string) {
	service, err := b.api.Service(ctx, userID, serviceID)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	var sb strings.Builder
	sb.WriteString("🩺 " + service.Name + "\n")
	if service.Description != "" {
		sb.WriteString(service.Description + "\n")
	}
	if service.Price > 0 {
		sb.WriteString("Price: " + formatPrice(service.Price) + "\n")
	}
	sb.WriteString("\nBook it with /book.")
	b.reply(chatID, sb.String())
}

// sendCalendar renders the current month with days marked unavailable when
// no doctor works them.
func (b *Bot) sendCalendar(ctx context.Context, chatID, userID int64, st *userState) {
	doctors, err := b.api.Doctors(ctx, userID)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	st.Doctors = doctors

	now := time.Now()
	available := make(map[string]bool)
	for d := 0; d < daysIn(now.Month(), now.Year()); d++ {
		date := time.Date(now.Year(), now.Month(), d+1, 0, 0, 0, 0, time.UTC)
		if date.Before(truncateDay(now)) {
			continue
		}
		if len(booking.FilterDoctorsByDate(doctors, date)) > 0 {
			available[date.Format("2006-01-02")] = true
		}
	}

	markup := GenerateCalendarKeyboard(now.Year(), int(now.Month()), available)
	b.replyWithMarkup(chatID, "Pick a date:", markup)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (b *Bot) handleDateCallback(ctx context.Context, chatID, userID int64, st *userState, dateStr string) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		b.reply(chatID, "That date didn't parse. Pick one from the calendar.")
		return
	}
	if st.Draft.Service == nil {
		b.reply(chatID, "The wizard lost its place. Start over with /book.")
		return
	}
	st.ChooseDate(date)
	st.Step = stepDoctor

	available := booking.FilterDoctorsByDate(st.Doctors, date)
	if len(available) == 0 {
		b.reply(chatID, "No doctors are available on that day. Pick another date.")
		st.Step = stepDate
		b.sendCalendar(ctx, chatID, userID, st)
		return
	}
	b.replyWithMarkup(chatID, "Available doctors on "+date.Format("Monday, Jan 2")+":",
		GenerateDoctorKeyboard(booking.DoctorNames(available)))
}

func (b *Bot) handleDoctorCallback(ctx context.Context, chatID, userID int64, st *userState, name string) {
	doctor := findDoctor(st.Doctors, name)
	if doctor == nil {
		b.reply(chatID, "That doctor is no longer available. Pick another date.")
		st.Step = stepDate
		b.sendCalendar(ctx, chatID, userID, st)
		return
	}
	st.ChooseDoctor(doctor.Name)
	st.Step = stepSlot

	slots, err := booking.GenerateTimeSlots(doctor.StartTimeInDay, doctor.EndTimeInDay, b.opts.SlotInterval)
	if err != nil || len(slots) == 0 {
		zerolog.Ctx(ctx).Warn().Err(err).Str("doctor", doctor.Name).Msg("no slots for doctor working hours")
		b.reply(chatID, "This doctor has no open slots that day. Pick another doctor.")
		st.Step = stepDoctor
		return
	}
	b.replyWithMarkup(chatID, "Pick a time:", GenerateSlotKeyboard(slots))
}

func findDoctor(doctors []models.Doctor, name string) *models.Doctor {
	for i := range doctors {
		if doctors[i].Name == name {
			return &doctors[i]
		}
	}
	return nil
}

func (b *Bot) handleSlotCallback(ctx context.Context, chatID, userID int64, st *userState, label string) {
	if st.Draft.DoctorName == "" {
		b.reply(chatID, "Pick a doctor first.")
		return
	}
	st.Draft.StartTime = label
	st.Step = stepVisible

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🕶 Book anonymously", "anon:yes"),
			tgbotapi.NewInlineKeyboardButtonData("👤 Use my details", "anon:no"),
		),
	)
	b.replyWithMarkup(chatID,
		"Anonymous bookings hide your name and phone from clinic staff. How would you like to book?",
		markup)
}

func (b *Bot) handleVisibilityCallback(ctx context.Context, chatID, userID int64, st *userState, choice string) {
	if st.Step != stepVisible {
		return
	}
	if choice == "yes" {
		st.Draft.IsAnonymous = true
		st.Step = stepNotes
		b.reply(chatID, "Any notes for the clinic? Send them now, or send a dash (-) to skip.")
		return
	}
	st.Draft.IsAnonymous = false
	st.Step = stepName
	b.reply(chatID, "Your full name:")
}

func (b *Bot) handleBookingInput(ctx context.Context, chatID, userID int64, st *userState, text string) {
	switch st.Step {
	case stepName:
		if strings.TrimSpace(text) == "" {
			b.reply(chatID, "Please enter your name:")
			return
		}
		st.Draft.CustomerName = strings.TrimSpace(text)
		st.Step = stepPhone
		b.reply(chatID, "A contact phone number:")

	case stepPhone:
		phone, ok := normalizePhone(text)
		if !ok {
			b.reply(chatID, "That phone number doesn't look right. Example: +84 912 345 678")
			return
		}
		st.Draft.CustomerPhone = phone
		st.Step = stepNotes
		b.reply(chatID, "Any notes for the clinic? Send them now, or send a dash (-) to skip.")

	case stepNotes:
		if text != "-" {
			st.Draft.Notes = text
		}
		st.Step = stepConfirm
		b.sendBookingSummary(ctx, chatID, userID, st)
	}
}

func (b *Bot) sendBookingSummary(ctx context.Context, chatID, userID int64, st *userState) {
	var sb strings.Builder
	sb.WriteString("Please confirm your appointment:\n\n")
	sb.WriteString("🩺 " + st.Draft.Service.Name + "\n")
	sb.WriteString("📅 " + st.Draft.Date.Format("Monday, Jan 2 2006") + "\n")
	sb.WriteString("🕐 " + st.Draft.StartTime + "\n")
	sb.WriteString("👨‍⚕️ " + st.Draft.DoctorName + "\n")
	if st.Draft.IsAnonymous {
		sb.WriteString("🕶 Anonymous booking\n")
	} else {
		sb.WriteString("👤 " + st.Draft.CustomerName + ", " + st.Draft.CustomerPhone + "\n")
	}
	if st.Draft.Service.Price > 0 {
		sb.WriteString("💳 " + formatPrice(st.Draft.Service.Price) + "\n")
	}
	if st.Draft.Notes != "" {
		sb.WriteString("📝 " + st.Draft.Notes + "\n")
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", "confirm"),
			tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", "cancel"),
		),
	)
	b.replyWithMarkup(chatID, sb.String(), markup)
}

func (b *Bot) handleConfirmCallback(ctx context.Context, chatID, userID int64, st *userState) {
	if st.Step != stepConfirm {
		b.reply(chatID, "This confirmation is stale. Start over with /book.")
		return
	}
	profile := b.requireLogin(ctx, chatID, userID)
	if profile == nil {
		return
	}

	req, err := st.Draft.Request(profile)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	created, err := b.api.CreateBooking(ctx, userID, req)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	metrics.IncBookingCreated()
	b.mirrorBooking(ctx, created)

	price := st.Draft.Service.Price
	b.state.reset(userID)

	text := fmt.Sprintf("✅ Booked! Your code is %s. The clinic will confirm shortly.", created.BookingCode)
	if price > 0 {
		markup := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("💳 Pay now", "bk:pay:"+created.ID),
			),
		)
		b.replyWithMarkup(chatID, text, markup)
		return
	}
	b.reply(chatID, text)
}

func (b *Bot) handleBack(ctx context.Context, chatID, userID int64, st *userState, step string) {
	switch step {
	case "category":
		st.Step = stepCategory
		b.sendCategories(ctx, chatID, userID, true)
	case "service":
		st.Step = stepService
		b.sendCategories(ctx, chatID, userID, true)
	case "date":
		st.Step = stepDate
		b.sendCalendar(ctx, chatID, userID, st)
	case "doctor":
		if st.Draft.Date.IsZero() {
			st.Step = stepDate
			b.sendCalendar(ctx, chatID, userID, st)
			return
		}
		b.handleDateCallback(ctx, chatID, userID, st, st.Draft.Date.Format("2006-01-02"))
	default:
		b.startBookingFlow(ctx, chatID, userID)
	}
}

// formatPrice renders VND amounts with thousand separators.
func formatPrice(amount float64) string {
	n := int64(amount)
	s := fmt.Sprintf("%d", n)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, c)
	}
	return string(out) + " ₫"
}

// normalizePhone keeps digits and a leading plus, then sanity-checks the
// length.
func normalizePhone(text string) (string, bool) {
	text = strings.TrimSpace(text)
	var sb strings.Builder
	for i, r := range text {
		if r == '+' && i == 0 {
			sb.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
			continue
		}
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			continue
		}
		return "", false
	}
	phone := sb.String()
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 9 || len(digits) > 15 {
		return "", false
	}
	return phone, true
}
