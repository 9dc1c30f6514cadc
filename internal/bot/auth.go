package bot

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"careline/internal/clinicapi"
)

func (b *Bot) startLoginFlow(ctx context.Context, chatID, userID int64) {
	if profile, _ := b.sessions.Hydrate(ctx, userID); profile != nil {
		b.reply(chatID, fmt.Sprintf("You are already logged in as %s. Use /logout first to switch accounts.", profile.UserName))
		return
	}
	b.state.reset(userID)
	st := b.state.get(userID)
	st.Step = stepLoginEmail
	b.reply(chatID, "Please enter your email:")
}

func (b *Bot) startRegisterFlow(chatID, userID int64) {
	b.state.reset(userID)
	st := b.state.get(userID)
	st.Step = stepRegisterName
	b.reply(chatID, "Let's create your account. What name should we use?")
}

func (b *Bot) startForgotFlow(chatID, userID int64) {
	b.state.reset(userID)
	st := b.state.get(userID)
	st.Step = stepForgotEmail
	b.reply(chatID, "Enter the email of your account and we'll send a reset code:")
}

func (b *Bot) handleLogout(ctx context.Context, chatID, userID int64) {
	if profile, _ := b.sessions.Hydrate(ctx, userID); profile == nil {
		b.reply(chatID, "You are not logged in.")
		return
	}
	if err := b.sessions.Logout(ctx, userID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("logout failed")
		b.reply(chatID, "Could not log you out. Please try again.")
		return
	}
	b.state.reset(userID)
	b.reply(chatID, "👋 Logged out. See you next time.")
	b.sendMainMenu(ctx, chatID, userID)
}

func (b *Bot) handleAuthInput(ctx context.Context, chatID, userID int64, st *userState, text string) {
	switch st.Step {
	case stepLoginEmail:
		if !looksLikeEmail(text) {
			b.reply(chatID, "That doesn't look like an email. Try again:")
			return
		}
		st.Auth.Email = text
		st.Step = stepLoginPassword
		b.reply(chatID, "And your password:")

	case stepLoginPassword:
		profile, err := b.sessions.Login(ctx, userID, st.Auth.Email, text)
		if err != nil {
			b.reply(chatID, "❌ "+err.Error())
			st.Step = stepLoginEmail
			b.reply(chatID, "Let's try again. Your email:")
			return
		}
		b.state.reset(userID)
		b.reply(chatID, fmt.Sprintf("✅ Welcome back, %s!", profile.UserName))
		b.sendMainMenu(ctx, chatID, userID)

	case stepRegisterName:
		if strings.TrimSpace(text) == "" {
			b.reply(chatID, "Please enter a name:")
			return
		}
		st.Auth.Name = strings.TrimSpace(text)
		st.Step = stepRegisterEmail
		b.reply(chatID, "Your email:")

	case stepRegisterEmail:
		if !looksLikeEmail(text) {
			b.reply(chatID, "That doesn't look like an email. Try again:")
			return
		}
		st.Auth.Email = text
		st.Step = stepRegisterPassword
		b.reply(chatID, "Choose a password (at least 8 characters):")

	case stepRegisterPassword:
		if len(text) < 8 {
			b.reply(chatID, "Password must be at least 8 characters. Try again:")
			return
		}
		err := b.sessions.Register(ctx, userID, clinicapi.RegisterRequest{
			UserName: st.Auth.Name,
			Email:    st.Auth.Email,
			Password: text,
		})
		if err != nil {
			b.reply(chatID, "❌ "+err.Error())
			return
		}
		st.Step = stepVerifyOTP
		st.Auth.LastResend = time.Now()
		b.sendOTPPrompt(chatID, "📧 We sent a 6-digit code to your email. Enter it here:")

	case stepVerifyOTP:
		otp, ok := normalizeOTP(text)
		if !ok {
			b.reply(chatID, "The code is 6 digits. Try again:")
			return
		}
		profile, err := b.sessions.VerifyOTP(ctx, userID, st.Auth.Email, otp)
		if err != nil {
			b.reply(chatID, "❌ "+err.Error())
			return
		}
		b.state.reset(userID)
		if profile != nil {
			b.reply(chatID, fmt.Sprintf("✅ Email verified. Welcome, %s!", profile.UserName))
		} else {
			b.reply(chatID, "✅ Email verified. You can log in now with /login.")
		}
		b.sendMainMenu(ctx, chatID, userID)

	case stepForgotEmail:
		if !looksLikeEmail(text) {
			b.reply(chatID, "That doesn't look like an email. Try again:")
			return
		}
		if err := b.sessions.ForgotPassword(ctx, userID, text); err != nil {
			b.reply(chatID, "❌ "+err.Error())
			return
		}
		st.Auth.Email = text
		st.Auth.LastResend = time.Now()
		st.Step = stepResetOTP
		b.sendOTPPrompt(chatID, "📧 We sent a reset code to your email. Enter it here:")

	case stepResetOTP:
		otp, ok := normalizeOTP(text)
		if !ok {
			b.reply(chatID, "The code is 6 digits. Try again:")
			return
		}
		if err := b.sessions.VerifyResetOTP(ctx, userID, st.Auth.Email, otp); err != nil {
			b.reply(chatID, "❌ "+err.Error())
			return
		}
		st.Auth.OTP = otp
		st.Step = stepResetPassword
		b.reply(chatID, "Code accepted. Enter your new password (at least 8 characters):")

	case stepResetPassword:
		if len(text) < 8 {
			b.reply(chatID, "Password must be at least 8 characters. Try again:")
			return
		}
		profile, err := b.sessions.ResetPassword(ctx, userID, st.Auth.Email, st.Auth.OTP, text)
		if err != nil {
			b.reply(chatID, "❌ "+err.Error())
			return
		}
		b.state.reset(userID)
		if profile != nil {
			b.reply(chatID, "✅ Password changed, you are logged in.")
		} else {
			b.reply(chatID, "✅ Password changed. Log in with /login.")
		}
		b.sendMainMenu(ctx, chatID, userID)
	}
}

func (b *Bot) sendOTPPrompt(chatID int64, text string) {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Resend code", "otp:resend"),
		),
	)
	b.replyWithMarkup(chatID, text, markup)
}

func (b *Bot) handleResendOTP(ctx context.Context, chatID, userID int64, st *userState) {
	if st.Step != stepVerifyOTP && st.Step != stepResetOTP {
		return
	}
	if wait := b.opts.OTPResendCooldown - time.Since(st.Auth.LastResend); wait > 0 {
		b.reply(chatID, fmt.Sprintf("Please wait %d seconds before requesting another code.", int(wait.Seconds())+1))
		return
	}
	var err error
	if st.Step == stepVerifyOTP {
		err = b.sessions.ResendOTP(ctx, userID, st.Auth.Email)
	} else {
		err = b.sessions.ForgotPassword(ctx, userID, st.Auth.Email)
	}
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	st.Auth.LastResend = time.Now()
	b.reply(chatID, "📧 A new code is on its way.")
}

// normalizeOTP strips separators and checks for exactly six digits.
func normalizeOTP(text string) (string, bool) {
	var digits strings.Builder
	for _, r := range strings.TrimSpace(text) {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
			continue
		}
		if r == ' ' || r == '-' {
			continue
		}
		return "", false
	}
	otp := digits.String()
	if len(otp) != 6 {
		return "", false
	}
	return otp, true
}

// looksLikeEmail is a sanity check, not validation; the backend decides.
func looksLikeEmail(text string) bool {
	text = strings.TrimSpace(text)
	at := strings.Index(text, "@")
	if at <= 0 || at == len(text)-1 {
		return false
	}
	return !strings.ContainsAny(text, " \t") && strings.Contains(text[at:], ".")
}
