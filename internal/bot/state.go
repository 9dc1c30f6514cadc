package bot

import (
	"sync"
	"time"

	"careline/internal/booking"
	"careline/internal/models"
)

type flowStep string

const (
	stepNone flowStep = "none"

	// auth flows
	stepLoginEmail       flowStep = "login_email"
	stepLoginPassword    flowStep = "login_password"
	stepRegisterName     flowStep = "register_name"
	stepRegisterEmail    flowStep = "register_email"
	stepRegisterPassword flowStep = "register_password"
	stepVerifyOTP        flowStep = "verify_otp"
	stepForgotEmail      flowStep = "forgot_email"
	stepResetOTP         flowStep = "reset_otp"
	stepResetPassword    flowStep = "reset_password"

	// booking wizard
	stepCategory flowStep = "category"
	stepService  flowStep = "service"
	stepDate     flowStep = "date"
	stepDoctor   flowStep = "doctor"
	stepSlot     flowStep = "slot"
	stepVisible  flowStep = "visibility"
	stepName     flowStep = "customer_name"
	stepPhone    flowStep = "customer_phone"
	stepNotes    flowStep = "notes"
	stepConfirm  flowStep = "confirm"

	// profile edit
	stepEditName  flowStep = "edit_name"
	stepEditPhone flowStep = "edit_phone"
)

// authDraft buffers answers of the login/register/reset flows.
type authDraft struct {
	Name       string
	Email      string
	OTP        string
	LastResend time.Time
}

type userState struct {
	Step    flowStep
	Auth    authDraft
	Draft   booking.Draft
	Doctors []models.Doctor // roster snapshot taken when the wizard starts
}

// ChooseDate records a date pick. Doctor and slot depend on the date, so a
// change drops both.
func (s *userState) ChooseDate(date time.Time) {
	if !s.Draft.Date.Equal(date) {
		s.Draft.DoctorName = ""
		s.Draft.StartTime = ""
	}
	s.Draft.Date = date
}

// ChooseDoctor records a doctor pick. The slot grid comes from the doctor's
// working hours, so a change drops the chosen slot.
func (s *userState) ChooseDoctor(name string) {
	if s.Draft.DoctorName != name {
		s.Draft.StartTime = ""
	}
	s.Draft.DoctorName = name
}

type stateStore struct {
	mu sync.Mutex
	m  map[int64]*userState
}

func newStateStore() *stateStore {
	return &stateStore{m: make(map[int64]*userState)}
}

func (s *stateStore) get(userID int64) *userState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.m[userID]
	if st == nil {
		st = &userState{Step: stepNone}
		s.m[userID] = st
	}
	return st
}

func (s *stateStore) reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}
