package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"staffdesk/api/internal/clock"
	"staffdesk/api/internal/ids"
	"staffdesk/api/internal/ipmatch"
	"staffdesk/api/internal/models"
	"staffdesk/api/internal/repository"
	"staffdesk/api/internal/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AccessDeniedError means the credential was valid but the client address
// failed the staff member's allow-list. It carries the denied address for
// the audit log and deliberately nothing about the list itself.
type AccessDeniedError struct {
	ClientIP string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied from %s", e.ClientIP)
}

// AuthService is the login gate: credential check, network allow-list
// check, and the single-active-session rule.
type AuthService struct {
	staff      StaffStore
	attendance AttendanceStore
	matcher    ipmatch.Matcher
	clock      clock.Clock
	log        zerolog.Logger
}

func NewAuthService(staff StaffStore, attendance AttendanceStore, matcher ipmatch.Matcher, clk clock.Clock, log zerolog.Logger) *AuthService {
	return &AuthService{
		staff:      staff,
		attendance: attendance,
		matcher:    matcher,
		clock:      clk,
		log:        log,
	}
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

type LoginResult struct {
	Staff   models.Staff
	Session models.AttendanceRecord
}

// Login authorizes a login attempt and opens an attendance session. A prior
// active session for the same staff member is system-logged-out first, so at
// most one session per owner is ever active.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	staff, err := s.staff.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, staff.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !s.matcher.Matches(input.IPAddress, staff.AllowedIPs) {
		s.log.Warn().
			Str("staff_id", staff.ID).
			Str("client_ip", input.IPAddress).
			Msg("login denied by ip allow-list")
		return LoginResult{}, &AccessDeniedError{ClientIP: input.IPAddress}
	}

	now := s.clock.Now()

	if prior, err := s.attendance.FindActiveByStaff(ctx, staff.ID); err == nil {
		if _, closeErr := s.attendance.Close(ctx, prior.ID, now, models.SessionSystemLogout, "superseded by new login"); closeErr != nil && !errors.Is(closeErr, models.ErrSessionClosed) {
			return LoginResult{}, fmt.Errorf("supersede active session: %w", closeErr)
		}
		s.log.Info().
			Str("staff_id", staff.ID).
			Str("session_id", prior.ID).
			Msg("superseded prior active session")
	} else if !errors.Is(err, repository.ErrSessionNotFound) {
		return LoginResult{}, err
	}

	rec := models.NewAttendanceRecord(ids.New(), staff.ID, input.IPAddress, input.UserAgent, now)
	if err := s.attendance.Insert(ctx, rec); err != nil {
		return LoginResult{}, fmt.Errorf("open session: %w", err)
	}

	s.log.Info().
		Str("staff_id", staff.ID).
		Str("session_id", rec.ID).
		Str("client_ip", input.IPAddress).
		Msg("session opened")

	return LoginResult{Staff: staff, Session: rec}, nil
}
