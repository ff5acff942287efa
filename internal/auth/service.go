package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/internal/patients"
	"github.com/psiclinic/platform/pkg/logging"
)

// Service implements login, patient self-registration and password reset.
//
// Patient accounts have two entry paths: a professional invites them (a user
// row with an empty password hash is waiting), or they register first and a
// professional links them later. Registering against a waiting invite claims
// it and activates the clinical record.
type Service struct {
	users    Repository
	patients patients.Repository
	issuer   *TokenIssuer
	logger   *logging.Logger

	// defaultProfessionalID receives walk-in registrations that no invite
	// was waiting for. Empty means walk-ins get no clinical record yet.
	defaultProfessionalID string
}

// NewService constructs the auth service.
func NewService(users Repository, patientRepo patients.Repository, issuer *TokenIssuer, defaultProfessionalID string, logger *logging.Logger) *Service {
	if users == nil {
		panic("auth: user repository required")
	}
	if issuer == nil {
		panic("auth: token issuer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		users:                 users,
		patients:              patientRepo,
		issuer:                issuer,
		logger:                logger,
		defaultProfessionalID: defaultProfessionalID,
	}
}

// Login authenticates a user and returns a signed token. A patient logging
// in for the first time activates their invited clinical record.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		// Invited account that was never claimed.
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Role == identity.RolePatient && user.PatientProfileID != "" {
		s.activateProfile(ctx, user.PatientProfileID)
	}

	return s.tokenFor(user)
}

// Register creates a patient account, claiming a waiting invite when one
// exists for the email.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	if existing, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		if existing.Role != identity.RolePatient || existing.PasswordHash != "" {
			return nil, ErrEmailTaken
		}
		// Claim the invited account.
		existing.Name = req.Name
		existing.PasswordHash = string(hash)
		if err := s.users.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("auth: claim invite: %w", err)
		}
		if existing.PatientProfileID != "" {
			s.claimProfile(ctx, existing.PatientProfileID, req)
		}
		return s.tokenFor(existing)
	}

	user := &User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         identity.RolePatient,
	}

	// A professional may have created the clinical record before the
	// patient ever registered.
	if s.patients != nil {
		if profile, err := s.patients.GetByEmail(ctx, req.Email); err == nil && profile.Status == patients.StatusInvited {
			user.PatientProfileID = profile.ID
			s.claimProfile(ctx, profile.ID, req)
		} else if s.defaultProfessionalID != "" {
			created, err := s.patients.Create(ctx, &patients.CreatePatientRequest{
				ProfessionalID: s.defaultProfessionalID,
				Name:           req.Name,
				Email:          req.Email,
				Phone:          req.Phone,
				DateOfBirth:    req.DateOfBirth,
				LGPDConsent:    true,
			})
			if err != nil {
				return nil, fmt.Errorf("auth: create walk-in profile: %w", err)
			}
			created.Status = patients.StatusActive
			if err := s.patients.Update(ctx, created); err != nil {
				return nil, fmt.Errorf("auth: activate walk-in profile: %w", err)
			}
			user.PatientProfileID = created.ID
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("patient registered", "user_id", user.ID, "claimed_profile", user.PatientProfileID != "")
	return s.tokenFor(user)
}

// ResetPassword verifies the caller against the clinical record on file and
// replaces their password. All identity fields must match.
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if len(req.NewPassword) < 8 {
		return ErrWeakPassword
	}
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil || user.Role != identity.RolePatient || user.PatientProfileID == "" {
		return ErrIdentityMismatch
	}
	if s.patients == nil {
		return ErrIdentityMismatch
	}
	profile, err := s.patients.GetByID(ctx, user.PatientProfileID)
	if err != nil {
		return ErrIdentityMismatch
	}

	if !strings.EqualFold(strings.TrimSpace(profile.Name), strings.TrimSpace(req.Name)) ||
		digitsOnly(profile.Phone) != digitsOnly(req.Phone) ||
		profile.DateOfBirth != req.DateOfBirth {
		return ErrIdentityMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("auth: store new password: %w", err)
	}
	s.logger.Info("password reset", "user_id", user.ID)
	return nil
}

// InvitePatient creates the waiting login for a freshly created clinical
// record. Called by the patients handler after a professional adds someone.
func (s *Service) InvitePatient(ctx context.Context, profile *patients.Patient) (*User, error) {
	user := &User{
		ID:               uuid.New().String(),
		Name:             profile.Name,
		Email:            profile.Email,
		Role:             identity.RolePatient,
		PatientProfileID: profile.ID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			// The person already has an account; link it instead.
			existing, getErr := s.users.GetByEmail(ctx, profile.Email)
			if getErr != nil {
				return nil, getErr
			}
			if existing.PatientProfileID == "" {
				existing.PatientProfileID = profile.ID
				if updErr := s.users.Update(ctx, existing); updErr != nil {
					return nil, updErr
				}
			}
			return existing, nil
		}
		return nil, err
	}
	return user, nil
}

// Invite adapts InvitePatient to the patients handler's inviter interface.
func (s *Service) Invite(ctx context.Context, profile *patients.Patient) error {
	_, err := s.InvitePatient(ctx, profile)
	return err
}

// Professionals lists professional users for the booking flow.
func (s *Service) Professionals(ctx context.Context) ([]*User, error) {
	return s.users.ListProfessionals(ctx)
}

func (s *Service) tokenFor(user *User) (*TokenResponse, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{Token: token, User: user}, nil
}

func (s *Service) activateProfile(ctx context.Context, profileID string) {
	profile, err := s.patients.GetByID(ctx, profileID)
	if err != nil || profile.Status != patients.StatusInvited {
		return
	}
	profile.Status = patients.StatusActive
	if err := s.patients.Update(ctx, profile); err != nil {
		s.logger.Error("failed to activate patient profile", "error", err, "patient_id", profileID)
	}
}

func (s *Service) claimProfile(ctx context.Context, profileID string, req *RegisterRequest) {
	profile, err := s.patients.GetByID(ctx, profileID)
	if err != nil {
		return
	}
	profile.Status = patients.StatusActive
	profile.Name = req.Name
	if req.Phone != "" {
		profile.Phone = req.Phone
	}
	if req.DateOfBirth != "" {
		profile.DateOfBirth = req.DateOfBirth
	}
	if err := s.patients.Update(ctx, profile); err != nil {
		s.logger.Error("failed to claim patient profile", "error", err, "patient_id", profileID)
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
