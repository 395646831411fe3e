package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"go-retail-ws/internal/model"
	"go-retail-ws/internal/repository"
	"go-retail-ws/pkg/apperror"
	"go-retail-ws/pkg/jwt"
	"go-retail-ws/pkg/validator"
)

var (
	ErrInvalidCredentials = apperror.New(apperror.CodeUnauthorized, "invalid email or password")
	ErrStaffInactive      = apperror.New(apperror.CodeUnauthorized, "staff account is inactive")
	ErrWrongPassword      = apperror.New(apperror.CodeValidation, "current password is incorrect")
	ErrSessionReplaced    = apperror.New(apperror.CodeUnauthorized, "session expired (logged in on another device)")
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,nefield=OldPassword"`
}

type LoginResponse struct {
	Token      string              `json:"token"`
	Staff      model.StaffResponse `json:"staff"`
	Privileges []string            `json:"privileges"`
}

// Session is the identity behind a validated token.
type Session struct {
	Staff  *model.Staff
	Claims *jwt.Claims
}

func (s *Session) Actor() Actor {
	return Actor{ID: s.Staff.ID.String(), Name: s.Staff.FullName}
}

type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) error
	ValidateToken(ctx context.Context, tokenString string) (*Session, error)
}

type authService struct {
	staffRepo repository.StaffRepository
	tokens    *jwt.Manager
	hooks     Hooks
}

func NewAuthService(staffRepo repository.StaffRepository, tokens *jwt.Manager, hooks Hooks) AuthService {
	return &authService{staffRepo: staffRepo, tokens: tokens, hooks: hooks}
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (resp *LoginResponse, err error) {
	defer s.hooks.track(ctx, "auth.login")(&err)

	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	// 1. Find staff by email
	staff, err := s.staffRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, internalErr(err, "find staff")
	}

	// 2. Active and password matches
	if !staff.IsActive {
		return nil, ErrStaffInactive
	}
	if !staff.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	// 3. Single session: rotate the token version
	version := uuid.NewString()
	if err = s.staffRepo.StartSession(ctx, staff.ID, version); err != nil {
		return nil, internalErr(err, "start session")
	}

	// 4. Issue token
	privileges := staff.Privileges()
	token, err := s.tokens.GenerateToken(jwt.Subject{
		StaffID:      staff.ID,
		Email:        staff.Email,
		Name:         staff.FullName,
		Role:         staff.Role,
		Privileges:   privileges,
		TokenVersion: version,
	})
	if err != nil {
		return nil, apperror.Internal(err, "generate token")
	}

	s.hooks.Log.Info(s.hooks.Log.WithStaffID(ctx, staff.ID.String()), "staff logged in")
	return &LoginResponse{Token: token, Staff: staff.ToResponse(), Privileges: privileges}, nil
}

// ResetPassword changes the password and ends every open session.
func (s *authService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (err error) {
	defer s.hooks.track(ctx, "auth.reset_password")(&err)

	if err = validator.ValidateStruct(req); err != nil {
		return err
	}
	staff, err := s.staffRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return lookupErr(err, "staff")
	}
	if !staff.CheckPassword(req.OldPassword) {
		return ErrWrongPassword
	}
	if err = staff.SetPassword(req.NewPassword); err != nil {
		return apperror.Internal(err, "hash password")
	}
	if err = s.staffRepo.UpdatePassword(ctx, staff.ID, staff.Password); err != nil {
		return lookupErr(err, "staff")
	}
	return internalErr(s.staffRepo.StartSession(ctx, staff.ID, uuid.NewString()), "rotate session")
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*Session, error) {
	// 1. Signature, issuer and expiry
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeUnauthorized, err, err.Error())
	}

	// 2. Staff still exists and is active
	staff, err := s.staffRepo.FindByID(ctx, claims.StaffID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.New(apperror.CodeUnauthorized, "staff not found")
		}
		return nil, internalErr(err, "find staff")
	}
	if !staff.IsActive {
		return nil, ErrStaffInactive
	}

	// 3. Only the latest login is valid
	if staff.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	return &Session{Staff: staff, Claims: claims}, nil
}
