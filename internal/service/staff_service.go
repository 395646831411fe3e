package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"go-retail-ws/internal/model"
	"go-retail-ws/internal/repository"
	"go-retail-ws/pkg/apperror"
	"go-retail-ws/pkg/config"
	"go-retail-ws/pkg/validator"
)

type CreateStaffRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8"`
	FullName    string `json:"full_name" validate:"required,max=255"`
	PhoneNumber string `json:"phone_number" validate:"max=20"`
	Role        string `json:"role" validate:"required,oneof=ADMIN MANAGER CASHIER"`
}

type UpdateStaffRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	Role        *string `json:"role" validate:"omitempty,oneof=ADMIN MANAGER CASHIER"`
	IsActive    *bool   `json:"is_active"`
	Password    *string `json:"password" validate:"omitempty,min=8"`
}

type StaffService interface {
	CreateStaff(ctx context.Context, req *CreateStaffRequest, actor Actor) (*model.StaffResponse, error)
	UpdateStaff(ctx context.Context, id uuid.UUID, req *UpdateStaffRequest, actor Actor) (*model.StaffResponse, error)
	GetStaff(ctx context.Context, id uuid.UUID) (*model.StaffResponse, error)
	ListStaff(ctx context.Context) ([]model.StaffResponse, error)
	// EnsureAdmin creates the bootstrap admin when no staff exists yet. It
	// reports whether an account was created.
	EnsureAdmin(ctx context.Context, seed config.SeedConfig) (bool, error)
}

type staffService struct {
	staffRepo repository.StaffRepository
	hooks     Hooks
}

func NewStaffService(staffRepo repository.StaffRepository, hooks Hooks) StaffService {
	return &staffService{staffRepo: staffRepo, hooks: hooks}
}

func (s *staffService) CreateStaff(ctx context.Context, req *CreateStaffRequest, actor Actor) (resp *model.StaffResponse, err error) {
	defer s.hooks.track(ctx, "staff.create")(&err)

	// 1. Validate request
	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	// 2. Build and hash
	staff := &model.Staff{
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:    strings.TrimSpace(req.FullName),
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
		IsActive:    true,
		Auditable:   model.Auditable{CreatedBy: actor.ID, UpdatedBy: actor.ID},
	}
	if err = staff.SetPassword(req.Password); err != nil {
		return nil, apperror.Internal(err, "hash password")
	}

	// 3. Insert; the unique index settles duplicate emails
	if err = s.staffRepo.Create(ctx, staff); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflict("email already exists")
		}
		return nil, internalErr(err, "create staff")
	}
	out := staff.ToResponse()
	return &out, nil
}

func (s *staffService) UpdateStaff(ctx context.Context, id uuid.UUID, req *UpdateStaffRequest, actor Actor) (resp *model.StaffResponse, err error) {
	defer s.hooks.track(ctx, "staff.update")(&err)

	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	staff, err := s.staffRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "staff")
	}
	if req.FullName != nil {
		staff.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.PhoneNumber != nil {
		staff.PhoneNumber = *req.PhoneNumber
	}
	if req.Role != nil {
		staff.Role = *req.Role
	}
	if req.IsActive != nil {
		if !*req.IsActive && staff.ID.String() == actor.ID {
			return nil, apperror.Validation("you cannot deactivate your own account")
		}
		staff.IsActive = *req.IsActive
	}
	if req.Password != nil {
		if err = staff.SetPassword(*req.Password); err != nil {
			return nil, apperror.Internal(err, "hash password")
		}
		// Force a fresh login everywhere.
		staff.TokenVersion = uuid.NewString()
	}
	staff.UpdatedBy = actor.ID

	if err = s.staffRepo.Update(ctx, staff); err != nil {
		return nil, internalErr(err, "update staff")
	}
	out := staff.ToResponse()
	return &out, nil
}

func (s *staffService) GetStaff(ctx context.Context, id uuid.UUID) (*model.StaffResponse, error) {
	staff, err := s.staffRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "staff")
	}
	out := staff.ToResponse()
	return &out, nil
}

func (s *staffService) ListStaff(ctx context.Context) ([]model.StaffResponse, error) {
	rows, err := s.staffRepo.FindAll(ctx)
	if err != nil {
		return nil, internalErr(err, "list staff")
	}
	out := make([]model.StaffResponse, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToResponse())
	}
	return out, nil
}

func (s *staffService) EnsureAdmin(ctx context.Context, seed config.SeedConfig) (bool, error) {
	n, err := s.staffRepo.Count(ctx)
	if err != nil {
		return false, internalErr(err, "count staff")
	}
	if n > 0 {
		return false, nil
	}
	if seed.AdminEmail == "" || seed.AdminPassword == "" {
		return false, apperror.Validation("no staff exists and SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD are not set")
	}
	_, err = s.CreateStaff(ctx, &CreateStaffRequest{
		Email:    seed.AdminEmail,
		Password: seed.AdminPassword,
		FullName: seed.AdminName,
		Role:     model.RoleAdmin,
	}, Actor{ID: "system", Name: "system"})
	if err != nil {
		return false, err
	}
	return true, nil
}
