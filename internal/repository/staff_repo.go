package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-retail-ws/internal/model"
)

type StaffRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.Staff, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Staff, error)
	Create(ctx context.Context, staff *model.Staff) error
	Update(ctx context.Context, staff *model.Staff) error
	UpdatePassword(ctx context.Context, staffID uuid.UUID, hashedPassword string) error
	StartSession(ctx context.Context, staffID uuid.UUID, version string) error
	FindAll(ctx context.Context) ([]model.Staff, error)
	Count(ctx context.Context) (int64, error)
}

type staffRepo struct {
	db *gorm.DB
}

func NewStaffRepo(db *gorm.DB) StaffRepository {
	return &staffRepo{db}
}

func (r *staffRepo) FindByEmail(ctx context.Context, email string) (*model.Staff, error) {
	var staff model.Staff
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&staff).Error; err != nil {
		return nil, translate(err, "find staff by email")
	}
	return &staff, nil
}

func (r *staffRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	var staff model.Staff
	if err := r.db.WithContext(ctx).First(&staff, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find staff")
	}
	return &staff, nil
}

func (r *staffRepo) Create(ctx context.Context, staff *model.Staff) error {
	return translate(r.db.WithContext(ctx).Create(staff).Error, "create staff")
}

func (r *staffRepo) Update(ctx context.Context, staff *model.Staff) error {
	return translate(r.db.WithContext(ctx).Save(staff).Error, "update staff")
}

func (r *staffRepo) UpdatePassword(ctx context.Context, staffID uuid.UUID, hashedPassword string) error {
	res := r.db.WithContext(ctx).Model(&model.Staff{}).Where("id = ?", staffID).Update("password", hashedPassword)
	if res.Error != nil {
		return translate(res.Error, "update password")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// StartSession rotates the token version, invalidating tokens issued to
// other devices.
func (r *staffRepo) StartSession(ctx context.Context, staffID uuid.UUID, version string) error {
	now := time.Now().UTC()
	return translate(r.db.WithContext(ctx).Model(&model.Staff{}).Where("id = ?", staffID).
		Updates(map[string]any{"token_version": version, "last_login_at": now}).Error, "start session")
}

func (r *staffRepo) FindAll(ctx context.Context) ([]model.Staff, error) {
	var staff []model.Staff
	err := r.db.WithContext(ctx).Order("full_name ASC").Find(&staff).Error
	return staff, translate(err, "list staff")
}

func (r *staffRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Staff{}).Count(&n).Error
	return n, translate(err, "count staff")
}
