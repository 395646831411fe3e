package service

import (
	"context"
	"time"

	"go-retail-ws/internal/model"
	"go-retail-ws/internal/repository"
	"go-retail-ws/pkg/apperror"
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
	GetLowStock(ctx context.Context) ([]model.Inventory, error)
}

type dashboardService struct {
	reportRepo    repository.ReportRepository
	inventoryRepo repository.InventoryRepository
	now           func() time.Time
}

func NewDashboardService(rRepo repository.ReportRepository, iRepo repository.InventoryRepository) DashboardService {
	return &dashboardService{reportRepo: rRepo, inventoryRepo: iRepo, now: time.Now}
}

// GetStockMovement covers the last days calendar days, today included.
func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 || days > 366 {
		return nil, apperror.Validation("days must be between 1 and 366")
	}
	endDate := s.now().UTC()
	y, m, d := endDate.Date()
	startDate := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))

	data, err := s.reportRepo.StockMovement(ctx, startDate, endDate)
	if err != nil {
		return nil, internalErr(err, "stock movement")
	}
	return data, nil
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	now := s.now().UTC()
	y, m, d := now.Date()
	stats, err := s.reportRepo.DashboardStats(ctx, time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, internalErr(err, "dashboard stats")
	}
	return stats, nil
}

func (s *dashboardService) GetLowStock(ctx context.Context) ([]model.Inventory, error) {
	items, err := s.inventoryRepo.LowStock(ctx)
	if err != nil {
		return nil, internalErr(err, "low stock")
	}
	return items, nil
}
