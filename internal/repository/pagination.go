package repository

import (
	"gorm.io/gorm"

	"go-retail-ws/pkg/query"
)

// findPage counts and fetches one page from the same filtered query. Each
// step runs on its own session so the count does not leak into the fetch.
func findPage[T any](q *gorm.DB, page query.Page, order string, preloads ...string) ([]T, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	find := q.Session(&gorm.Session{}).Order(order).Limit(page.Limit()).Offset(page.Offset())
	for _, p := range preloads {
		find = find.Preload(p)
	}
	rows := make([]T, 0)
	if err := find.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
