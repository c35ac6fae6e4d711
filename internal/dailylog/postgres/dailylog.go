package postgres

import (
	"context"
	"time"

	"github.com/petaprogress/peta-progress/internal/dailylog"
	"gorm.io/gorm"
)

// DailyLogRepository implements dailylog.Repository using GORM.
type DailyLogRepository struct {
	db *gorm.DB
}

func NewDailyLogRepository(db *gorm.DB) dailylog.Repository {
	return &DailyLogRepository{db: db}
}

func (r *DailyLogRepository) Create(ctx context.Context, dl *dailylog.DailyLog) error {
	return r.db.WithContext(ctx).Create(dl).Error
}

func (r *DailyLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*dailylog.DailyLog, error) {
	var logs []*dailylog.DailyLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("log_date DESC, created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *DailyLogRepository) ListByTask(ctx context.Context, taskID string, limit int) ([]*dailylog.DailyLog, error) {
	var logs []*dailylog.DailyLog
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("log_date DESC, created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// MonthlyAllotmentHours joins logs to tasks so the per-allotment sum is
// computed by the database, not by scanning rows in the service.
func (r *DailyLogRepository) MonthlyAllotmentHours(ctx context.Context, orgID string, monthStart, monthEnd time.Time) ([]dailylog.AllotmentHours, error) {
	var rows []dailylog.AllotmentHours
	err := r.db.WithContext(ctx).
		Table("daily_logs").
		Select("tasks.allotment_id AS allotment_id, SUM(daily_logs.hours_spent) AS hours").
		Joins("JOIN tasks ON tasks.id = daily_logs.task_id").
		Where("daily_logs.organization_id = ?", orgID).
		Where("daily_logs.log_date >= ? AND daily_logs.log_date < ?", monthStart, monthEnd).
		Where("tasks.allotment_id IS NOT NULL").
		Group("tasks.allotment_id").
		Find(&rows).Error
	return rows, err
}
