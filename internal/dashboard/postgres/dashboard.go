package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/petaprogress/peta-progress/internal/allotment"
	"github.com/petaprogress/peta-progress/internal/auth"
	"github.com/petaprogress/peta-progress/internal/dailylog"
	"github.com/petaprogress/peta-progress/internal/dashboard"
	"github.com/petaprogress/peta-progress/internal/joinrequest"
	"github.com/petaprogress/peta-progress/internal/organization"
	"github.com/petaprogress/peta-progress/internal/profile"
	"github.com/petaprogress/peta-progress/internal/task"
)

// DashboardRepository implements dashboard.Repository using GORM. It is
// read-only; every write goes through the owning module.
type DashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) dashboard.Repository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) OrganizationByID(ctx context.Context, id string) (*organization.Organization, error) {
	var org organization.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, organization.ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *DashboardRepository) DepartmentsByOrganization(ctx context.Context, orgID string) ([]*organization.DepartmentSummary, error) {
	var summaries []*organization.DepartmentSummary
	err := r.db.WithContext(ctx).
		Table("departments").
		Select("departments.*, COUNT(profiles.id) AS member_count").
		Joins("LEFT JOIN profiles ON profiles.department_id = departments.id").
		Where("departments.organization_id = ?", orgID).
		Group("departments.id").
		Order("departments.name ASC").
		Find(&summaries).Error
	return summaries, err
}

func (r *DashboardRepository) ProfilesByOrganization(ctx context.Context, orgID string) ([]*profile.Profile, error) {
	var profiles []*profile.Profile
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("full_name ASC").
		Find(&profiles).Error
	return profiles, err
}

func (r *DashboardRepository) TasksByUser(ctx context.Context, userID string) ([]*task.Task, error) {
	var tasks []*task.Task
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *DashboardRepository) TasksByOrganization(ctx context.Context, orgID string) ([]*task.Task, error) {
	var tasks []*task.Task
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *DashboardRepository) AllotmentsByOrganization(ctx context.Context, orgID string) ([]*allotment.WorkAllotment, error) {
	var allotments []*allotment.WorkAllotment
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&allotments).Error
	return allotments, err
}

func (r *DashboardRepository) LogsByUser(ctx context.Context, userID string) ([]*dailylog.DailyLog, error) {
	var logs []*dailylog.DailyLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("log_date DESC").
		Find(&logs).Error
	return logs, err
}

func (r *DashboardRepository) RecentLogsByUser(ctx context.Context, userID string, limit int) ([]*dailylog.DailyLog, error) {
	var logs []*dailylog.DailyLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *DashboardRepository) RecentLogsByOrganization(ctx context.Context, orgID string, limit int) ([]*dailylog.DailyLog, error) {
	var logs []*dailylog.DailyLog
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *DashboardRepository) PendingJoinRequestsByOrganization(ctx context.Context, orgID string) ([]*joinrequest.JoinRequest, error) {
	var requests []*joinrequest.JoinRequest
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND status = ?", orgID, joinrequest.StatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *DashboardRepository) PendingJoinRequestsByUser(ctx context.Context, userID string) ([]*joinrequest.JoinRequest, error) {
	var requests []*joinrequest.JoinRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, joinrequest.StatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// OpenSessionsByOrganization returns sessions with no logout stamp;
// these are the "online now" users.
func (r *DashboardRepository) OpenSessionsByOrganization(ctx context.Context, orgID string) ([]*auth.UserSession, error) {
	var sessions []*auth.UserSession
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND logout_time IS NULL", orgID).
		Order("login_time DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *DashboardRepository) RecentSessionsByOrganization(ctx context.Context, orgID string, limit int) ([]*auth.UserSession, error) {
	var sessions []*auth.UserSession
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("login_time DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

func (r *DashboardRepository) MonthlyAllotmentHours(ctx context.Context, orgID string, monthStart, monthEnd time.Time) ([]dailylog.AllotmentHours, error) {
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

func (r *DashboardRepository) MonthlyHoursForUser(ctx context.Context, userID string, monthStart, monthEnd time.Time) (float64, error) {
	var total *float64
	err := r.db.WithContext(ctx).
		Table("daily_logs").
		Select("SUM(hours_spent)").
		Where("user_id = ?", userID).
		Where("log_date >= ? AND log_date < ?", monthStart, monthEnd).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// MonthlyAllocationForUser reads the legacy per-month allocation table.
// Nothing writes it anymore, but an existing row still wins over the
// profile's working-hours target.
func (r *DashboardRepository) MonthlyAllocationForUser(ctx context.Context, userID string, monthStart time.Time) (*float64, error) {
	var allocation *float64
	err := r.db.WithContext(ctx).
		Table("monthly_hours").
		Select("allocated_hours").
		Where("user_id = ? AND month = ?", userID, monthStart).
		Scan(&allocation).Error
	if err != nil {
		return nil, err
	}
	return allocation, nil
}
