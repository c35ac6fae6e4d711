package dashboard

import (
	"time"

	"github.com/petaprogress/peta-progress/internal/allotment"
	"github.com/petaprogress/peta-progress/internal/dailylog"
	"github.com/petaprogress/peta-progress/internal/joinrequest"
	"github.com/petaprogress/peta-progress/internal/organization"
	"github.com/petaprogress/peta-progress/internal/profile"
	"github.com/petaprogress/peta-progress/internal/task"
)

// Placeholder names used when a foreign key cannot be resolved.
const (
	NoAllotment  = "No Allotment"
	NoDepartment = "No Department"
)

// TaskView is a task with its foreign keys resolved to display names.
type TaskView struct {
	task.Task
	AllotmentTitle string `json:"allotment_title"`
	AssigneeName   string `json:"assignee_name,omitempty"`
}

// MemberView is a profile with its department name resolved.
type MemberView struct {
	profile.Profile
	DepartmentName string `json:"department_name"`
}

// AllotmentView is an allotment with this month's logged hours and
// progress against its target.
type AllotmentView struct {
	allotment.WorkAllotment
	MonthlyHours    float64 `json:"monthly_hours"`
	ProgressPercent float64 `json:"progress_percent"`
}

type OnlineUser struct {
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	LoginTime time.Time `json:"login_time"`
}

// ActivityItem is one entry of the admin activity feed.
type ActivityItem struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	ActivityLogin       = "login"
	ActivityLogout      = "logout"
	ActivityTaskCreated = "task_created"
	ActivityWorkLogged  = "work_logged"
)

// activityFeedLimit caps the merged admin activity feed.
const activityFeedLimit = 20

type AvailabilitySummary struct {
	Available   int `json:"available"`
	Unavailable int `json:"unavailable"`
}

// Snapshot is the member dashboard: everything the user's own view
// needs, derived in one fetch.
type Snapshot struct {
	Profile            *profile.Profile           `json:"profile"`
	Organization       *organization.Organization `json:"organization,omitempty"`
	Tasks              []TaskView                 `json:"tasks"`
	RecentLogs         []*dailylog.DailyLog       `json:"recent_logs"`
	PendingInvites     []*joinrequest.JoinRequest `json:"pending_invites"`
	TeamAvailability   AvailabilitySummary        `json:"team_availability"`
	Metrics            PerformanceMetrics         `json:"metrics"`
	MonthlyHours       float64                    `json:"monthly_hours"`
	MonthlyTargetHours float64                    `json:"monthly_target_hours"`
	MonthlyPercentage  float64                    `json:"monthly_percentage"`
	GeneratedAt        time.Time                  `json:"generated_at"`
}

// AdminSnapshot is the organization-wide dashboard.
type AdminSnapshot struct {
	Organization   *organization.Organization        `json:"organization"`
	Departments    []*organization.DepartmentSummary `json:"departments"`
	Members        []MemberView                      `json:"members"`
	Allotments     []AllotmentView                   `json:"allotments"`
	Tasks          []TaskView                        `json:"tasks"`
	PendingInvites []*joinrequest.JoinRequest        `json:"pending_invites"`
	OnlineUsers    []OnlineUser                      `json:"online_users"`
	RecentActivity []ActivityItem                    `json:"recent_activity"`
	GeneratedAt    time.Time                         `json:"generated_at"`
}
