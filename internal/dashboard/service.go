package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/petaprogress/peta-progress/internal"
	"github.com/petaprogress/peta-progress/internal/allotment"
	"github.com/petaprogress/peta-progress/internal/auth"
	"github.com/petaprogress/peta-progress/internal/dailylog"
	"github.com/petaprogress/peta-progress/internal/joinrequest"
	"github.com/petaprogress/peta-progress/internal/organization"
	"github.com/petaprogress/peta-progress/internal/profile"
	"github.com/petaprogress/peta-progress/internal/task"
)

var ErrAdminRequired = internal.ErrAdminRequired

// Repository is the read-side storage for snapshots. Joins and
// aggregation live here, not in per-row scans above.
type Repository interface {
	OrganizationByID(ctx context.Context, id string) (*organization.Organization, error)
	DepartmentsByOrganization(ctx context.Context, orgID string) ([]*organization.DepartmentSummary, error)
	ProfilesByOrganization(ctx context.Context, orgID string) ([]*profile.Profile, error)
	TasksByUser(ctx context.Context, userID string) ([]*task.Task, error)
	TasksByOrganization(ctx context.Context, orgID string) ([]*task.Task, error)
	AllotmentsByOrganization(ctx context.Context, orgID string) ([]*allotment.WorkAllotment, error)
	LogsByUser(ctx context.Context, userID string) ([]*dailylog.DailyLog, error)
	RecentLogsByUser(ctx context.Context, userID string, limit int) ([]*dailylog.DailyLog, error)
	RecentLogsByOrganization(ctx context.Context, orgID string, limit int) ([]*dailylog.DailyLog, error)
	PendingJoinRequestsByOrganization(ctx context.Context, orgID string) ([]*joinrequest.JoinRequest, error)
	PendingJoinRequestsByUser(ctx context.Context, userID string) ([]*joinrequest.JoinRequest, error)
	OpenSessionsByOrganization(ctx context.Context, orgID string) ([]*auth.UserSession, error)
	RecentSessionsByOrganization(ctx context.Context, orgID string, limit int) ([]*auth.UserSession, error)
	MonthlyAllotmentHours(ctx context.Context, orgID string, monthStart, monthEnd time.Time) ([]dailylog.AllotmentHours, error)
	MonthlyHoursForUser(ctx context.Context, userID string, monthStart, monthEnd time.Time) (float64, error)
	MonthlyAllocationForUser(ctx context.Context, userID string, monthStart time.Time) (*float64, error)
}

// ProfileEnsurer is the slice of the profile service snapshots need.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, userID, email string) (*profile.Profile, error)
}

type Service struct {
	repo     Repository
	profiles ProfileEnsurer
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, profiles ProfileEnsurer, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		logger:   logger,
		now:      time.Now,
	}
}

// Snapshot assembles the member dashboard. Sub-queries run concurrently;
// a failed one degrades its section to a zero value and is logged, it
// never fails the whole snapshot.
func (s *Service) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	p, err := s.profiles.EnsureProfile(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	snap := &Snapshot{
		Profile:        p,
		Tasks:          []TaskView{},
		RecentLogs:     []*dailylog.DailyLog{},
		PendingInvites: []*joinrequest.JoinRequest{},
		GeneratedAt:    now,
	}

	var (
		org          *organization.Organization
		tasks        []*task.Task
		allotments   []*allotment.WorkAllotment
		logs         []*dailylog.DailyLog
		recentLogs   []*dailylog.DailyLog
		invites      []*joinrequest.JoinRequest
		team         []*profile.Profile
		monthlyHours float64
		allocation   *float64
	)

	g, gctx := errgroup.WithContext(ctx)

	if p.InOrganization() {
		orgID := *p.OrganizationID
		g.Go(s.degraded("organization", func() error {
			var err error
			org, err = s.repo.OrganizationByID(gctx, orgID)
			return err
		}))
		g.Go(s.degraded("allotments", func() error {
			var err error
			allotments, err = s.repo.AllotmentsByOrganization(gctx, orgID)
			return err
		}))
		g.Go(s.degraded("team availability", func() error {
			var err error
			team, err = s.repo.ProfilesByOrganization(gctx, orgID)
			return err
		}))
	} else {
		g.Go(s.degraded("pending invites", func() error {
			var err error
			invites, err = s.repo.PendingJoinRequestsByUser(gctx, userID)
			return err
		}))
	}

	g.Go(s.degraded("tasks", func() error {
		var err error
		tasks, err = s.repo.TasksByUser(gctx, userID)
		return err
	}))
	g.Go(s.degraded("logs", func() error {
		var err error
		logs, err = s.repo.LogsByUser(gctx, userID)
		return err
	}))
	g.Go(s.degraded("recent logs", func() error {
		var err error
		recentLogs, err = s.repo.RecentLogsByUser(gctx, userID, 10)
		return err
	}))
	g.Go(s.degraded("monthly hours", func() error {
		var err error
		monthlyHours, err = s.repo.MonthlyHoursForUser(gctx, userID, monthStart, monthEnd)
		return err
	}))
	g.Go(s.degraded("monthly allocation", func() error {
		var err error
		allocation, err = s.repo.MonthlyAllocationForUser(gctx, userID, monthStart)
		return err
	}))

	if err := g.Wait(); err != nil {
		// degraded closures never return errors; this is ctx cancellation
		return nil, err
	}

	// lookup maps are built once, then every task resolves in O(1)
	allotmentTitles := make(map[string]string, len(allotments))
	for _, wa := range allotments {
		allotmentTitles[wa.ID] = wa.Title
	}

	snap.Organization = org
	snap.Tasks = buildTaskViews(tasks, allotmentTitles, nil)
	snap.RecentLogs = orEmptyLogs(recentLogs)
	if invites != nil {
		snap.PendingInvites = invites
	}

	for _, member := range team {
		if member.Availability == profile.AvailabilityAvailable {
			snap.TeamAvailability.Available++
		} else {
			snap.TeamAvailability.Unavailable++
		}
	}

	target := MonthlyTarget(allocation, p.WorkingHours)
	snap.MonthlyHours = monthlyHours
	snap.MonthlyTargetHours = target
	snap.MonthlyPercentage = MonthlyPercentage(monthlyHours, target)
	snap.Metrics = ComputeMetrics(taskStats(tasks), logStats(logs), PeriodWeek, target, now)

	return snap, nil
}

// AdminSnapshot assembles the organization-wide dashboard. Admin only.
func (s *Service) AdminSnapshot(ctx context.Context, userID string) (*AdminSnapshot, error) {
	p, err := s.profiles.EnsureProfile(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() || !p.InOrganization() {
		return nil, ErrAdminRequired
	}
	orgID := *p.OrganizationID

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	var (
		org         *organization.Organization
		departments []*organization.DepartmentSummary
		members     []*profile.Profile
		allotments  []*allotment.WorkAllotment
		tasks       []*task.Task
		invites     []*joinrequest.JoinRequest
		open        []*auth.UserSession
		sessions    []*auth.UserSession
		recentLogs  []*dailylog.DailyLog
		monthly     []dailylog.AllotmentHours
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.degraded("organization", func() error {
		var err error
		org, err = s.repo.OrganizationByID(gctx, orgID)
		return err
	}))
	g.Go(s.degraded("departments", func() error {
		var err error
		departments, err = s.repo.DepartmentsByOrganization(gctx, orgID)
		return err
	}))
	g.Go(s.degraded("members", func() error {
		var err error
		members, err = s.repo.ProfilesByOrganization(gctx, orgID)
		return err
	}))
	g.Go(s.degraded("allotments", func() error {
		var err error
		allotments, err = s.repo.AllotmentsByOrganization(gctx, orgID)
		return err
	}))
	g.Go(s.degraded("tasks", func() error {
		var err error
		tasks, err = s.repo.TasksByOrganization(gctx, orgID)
		return err
	}))
	g.Go(s.degraded("pending invites", func() error {
		var err error
		invites, err = s.repo.PendingJoinRequestsByOrganization(gctx, orgID)
		return err
	}))
	g.Go(s.degraded("open sessions", func() error {
		var err error
		open, err = s.repo.OpenSessionsByOrganization(gctx, orgID)
		return err
	}))
	g.Go(s.degraded("recent sessions", func() error {
		var err error
		sessions, err = s.repo.RecentSessionsByOrganization(gctx, orgID, activityFeedLimit)
		return err
	}))
	g.Go(s.degraded("recent logs", func() error {
		var err error
		recentLogs, err = s.repo.RecentLogsByOrganization(gctx, orgID, activityFeedLimit)
		return err
	}))
	g.Go(s.degraded("monthly allotment hours", func() error {
		var err error
		monthly, err = s.repo.MonthlyAllotmentHours(gctx, orgID, monthStart, monthEnd)
		return err
	}))

	if err := g.Wait(); err != nil {
		return nil, err
	}

	deptNames := make(map[string]string, len(departments))
	for _, d := range departments {
		deptNames[d.ID] = d.Name
	}
	memberNames := make(map[string]string, len(members))
	for _, m := range members {
		memberNames[m.ID] = m.FullName
	}
	allotmentTitles := make(map[string]string, len(allotments))
	for _, wa := range allotments {
		allotmentTitles[wa.ID] = wa.Title
	}
	monthlyByAllotment := make(map[string]float64, len(monthly))
	for _, row := range monthly {
		monthlyByAllotment[row.AllotmentID] = row.Hours
	}

	snap := &AdminSnapshot{
		Organization:   org,
		Departments:    departments,
		Members:        make([]MemberView, 0, len(members)),
		Allotments:     make([]AllotmentView, 0, len(allotments)),
		Tasks:          buildTaskViews(tasks, allotmentTitles, memberNames),
		PendingInvites: orEmptyRequests(invites),
		OnlineUsers:    make([]OnlineUser, 0, len(open)),
		GeneratedAt:    now,
	}

	for _, m := range members {
		name := NoDepartment
		if m.DepartmentID != nil {
			if resolved, ok := deptNames[*m.DepartmentID]; ok {
				name = resolved
			}
		}
		snap.Members = append(snap.Members, MemberView{Profile: *m, DepartmentName: name})
	}

	for _, wa := range allotments {
		hours := monthlyByAllotment[wa.ID]
		snap.Allotments = append(snap.Allotments, AllotmentView{
			WorkAllotment:   *wa,
			MonthlyHours:    hours,
			ProgressPercent: MonthlyPercentage(hours, wa.TargetHours),
		})
	}

	for _, session := range open {
		snap.OnlineUsers = append(snap.OnlineUsers, OnlineUser{
			UserID:    session.UserID,
			FullName:  memberNames[session.UserID],
			LoginTime: session.LoginTime,
		})
	}

	snap.RecentActivity = buildActivityFeed(sessions, tasks, recentLogs, memberNames)
	return snap, nil
}

// Metrics computes the performance report for one user over a period.
func (s *Service) Metrics(ctx context.Context, userID string, period Period) (*PerformanceMetrics, error) {
	p, err := s.profiles.EnsureProfile(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var (
		tasks      []*task.Task
		logs       []*dailylog.DailyLog
		allocation *float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.degraded("tasks", func() error {
		var err error
		tasks, err = s.repo.TasksByUser(gctx, userID)
		return err
	}))
	g.Go(s.degraded("logs", func() error {
		var err error
		logs, err = s.repo.LogsByUser(gctx, userID)
		return err
	}))
	g.Go(s.degraded("monthly allocation", func() error {
		var err error
		allocation, err = s.repo.MonthlyAllocationForUser(gctx, userID, monthStart)
		return err
	}))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	target := MonthlyTarget(allocation, p.WorkingHours)
	metrics := ComputeMetrics(taskStats(tasks), logStats(logs), period, target, now)
	return &metrics, nil
}

// degraded wraps a sub-query so its failure empties one section instead
// of sinking the snapshot. Context cancellation still propagates.
func (s *Service) degraded(section string, fetch func() error) func() error {
	return func() error {
		if err := fetch(); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			s.logger.Warn("snapshot section degraded", "section", section, "error", err)
		}
		return nil
	}
}

func buildTaskViews(tasks []*task.Task, allotmentTitles, memberNames map[string]string) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		title := NoAllotment
		if t.AllotmentID != nil {
			if resolved, ok := allotmentTitles[*t.AllotmentID]; ok {
				title = resolved
			}
		}
		view := TaskView{Task: *t, AllotmentTitle: title}
		if memberNames != nil {
			view.AssigneeName = memberNames[t.UserID]
		}
		views = append(views, view)
	}
	return views
}

// buildActivityFeed merges logins, logouts, task creations and work logs
// into one newest-first feed capped at activityFeedLimit.
func buildActivityFeed(sessions []*auth.UserSession, tasks []*task.Task, logs []*dailylog.DailyLog, names map[string]string) []ActivityItem {
	items := make([]ActivityItem, 0, len(sessions)*2+len(tasks)+len(logs))

	for _, session := range sessions {
		items = append(items, ActivityItem{
			Type:       ActivityLogin,
			UserID:     session.UserID,
			UserName:   names[session.UserID],
			OccurredAt: session.LoginTime,
		})
		if session.LogoutTime != nil {
			items = append(items, ActivityItem{
				Type:       ActivityLogout,
				UserID:     session.UserID,
				UserName:   names[session.UserID],
				OccurredAt: *session.LogoutTime,
			})
		}
	}

	for _, t := range tasks {
		items = append(items, ActivityItem{
			Type:       ActivityTaskCreated,
			UserID:     t.UserID,
			UserName:   names[t.UserID],
			Detail:     t.Title,
			OccurredAt: t.CreatedAt,
		})
	}

	for _, l := range logs {
		items = append(items, ActivityItem{
			Type:       ActivityWorkLogged,
			UserID:     l.UserID,
			UserName:   names[l.UserID],
			OccurredAt: l.CreatedAt,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].OccurredAt.After(items[j].OccurredAt)
	})
	if len(items) > activityFeedLimit {
		items = items[:activityFeedLimit]
	}
	return items
}

func taskStats(tasks []*task.Task) []TaskStat {
	stats := make([]TaskStat, 0, len(tasks))
	for _, t := range tasks {
		stats = append(stats, TaskStat{Status: t.Status})
	}
	return stats
}

func logStats(logs []*dailylog.DailyLog) []LogStat {
	stats := make([]LogStat, 0, len(logs))
	for _, l := range logs {
		stats = append(stats, LogStat{Hours: l.HoursSpent, Date: l.LogDate})
	}
	return stats
}

func orEmptyLogs(logs []*dailylog.DailyLog) []*dailylog.DailyLog {
	if logs == nil {
		return []*dailylog.DailyLog{}
	}
	return logs
}

func orEmptyRequests(requests []*joinrequest.JoinRequest) []*joinrequest.JoinRequest {
	if requests == nil {
		return []*joinrequest.JoinRequest{}
	}
	return requests
}
