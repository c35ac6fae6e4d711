package dashboard_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/petaprogress/peta-progress/internal/allotment"
	"github.com/petaprogress/peta-progress/internal/auth"
	"github.com/petaprogress/peta-progress/internal/dailylog"
	"github.com/petaprogress/peta-progress/internal/dashboard"
	"github.com/petaprogress/peta-progress/internal/joinrequest"
	"github.com/petaprogress/peta-progress/internal/organization"
	"github.com/petaprogress/peta-progress/internal/profile"
	"github.com/petaprogress/peta-progress/internal/task"
)

// MockRepository implements dashboard.Repository with canned data and
// per-section failure injection.
type MockRepository struct {
	org         *organization.Organization
	departments []*organization.DepartmentSummary
	profiles    []*profile.Profile
	userTasks   []*task.Task
	orgTasks    []*task.Task
	allotments  []*allotment.WorkAllotment
	logs        []*dailylog.DailyLog
	invites     []*joinrequest.JoinRequest
	open        []*auth.UserSession
	sessions    []*auth.UserSession
	monthly     []dailylog.AllotmentHours
	userHours   float64
	allocation  *float64

	failures map[string]error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{failures: make(map[string]error)}
}

func (m *MockRepository) fail(section string) error {
	return m.failures[section]
}

func (m *MockRepository) OrganizationByID(ctx context.Context, id string) (*organization.Organization, error) {
	if err := m.fail("organization"); err != nil {
		return nil, err
	}
	return m.org, nil
}

func (m *MockRepository) DepartmentsByOrganization(ctx context.Context, orgID string) ([]*organization.DepartmentSummary, error) {
	return m.departments, m.fail("departments")
}

func (m *MockRepository) ProfilesByOrganization(ctx context.Context, orgID string) ([]*profile.Profile, error) {
	if err := m.fail("members"); err != nil {
		return nil, err
	}
	return m.profiles, nil
}

func (m *MockRepository) TasksByUser(ctx context.Context, userID string) ([]*task.Task, error) {
	return m.userTasks, m.fail("tasks")
}

func (m *MockRepository) TasksByOrganization(ctx context.Context, orgID string) ([]*task.Task, error) {
	return m.orgTasks, m.fail("tasks")
}

func (m *MockRepository) AllotmentsByOrganization(ctx context.Context, orgID string) ([]*allotment.WorkAllotment, error) {
	return m.allotments, m.fail("allotments")
}

func (m *MockRepository) LogsByUser(ctx context.Context, userID string) ([]*dailylog.DailyLog, error) {
	return m.logs, m.fail("logs")
}

func (m *MockRepository) RecentLogsByUser(ctx context.Context, userID string, limit int) ([]*dailylog.DailyLog, error) {
	return m.logs, m.fail("recent logs")
}

func (m *MockRepository) RecentLogsByOrganization(ctx context.Context, orgID string, limit int) ([]*dailylog.DailyLog, error) {
	return m.logs, m.fail("recent logs")
}

func (m *MockRepository) PendingJoinRequestsByOrganization(ctx context.Context, orgID string) ([]*joinrequest.JoinRequest, error) {
	return m.invites, m.fail("pending invites")
}

func (m *MockRepository) PendingJoinRequestsByUser(ctx context.Context, userID string) ([]*joinrequest.JoinRequest, error) {
	return m.invites, m.fail("pending invites")
}

func (m *MockRepository) OpenSessionsByOrganization(ctx context.Context, orgID string) ([]*auth.UserSession, error) {
	return m.open, m.fail("open sessions")
}

func (m *MockRepository) RecentSessionsByOrganization(ctx context.Context, orgID string, limit int) ([]*auth.UserSession, error) {
	return m.sessions, m.fail("recent sessions")
}

func (m *MockRepository) MonthlyAllotmentHours(ctx context.Context, orgID string, monthStart, monthEnd time.Time) ([]dailylog.AllotmentHours, error) {
	return m.monthly, m.fail("monthly allotment hours")
}

func (m *MockRepository) MonthlyHoursForUser(ctx context.Context, userID string, monthStart, monthEnd time.Time) (float64, error) {
	return m.userHours, m.fail("monthly hours")
}

func (m *MockRepository) MonthlyAllocationForUser(ctx context.Context, userID string, monthStart time.Time) (*float64, error) {
	return m.allocation, m.fail("monthly allocation")
}

// MockProfileEnsurer implements dashboard.ProfileEnsurer
type MockProfileEnsurer struct {
	profiles map[string]*profile.Profile
}

func (m *MockProfileEnsurer) EnsureProfile(ctx context.Context, userID, email string) (*profile.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p, nil
}

var _ = Describe("Dashboard Service", func() {
	var (
		mockRepo     *MockRepository
		mockProfiles *MockProfileEnsurer
		service      *dashboard.Service
		ctx          context.Context
	)

	orgID := "org-1"
	adminID := "admin-1"
	userID := "user-1"

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		mockProfiles = &MockProfileEnsurer{profiles: map[string]*profile.Profile{
			adminID: {ID: adminID, FullName: "Admin", Role: profile.RoleAdmin, OrganizationID: &orgID},
			userID:  {ID: userID, FullName: "Member", Role: profile.RoleUser, OrganizationID: &orgID},
			"loner": {ID: "loner", FullName: "Loner", Role: profile.RoleUser},
		}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = dashboard.NewService(mockRepo, mockProfiles, logger)
		ctx = context.Background()
	})

	Describe("Snapshot", func() {
		BeforeEach(func() {
			allotmentID := "allot-1"
			mockRepo.org = &organization.Organization{ID: orgID, Name: "Acme"}
			mockRepo.allotments = []*allotment.WorkAllotment{
				{ID: allotmentID, OrganizationID: orgID, Title: "Platform", TargetHours: 100},
			}
			orphan := "missing-allotment"
			mockRepo.userTasks = []*task.Task{
				{ID: "t1", UserID: userID, OrganizationID: orgID, Status: task.StatusDone, AllotmentID: &allotmentID},
				{ID: "t2", UserID: userID, OrganizationID: orgID, Status: task.StatusTodo},
				{ID: "t3", UserID: userID, OrganizationID: orgID, Status: task.StatusTodo, AllotmentID: &orphan},
			}
			mockRepo.profiles = []*profile.Profile{
				{ID: adminID, Availability: profile.AvailabilityAvailable},
				{ID: userID, Availability: profile.AvailabilityUnavailable},
			}
			mockRepo.userHours = 30
		})

		It("should resolve allotment titles with a placeholder for unresolved ones", func() {
			snap, err := service.Snapshot(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Tasks).To(HaveLen(3))

			titles := map[string]string{}
			for _, tv := range snap.Tasks {
				titles[tv.ID] = tv.AllotmentTitle
			}
			Expect(titles["t1"]).To(Equal("Platform"))
			Expect(titles["t2"]).To(Equal(dashboard.NoAllotment))
			Expect(titles["t3"]).To(Equal(dashboard.NoAllotment))
		})

		It("should count team availability", func() {
			snap, err := service.Snapshot(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.TeamAvailability.Available).To(Equal(1))
			Expect(snap.TeamAvailability.Unavailable).To(Equal(1))
		})

		It("should fall back to the default monthly target", func() {
			snap, err := service.Snapshot(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.MonthlyTargetHours).To(Equal(dashboard.DefaultMonthlyTarget))
			Expect(snap.MonthlyPercentage).To(BeNumerically("~", 30.0/dashboard.DefaultMonthlyTarget*100))
		})

		It("should prefer an explicit monthly allocation", func() {
			allocation := 60.0
			mockRepo.allocation = &allocation

			snap, err := service.Snapshot(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.MonthlyTargetHours).To(Equal(60.0))
			Expect(snap.MonthlyPercentage).To(BeNumerically("~", 50.0))
		})

		It("should degrade a failed section instead of failing the snapshot", func() {
			mockRepo.failures["organization"] = errors.New("db gone")

			snap, err := service.Snapshot(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Organization).To(BeNil())
			Expect(snap.Tasks).To(HaveLen(3))
		})

		It("should fail on context cancellation", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			mockRepo.failures["tasks"] = context.Canceled

			_, err := service.Snapshot(cancelled, userID)
			Expect(err).To(HaveOccurred())
		})

		Context("for a user without an organization", func() {
			BeforeEach(func() {
				mockRepo.invites = []*joinrequest.JoinRequest{
					{ID: "jr-1", UserID: "loner", OrganizationID: orgID, Status: joinrequest.StatusPending},
				}
			})

			It("should carry pending invites instead of org sections", func() {
				snap, err := service.Snapshot(ctx, "loner")
				Expect(err).NotTo(HaveOccurred())
				Expect(snap.Organization).To(BeNil())
				Expect(snap.PendingInvites).To(HaveLen(1))
				Expect(snap.TeamAvailability.Available).To(Equal(0))
			})
		})
	})

	Describe("AdminSnapshot", func() {
		BeforeEach(func() {
			deptID := "dept-1"
			allotmentID := "allot-1"
			logout := time.Now().Add(-time.Hour)
			mockRepo.org = &organization.Organization{ID: orgID, Name: "Acme"}
			mockRepo.departments = []*organization.DepartmentSummary{
				{Department: organization.Department{ID: deptID, OrganizationID: orgID, Name: "Engineering"}, MemberCount: 1},
			}
			mockRepo.profiles = []*profile.Profile{
				{ID: adminID, FullName: "Admin", DepartmentID: &deptID},
				{ID: userID, FullName: "Member"},
			}
			mockRepo.allotments = []*allotment.WorkAllotment{
				{ID: allotmentID, OrganizationID: orgID, Title: "Platform", TargetHours: 100},
			}
			mockRepo.monthly = []dailylog.AllotmentHours{{AllotmentID: allotmentID, Hours: 25}}
			mockRepo.orgTasks = []*task.Task{
				{ID: "t1", UserID: userID, OrganizationID: orgID, Title: "Fix bug", Status: task.StatusTodo, CreatedAt: time.Now().Add(-2 * time.Hour)},
			}
			mockRepo.open = []*auth.UserSession{
				{ID: "s1", UserID: adminID, LoginTime: time.Now().Add(-30 * time.Minute)},
			}
			mockRepo.sessions = []*auth.UserSession{
				{ID: "s0", UserID: userID, LoginTime: time.Now().Add(-3 * time.Hour), LogoutTime: &logout},
			}
		})

		It("should reject non-admin callers", func() {
			_, err := service.AdminSnapshot(ctx, userID)
			Expect(err).To(MatchError(dashboard.ErrAdminRequired))
		})

		It("should resolve department names with a placeholder", func() {
			snap, err := service.AdminSnapshot(ctx, adminID)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Members).To(HaveLen(2))

			names := map[string]string{}
			for _, m := range snap.Members {
				names[m.ID] = m.DepartmentName
			}
			Expect(names[adminID]).To(Equal("Engineering"))
			Expect(names[userID]).To(Equal(dashboard.NoDepartment))
		})

		It("should compute per-allotment monthly progress", func() {
			snap, err := service.AdminSnapshot(ctx, adminID)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Allotments).To(HaveLen(1))
			Expect(snap.Allotments[0].MonthlyHours).To(Equal(25.0))
			Expect(snap.Allotments[0].ProgressPercent).To(BeNumerically("~", 25.0))
		})

		It("should list online users from open sessions", func() {
			snap, err := service.AdminSnapshot(ctx, adminID)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.OnlineUsers).To(HaveLen(1))
			Expect(snap.OnlineUsers[0].UserID).To(Equal(adminID))
			Expect(snap.OnlineUsers[0].FullName).To(Equal("Admin"))
		})

		It("should merge activity newest first", func() {
			snap, err := service.AdminSnapshot(ctx, adminID)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.RecentActivity).NotTo(BeEmpty())
			for i := 1; i < len(snap.RecentActivity); i++ {
				Expect(snap.RecentActivity[i].OccurredAt.After(snap.RecentActivity[i-1].OccurredAt)).To(BeFalse())
			}
		})

		It("should degrade failed sections independently", func() {
			mockRepo.failures["members"] = errors.New("boom")
			snap, err := service.AdminSnapshot(ctx, adminID)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Members).To(BeEmpty())
			Expect(snap.Allotments).To(HaveLen(1))
		})
	})

	Describe("Metrics", func() {
		BeforeEach(func() {
			mockRepo.userTasks = []*task.Task{
				{ID: "t1", Status: task.StatusDone},
				{ID: "t2", Status: task.StatusTodo},
			}
			mockRepo.logs = []*dailylog.DailyLog{
				{HoursSpent: 5, LogDate: time.Now().Add(-24 * time.Hour)},
			}
		})

		It("should compute the metric set for the period", func() {
			m, err := service.Metrics(ctx, userID, dashboard.PeriodMonth)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.TasksTotal).To(Equal(2))
			Expect(m.TasksCompleted).To(Equal(1))
			Expect(m.CompletionRate).To(BeNumerically("~", 50.0))
			Expect(m.TotalHoursLogged).To(BeNumerically("~", 5.0))
		})
	})
})
