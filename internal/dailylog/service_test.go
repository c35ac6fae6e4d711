package dailylog_test

import (
	"context"
	"log/slog"
	"math"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/petaprogress/peta-progress/internal/dailylog"
	"github.com/petaprogress/peta-progress/internal/realtime"
	"github.com/petaprogress/peta-progress/internal/task"
)

func TestDailyLogService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "DailyLog Service Suite")
}

// MockRepository implements dailylog.Repository for testing
type MockRepository struct {
	logs       []*dailylog.DailyLog
	hourRows   []dailylog.AllotmentHours
	lastLimits []int
}

func (m *MockRepository) Create(ctx context.Context, dl *dailylog.DailyLog) error {
	copied := *dl
	m.logs = append(m.logs, &copied)
	return nil
}

func (m *MockRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*dailylog.DailyLog, error) {
	m.lastLimits = append(m.lastLimits, limit)
	var result []*dailylog.DailyLog
	for _, dl := range m.logs {
		if dl.UserID == userID {
			result = append(result, dl)
		}
	}
	return result, nil
}

func (m *MockRepository) ListByTask(ctx context.Context, taskID string, limit int) ([]*dailylog.DailyLog, error) {
	m.lastLimits = append(m.lastLimits, limit)
	var result []*dailylog.DailyLog
	for _, dl := range m.logs {
		if dl.TaskID == taskID {
			result = append(result, dl)
		}
	}
	return result, nil
}

func (m *MockRepository) MonthlyAllotmentHours(ctx context.Context, orgID string, monthStart, monthEnd time.Time) ([]dailylog.AllotmentHours, error) {
	return m.hourRows, nil
}

// MockTaskReader implements dailylog.TaskReader
type MockTaskReader struct {
	tasks map[string]*task.Task
}

func (m *MockTaskReader) GetByID(ctx context.Context, userID, taskID string) (*task.Task, error) {
	t, ok := m.tasks[taskID]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	return t, nil
}

// MockPublisher records published change events
type MockPublisher struct {
	events []realtime.ChangeEvent
}

func (m *MockPublisher) Publish(event realtime.ChangeEvent) {
	m.events = append(m.events, event)
}

var _ = Describe("DailyLog Service", func() {
	var (
		mockRepo   *MockRepository
		mockTasks  *MockTaskReader
		mockEvents *MockPublisher
		service    *dailylog.Service
		ctx        context.Context
	)

	logDate := time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC)

	BeforeEach(func() {
		mockRepo = &MockRepository{}
		mockTasks = &MockTaskReader{tasks: map[string]*task.Task{
			"task-1": {ID: "task-1", UserID: "user-1", OrganizationID: "org-1"},
		}}
		mockEvents = &MockPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = dailylog.NewService(mockRepo, mockTasks, mockEvents, logger)
		ctx = context.Background()
	})

	Describe("Append", func() {
		It("should record hours against the caller's task", func() {
			dl, err := service.Append(ctx, "user-1", dailylog.CreateLogDTO{
				TaskID:     "task-1",
				LogDate:    logDate,
				HoursSpent: 6.5,
				Notes:      "refactoring",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(dl.OrganizationID).To(Equal("org-1"))
			Expect(dl.HoursSpent).To(Equal(6.5))
			Expect(mockRepo.logs).To(HaveLen(1))
			Expect(mockEvents.events).To(HaveLen(1))
			Expect(mockEvents.events[0].Table).To(Equal(realtime.TableDailyLogs))
		})

		It("should reject zero hours", func() {
			_, err := service.Append(ctx, "user-1", dailylog.CreateLogDTO{
				TaskID: "task-1", LogDate: logDate, HoursSpent: 0,
			})
			Expect(err).To(MatchError(dailylog.ErrInvalidHours))
			Expect(mockRepo.logs).To(BeEmpty())
		})

		It("should reject negative hours", func() {
			_, err := service.Append(ctx, "user-1", dailylog.CreateLogDTO{
				TaskID: "task-1", LogDate: logDate, HoursSpent: -2,
			})
			Expect(err).To(MatchError(dailylog.ErrInvalidHours))
		})

		It("should reject more than 24 hours in a day", func() {
			_, err := service.Append(ctx, "user-1", dailylog.CreateLogDTO{
				TaskID: "task-1", LogDate: logDate, HoursSpent: 25,
			})
			Expect(err).To(MatchError(dailylog.ErrInvalidHours))
		})

		It("should reject NaN hours", func() {
			_, err := service.Append(ctx, "user-1", dailylog.CreateLogDTO{
				TaskID: "task-1", LogDate: logDate, HoursSpent: math.NaN(),
			})
			Expect(err).To(MatchError(dailylog.ErrInvalidHours))
		})

		It("should reject logging on someone else's task", func() {
			_, err := service.Append(ctx, "user-2", dailylog.CreateLogDTO{
				TaskID: "task-1", LogDate: logDate, HoursSpent: 4,
			})
			Expect(err).To(MatchError(dailylog.ErrNotYourTask))
			Expect(mockRepo.logs).To(BeEmpty())
		})

		It("should reject unknown tasks", func() {
			_, err := service.Append(ctx, "user-1", dailylog.CreateLogDTO{
				TaskID: "ghost", LogDate: logDate, HoursSpent: 4,
			})
			Expect(err).To(MatchError(task.ErrTaskNotFound))
		})
	})

	Describe("ListMine", func() {
		It("should clamp out-of-range limits to the default", func() {
			_, err := service.ListMine(ctx, "user-1", 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ListMine(ctx, "user-1", 1000)
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.lastLimits).To(Equal([]int{50, 50}))
		})
	})

	Describe("MonthlyAllotmentHours", func() {
		It("should map per-allotment totals", func() {
			mockRepo.hourRows = []dailylog.AllotmentHours{
				{AllotmentID: "allot-1", Hours: 42},
				{AllotmentID: "allot-2", Hours: 7.5},
			}

			totals, err := service.MonthlyAllotmentHours(ctx, "org-1", logDate)
			Expect(err).NotTo(HaveOccurred())
			Expect(totals).To(HaveLen(2))
			Expect(totals["allot-1"]).To(Equal(42.0))
			Expect(totals["allot-2"]).To(Equal(7.5))
		})
	})
})
