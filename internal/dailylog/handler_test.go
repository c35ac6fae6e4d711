package dailylog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/petaprogress/peta-progress/internal"
	"github.com/petaprogress/peta-progress/internal/dailylog"
	"github.com/petaprogress/peta-progress/internal/task"
)

// stubService implements dailylog.ServiceAPI with canned responses
type stubService struct {
	appendErr   error
	appended    []dailylog.CreateLogDTO
	logs        []*dailylog.DailyLog
	listLimits  []int
	listTaskIDs []string
}

func (s *stubService) Append(ctx context.Context, userID string, dto dailylog.CreateLogDTO) (*dailylog.DailyLog, error) {
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	s.appended = append(s.appended, dto)
	return &dailylog.DailyLog{
		ID:         "log-1",
		TaskID:     dto.TaskID,
		UserID:     userID,
		HoursSpent: dto.HoursSpent,
		LogDate:    dto.LogDate,
		Notes:      dto.Notes,
	}, nil
}

func (s *stubService) ListMine(ctx context.Context, userID string, limit int) ([]*dailylog.DailyLog, error) {
	s.listLimits = append(s.listLimits, limit)
	return s.logs, nil
}

func (s *stubService) ListForTask(ctx context.Context, userID, taskID string, limit int) ([]*dailylog.DailyLog, error) {
	s.listTaskIDs = append(s.listTaskIDs, taskID)
	s.listLimits = append(s.listLimits, limit)
	return s.logs, nil
}

func (s *stubService) MonthlyAllotmentHours(ctx context.Context, orgID string, now time.Time) (map[string]float64, error) {
	return nil, nil
}

var _ = Describe("DailyLog Handler", func() {
	var (
		stub    *stubService
		handler *dailylog.Handler
	)

	logDate := time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC)

	newRequest := func(method, target string, body []byte) *http.Request {
		var req *http.Request
		if body != nil {
			req = httptest.NewRequest(method, target, bytes.NewReader(body))
		} else {
			req = httptest.NewRequest(method, target, nil)
		}
		return req.WithContext(internal.ContextWithUserID(req.Context(), "user-1"))
	}

	BeforeEach(func() {
		stub = &stubService{}
		handler = dailylog.NewHandler(stub)
	})

	Describe("Append", func() {
		It("should create a log and return 201", func() {
			body, err := json.Marshal(dailylog.CreateLogDTO{
				TaskID:     "task-1",
				LogDate:    logDate,
				HoursSpent: 6.5,
				Notes:      "refactoring",
			})
			Expect(err).NotTo(HaveOccurred())

			w := httptest.NewRecorder()
			handler.Append(w, newRequest(http.MethodPost, "/daily-logs", body))

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

			var dl dailylog.DailyLog
			Expect(json.NewDecoder(w.Body).Decode(&dl)).To(Succeed())
			Expect(dl.TaskID).To(Equal("task-1"))
			Expect(dl.UserID).To(Equal("user-1"))
			Expect(stub.appended).To(HaveLen(1))
		})

		It("should return 400 for a malformed body", func() {
			w := httptest.NewRecorder()
			handler.Append(w, newRequest(http.MethodPost, "/daily-logs", []byte("{not json")))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(stub.appended).To(BeEmpty())
		})

		It("should return 400 when validation fails before reaching the service", func() {
			body, err := json.Marshal(dailylog.CreateLogDTO{
				TaskID:     "task-1",
				LogDate:    logDate,
				HoursSpent: 0,
			})
			Expect(err).NotTo(HaveOccurred())

			w := httptest.NewRecorder()
			handler.Append(w, newRequest(http.MethodPost, "/daily-logs", body))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(stub.appended).To(BeEmpty())
		})

		It("should map ErrNotYourTask to 403", func() {
			stub.appendErr = dailylog.ErrNotYourTask
			body, err := json.Marshal(dailylog.CreateLogDTO{
				TaskID:     "task-1",
				LogDate:    logDate,
				HoursSpent: 4,
			})
			Expect(err).NotTo(HaveOccurred())

			w := httptest.NewRecorder()
			handler.Append(w, newRequest(http.MethodPost, "/daily-logs", body))

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("should map ErrTaskNotFound to 404", func() {
			stub.appendErr = task.ErrTaskNotFound
			body, err := json.Marshal(dailylog.CreateLogDTO{
				TaskID:     "ghost",
				LogDate:    logDate,
				HoursSpent: 4,
			})
			Expect(err).NotTo(HaveOccurred())

			w := httptest.NewRecorder()
			handler.Append(w, newRequest(http.MethodPost, "/daily-logs", body))

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("ListMine", func() {
		It("should wrap the logs in a daily_logs field", func() {
			stub.logs = []*dailylog.DailyLog{
				{ID: "log-1", TaskID: "task-1", UserID: "user-1", HoursSpent: 2},
			}

			w := httptest.NewRecorder()
			handler.ListMine(w, newRequest(http.MethodGet, "/daily-logs", nil))

			Expect(w.Code).To(Equal(http.StatusOK))

			var response struct {
				DailyLogs []*dailylog.DailyLog `json:"daily_logs"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.DailyLogs).To(HaveLen(1))
			Expect(response.DailyLogs[0].ID).To(Equal("log-1"))
		})

		It("should honor an in-range limit and default the rest", func() {
			w := httptest.NewRecorder()
			handler.ListMine(w, newRequest(http.MethodGet, "/daily-logs?limit=10", nil))
			handler.ListMine(w, newRequest(http.MethodGet, "/daily-logs?limit=5000", nil))
			handler.ListMine(w, newRequest(http.MethodGet, "/daily-logs?limit=abc", nil))

			Expect(stub.listLimits).To(Equal([]int{10, 50, 50}))
		})
	})
})
