package profile_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/petaprogress/peta-progress/internal/profile"
	"github.com/petaprogress/peta-progress/internal/realtime"
)

func TestProfileService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Profile Service Suite")
}

// MockRepository implements profile.Repository for testing
type MockRepository struct {
	profiles  map[string]*profile.Profile
	failError error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{profiles: make(map[string]*profile.Profile)}
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	if m.failError != nil {
		return nil, m.failError
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	for _, p := range m.profiles {
		if p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, profile.ErrProfileNotFound
}

func (m *MockRepository) Create(ctx context.Context, p *profile.Profile) error {
	if m.failError != nil {
		return m.failError
	}
	copied := *p
	m.profiles[p.ID] = &copied
	return nil
}

func (m *MockRepository) Update(ctx context.Context, p *profile.Profile) error {
	if m.failError != nil {
		return m.failError
	}
	if _, ok := m.profiles[p.ID]; !ok {
		return profile.ErrProfileNotFound
	}
	copied := *p
	m.profiles[p.ID] = &copied
	return nil
}

func (m *MockRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	p, ok := m.profiles[id]
	if !ok {
		return profile.ErrProfileNotFound
	}
	if v, ok := fields["last_seen"]; ok {
		at := v.(time.Time)
		p.LastSeen = &at
	}
	if v, ok := fields["updated_at"]; ok {
		p.UpdatedAt = v.(time.Time)
	}
	return nil
}

func (m *MockRepository) ListByOrganization(ctx context.Context, orgID string) ([]*profile.Profile, error) {
	var result []*profile.Profile
	for _, p := range m.profiles {
		if p.OrganizationID != nil && *p.OrganizationID == orgID {
			result = append(result, p)
		}
	}
	return result, nil
}

// MockPublisher records published change events
type MockPublisher struct {
	events []realtime.ChangeEvent
}

func (m *MockPublisher) Publish(event realtime.ChangeEvent) {
	m.events = append(m.events, event)
}

var _ = Describe("Profile Service", func() {
	var (
		mockRepo   *MockRepository
		mockEvents *MockPublisher
		service    *profile.Service
		ctx        context.Context
	)

	orgID := "org-1"

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		mockEvents = &MockPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = profile.NewService(mockRepo, mockEvents, logger)
		ctx = context.Background()
	})

	Describe("EnsureProfile", func() {
		Context("when the profile does not exist", func() {
			It("should create one with default role and availability", func() {
				p, err := service.EnsureProfile(ctx, "user-1", "new@example.com")
				Expect(err).NotTo(HaveOccurred())
				Expect(p.Role).To(Equal(profile.RoleUser))
				Expect(p.Availability).To(Equal(profile.AvailabilityUnavailable))
				Expect(p.Email).To(Equal("new@example.com"))
				Expect(mockRepo.profiles).To(HaveKey("user-1"))
				Expect(mockEvents.events).To(HaveLen(1))
				Expect(mockEvents.events[0].Table).To(Equal(realtime.TableProfiles))
			})
		})

		Context("when the profile exists", func() {
			BeforeEach(func() {
				mockRepo.profiles["user-1"] = &profile.Profile{
					ID:       "user-1",
					Email:    "existing@example.com",
					FullName: "Existing User",
					Role:     profile.RoleAdmin,
				}
			})

			It("should return it unchanged without publishing", func() {
				p, err := service.EnsureProfile(ctx, "user-1", "ignored@example.com")
				Expect(err).NotTo(HaveOccurred())
				Expect(p.Email).To(Equal("existing@example.com"))
				Expect(p.Role).To(Equal(profile.RoleAdmin))
				Expect(mockEvents.events).To(BeEmpty())
			})
		})
	})

	Describe("SetAvailability", func() {
		BeforeEach(func() {
			mockRepo.profiles["user-1"] = &profile.Profile{
				ID:           "user-1",
				Availability: profile.AvailabilityUnavailable,
			}
		})

		It("should flip availability and stamp last_seen", func() {
			p, err := service.SetAvailability(ctx, "user-1", profile.SetAvailabilityDTO{
				Availability: profile.AvailabilityAvailable,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Availability).To(Equal(profile.AvailabilityAvailable))
			Expect(p.LastSeen).NotTo(BeNil())
		})

		It("should reject unknown availability values", func() {
			_, err := service.SetAvailability(ctx, "user-1", profile.SetAvailabilityDTO{
				Availability: "asleep",
			})
			Expect(err).To(MatchError(profile.ErrInvalidAvailability))
		})
	})

	Describe("TouchLastSeen", func() {
		BeforeEach(func() {
			mockRepo.profiles["user-1"] = &profile.Profile{ID: "user-1"}
		})

		It("should stamp the heartbeat timestamp", func() {
			at := time.Now()
			Expect(service.TouchLastSeen(ctx, "user-1", at)).To(Succeed())
			Expect(mockRepo.profiles["user-1"].LastSeen).To(HaveValue(BeTemporally("~", at, time.Second)))
		})
	})

	Describe("RemoveFromOrganization", func() {
		BeforeEach(func() {
			mockRepo.profiles["admin-1"] = &profile.Profile{
				ID:             "admin-1",
				Role:           profile.RoleAdmin,
				OrganizationID: &orgID,
			}
			deptID := "dept-1"
			mockRepo.profiles["user-1"] = &profile.Profile{
				ID:             "user-1",
				Role:           profile.RoleUser,
				OrganizationID: &orgID,
				DepartmentID:   &deptID,
			}
		})

		It("should clear organization and department on the target", func() {
			Expect(service.RemoveFromOrganization(ctx, "admin-1", "user-1")).To(Succeed())
			Expect(mockRepo.profiles["user-1"].OrganizationID).To(BeNil())
			Expect(mockRepo.profiles["user-1"].DepartmentID).To(BeNil())
		})

		It("should refuse self-removal", func() {
			err := service.RemoveFromOrganization(ctx, "admin-1", "admin-1")
			Expect(err).To(MatchError(profile.ErrCannotRemoveSelf))
		})

		It("should refuse non-admin callers", func() {
			err := service.RemoveFromOrganization(ctx, "user-1", "admin-1")
			Expect(err).To(MatchError(profile.ErrAdminRequired))
		})

		It("should refuse targets outside the admin's organization", func() {
			mockRepo.profiles["outsider"] = &profile.Profile{ID: "outsider", Role: profile.RoleUser}
			err := service.RemoveFromOrganization(ctx, "admin-1", "outsider")
			Expect(err).To(MatchError(profile.ErrProfileNotFound))
		})
	})

	Describe("SetWorkingHours", func() {
		BeforeEach(func() {
			mockRepo.profiles["admin-1"] = &profile.Profile{
				ID:             "admin-1",
				Role:           profile.RoleAdmin,
				OrganizationID: &orgID,
			}
			mockRepo.profiles["user-1"] = &profile.Profile{
				ID:             "user-1",
				Role:           profile.RoleUser,
				OrganizationID: &orgID,
			}
		})

		It("should set the member's monthly target", func() {
			Expect(service.SetWorkingHours(ctx, "admin-1", "user-1", profile.SetWorkingHoursDTO{
				WorkingHours: 160,
			})).To(Succeed())
			Expect(mockRepo.profiles["user-1"].WorkingHours).To(HaveValue(Equal(160.0)))
		})

		It("should reject non-positive hours", func() {
			err := service.SetWorkingHours(ctx, "admin-1", "user-1", profile.SetWorkingHoursDTO{
				WorkingHours: 0,
			})
			Expect(err).To(HaveOccurred())
		})
	})
})
