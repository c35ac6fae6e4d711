package postgres_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/petaprogress/peta-progress/internal/joinrequest"
	joinrequestPostgres "github.com/petaprogress/peta-progress/internal/joinrequest/postgres"
)

func TestJoinRequestPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "JoinRequest Postgres Suite")
}

// SQLiteJoinRequest is a SQLite-compatible model for testing
type SQLiteJoinRequest struct {
	ID             string    `gorm:"primaryKey"`
	OrganizationID string    `gorm:"column:organization_id;not null"`
	UserID         string    `gorm:"column:user_id;not null"`
	Email          string    `gorm:"column:email"`
	Status         string    `gorm:"column:status;default:pending"`
	InvitedBy      string    `gorm:"column:invited_by"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (SQLiteJoinRequest) TableName() string {
	return "join_requests"
}

var _ = Describe("JoinRequest PostgreSQL Repository", func() {
	var (
		db   *gorm.DB
		repo joinrequest.Repository
		ctx  context.Context
	)

	newRequest := func(id, userID, orgID, status string, createdAt time.Time) *joinrequest.JoinRequest {
		return &joinrequest.JoinRequest{
			ID:             id,
			OrganizationID: orgID,
			UserID:         userID,
			Email:          userID + "@example.com",
			Status:         status,
			InvitedBy:      "admin-1",
			CreatedAt:      createdAt,
			UpdatedAt:      createdAt,
		}
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteJoinRequest{})
		Expect(err).NotTo(HaveOccurred())

		repo = joinrequestPostgres.NewJoinRequestRepository(db)
		ctx = context.Background()
	})

	Describe("Create and GetByID", func() {
		It("should round-trip a request", func() {
			jr := newRequest("jr-1", "user-1", "org-1", joinrequest.StatusPending, time.Now())
			Expect(repo.Create(ctx, jr)).To(Succeed())

			got, err := repo.GetByID(ctx, "jr-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.UserID).To(Equal("user-1"))
			Expect(got.Status).To(Equal(joinrequest.StatusPending))
			Expect(got.InvitedBy).To(Equal("admin-1"))
		})

		It("should return ErrRequestNotFound for unknown ids", func() {
			_, err := repo.GetByID(ctx, "ghost")
			Expect(err).To(MatchError(joinrequest.ErrRequestNotFound))
		})
	})

	Describe("LatestForUserAndOrg", func() {
		It("should return the most recent row for the pair", func() {
			older := newRequest("jr-old", "user-1", "org-1", joinrequest.StatusDenied, time.Now().Add(-48*time.Hour))
			newer := newRequest("jr-new", "user-1", "org-1", joinrequest.StatusPending, time.Now())
			other := newRequest("jr-other", "user-1", "org-2", joinrequest.StatusPending, time.Now())
			Expect(repo.Create(ctx, older)).To(Succeed())
			Expect(repo.Create(ctx, newer)).To(Succeed())
			Expect(repo.Create(ctx, other)).To(Succeed())

			got, err := repo.LatestForUserAndOrg(ctx, "user-1", "org-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal("jr-new"))
		})

		It("should return ErrRequestNotFound when no row exists", func() {
			_, err := repo.LatestForUserAndOrg(ctx, "user-1", "org-1")
			Expect(err).To(MatchError(joinrequest.ErrRequestNotFound))
		})
	})

	Describe("UpdateStatus", func() {
		It("should change status and updated_at only", func() {
			created := time.Now().Add(-time.Hour)
			jr := newRequest("jr-1", "user-1", "org-1", joinrequest.StatusPending, created)
			Expect(repo.Create(ctx, jr)).To(Succeed())

			at := time.Now()
			Expect(repo.UpdateStatus(ctx, "jr-1", joinrequest.StatusApproved, at)).To(Succeed())

			got, err := repo.GetByID(ctx, "jr-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(joinrequest.StatusApproved))
			Expect(got.UpdatedAt).To(BeTemporally("~", at, time.Second))
			Expect(got.CreatedAt).To(BeTemporally("~", created, time.Second))
		})
	})

	Describe("Revive", func() {
		It("should reset a terminal row to pending with fresh timestamps", func() {
			created := time.Now().Add(-72 * time.Hour)
			jr := newRequest("jr-1", "user-1", "org-1", joinrequest.StatusDenied, created)
			Expect(repo.Create(ctx, jr)).To(Succeed())

			at := time.Now()
			Expect(repo.Revive(ctx, "jr-1", at)).To(Succeed())

			got, err := repo.GetByID(ctx, "jr-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(joinrequest.StatusPending))
			Expect(got.CreatedAt).To(BeTemporally("~", at, time.Second))
			Expect(got.UpdatedAt).To(BeTemporally("~", at, time.Second))
		})
	})

	Describe("ListPendingByOrganization", func() {
		BeforeEach(func() {
			Expect(repo.Create(ctx, newRequest("jr-1", "user-1", "org-1", joinrequest.StatusPending, time.Now().Add(-2*time.Hour)))).To(Succeed())
			Expect(repo.Create(ctx, newRequest("jr-2", "user-2", "org-1", joinrequest.StatusPending, time.Now()))).To(Succeed())
			Expect(repo.Create(ctx, newRequest("jr-3", "user-3", "org-1", joinrequest.StatusDenied, time.Now()))).To(Succeed())
			Expect(repo.Create(ctx, newRequest("jr-4", "user-4", "org-2", joinrequest.StatusPending, time.Now()))).To(Succeed())
		})

		It("should return only pending rows for the organization, newest first", func() {
			requests, err := repo.ListPendingByOrganization(ctx, "org-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(requests).To(HaveLen(2))
			Expect(requests[0].ID).To(Equal("jr-2"))
			Expect(requests[1].ID).To(Equal("jr-1"))
		})
	})

	Describe("ListPendingByUser", func() {
		It("should return the user's pending invitations across organizations", func() {
			Expect(repo.Create(ctx, newRequest("jr-1", "user-1", "org-1", joinrequest.StatusPending, time.Now()))).To(Succeed())
			Expect(repo.Create(ctx, newRequest("jr-2", "user-1", "org-2", joinrequest.StatusPending, time.Now()))).To(Succeed())
			Expect(repo.Create(ctx, newRequest("jr-3", "user-1", "org-3", joinrequest.StatusApproved, time.Now()))).To(Succeed())

			requests, err := repo.ListPendingByUser(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(requests).To(HaveLen(2))
		})
	})
})
