package transport_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/petaprogress/peta-progress/internal"
	"github.com/petaprogress/peta-progress/internal/transport"
)

func TestTransport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transport Suite")
}

var _ = Describe("BaseHandler", func() {
	var handler *transport.BaseHandler

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = transport.NewBaseHandler(logger)
	})

	Describe("HandleError", func() {
		type errorEnvelope struct {
			Error struct {
				Type    string `json:"type"`
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}

		It("should map an AppError onto its own status and code", func() {
			w := httptest.NewRecorder()
			handler.HandleError(w, internal.NewConflictError("email is already registered", internal.ErrCodeEmailTaken))

			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

			var envelope errorEnvelope
			Expect(json.NewDecoder(w.Body).Decode(&envelope)).To(Succeed())
			Expect(envelope.Error.Type).To(Equal(string(internal.ErrorTypeConflict)))
			Expect(envelope.Error.Code).To(Equal(string(internal.ErrCodeEmailTaken)))
			Expect(envelope.Error.Message).To(Equal("email is already registered"))
		})

		It("should recognize a wrapped AppError", func() {
			w := httptest.NewRecorder()
			wrapped := fmt.Errorf("looking up caller: %w", internal.ErrAdminRequired)
			handler.HandleError(w, wrapped)

			Expect(w.Code).To(Equal(http.StatusForbidden))

			var envelope errorEnvelope
			Expect(json.NewDecoder(w.Body).Decode(&envelope)).To(Succeed())
			Expect(envelope.Error.Code).To(Equal(string(internal.ErrCodeAdminRequired)))
		})

		It("should cover the full status range of the taxonomy", func() {
			cases := map[int]error{
				http.StatusBadRequest:   internal.NewValidationError("bad hours", internal.ErrCodeInvalidHours),
				http.StatusNotFound:     internal.ErrProfileNotFound,
				http.StatusUnauthorized: internal.ErrInvalidCredentials,
				http.StatusForbidden:    internal.ErrAdminRequired,
			}
			for status, err := range cases {
				w := httptest.NewRecorder()
				handler.HandleError(w, err)
				Expect(w.Code).To(Equal(status))
			}
		})

		It("should report an unknown error as a 500 without leaking it", func() {
			w := httptest.NewRecorder()
			handler.HandleError(w, errors.New("pq: connection reset"))

			Expect(w.Code).To(Equal(http.StatusInternalServerError))

			var body map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			Expect(body["message"]).To(Equal("internal server error"))
			Expect(fmt.Sprint(body)).NotTo(ContainSubstring("connection reset"))
		})
	})
})
