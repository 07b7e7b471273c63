package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"rifa/internal/registry/service"
	"rifa/internal/registry/store"
	"rifa/pkg/platform/tx"
)

type HandlerSuite struct {
	suite.Suite
	store  *store.InMemory
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = store.NewInMemory()
	svc := service.New(s.store, tx.NewMemoryRunner(), 1000)
	h := New(svc, slog.Default())

	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterOperator(s.router)
}

func (s *HandlerSuite) register(name, contact string, number int) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]any{
		"full_name": name,
		"contact":   contact,
		"number":    number,
	})
	req := httptest.NewRequest(http.MethodPost, "/raffle/participants", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestRegister() {
	s.Run("created", func() {
		rec := s.register("Maria Silva", "(11) 98765-4321", 42)
		s.Require().Equal(http.StatusCreated, rec.Code)

		var got map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.Equal(float64(42), got["number"])
		s.Equal("(11) 98765-4321", got["contact"])
		s.Equal("direct", got["origin"])
		s.NotEmpty(got["id"])
	})

	s.Run("number conflict", func() {
		rec := s.register("Joao Souza", "(21) 91234-5678", 42)
		s.Require().Equal(http.StatusConflict, rec.Code)

		var got map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.Equal("number_taken", got["error"])
	})

	s.Run("contact conflict includes existing tickets", func() {
		rec := s.register("Maria Silva", "11987654321", 43)
		s.Require().Equal(http.StatusConflict, rec.Code)

		var got struct {
			Error   string           `json:"error"`
			Details []map[string]any `json:"details"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.Equal("contact_registered", got.Error)
		s.Len(got.Details, 1)
	})

	s.Run("invalid body", func() {
		req := httptest.NewRequest(http.MethodPost, "/raffle/participants", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestLookup() {
	s.Require().Equal(http.StatusCreated, s.register("Maria Silva", "(11) 98765-4321", 42).Code)

	s.Run("found", func() {
		req := httptest.NewRequest(http.MethodGet, "/raffle/participants?contact=11987654321", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Require().Equal(http.StatusOK, rec.Code)

		var got struct {
			Participants []map[string]any `json:"participants"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.Len(got.Participants, 1)
	})

	s.Run("missing query parameter", func() {
		req := httptest.NewRequest(http.MethodGet, "/raffle/participants", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestAvailability() {
	s.Require().Equal(http.StatusCreated, s.register("Maria Silva", "(11) 98765-4321", 42).Code)

	req := httptest.NewRequest(http.MethodGet, "/raffle/availability", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)

	var got struct {
		PoolSize         int   `json:"pool_size"`
		Claimed          []int `json:"claimed"`
		AvailableCount   int   `json:"available_count"`
		ParticipantCount int   `json:"participant_count"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal(1000, got.PoolSize)
	s.Equal([]int{42}, got.Claimed)
	s.Equal(999, got.AvailableCount)
	s.Equal(1, got.ParticipantCount)
}

func (s *HandlerSuite) TestRemove() {
	rec := s.register("Maria Silva", "(11) 98765-4321", 42)
	s.Require().Equal(http.StatusCreated, rec.Code)
	var created map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["id"].(string)

	s.Run("deletes", func() {
		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/raffle/participants/%s", id), nil)
		del := httptest.NewRecorder()
		s.router.ServeHTTP(del, req)
		s.Equal(http.StatusNoContent, del.Code)
	})

	s.Run("second delete is not found", func() {
		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/raffle/participants/%s", id), nil)
		del := httptest.NewRecorder()
		s.router.ServeHTTP(del, req)
		s.Equal(http.StatusNotFound, del.Code)
	})

	s.Run("malformed id", func() {
		req := httptest.NewRequest(http.MethodDelete, "/raffle/participants/not-a-uuid", nil)
		del := httptest.NewRecorder()
		s.router.ServeHTTP(del, req)
		s.Equal(http.StatusBadRequest, del.Code)
	})
}
