package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"registrar/internal/client/backend"
	"registrar/internal/client/models"
	"registrar/internal/client/service"
	"registrar/internal/client/store"
	"registrar/internal/platform/environment"
	id "registrar/pkg/domain"
	"registrar/pkg/testutil"
)

const (
	selfUser = id.UserID("5f0b2f0e-3c0d-4c43-9d25-0b8a5f4b1c11")
	peerUser = id.UserID("8c2d1e77-41a9-4d6e-9a2b-7f3d2c9e0a55")
	clientID = id.ClientID("5e8a1c2f9b7d3e41")
)

// stubAuthority answers from a fixed set of known clients.
type stubAuthority struct {
	known   map[id.ClientID]models.Payload
	byUser  map[id.UserID][]models.Payload
	failAll error
}

func (a *stubAuthority) GetClient(_ context.Context, clientID id.ClientID) (models.Payload, error) {
	if a.failAll != nil {
		return models.Payload{}, a.failAll
	}
	p, ok := a.known[clientID]
	if !ok {
		return models.Payload{}, &backend.StatusError{Status: http.StatusNotFound, Label: "client-not-found"}
	}
	return p, nil
}

func (a *stubAuthority) ListClients(_ context.Context, userID id.UserID) ([]models.Payload, error) {
	if a.failAll != nil {
		return nil, a.failAll
	}
	return a.byUser[userID], nil
}

type HandlerSuite struct {
	suite.Suite
	local     *store.InMemory
	authority *stubAuthority
	service   *service.Service
	router    chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.local = store.NewInMemory()
	s.authority = &stubAuthority{
		known: map[id.ClientID]models.Payload{
			clientID: {ID: string(clientID), Class: "desktop", Type: "permanent", Label: "Laptop"},
		},
		byUser: map[id.UserID][]models.Payload{
			peerUser: {{ID: "aa01", Class: "phone"}, {ID: "aa02", Class: "tablet"}},
		},
	}
	svc, err := service.New(s.local, s.authority,
		service.WithLogger(logger),
		service.WithSelfUserID(selfUser),
		service.WithEnvironment(environment.Static{}),
	)
	s.Require().NoError(err)
	s.service = svc

	s.router = chi.NewRouter()
	New(svc, logger).Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), method, path, body))
}

func (s *HandlerSuite) persistCurrent() {
	s.Require().NoError(s.local.Save(context.Background(), models.PrimaryKeyCurrentClient,
		&models.Client{ID: clientID, Type: models.ClientTypeTemporary}))
}

func (s *HandlerSuite) TestCurrentClient() {
	s.Run("not set", func() {
		rec := s.do(http.MethodGet, "/clients/current", nil)
		testutil.AssertStatus(s.T(), rec, http.StatusConflict)
		body := testutil.UnmarshalErrorResponse(s.T(), rec)
		s.Equal("conflict", body["error"])
		s.Equal("current client is not set", body["error_description"])
	})

	s.Run("after validation", func() {
		s.persistCurrent()
		s.Equal(http.StatusOK, s.do(http.MethodPost, "/clients/current/validate", nil).Code)

		rec := s.do(http.MethodGet, "/clients/current", nil)
		s.Equal(http.StatusOK, rec.Code)
		resp := testutil.UnmarshalResponse[ClientResponse](s.T(), rec)
		s.Equal(string(clientID), resp.ID)
		s.Equal("permanent", resp.Type)
	})
}

func (s *HandlerSuite) TestValidate() {
	s.Run("nothing persisted", func() {
		rec := s.do(http.MethodPost, "/clients/current/validate", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("client removed remotely deletes local state", func() {
		s.Require().NoError(s.local.Save(context.Background(), models.PrimaryKeyCurrentClient,
			&models.Client{ID: id.ClientID("0badc0de")}))

		rec := s.do(http.MethodPost, "/clients/current/validate", nil)
		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal(0, s.local.Len())
	})

	s.Run("backend failure", func() {
		s.persistCurrent()
		s.authority.failAll = &backend.StatusError{Status: http.StatusBadGateway}
		defer func() { s.authority.failAll = nil }()

		rec := s.do(http.MethodPost, "/clients/current/validate", nil)
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		s.Equal(1, s.local.Len())
	})
}

func (s *HandlerSuite) TestPermanent() {
	s.Equal(http.StatusConflict, s.do(http.MethodGet, "/clients/current/permanent", nil).Code)

	s.Require().NoError(s.service.SetCurrentClient(&models.Client{ID: clientID, Type: models.ClientTypePermanent}))
	rec := s.do(http.MethodGet, "/clients/current/permanent", nil)
	s.Equal(http.StatusOK, rec.Code)
	resp := testutil.UnmarshalResponse[PermanenceResponse](s.T(), rec)
	s.True(resp.Permanent)
}

func (s *HandlerSuite) TestListClients() {
	s.Run("lists a user's clients", func() {
		rec := s.do(http.MethodGet, "/users/"+string(peerUser)+"/clients", nil)
		s.Equal(http.StatusOK, rec.Code)
		resp := testutil.UnmarshalResponse[ListResponse](s.T(), rec)
		s.Require().Len(resp.Clients, 2)
		s.Equal("aa01", resp.Clients[0].ID)
		s.Empty(resp.Clients[0].Type)
	})

	s.Run("invalid user id", func() {
		rec := s.do(http.MethodGet, "/users/not-a-uuid/clients", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestIsCurrent() {
	path := "/users/" + string(selfUser) + "/clients/" + string(clientID) + "/current"
	s.Equal(http.StatusConflict, s.do(http.MethodGet, path, nil).Code)

	s.Require().NoError(s.service.SetCurrentClient(&models.Client{ID: clientID}))
	rec := s.do(http.MethodGet, path, nil)
	s.Equal(http.StatusOK, rec.Code)
	resp := testutil.UnmarshalResponse[IsCurrentResponse](s.T(), rec)
	s.True(resp.IsCurrent)

	rec = s.do(http.MethodGet, "/users/"+string(peerUser)+"/clients/"+string(clientID)+"/current", nil)
	s.False(testutil.UnmarshalResponse[IsCurrentResponse](s.T(), rec).IsCurrent)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/users/"+string(selfUser)+"/clients/xyz/current", nil).Code)
}

func (s *HandlerSuite) TestVerifyAndDelete() {
	ctx := context.Background()
	_, err := s.service.SaveClient(ctx, peerUser, &models.Client{ID: id.ClientID("aa01")})
	s.Require().NoError(err)
	path := "/users/" + string(peerUser) + "/clients/aa01"

	s.Run("verify", func() {
		rec := s.do(http.MethodPut, path+"/verification", VerificationRequest{Verified: true})
		s.Equal(http.StatusOK, rec.Code)
		resp := testutil.UnmarshalResponse[ClientResponse](s.T(), rec)
		s.True(resp.IsVerified)

		stored, err := s.service.LoadClient(ctx, peerUser, id.ClientID("aa01"))
		s.Require().NoError(err)
		s.True(stored.Meta.IsVerified)
	})

	s.Run("verify rejects malformed body", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPut, path+"/verification", `{`)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest, "bad_request")
	})

	s.Run("delete", func() {
		s.Equal(http.StatusNoContent, s.do(http.MethodDelete, path, nil).Code)
		s.Equal(http.StatusNotFound, s.do(http.MethodDelete, path, nil).Code)
	})

	s.Run("current client cannot be deleted", func() {
		s.Require().NoError(s.service.SetCurrentClient(&models.Client{ID: clientID}))
		rec := s.do(http.MethodDelete, "/users/"+string(selfUser)+"/clients/"+string(clientID), nil)
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *HandlerSuite) TestVerifyCurrentClient() {
	s.persistCurrent()
	testutil.AssertStatusOK(s.T(), s.do(http.MethodPost, "/clients/current/validate", nil))

	path := "/users/" + string(selfUser) + "/clients/" + string(clientID) + "/verification"
	rec := s.do(http.MethodPut, path, VerificationRequest{Verified: true})
	testutil.AssertStatusOK(s.T(), rec)
	s.True(testutil.UnmarshalResponse[ClientResponse](s.T(), rec).IsVerified)

	stored, err := s.local.Load(context.Background(), models.PrimaryKeyCurrentClient)
	s.Require().NoError(err)
	s.True(stored.Meta.IsVerified)
	s.Equal(clientID, stored.ID)
	s.True(s.service.CurrentClient().Meta.IsVerified)
}

func (s *HandlerSuite) TestLookupErrors() {
	s.Run("verifying an unknown client", func() {
		rec := s.do(http.MethodPut, "/users/"+string(peerUser)+"/clients/bb01/verification", VerificationRequest{Verified: true})
		testutil.AssertStatusAndError(s.T(), rec, http.StatusNotFound, "not_found")
	})

	s.Run("listing while the backend fails", func() {
		s.authority.failAll = &backend.StatusError{Status: http.StatusBadGateway}
		defer func() { s.authority.failAll = nil }()

		rec := s.do(http.MethodGet, "/users/"+string(peerUser)+"/clients", nil)
		testutil.AssertStatusAndError(s.T(), rec, http.StatusServiceUnavailable, "unavailable")
	})

	s.Run("listing while the backend circuit is open", func() {
		s.authority.failAll = backend.ErrCircuitOpen
		defer func() { s.authority.failAll = nil }()

		rec := s.do(http.MethodGet, "/users/"+string(peerUser)+"/clients", nil)
		testutil.AssertStatusAndError(s.T(), rec, http.StatusServiceUnavailable, "unavailable")
	})
}

func (s *HandlerSuite) TestSyncClients() {
	ctx := context.Background()
	_, err := s.service.SaveClient(ctx, peerUser, &models.Client{ID: id.ClientID("aa01"), Meta: models.Meta{IsVerified: true}})
	s.Require().NoError(err)

	rec := s.do(http.MethodPost, "/users/"+string(peerUser)+"/clients/sync", nil)
	testutil.AssertStatusOK(s.T(), rec)
	resp := testutil.UnmarshalResponse[ListResponse](s.T(), rec)
	s.Require().Len(resp.Clients, 2)
	s.True(resp.Clients[0].IsVerified)
	s.Equal("phone", resp.Clients[0].Class)
	s.False(resp.Clients[1].IsVerified)

	stored, err := s.service.LoadClient(ctx, peerUser, id.ClientID("aa02"))
	s.Require().NoError(err)
	s.Equal("tablet", string(stored.Class))
	s.Equal(2, s.local.Len())
}
