package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fosho-App/fosho-v1/internal/eligibility"
	"github.com/Fosho-App/fosho-v1/internal/escrow"
	"github.com/Fosho-App/fosho-v1/internal/events"
	"github.com/Fosho-App/fosho-v1/internal/registry"
	"github.com/Fosho-App/fosho-v1/internal/repository"
	"github.com/Fosho-App/fosho-v1/internal/service"
	"github.com/Fosho-App/fosho-v1/pkg/logger"
	"github.com/Fosho-App/fosho-v1/pkg/response"
)

const testSecret = "test-secret-key"

func init() {
	gin.SetMode(gin.TestMode)
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

// testServer bundles the HTTP surface with the stores tests seed
// directly.
type testServer struct {
	engine *gin.Engine
	clock  *testClock
	ledger *escrow.MemoryNativeLedger
	assets *escrow.MemoryAssetTransferService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log, err := logger.New(&logger.Config{Level: "error", ServiceName: "fosho-test"})
	require.NoError(t, err)

	communityRepo := repository.NewMemoryCommunityRepository()
	eventRepo := repository.NewMemoryEventRepository()
	attendeeRepo := repository.NewMemoryAttendeeRepository()
	ticketRepo := repository.NewMemoryTicketRepository()
	metadata := registry.NewMemoryEventMetadata()
	tickets := registry.NewMemoryTicketRegistry()
	collectibles := registry.NewMemoryCollectibleRegistry()
	ledger := escrow.NewMemoryNativeLedger()
	assets := escrow.NewMemoryAssetTransferService()

	accountant := escrow.NewAccountant(ledger, assets)
	gate := eligibility.NewGate(collectibles, assets)
	clock := &testClock{now: time.Unix(1_000, 0)}
	tx := repository.MemoryTx{}
	pub := events.NopPublisher{}

	communityService := service.NewCommunityService(communityRepo, pub, clock, log)
	eventService := service.NewEventService(tx, communityRepo, eventRepo, metadata, accountant, pub, clock, log)
	attendanceService := service.NewAttendanceService(tx, communityRepo, eventRepo, attendeeRepo, ticketRepo,
		metadata, tickets, gate, accountant, pub, clock, log, true)
	claimService := service.NewClaimService(tx, communityRepo, eventRepo, attendeeRepo, ticketRepo,
		metadata, accountant, pub, clock, log)

	engine := gin.New()
	SetupRouter(engine, &RouterConfig{
		Health:    NewHealthHandler(nil, nil),
		Community: NewCommunityHandler(communityService, log),
		Event:     NewEventHandler(eventService, metadata, log),
		Attendee:  NewAttendeeHandler(attendanceService, claimService, log),
		JWTSecret: testSecret,
	})

	return &testServer{
		engine: engine,
		clock:  clock,
		ledger: ledger,
		assets: assets,
	}
}

func token(t *testing.T, identity string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"identity": identity,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do issues a request as identity and decodes the envelope.
func (s *testServer) do(t *testing.T, method, path, identity string, body any) (*httptest.ResponseRecorder, *response.Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if identity != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, identity))
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var resp response.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, &resp
}

func (s *testServer) createCommunity(t *testing.T, authority string) string {
	t.Helper()
	w, resp := s.do(t, http.MethodPost, "/api/v1/communities", authority, gin.H{
		"seed": "seed-" + strconv.FormatInt(time.Now().UnixNano(), 36),
		"name": "Test Community",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp.Data.(map[string]interface{})["id"].(string)
}

func (s *testServer) createEvent(t *testing.T, communityID, authority string, fee uint64) string {
	t.Helper()
	w, resp := s.do(t, http.MethodPost, "/api/v1/communities/"+communityID+"/events", authority, gin.H{
		"name":           "Launch Party",
		"uri":            "https://example.com/launch.json",
		"event_type":     "in_person",
		"commitment_fee": fee,
		"attributes": []gin.H{
			{"key": registry.KeyRegistrationStartsAt, "value": "500"},
			{"key": registry.KeyRegistrationEndsAt, "value": "1500"},
			{"key": registry.KeyEventStartsAt, "value": "2000"},
			{"key": registry.KeyEventEndsAt, "value": "3000"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp.Data.(map[string]interface{})["id"].(string)
}

func TestCreateCommunityEndpoint(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodPost, "/api/v1/communities", "carol", gin.H{
		"seed": "summer-fest",
		"name": "Summer Fest",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "summer-fest", data["seed"])
	assert.Equal(t, "carol", data["authority"])

	// Duplicate seed conflicts.
	w, resp = s.do(t, http.MethodPost, "/api/v1/communities", "carol", gin.H{
		"seed": "summer-fest",
		"name": "Summer Fest Again",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SEED_TAKEN", resp.Error.Code)
}

func TestCommunityEndpointRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/v1/communities", "", gin.H{
		"seed": "no-auth",
		"name": "No Auth",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateEventEndpoint(t *testing.T) {
	s := newTestServer(t)
	communityID := s.createCommunity(t, "carol")

	eventID := s.createEvent(t, communityID, "carol", 0)

	w, resp := s.do(t, http.MethodGet, "/api/v1/events/"+eventID, "anyone", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Launch Party", data["name"])
	assert.Equal(t, float64(1), data["nonce"])
}

func TestCreateEventForbiddenForNonAuthority(t *testing.T) {
	s := newTestServer(t)
	communityID := s.createCommunity(t, "carol")

	w, resp := s.do(t, http.MethodPost, "/api/v1/communities/"+communityID+"/events", "mallory", gin.H{
		"name":       "Hijacked",
		"uri":        "https://example.com/x.json",
		"event_type": "in_person",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INVALID_COMMUNITY_AUTHORITY", resp.Error.Code)
}

func TestCreateEventValidation(t *testing.T) {
	s := newTestServer(t)
	communityID := s.createCommunity(t, "carol")

	w, resp := s.do(t, http.MethodPost, "/api/v1/communities/"+communityID+"/events", "carol", gin.H{
		"name":       "Bad Type",
		"uri":        "https://example.com/x.json",
		"event_type": "interpretive_dance",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
}

func TestJoinAndClaimFlow(t *testing.T) {
	s := newTestServer(t)
	communityID := s.createCommunity(t, "carol")
	eventID := s.createEvent(t, communityID, "carol", 50)
	s.ledger.SetBalance("alice", 100)

	// Join within the registration window.
	w, resp := s.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/join", "alice", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := resp.Data.(map[string]interface{})
	attendeeID := data["id"].(string)
	assert.Equal(t, "pending", data["status"])

	// Commitment fee moved to the event's fee escrow.
	balance, err := s.ledger.Balance(context.Background(), escrow.FeeAccount(eventID))
	require.NoError(t, err)
	assert.Equal(t, uint64(50), balance)

	// Verify during the occurrence window.
	s.clock.now = time.Unix(2_500, 0)
	w, resp = s.do(t, http.MethodPost, "/api/v1/attendees/"+attendeeID+"/verify", "carol", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "verified", resp.Data.(map[string]interface{})["status"])

	// Claim returns the fee to alice.
	w, resp = s.do(t, http.MethodPost, "/api/v1/attendees/"+attendeeID+"/claim", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "claimed", resp.Data.(map[string]interface{})["status"])

	balance, err = s.ledger.Balance(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)
}

func TestJoinClosedRegistrationMapsToUnprocessable(t *testing.T) {
	s := newTestServer(t)
	communityID := s.createCommunity(t, "carol")
	eventID := s.createEvent(t, communityID, "carol", 0)

	s.clock.now = time.Unix(1_800, 0)
	w, resp := s.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/join", "alice", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "REGISTRATION_CLOSED", resp.Error.Code)
}

func TestJoinWithInsufficientFunds(t *testing.T) {
	s := newTestServer(t)
	communityID := s.createCommunity(t, "carol")
	eventID := s.createEvent(t, communityID, "carol", 50)

	w, resp := s.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/join", "broke", nil)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, "INSUFFICIENT_FUNDS", resp.Error.Code)
}

func TestVerifyForbiddenForNonAuthority(t *testing.T) {
	s := newTestServer(t)
	communityID := s.createCommunity(t, "carol")
	eventID := s.createEvent(t, communityID, "carol", 0)

	_, resp := s.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/join", "alice", nil)
	attendeeID := resp.Data.(map[string]interface{})["id"].(string)

	s.clock.now = time.Unix(2_500, 0)
	w, resp := s.do(t, http.MethodPost, "/api/v1/attendees/"+attendeeID+"/verify", "mallory", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INVALID_EVENT_AUTHORITY", resp.Error.Code)
}

func TestGetUnknownResources(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		path string
		code string
	}{
		{"/api/v1/events/missing", "EVENT_NOT_FOUND"},
		{"/api/v1/attendees/missing", "ATTENDEE_NOT_FOUND"},
		{"/api/v1/communities/missing", "COMMUNITY_NOT_FOUND"},
	}
	for _, tc := range cases {
		w, resp := s.do(t, http.MethodGet, tc.path, "anyone", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
		assert.Equal(t, tc.code, resp.Error.Code, tc.path)
	}
}

func TestListEventsPagination(t *testing.T) {
	s := newTestServer(t)
	communityID := s.createCommunity(t, "carol")
	for i := 0; i < 3; i++ {
		s.createEvent(t, communityID, "carol", 0)
	}

	w, resp := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/communities/%s/events?limit=2", communityID), "anyone", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Limit)
	assert.Equal(t, 2, resp.Meta.Count)
	assert.Len(t, resp.Data.([]interface{}), 2)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
