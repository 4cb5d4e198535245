package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tracking-service/internal/auth"
	"tracking-service/internal/http/middleware"
	"tracking-service/internal/maprender"
	"tracking-service/internal/model"
	"tracking-service/internal/service"
	"tracking-service/internal/ws"
)

const testSecret = "test-secret"

type stubUpstream struct{}

func (stubUpstream) Route(ctx context.Context, deviceID, date string) (*model.HistoricalRouteData, error) {
	return &model.HistoricalRouteData{DeviceID: deviceID, Date: date}, nil
}

func (stubUpstream) Path(ctx context.Context, deviceID, date string) (*model.PathData, error) {
	return &model.PathData{DeviceID: deviceID}, nil
}

func (stubUpstream) Materials(ctx context.Context) ([]model.Material, error) {
	return []model.Material{{MaterialID: "M1", MaterialType: "billboard", Title: "EDSA North A"}}, nil
}

func (stubUpstream) FleetCompliance(ctx context.Context, date string) (*model.FleetSnapshot, error) {
	return &model.FleetSnapshot{}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *service.Dashboard) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zerolog.Nop()
	upstream := stubUpstream{}
	history := service.NewHistoryFetcher(upstream, nil, log)
	renderer := maprender.NewAdapter(200 * time.Millisecond)
	dashboard := service.NewDashboard(history, upstream, upstream, renderer, nil, log)
	poller := service.NewPoller(upstream, dashboard, time.Hour, log)
	hub := ws.NewHub(log)

	handler := NewHandler(dashboard, poller, hub, log)
	router := NewRouter(handler, middleware.Auth(auth.NewParser(testSecret)), "test")
	return router, dashboard
}

func mintToken(t *testing.T, role string, driverID *uuid.UUID) string {
	t.Helper()
	claims := &auth.Claims{
		UserID:   uuid.New(),
		Role:     role,
		DriverID: driverID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func doRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthIsPublic(t *testing.T) {
	router, _ := newTestRouter(t)
	if w := doRequest(router, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Errorf("healthz = %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	router, _ := newTestRouter(t)

	if w := doRequest(router, http.MethodGet, "/tracking/dashboard", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", w.Code)
	}
	if w := doRequest(router, http.MethodGet, "/tracking/dashboard", "not-a-jwt", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token = %d, want 401", w.Code)
	}
}

func TestDriverTokensRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	token := mintToken(t, string(model.RoleDriver), nil)
	if w := doRequest(router, http.MethodGet, "/tracking/dashboard", token, nil); w.Code != http.StatusForbidden {
		t.Errorf("driver role = %d, want 403", w.Code)
	}

	// A user token carrying a driver binding is still a device credential.
	driverID := uuid.New()
	token = mintToken(t, string(model.RoleUser), &driverID)
	if w := doRequest(router, http.MethodGet, "/tracking/dashboard", token, nil); w.Code != http.StatusForbidden {
		t.Errorf("driver-bound user = %d, want 403", w.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	router, dashboard := newTestRouter(t)
	dashboard.ApplySnapshot(&model.FleetSnapshot{
		Screens: []model.ScreenStatus{{DeviceID: "D1", MaterialID: "M1", IsOnline: true}},
		Summary: model.FleetSummary{TotalScreens: 1, OnlineScreens: 1},
	})

	token := mintToken(t, string(model.RoleAdmin), nil)
	w := doRequest(router, http.MethodGet, "/tracking/dashboard", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data service.DashboardState `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Data.Screens) != 1 || resp.Data.Selection.DeviceID != "D1" {
		t.Errorf("unexpected state: %+v", resp.Data)
	}
	if resp.Data.Connection != model.ConnectionConnected {
		t.Errorf("connection = %s", resp.Data.Connection)
	}
}

func TestSelectScreenEndpoint(t *testing.T) {
	router, dashboard := newTestRouter(t)
	dashboard.ApplySnapshot(&model.FleetSnapshot{
		Screens: []model.ScreenStatus{
			{DeviceID: "D1", MaterialID: "M1"},
			{DeviceID: "D2", MaterialID: "M1"},
		},
	})
	token := mintToken(t, string(model.RoleUser), nil)

	w := doRequest(router, http.MethodPost, "/tracking/select", token, gin.H{"device_id": "D2"})
	if w.Code != http.StatusOK {
		t.Fatalf("select = %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodPost, "/tracking/select", token, gin.H{"device_id": "D9"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown device = %d, want 404", w.Code)
	}

	w = doRequest(router, http.MethodPost, "/tracking/select", token, gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing device_id = %d, want 400", w.Code)
	}
}

func TestTabAndDateEndpoints(t *testing.T) {
	router, dashboard := newTestRouter(t)
	dashboard.ApplySnapshot(&model.FleetSnapshot{
		Screens: []model.ScreenStatus{{DeviceID: "D1", MaterialID: "M1"}},
	})
	token := mintToken(t, string(model.RoleUser), nil)

	w := doRequest(router, http.MethodPost, "/tracking/date", token, gin.H{"date": "2025-09-25"})
	if w.Code != http.StatusOK {
		t.Fatalf("date = %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodPost, "/tracking/tab", token, gin.H{"tab": "Historical"})
	if w.Code != http.StatusOK {
		t.Fatalf("tab = %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodPost, "/tracking/tab", token, gin.H{"tab": "satellite"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad tab = %d, want 400", w.Code)
	}
}

func TestLoadRouteWithoutSelection(t *testing.T) {
	router, _ := newTestRouter(t)
	token := mintToken(t, string(model.RoleUser), nil)

	w := doRequest(router, http.MethodPost, "/tracking/route/load", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("load with no selection = %d, want 400", w.Code)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	token := mintToken(t, string(model.RoleSuperAdmin), nil)

	w := doRequest(router, http.MethodPost, "/tracking/refresh", token, nil)
	if w.Code != http.StatusAccepted {
		t.Errorf("refresh = %d, want 202", w.Code)
	}
}
