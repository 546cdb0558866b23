package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"serverbot/internal/controllers"
	"serverbot/internal/models"
	"serverbot/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedInspector []models.UsageSample

func (f fixedInspector) InspectAll(ctx context.Context, mountPoints []models.MountPoint) ([]models.UsageSample, error) {
	return f, nil
}

type fixedLoad struct{}

func (fixedLoad) Load(ctx context.Context) (*models.HostLoad, error) {
	return &models.HostLoad{
		CPU:    &models.CPUStatus{UsagePercent: 12, CoreCount: 4},
		Memory: &models.MemoryStatus{TotalGB: 16, UsagePercent: 40},
	}, nil
}

type countingPoster struct {
	mu    sync.Mutex
	texts []string
}

func (p *countingPoster) PostMessage(ctx context.Context, destination models.ChannelDestination, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, text)
	return nil
}

type testServer struct {
	router  *gin.Engine
	monitor *services.DiskMonitor
	hub     *services.WebSocketHub
	poster  *countingPoster
	token   string
	logs    *observer.ObservedLogs
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	// Observed rather than zaptest: WebSocket pumps may log after the test returns
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	reg := prometheus.NewRegistry()
	telemetry := services.NewTelemetry(reg)
	poster := &countingPoster{}

	scheduler, err := services.NewScheduler(models.RecurrenceRule{Hour: 12}, time.UTC, logger)
	require.NoError(t, err)

	hub := services.NewWebSocketHub(logger)
	t.Cleanup(hub.Stop)

	monitor := services.NewDiskMonitor(
		services.MonitorSettings{MountPoints: []models.MountPoint{"/a", "/b"}, WarningThreshold: 85},
		services.DiskMonitorDeps{
			Inspector: fixedInspector{
				{Total: 100, Available: 5},
				{Total: 100, Available: 50},
			},
			Dispatcher: services.NewAlertDispatcher(poster, "Jane", time.Second, telemetry, logger),
			Scheduler:  scheduler,
			Publisher:  hub,
			Telemetry:  telemetry,
			Logger:     logger,
		},
	)

	auth, err := services.NewAuthService("0123456789abcdef0123456789abcdef", time.Hour, "", logger)
	require.NoError(t, err)
	token, _, err := auth.GenerateToken("tests")
	require.NoError(t, err)

	handlers := controllers.NewHandlers(monitor, fixedLoad{}, auth, hub, logger)
	return &testServer{
		router:  NewRouter(handlers, auth, reg, logger),
		monitor: monitor,
		hub:     hub,
		poster:  poster,
		token:   token,
		logs:    logs,
	}
}

func (s *testServer) do(t *testing.T, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["monitoring"])
	assert.Nil(t, body["last_check"])
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestDiskAndHostLoad(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/metrics/disk", "")
	require.Equal(t, http.StatusOK, w.Code)
	disks := decode(t, w)["disks"].([]interface{})
	require.Len(t, disks, 2)
	first := disks[0].(map[string]interface{})
	assert.Equal(t, "/a", first["path"])

	w = s.do(t, http.MethodGet, "/metrics/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cpu"`)
}

func TestHistory(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/history?duration=soon", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, err := s.monitor.RunCheck(context.Background(), "C1", models.TriggerManual)
	require.NoError(t, err)

	w = s.do(t, http.MethodGet, "/history?duration=1h", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].([]interface{})
	assert.Len(t, data, 1)
}

func TestRunCheckRoute(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/alerts/check", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/alerts/check", s.token)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/alerts/check?dry_run=true", s.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["message"], "*/a*: 95% full")
	assert.Empty(t, s.poster.texts)

	job, err := s.monitor.Start(context.Background(), "C1")
	require.NoError(t, err)
	t.Cleanup(job.Stop)

	w = s.do(t, http.MethodPost, "/alerts/check", s.token)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["alerted"])
	assert.Equal(t, models.TriggerManual, body["trigger"])
	assert.Len(t, s.poster.texts, 1)

	requested := s.logs.FilterMessage("Manual disk check requested").All()
	require.Len(t, requested, 1)
	assert.Equal(t, "tests", requested[0].ContextMap()["client"])
}

func TestPrometheus(t *testing.T) {
	s := newTestServer(t)
	_, err := s.monitor.RunCheck(context.Background(), "C1", models.TriggerManual)
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, "/prometheus", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "serverbot_disk_checks_total"))
}

func TestWebSocketRequiresToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/ws", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/ws?token=nope", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebSocketStreamsAndSurvivesShutdown(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + s.token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	require.NoError(t, conn.WriteJSON(services.WebSocketMessage{Type: "ping"}))
	var msg services.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg.Type)

	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	_, err = s.monitor.RunCheck(context.Background(), "C1", models.TriggerManual)
	require.NoError(t, err)
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "check", msg.Type)

	// Frames still arriving while the hub stops must not crash the server
	s.hub.Stop()
	for i := 0; i < 5; i++ {
		if err := conn.WriteJSON(services.WebSocketMessage{Type: "ping"}); err != nil {
			break
		}
	}

	for {
		if err = conn.ReadJSON(&msg); err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
