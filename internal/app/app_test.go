package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shift-match/internal/config"
	"shift-match/internal/domain/geo"
	"shift-match/internal/domain/job"
	"shift-match/internal/domain/schedule"
	"shift-match/internal/domain/worker"
	"shift-match/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t   *testing.T
	app *App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("STORE_DRIVER", config.StoreMemory)
	t.Setenv("JWT_SECRET", "integration-secret-0123456789")
	t.Setenv("SWEEP_ENABLED", "false")

	cfg, err := config.Load(viper.New(), "")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	c, err := NewContainer(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return &testServer{t: t, app: New(c)}
}

func (s *testServer) token(id uuid.UUID, role jwt.Role) string {
	s.t.Helper()
	tok, err := s.app.Container.JWT.GenerateAccessToken(id, role)
	if err != nil {
		s.t.Fatalf("token: %v", err)
	}
	return tok
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Fiber.Test(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		s.t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func (s *testServer) seed() (employer, workerID, jobID uuid.UUID) {
	s.t.Helper()
	site := geo.Point{Lat: 19.0760, Lng: 72.8777}
	employer, workerID, jobID = uuid.New(), uuid.New(), uuid.New()

	s.app.Container.Memory.PutJob(job.Job{
		ID:            jobID,
		EmployerID:    employer,
		Title:         "Cafe shift",
		Location:      site,
		Skills:        []string{"barista"},
		Windows:       []schedule.Window{schedule.MustWindow(time.Saturday, "10:00", "14:00")},
		Status:        job.StatusPublished,
		WorkersNeeded: 1,
	})
	s.app.Container.Memory.PutWorker(worker.Worker{
		ID:               workerID,
		Location:         geo.Point{Lat: 19.0800, Lng: 72.8800},
		Windows:          []schedule.Window{schedule.MustWindow(time.Saturday, "09:00", "18:00")},
		Skills:           []string{"Barista"},
		ExperienceMonths: 3,
		Status:           worker.StatusActive,
		RegisteredAt:     time.Now().Add(-time.Hour),
	}, worker.Contact{FullName: "Asha Rao", Phone: "+91-98200-11111"})
	return employer, workerID, jobID
}

func TestHTTP_LeadLifecycle(t *testing.T) {
	s := newTestServer(t)
	employer, workerID, jobID := s.seed()
	empTok := s.token(employer, jwt.RoleEmployer)
	wrkTok := s.token(workerID, jwt.RoleWorker)

	if code, _ := s.do(http.MethodPost, "/api/v1/jobs/"+jobID.String()+"/matching", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/v1/jobs/"+jobID.String()+"/matching", wrkTok, nil); code != http.StatusForbidden {
		t.Fatalf("expected 403 for worker trigger, got %d", code)
	}
	other := s.token(uuid.New(), jwt.RoleEmployer)
	if code, _ := s.do(http.MethodPost, "/api/v1/jobs/"+jobID.String()+"/matching", other, nil); code != http.StatusForbidden {
		t.Fatalf("expected 403 for another employer, got %d", code)
	}

	code, env := s.do(http.MethodPost, "/api/v1/jobs/"+jobID.String()+"/matching", empTok, nil)
	if code != http.StatusCreated {
		t.Fatalf("trigger: expected 201, got %d (%s)", code, env.Message)
	}
	var trig struct {
		Created   int    `json:"created"`
		JobStatus string `json:"job_status"`
	}
	_ = json.Unmarshal(env.Data, &trig)
	if trig.Created != 1 || trig.JobStatus != string(job.StatusMatching) {
		t.Fatalf("unexpected trigger result: %+v", trig)
	}

	code, env = s.do(http.MethodGet, "/api/v1/offers", wrkTok, nil)
	if code != http.StatusOK {
		t.Fatalf("offers: expected 200, got %d", code)
	}
	var offers []struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	_ = json.Unmarshal(env.Data, &offers)
	if len(offers) != 1 || offers[0].Status != "proposed" {
		t.Fatalf("unexpected offers: %+v", offers)
	}
	matchPath := "/api/v1/matches/" + offers[0].ID.String()

	if code, _ := s.do(http.MethodPost, matchPath+"/respond", wrkTok, map[string]string{"decision": "maybe"}); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown decision, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, matchPath+"/respond", wrkTok, map[string]string{"decision": "accept"}); code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, matchPath+"/respond", wrkTok, map[string]string{"decision": "reject"}); code != http.StatusConflict {
		t.Fatalf("expected 409 for a second response, got %d", code)
	}

	payment := map[string]any{"payment_reference": "pay_http_1", "amount": 3.0, "currency": "usd", "status": "completed"}
	if code, _ := s.do(http.MethodPost, matchPath+"/unlock", empTok, map[string]any{"payment_reference": "pay_http_0", "amount": 1.0, "currency": "usd", "status": "completed"}); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an underpaid unlock, got %d", code)
	}
	code, env = s.do(http.MethodPost, matchPath+"/unlock", empTok, payment)
	if code != http.StatusCreated {
		t.Fatalf("unlock: expected 201, got %d (%s)", code, env.Message)
	}
	var unlocked struct {
		Outcome string `json:"outcome"`
		Contact struct {
			Phone string `json:"phone"`
		} `json:"contact"`
	}
	_ = json.Unmarshal(env.Data, &unlocked)
	if unlocked.Outcome != "unlocked" || unlocked.Contact.Phone != "+91-98200-11111" {
		t.Fatalf("unexpected unlock result: %+v", unlocked)
	}

	code, env = s.do(http.MethodPost, matchPath+"/unlock", empTok, payment)
	if code != http.StatusOK {
		t.Fatalf("repeat unlock: expected 200, got %d", code)
	}
	_ = json.Unmarshal(env.Data, &unlocked)
	if unlocked.Outcome != "already_unlocked" {
		t.Fatalf("expected already_unlocked, got %q", unlocked.Outcome)
	}

	code, env = s.do(http.MethodGet, "/api/v1/jobs/"+jobID.String()+"/matches?status=all", empTok, nil)
	if code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", code)
	}
	var listed []struct {
		Status  string `json:"status"`
		Contact *struct {
			FullName string `json:"full_name"`
		} `json:"contact"`
	}
	_ = json.Unmarshal(env.Data, &listed)
	if len(listed) != 1 || listed[0].Status != "unlocked" || listed[0].Contact == nil || listed[0].Contact.FullName != "Asha Rao" {
		t.Fatalf("unexpected listing: %+v", listed)
	}

	if code, _ := s.do(http.MethodGet, "/api/v1/jobs/"+jobID.String()+"/matches?status=bogus", empTok, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status filter, got %d", code)
	}
}

func TestHTTP_AdminSweepAndHealth(t *testing.T) {
	s := newTestServer(t)

	if code, _ := s.do(http.MethodPost, "/api/v1/admin/sweep", s.token(uuid.New(), jwt.RoleEmployer), nil); code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin sweep, got %d", code)
	}
	code, env := s.do(http.MethodPost, "/api/v1/admin/sweep", s.token(uuid.New(), jwt.RoleAdmin), nil)
	if code != http.StatusOK {
		t.Fatalf("sweep: expected 200, got %d", code)
	}
	var swept struct {
		Expired int `json:"expired"`
	}
	_ = json.Unmarshal(env.Data, &swept)
	if swept.Expired != 0 {
		t.Fatalf("expected nothing to expire, got %d", swept.Expired)
	}

	code, env = s.do(http.MethodGet, "/health", "", nil)
	if code != http.StatusOK {
		t.Fatalf("health: expected 200 with optional redis down, got %d", code)
	}
	var health struct {
		Components map[string]string `json:"components"`
	}
	_ = json.Unmarshal(env.Data, &health)
	if health.Components["redis"] != "degraded" {
		t.Fatalf("expected redis degraded, got %+v", health.Components)
	}
}

func TestHTTP_NotFoundAndBadIDs(t *testing.T) {
	s := newTestServer(t)
	empTok := s.token(uuid.New(), jwt.RoleEmployer)

	if code, _ := s.do(http.MethodPost, "/api/v1/jobs/not-a-uuid/matching", empTok, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/v1/jobs/"+uuid.NewString()+"/matching", empTok, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/v1/matches/"+uuid.NewString()+"/respond", s.token(uuid.New(), jwt.RoleWorker), map[string]string{"decision": "accept"}); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown match, got %d", code)
	}
}

func TestListenAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "8080", want: ":8080"},
		{in: ":9090", want: ":9090"},
		{in: "  ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ListenAddr(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ListenAddr(%q) = %q, %v", tt.in, got, err)
		}
	}
}
