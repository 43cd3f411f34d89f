// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/trentfarmdata/farmdata/internal/accounts"
	"github.com/trentfarmdata/farmdata/internal/auth"
	"github.com/trentfarmdata/farmdata/internal/config"
	"github.com/trentfarmdata/farmdata/internal/database"
	"github.com/trentfarmdata/farmdata/internal/mail"
	"github.com/trentfarmdata/farmdata/internal/models"
)

// fakeSender captures verification emails for test assertions.
type fakeSender struct {
	sent []mail.Message
}

func (f *fakeSender) Send(_ context.Context, _ string, msg mail.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

type testEnv struct {
	handler http.Handler
	db      *database.DB
	sender  *fakeSender
	cfg     *config.Config
}

func newTestEnv(t *testing.T, authMode string) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Path:      filepath.Join(t.TempDir(), "test.db"),
			MaxMemory: "256MB",
			Threads:   2,
		},
		API: config.APIConfig{
			DefaultLimit:  1000,
			MaxLimit:      10000,
			DefaultGroup:  "day",
			CacheMaxAge:   60,
			HistogramBins: 20,
		},
		Security: config.SecurityConfig{
			AuthMode:          authMode,
			JWTSecret:         strings.Repeat("s", 32),
			SessionTimeout:    time.Hour,
			AdminUsername:     "admin",
			AdminPassword:     "admin-password",
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
		Accounts: config.AccountsConfig{CodeTTL: 10 * time.Minute},
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sender := &fakeSender{}
	accountsSvc := accounts.NewService(db, sender, cfg.Accounts.CodeTTL)
	mailer := mail.NewMailer(cfg.SMTP)

	var mw *auth.Middleware
	if authMode == "jwt" {
		jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionTimeout)
		if err != nil {
			t.Fatalf("creating jwt manager: %v", err)
		}
		mw = auth.NewMiddleware(jwtManager, nil, "jwt")
	}

	router := NewRouter(db, cfg, accountsSvc, mailer, mw)
	return &testEnv{
		handler: router.SetupChi(),
		db:      db,
		sender:  sender,
		cfg:     cfg,
	}
}

func (e *testEnv) seed(t *testing.T, year, month, day int, temps []float64) {
	t.Helper()
	readings := make([]models.Reading, 0, len(temps))
	for hour, temp := range temps {
		observed := time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)
		tempV := temp
		rain := 0.5
		humidity := 60.0 + temp
		readings = append(readings, models.Reading{
			Year:        year,
			Month:       month,
			Day:         day,
			ReadingTime: observed.Format("15:04"),
			DOY:         observed.YearDay(),
			ObservedAt:  observed,

			AirTemperatureDegC:  &tempV,
			RainfallMM:          &rain,
			RelativeHumidityPct: &humidity,
		})
	}
	if err := e.db.InsertReadings(context.Background(), readings); err != nil {
		t.Fatalf("seeding readings: %v", err)
	}
}

func (e *testEnv) get(t *testing.T, path string) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec, decodeEnvelope(t, rec)
}

func (e *testEnv) post(t *testing.T, path string, body interface{}) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec, decodeEnvelope(t, rec)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if rec.Body.Len() == 0 {
		return resp
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestChartEndpoint(t *testing.T) {
	env := newTestEnv(t, "none")
	env.seed(t, 2023, 6, 1, []float64{10, 12, 14})
	env.seed(t, 2023, 6, 2, []float64{20, 22})

	rec, resp := env.get(t, "/api/charts/air-temperature/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if resp.Status != "success" {
		t.Errorf("Status = %q, want success", resp.Status)
	}

	data, _ := resp.Data.(map[string]interface{})
	if data["metric"] != "air_temp" {
		t.Errorf("metric = %v, want air_temp", data["metric"])
	}
	if data["group_by"] != "day" {
		t.Errorf("group_by = %v, want default day", data["group_by"])
	}
	points, _ := data["points"].([]interface{})
	if len(points) != 2 {
		t.Errorf("got %d points, want 2", len(points))
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("chart response should carry an ETag")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("chart response should carry a request ID")
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "max-age=60") {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
}

func TestChartETagNotModified(t *testing.T) {
	env := newTestEnv(t, "none")
	env.seed(t, 2023, 6, 1, []float64{10})

	first, _ := env.get(t, "/api/charts/air-temperature/")
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/charts/air-temperature/", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", rec.Code)
	}
}

func TestChartRainfallTotal(t *testing.T) {
	env := newTestEnv(t, "none")
	env.seed(t, 2023, 6, 1, []float64{10, 12})

	rec, resp := env.get(t, "/api/charts/rainfall/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data, _ := resp.Data.(map[string]interface{})
	points, _ := data["points"].([]interface{})
	if len(points) != 1 {
		t.Fatalf("got %d points", len(points))
	}
	point, _ := points[0].(map[string]interface{})
	if total, ok := point["total"].(float64); !ok || total != 1.0 {
		t.Errorf("total = %v, want 1.0", point["total"])
	}
}

func TestChartValidation(t *testing.T) {
	env := newTestEnv(t, "none")
	env.seed(t, 2023, 6, 1, []float64{10})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantInMsg  string
	}{
		{"invalid group_by", "/api/charts/air-temperature/?group_by=year", 400, "group_by"},
		{"invalid month", "/api/charts/air-temperature/?month=13", 400, "month"},
		{"invalid year", "/api/charts/air-temperature/?year=abc", 400, "year"},
		{"bad date format", "/api/charts/air-temperature/?start_date=01-06-2023", 400, "start_date"},
		{"inverted range", "/api/charts/air-temperature/?start_date=2023-06-02&end_date=2023-06-01", 400, "end_date"},
		{"limit over max", "/api/charts/air-temperature/?limit=20000", 400, "limit"},
		{"soil depth invalid", "/api/charts/soil-temperature/?depth=7", 400, "depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := env.get(t, tt.path)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if resp.Error == nil {
				t.Fatal("expected error payload")
			}
			if resp.Error.Code != models.ErrCodeValidation {
				t.Errorf("error code = %q, want VALIDATION_ERROR", resp.Error.Code)
			}
			if !strings.Contains(resp.Error.Message, tt.wantInMsg) {
				t.Errorf("message = %q, want mention of %q", resp.Error.Message, tt.wantInMsg)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, "none")

	raw, _ := json.Marshal(map[string]string{})
	req := httptest.NewRequest(http.MethodPost, "/api/latest/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	// chi returns 405 for unregistered methods on a known pattern
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestMultiMetricChart(t *testing.T) {
	env := newTestEnv(t, "none")
	env.seed(t, 2023, 6, 1, []float64{10, 12})

	rec, resp := env.get(t, "/api/charts/multi-metric/?metrics=air_temp,humidity")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data, _ := resp.Data.(map[string]interface{})
	series, _ := data["series"].(map[string]interface{})
	if len(series) != 2 {
		t.Errorf("got %d series, want 2", len(series))
	}

	rec, _ = env.get(t, "/api/charts/multi-metric/")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing metrics: status = %d, want 400", rec.Code)
	}
	rec, _ = env.get(t, "/api/charts/multi-metric/?metrics=bogus")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown metric: status = %d, want 400", rec.Code)
	}
}

func TestRawAndLatest(t *testing.T) {
	env := newTestEnv(t, "none")

	rec, _ := env.get(t, "/api/latest/")
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty latest: status = %d, want 404", rec.Code)
	}

	env.seed(t, 2023, 6, 1, []float64{10, 20})

	rec, resp := env.get(t, "/api/raw/air_temp/?limit=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("raw status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data, _ := resp.Data.(map[string]interface{})
	if count, _ := data["count"].(float64); count != 1 {
		t.Errorf("count = %v, want 1", data["count"])
	}
	rawPoints, _ := data["readings"].([]interface{})
	if len(rawPoints) != 1 {
		t.Fatalf("got %d readings, want 1", len(rawPoints))
	}
	point, _ := rawPoints[0].(map[string]interface{})
	if point["value"] != 10.0 {
		t.Errorf("value = %v, want 10", point["value"])
	}
	if _, ok := point["timestamp"]; !ok {
		t.Error("raw reading missing timestamp field")
	}
	if len(point) != 2 {
		t.Errorf("raw reading has %d fields, want timestamp and value only", len(point))
	}

	// rows where the metric was not recorded are excluded
	rec, resp = env.get(t, "/api/raw/snow_depth/")
	if rec.Code != http.StatusOK {
		t.Fatalf("raw snow depth status = %d", rec.Code)
	}
	data, _ = resp.Data.(map[string]interface{})
	if count, _ := data["count"].(float64); count != 0 {
		t.Errorf("snow depth count = %v, want 0", data["count"])
	}

	rec, _ = env.get(t, "/api/raw/bogus/")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown raw metric: status = %d, want 404", rec.Code)
	}

	rec, resp = env.get(t, "/api/latest/")
	if rec.Code != http.StatusOK {
		t.Fatalf("latest status = %d", rec.Code)
	}
	reading, _ := resp.Data.(map[string]interface{})
	if reading["air_temperature_degc"] != 20.0 {
		t.Errorf("latest air temp = %v, want 20", reading["air_temperature_degc"])
	}
}

func TestMonthlySummaryEndpoint(t *testing.T) {
	env := newTestEnv(t, "none")
	env.seed(t, 2023, 6, 1, []float64{10, 20})

	rec, resp := env.get(t, "/api/summary/monthly/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data, _ := resp.Data.(map[string]interface{})
	months, _ := data["months"].([]interface{})
	if len(months) != 1 {
		t.Fatalf("got %d months, want 1", len(months))
	}
	month, _ := months[0].(map[string]interface{})
	if month["month_name"] != "June" {
		t.Errorf("month_name = %v, want June", month["month_name"])
	}
}

func TestStatisticalEndpoints(t *testing.T) {
	env := newTestEnv(t, "none")
	env.seed(t, 2023, 6, 1, []float64{10, 12, 14, 16, 18, 20})

	t.Run("boxplot overall", func(t *testing.T) {
		rec, resp := env.get(t, "/api/charts/statistical/boxplot/?metric=air_temp&group_by=overall")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		data, _ := resp.Data.(map[string]interface{})
		if data["group_by"] != "overall" {
			t.Errorf("group_by = %v, want overall", data["group_by"])
		}
		groups, _ := data["groups"].([]interface{})
		if len(groups) != 1 {
			t.Errorf("got %d groups, want 1", len(groups))
		}
	})

	t.Run("boxplot missing metric", func(t *testing.T) {
		rec, _ := env.get(t, "/api/charts/statistical/boxplot/")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("histogram", func(t *testing.T) {
		rec, resp := env.get(t, "/api/charts/statistical/histogram/?metric=air_temp&bins=5")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		data, _ := resp.Data.(map[string]interface{})
		bins, _ := data["bins"].([]interface{})
		if len(bins) != 5 {
			t.Errorf("got %d bins, want 5", len(bins))
		}
		stats, _ := data["statistics"].(map[string]interface{})
		if stats["total_count"] != 6.0 {
			t.Errorf("total_count = %v, want 6", stats["total_count"])
		}
	})

	t.Run("histogram bins out of range", func(t *testing.T) {
		rec, _ := env.get(t, "/api/charts/statistical/histogram/?metric=air_temp&bins=3")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("correlation", func(t *testing.T) {
		rec, resp := env.get(t, "/api/charts/statistical/correlation/?metrics=air_temp,humidity&method=pearson")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		data, _ := resp.Data.(map[string]interface{})
		pairs, _ := data["pairwise_correlations"].([]interface{})
		if len(pairs) != 1 {
			t.Fatalf("got %d pairs, want 1", len(pairs))
		}
		pair, _ := pairs[0].(map[string]interface{})
		// humidity was seeded as temp+60, a perfect linear relation
		if corr, _ := pair["correlation"].(float64); corr < 0.999 {
			t.Errorf("correlation = %v, want ~1", pair["correlation"])
		}
		if pair["strength"] != "strong" {
			t.Errorf("strength = %v, want strong", pair["strength"])
		}
	})

	t.Run("correlation invalid method", func(t *testing.T) {
		rec, resp := env.get(t, "/api/charts/statistical/correlation/?method=cosine")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(resp.Error.Message, "pearson") {
			t.Errorf("message = %q, want method list", resp.Error.Message)
		}
	})
}

func TestRegistrationFlow(t *testing.T) {
	env := newTestEnv(t, "jwt")

	register := map[string]string{
		"email":    "farmer@example.com",
		"name":     "Alex Farmer",
		"password": "longenoughpw",
	}

	rec, resp := env.post(t, "/auth/register/", register)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["email_sent"] != true {
		t.Errorf("email_sent = %v, want true", data["email_sent"])
	}
	if len(env.sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(env.sender.sent))
	}

	// duplicate registration conflicts
	rec, resp = env.post(t, "/auth/register/", register)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
	if resp.Error == nil || resp.Error.Message != "Email already registered." {
		t.Errorf("duplicate message = %+v", resp.Error)
	}

	// extract the code from the emailed text body
	code := extractCode(t, env.sender.sent[0].TextBody)

	rec, resp = env.post(t, "/auth/verify/", map[string]string{
		"email": "farmer@example.com", "code": "000000",
	})
	if rec.Code != http.StatusBadRequest || resp.Error.Message != "Incorrect verification code" {
		t.Errorf("wrong code: status = %d, error = %+v", rec.Code, resp.Error)
	}

	// login before verification names the reason
	rec, resp = env.post(t, "/auth/token/", map[string]string{
		"username": "farmer@example.com", "password": "longenoughpw",
	})
	if rec.Code != http.StatusUnauthorized || resp.Error.Message != "Email is not verified" {
		t.Errorf("unverified login: status = %d, error = %+v", rec.Code, resp.Error)
	}

	rec, _ = env.post(t, "/auth/verify/", map[string]string{
		"email": "farmer@example.com", "code": code,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// resend after verification is rejected
	rec, resp = env.post(t, "/auth/resend/", map[string]string{"email": "farmer@example.com"})
	if rec.Code != http.StatusBadRequest || resp.Error.Message != "Email is already verified" {
		t.Errorf("resend verified: status = %d, error = %+v", rec.Code, resp.Error)
	}

	// login with the registered account
	rec, resp = env.post(t, "/auth/token/", map[string]string{
		"username": "farmer@example.com", "password": "longenoughpw",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	tokenData, _ := resp.Data.(map[string]interface{})
	token, _ := tokenData["token"].(string)
	if token == "" {
		t.Fatal("missing token in login response")
	}

	// authenticated /auth/me/
	req := httptest.NewRequest(http.MethodGet, "/auth/me/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	mrec := httptest.NewRecorder()
	env.handler.ServeHTTP(mrec, req)
	if mrec.Code != http.StatusOK {
		t.Fatalf("me status = %d, body = %s", mrec.Code, mrec.Body.String())
	}
	meResp := decodeEnvelope(t, mrec)
	meData, _ := meResp.Data.(map[string]interface{})
	if meData["username"] != "farmer@example.com" || meData["role"] != "user" {
		t.Errorf("me = %+v", meData)
	}

	// wrong password
	rec, _ = env.post(t, "/auth/token/", map[string]string{
		"username": "farmer@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", rec.Code)
	}
}

func TestJWTProtectsDataEndpoints(t *testing.T) {
	env := newTestEnv(t, "jwt")
	env.seed(t, 2023, 6, 1, []float64{10})

	rec, _ := env.get(t, "/api/latest/")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}

	// wrong admin password is rejected
	rec, _ = env.post(t, "/auth/token/", map[string]string{
		"username": "admin", "password": "admin-passwordX",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong admin password status = %d, want 401", rec.Code)
	}

	// admin login bypasses customer accounts
	_, resp := env.post(t, "/auth/token/", map[string]string{
		"username": "admin", "password": "admin-password",
	})
	tokenData, _ := resp.Data.(map[string]interface{})
	token, _ := tokenData["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/latest/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rec.Code)
	}
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t, "jwt")

	// register a customer so the list is non-empty
	env.post(t, "/auth/register/", map[string]string{
		"email": "farmer@example.com", "name": "Alex", "password": "longenoughpw",
	})

	_, resp := env.post(t, "/auth/token/", map[string]string{
		"username": "admin", "password": "admin-password",
	})
	tokenData, _ := resp.Data.(map[string]interface{})
	adminToken, _ := tokenData["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/admin/customers/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin customers status = %d, body = %s", rec.Code, rec.Body.String())
	}
	listResp := decodeEnvelope(t, rec)
	data, _ := listResp.Data.(map[string]interface{})
	if count, _ := data["count"].(float64); count != 1 {
		t.Errorf("count = %v, want 1", data["count"])
	}

	// non-admin customers are forbidden
	code := extractCode(t, env.sender.sent[0].TextBody)
	env.post(t, "/auth/verify/", map[string]string{"email": "farmer@example.com", "code": code})
	_, resp = env.post(t, "/auth/token/", map[string]string{
		"username": "farmer@example.com", "password": "longenoughpw",
	})
	tokenData, _ = resp.Data.(map[string]interface{})
	userToken, _ := tokenData["token"].(string)

	req = httptest.NewRequest(http.MethodGet, "/admin/customers/", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("user on admin route status = %d, want 403", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, "none")

	rec, resp := env.get(t, "/health/live")
	if rec.Code != http.StatusOK {
		t.Fatalf("live status = %d", rec.Code)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["status"] != "alive" {
		t.Errorf("live status field = %v", data["status"])
	}

	rec, resp = env.get(t, "/health/ready")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rec.Code)
	}
	data, _ = resp.Data.(map[string]interface{})
	if data["database"] != "ok" {
		t.Errorf("ready database field = %v", data["database"])
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	env := newTestEnv(t, "none")
	env.seed(t, 2023, 6, 1, []float64{10})
	env.get(t, "/api/latest/")

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "farmdata_api_requests_total") {
		t.Error("metrics output missing farmdata_api_requests_total")
	}
}

func TestListMetricsAndYears(t *testing.T) {
	env := newTestEnv(t, "none")
	env.seed(t, 2022, 6, 1, []float64{10})
	env.seed(t, 2023, 6, 1, []float64{10})

	rec, resp := env.get(t, "/api/metrics/")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics list status = %d", rec.Code)
	}
	data, _ := resp.Data.(map[string]interface{})
	metricsList, _ := data["metrics"].([]interface{})
	if len(metricsList) != 10 {
		t.Errorf("got %d metrics, want 10", len(metricsList))
	}

	rec, resp = env.get(t, "/api/years/")
	if rec.Code != http.StatusOK {
		t.Fatalf("years status = %d", rec.Code)
	}
	data, _ = resp.Data.(map[string]interface{})
	years, _ := data["years"].([]interface{})
	if len(years) != 2 {
		t.Errorf("got %d years, want 2", len(years))
	}
}

// extractCode pulls the 6-digit code out of the verification email.
func extractCode(t *testing.T, body string) string {
	t.Helper()
	const marker = "verification code is: "
	idx := strings.Index(body, marker)
	if idx < 0 {
		t.Fatalf("no code marker in email body: %s", body)
	}
	code := body[idx+len(marker) : idx+len(marker)+6]
	if len(code) != 6 {
		t.Fatalf("bad code %q", code)
	}
	return code
}
