package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/handler"
	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/repository"
	"github.com/iliyamo/cleaning-booking/internal/service"
	"github.com/iliyamo/cleaning-booking/internal/testhelpers"
)

type testServer struct {
	e        *echo.Echo
	db       *gorm.DB
	sender   *testhelpers.MemorySender
	store    *testhelpers.MemoryStore
	bookings *service.BookingService
	resets   *service.PasswordResetService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	cfg := config.Config{
		Env:            "test",
		APIBaseURL:     "http://api.test",
		BcryptCost:     4,
		RequestTimeout: 5 * time.Second,
		UploadTimeout:  10 * time.Second,
		CORSOrigins:    []string{"http://localhost:5173"},
		JWT: config.JWTConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    24 * time.Hour,
		},
		Reset: config.ResetConfig{CodeTTL: 10 * time.Minute, TokenTTL: time.Hour},
		Storage: config.StorageConfig{
			PhotoBucket:        "booking-photos",
			ServiceImageBucket: "service-images",
			MaxPhotos:          5,
			MaxPhotoBytes:      1 << 20,
		},
		Mail: config.MailConfig{From: "office@example.com", NotifyTo: "office@example.com"},
	}
	log := zap.NewNop()
	sender := &testhelpers.MemorySender{}
	store := &testhelpers.MemoryStore{}

	users := repository.NewUserRepo(db)
	tokens := service.NewTokenService(cfg.JWT, db)
	accounts := service.NewAccountService(db, tokens, cfg.BcryptCost, log)
	resets := service.NewPasswordResetService(db, cfg, sender, log)
	bookings := service.NewBookingService(db, store, sender, cfg, log)
	catalog := service.NewCatalogService(repository.NewCatalogRepo(db), store, cfg.Storage.ServiceImageBucket)
	agencies := service.NewAgencyService(repository.NewAgencyRepo(db), users, log)

	authH := handler.NewAuthHandler(cfg, accounts, tokens, resets)
	e := New(Deps{Config: cfg, Log: log, Tokens: tokens, Users: users}, Handlers{
		Auth:     authH,
		Account:  handler.NewAccountHandler(accounts, cfg.RequestTimeout, authH),
		Catalog:  handler.NewCatalogHandler(catalog, cfg.RequestTimeout),
		Bookings: handler.NewBookingHandler(bookings, cfg.RequestTimeout, cfg.UploadTimeout),
		Agencies: handler.NewAgencyHandler(agencies, cfg.RequestTimeout),
	})
	t.Cleanup(func() {
		bookings.Wait()
		resets.Wait()
	})
	return &testServer{e: e, db: db, sender: sender, store: store, bookings: bookings, resets: resets}
}

type call struct {
	method  string
	path    string
	body    any
	token   string
	cookies []*http.Cookie
}

func (s *testServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if c.body != nil {
		bs, err := json.Marshal(c.body)
		require.NoError(t, err)
		body = bytes.NewReader(bs)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func refreshCookieOf(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "refreshToken" {
			return ck
		}
	}
	return nil
}

// login registers nothing; it signs in an existing user and returns the
// access token and refresh cookie.
func (s *testServer) login(t *testing.T, email, password string) (string, *http.Cookie) {
	t.Helper()
	rec := s.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"email": email, "password": password}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, rec, &out)
	ck := refreshCookieOf(rec)
	require.NotNil(t, ck)
	return out.AccessToken, ck
}

func TestSessionScenario(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, call{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
		"name": "Maria Silva", "email": "maria@example.com", "password": "correct-horse",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
		"name": "Maria Again", "email": "MARIA@example.com", "password": "correct-horse",
	}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	access, cookie := s.login(t, "maria@example.com", "correct-horse")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	rec = s.do(t, call{method: http.MethodGet, path: "/api/auth/profile", token: access})
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decode(t, rec, &profile)
	assert.Equal(t, "maria@example.com", profile.Email)
	assert.Equal(t, "CUSTOMER", profile.Role)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/logout", cookies: []*http.Cookie{cookie}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh_token", cookies: []*http.Cookie{cookie}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var errBody struct {
		Error string `json:"error"`
	}
	decode(t, rec, &errBody)
	assert.Equal(t, "unauthenticated", errBody.Error)
}

func TestRefreshRotatesCookie(t *testing.T) {
	s := newTestServer(t)
	testhelpers.CreateUser(t, s.db, "rotate@example.com", model.RoleCustomer)
	_, cookie := s.login(t, "rotate@example.com", testhelpers.DefaultPassword)

	rec := s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh_token", cookies: []*http.Cookie{cookie}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	next := refreshCookieOf(rec)
	require.NotNil(t, next)
	assert.NotEqual(t, cookie.Value, next.Value)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh_token", cookies: []*http.Cookie{cookie}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "the rotated-out token is spent")

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh_token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/logout"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeactivatedUserTokenRejected(t *testing.T) {
	s := newTestServer(t)
	testhelpers.CreateUser(t, s.db, "gone@example.com", model.RoleCustomer)
	access, _ := s.login(t, "gone@example.com", testhelpers.DefaultPassword)

	rec := s.do(t, call{method: http.MethodDelete, path: "/api/auth/account", token: access})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, call{method: http.MethodGet, path: "/api/auth/profile", token: access})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"email": "gone@example.com", "password": testhelpers.DefaultPassword}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t)
	testhelpers.CreateUser(t, s.db, "cust@example.com", model.RoleCustomer)
	testhelpers.CreateUser(t, s.db, "staff@example.com", model.RoleEmployee)
	testhelpers.CreateUser(t, s.db, "boss@example.com", model.RoleAdmin)
	cust, _ := s.login(t, "cust@example.com", testhelpers.DefaultPassword)
	staff, _ := s.login(t, "staff@example.com", testhelpers.DefaultPassword)
	boss, _ := s.login(t, "boss@example.com", testhelpers.DefaultPassword)

	cases := []struct {
		path  string
		token string
		want  int
	}{
		{"/api/auth/dashboard", "", http.StatusUnauthorized},
		{"/api/auth/dashboard", "garbage", http.StatusUnauthorized},
		{"/api/auth/dashboard", cust, http.StatusForbidden},
		{"/api/auth/dashboard", staff, http.StatusOK},
		{"/api/auth/dashboard", boss, http.StatusOK},
		{"/api/auth/admin/users", staff, http.StatusForbidden},
		{"/api/auth/admin/users", boss, http.StatusOK},
	}
	for _, tc := range cases {
		rec := s.do(t, call{method: http.MethodGet, path: tc.path, token: tc.token})
		assert.Equal(t, tc.want, rec.Code, "%s with token %q", tc.path, tc.token)
	}
}

func TestPasswordResetOverHTTP(t *testing.T) {
	s := newTestServer(t)
	u := testhelpers.CreateUser(t, s.db, "forgetful@example.com", model.RoleCustomer)

	rec := s.do(t, call{method: http.MethodPost, path: "/api/auth/request-password-reset", body: map[string]string{"email": "nobody@example.com"}})
	require.Equal(t, http.StatusOK, rec.Code)
	unknownBody := rec.Body.String()

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/request-password-reset", body: map[string]string{"email": u.Email}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, unknownBody, rec.Body.String(), "responses do not reveal whether the email exists")

	var row model.ResetToken
	require.NoError(t, s.db.Where("user_id = ?", u.ID).First(&row).Error)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/reset-password", body: map[string]string{"email": u.Email, "code": row.Token, "password": "fresh-password"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "reset before verify")

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/verify-reset-code", body: map[string]string{"email": u.Email, "code": row.Token}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/reset-password", body: map[string]string{"email": u.Email, "code": row.Token, "password": "fresh-password"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	s.login(t, u.Email, "fresh-password")
}

func TestPasswordResetWithLinkOverHTTP(t *testing.T) {
	s := newTestServer(t)
	u := testhelpers.CreateUser(t, s.db, "linked@example.com", model.RoleCustomer)

	rec := s.do(t, call{method: http.MethodPost, path: "/api/auth/forgot-password", body: map[string]string{"email": u.Email}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var row model.ResetToken
	require.NoError(t, s.db.Where("user_id = ? AND kind = ?", u.ID, model.ResetKindLink).First(&row).Error)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/reset-password/token", body: map[string]string{"token": row.Token, "password": "linked-password"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s.login(t, u.Email, "linked-password")

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/reset-password/token", body: map[string]string{"token": row.Token, "password": "another-password"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "link tokens are single use")
}

func TestLogoutRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", strings.NewReader(`{"refreshToken":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "validation_error", body.Error)
}

func TestValidationDetails(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, call{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{"name": "Al", "email": "not-an-email", "password": "short"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "validation_error", body.Error)
	assert.Contains(t, body.Details, "name")
	assert.Contains(t, body.Details, "email")
	assert.Contains(t, body.Details, "password")
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func multipartBooking(t *testing.T, fields map[string]string, photos int) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for i := 0; i < photos; i++ {
		fw, err := w.CreateFormFile("photos", "room.png")
		require.NoError(t, err)
		_, err = fw.Write(pngBytes)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestBookingOverHTTP(t *testing.T) {
	s := newTestServer(t)
	testhelpers.CreateUser(t, s.db, "alice@example.com", model.RoleCustomer)
	testhelpers.CreateUser(t, s.db, "bob@example.com", model.RoleCustomer)
	oven := testhelpers.CreateService(t, s.db, "oven")
	carpet := testhelpers.CreateService(t, s.db, "carpet")
	alice, _ := s.login(t, "alice@example.com", testhelpers.DefaultPassword)
	bob, _ := s.login(t, "bob@example.com", testhelpers.DefaultPassword)

	body, ct := multipartBooking(t, map[string]string{
		"items[0][serviceId]": oven.ID,
		"items[0][notes]":     "very greasy",
		"items[1][serviceId]": carpet.ID,
		"executionDate":       "2030-05-01",
		"postcode":            "E1 6AN",
	}, 2)
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", body)
	req.Header.Set(echo.HeaderContentType, ct)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+alice)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Booking struct {
			ID         string `json:"id"`
			TotalItems int    `json:"totalItems"`
			Items      []struct {
				ServiceID string  `json:"serviceId"`
				Notes     *string `json:"notes"`
			} `json:"items"`
			Photos []struct {
				URL string `json:"url"`
			} `json:"photos"`
		} `json:"booking"`
		PhotoErrors []string `json:"photoErrors"`
	}
	decode(t, rec, &created)
	assert.Equal(t, 2, created.Booking.TotalItems)
	assert.Len(t, created.Booking.Items, 2)
	assert.Len(t, created.Booking.Photos, 2)
	assert.Empty(t, created.PhotoErrors)
	assert.Len(t, s.store.Objects, 2)

	s.bookings.Wait()
	sent := s.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "office@example.com", sent[0].To)

	rec = s.do(t, call{method: http.MethodGet, path: "/api/bookings/" + created.Booking.ID, token: alice})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, call{method: http.MethodGet, path: "/api/bookings/" + created.Booking.ID, token: bob})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/api/bookings", token: bob})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestBookingRejectsEmptyItems(t *testing.T) {
	s := newTestServer(t)
	testhelpers.CreateUser(t, s.db, "empty@example.com", model.RoleCustomer)
	access, _ := s.login(t, "empty@example.com", testhelpers.DefaultPassword)

	rec := s.do(t, call{method: http.MethodPost, path: "/api/bookings", token: access, body: map[string]any{"items": []any{}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct := multipartBooking(t, map[string]string{"items": `[{"serviceId":"nope"}]`}, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", body)
	req.Header.Set(echo.HeaderContentType, ct)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	rr := httptest.NewRecorder()
	s.e.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "nope"))

	var n int64
	require.NoError(t, s.db.Model(&model.Booking{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCatalogAndAgencies(t *testing.T) {
	s := newTestServer(t)
	testhelpers.CreateUser(t, s.db, "viewer@example.com", model.RoleCustomer)
	admin := testhelpers.CreateUser(t, s.db, "admin@example.com", model.RoleAdmin)
	testhelpers.CreateService(t, s.db, "windows")
	viewer, _ := s.login(t, "viewer@example.com", testhelpers.DefaultPassword)
	boss, _ := s.login(t, "admin@example.com", testhelpers.DefaultPassword)

	rec := s.do(t, call{method: http.MethodGet, path: "/api/services"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/api/services?categorySlug=all", token: viewer})
	require.Equal(t, http.StatusOK, rec.Code)
	var svcs []struct {
		Slug     string `json:"slug"`
		ImageURL string `json:"imageUrl"`
	}
	decode(t, rec, &svcs)
	require.Len(t, svcs, 1)
	assert.Equal(t, service.PlaceholderImage, svcs[0].ImageURL)

	rec = s.do(t, call{method: http.MethodGet, path: "/api/services/missing", token: viewer})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	agency := map[string]string{"name": "Clean Co", "phone": "0200", "email": "hello@clean.test", "postcode": "N1", "address": "1 High St"}
	rec = s.do(t, call{method: http.MethodPost, path: "/api/agencies", token: viewer, body: agency})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, call{method: http.MethodPost, path: "/api/agencies", token: boss, body: agency})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)
	rec = s.do(t, call{method: http.MethodPost, path: "/api/agencies", token: boss, body: agency})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/agencies/assign-user", token: boss, body: map[string]string{"userId": admin.ID, "agencyId": created.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, call{method: http.MethodPatch, path: "/api/agencies/" + created.ID + "/deactivate", token: boss})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/api/agencies", token: viewer})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = s.do(t, call{method: http.MethodGet, path: "/api/agencies?includeInactive=true", token: viewer})
	require.Equal(t, http.StatusOK, rec.Code)
	var list []struct {
		UserCount int64 `json:"userCount"`
	}
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].UserCount)

	rec = s.do(t, call{method: http.MethodDelete, path: "/api/agencies/users/" + admin.ID, token: boss})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, call{method: http.MethodGet, path: "/api/health"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = s.do(t, call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gts_http_requests_total")
}
