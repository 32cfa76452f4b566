package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coaching-site-backend/internal/apperr"
	"coaching-site-backend/internal/auth"
	"coaching-site-backend/internal/database/databasetest"
	"coaching-site-backend/internal/handlers"
	"coaching-site-backend/internal/logger"
	"coaching-site-backend/internal/reconcile"
	"coaching-site-backend/internal/resource"
	"coaching-site-backend/internal/storage/storagetest"
)

const maxBytes = 1 << 20

var discard = logger.Discard()

type testServer struct {
	router *gin.Engine
	files  *storagetest.Memory
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	files := storagetest.NewMemory()
	deps := resource.Deps{
		Store:    databasetest.Store(t),
		Files:    files,
		FileBase: "/uploads",
		Logger:   discard,
	}

	router := gin.New()
	api := router.Group("/api/v1")

	banners := handlers.NewResourceHandler(resource.NewLifecycle(resource.Banners, deps), maxBytes, discard)
	api.GET("/banners", banners.List)
	api.GET("/banners/:id", banners.Get)
	api.POST("/banners", banners.Create)
	api.PUT("/banners/:id", banners.Update)
	api.DELETE("/banners/:id", banners.Delete)

	courses := handlers.NewResourceHandler(resource.NewLifecycle(resource.Courses, deps), maxBytes, discard)
	api.GET("/courses", courses.List)

	title := handlers.NewSingletonHandler(resource.NewSingleton(resource.SiteTitle, deps), maxBytes, discard)
	api.GET("/site-title", title.Get)
	api.PUT("/site-title", title.Replace)
	api.DELETE("/site-title", title.Clear)

	return &testServer{router: router, files: files}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, method, url string, fields map[string]string, fileField, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req, _ := http.NewRequest(method, url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(method, url, body string) *http.Request {
	req, _ := http.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func listIDs(t *testing.T, s *testServer, url string) []float64 {
	t.Helper()
	req, _ := http.NewRequest("GET", url, nil)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Items []map[string]any `json:"items"`
		Count int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, len(page.Items), page.Count)

	ids := make([]float64, 0, len(page.Items))
	for _, item := range page.Items {
		ids = append(ids, item["id"].(float64))
	}
	return ids
}

func TestBannerLifecycle_EndToEnd(t *testing.T) {
	s := newTestServer(t)

	older := s.do(multipartRequest(t, "POST", "/api/v1/banners", map[string]string{"text": "Welcome"}, "image", "a.png", pngBytes(t)))
	require.Equal(t, http.StatusCreated, older.Code)

	w := s.do(multipartRequest(t, "POST", "/api/v1/banners", map[string]string{"text": "Sale"}, "image", "sale.png", pngBytes(t)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode(t, w)
	assert.Equal(t, "Sale", created["text"])
	id := created["id"].(float64)
	imageURL, _ := created["imageUrl"].(string)
	require.True(t, strings.HasPrefix(imageURL, "/uploads/banners/"), imageURL)
	key := strings.TrimPrefix(imageURL, "/uploads/")
	assert.True(t, s.files.Exists(key))

	ids := listIDs(t, s, "/api/v1/banners")
	require.Len(t, ids, 2)
	assert.Equal(t, id, ids[0], "newest banner is listed first")

	req, _ := http.NewRequest("DELETE", "/api/v1/banners/"+jsonNumber(id), nil)
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["message"], "deleted")

	assert.NotContains(t, listIDs(t, s, "/api/v1/banners"), id)
	assert.False(t, s.files.Exists(key))

	w = s.do(req.Clone(context.Background()))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func jsonNumber(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func TestCreate_MissingFile(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartRequest(t, "POST", "/api/v1/banners", map[string]string{"text": "Sale"}, "", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "image")

	assert.Empty(t, listIDs(t, s, "/api/v1/banners"))
	assert.Zero(t, s.files.Len())
}

func TestCreate_RejectsNonImage(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartRequest(t, "POST", "/api/v1/banners", map[string]string{"text": "Sale"}, "image", "evil.png", []byte("#!/bin/sh\necho hi\n")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, s.files.Len())
}

func TestCreate_BodyTooLarge(t *testing.T) {
	s := newTestServer(t)

	big := make([]byte, maxBytes+1)
	w := s.do(multipartRequest(t, "POST", "/api/v1/banners", map[string]string{"text": "Sale"}, "image", "big.png", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Zero(t, s.files.Len())
}

func TestUpdate_ReplacesFile(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartRequest(t, "POST", "/api/v1/banners", map[string]string{"text": "Sale"}, "image", "a.png", pngBytes(t)))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	oldKey := strings.TrimPrefix(created["imageUrl"].(string), "/uploads/")

	url := "/api/v1/banners/" + jsonNumber(created["id"].(float64))
	w = s.do(multipartRequest(t, "PUT", url, nil, "image", "b.png", pngBytes(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)
	newKey := strings.TrimPrefix(updated["imageUrl"].(string), "/uploads/")

	assert.Equal(t, "Sale", updated["text"])
	assert.NotEqual(t, oldKey, newKey)
	assert.False(t, s.files.Exists(oldKey))
	assert.True(t, s.files.Exists(newKey))

	w = s.do(jsonRequest("PUT", url, `{"text":"Summer sale"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Summer sale", decode(t, w)["text"])
}

func TestUpdate_NotFoundAndBadID(t *testing.T) {
	s := newTestServer(t)

	w := s.do(jsonRequest("PUT", "/api/v1/banners/999", `{"text":"x"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)

	req, _ := http.NewRequest("GET", "/api/v1/banners/abc", nil)
	w = s.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "invalid id")
}

func TestList_PaginationPastEnd(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		w := s.do(multipartRequest(t, "POST", "/api/v1/banners", map[string]string{"text": "b"}, "image", "a.png", pngBytes(t)))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	assert.Len(t, listIDs(t, s, "/api/v1/banners?page=2&pageSize=2"), 1)
	assert.Empty(t, listIDs(t, s, "/api/v1/banners?page=99&pageSize=2"))
	assert.Empty(t, listIDs(t, s, "/api/v1/banners?page=100000000000000000&pageSize=100"))

	req, _ := http.NewRequest("GET", "/api/v1/banners?page=abc&pageSize=-1", nil)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.Equal(t, float64(1), page["page"])
	assert.Equal(t, float64(resource.DefaultPageSize), page["pageSize"])
}

func TestList_FilterValidation(t *testing.T) {
	s := newTestServer(t)

	req, _ := http.NewRequest("GET", "/api/v1/courses?category=science", nil)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])
}

func TestSingleton_ReplaceGetClear(t *testing.T) {
	s := newTestServer(t)

	req, _ := http.NewRequest("GET", "/api/v1/site-title", nil)
	assert.Equal(t, http.StatusNotFound, s.do(req).Code)

	w := s.do(jsonRequest("PUT", "/api/v1/site-title", `{"title":"First","subtitle":"Old"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	form, _ := http.NewRequest("PUT", "/api/v1/site-title", strings.NewReader("title=Second"))
	form.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = s.do(form)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(req.Clone(context.Background()))
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, float64(1), got["id"])
	assert.Equal(t, "Second", got["title"])
	assert.Nil(t, got["subtitle"], "omitted optional fields are cleared on replace")

	del, _ := http.NewRequest("DELETE", "/api/v1/site-title", nil)
	assert.Equal(t, http.StatusOK, s.do(del).Code)
	assert.Equal(t, http.StatusNotFound, s.do(req.Clone(context.Background())).Code)
}

func TestSingleton_Validation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(jsonRequest("PUT", "/api/v1/site-title", `{"subtitle":"no title"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(jsonRequest("PUT", "/api/v1/site-title", `{"title":{"nested":true}}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(jsonRequest("PUT", "/api/v1/site-title", `{"title":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req, _ := http.NewRequest("PUT", "/api/v1/site-title", strings.NewReader("title"))
	req.Header.Set("Content-Type", "text/plain")
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)
}

type fakeAuth struct {
	admins map[string]string
}

func (f *fakeAuth) Register(_ context.Context, email, password string) (*auth.Admin, error) {
	if _, ok := f.admins[email]; ok {
		return nil, apperr.Conflict("an admin with this email already exists")
	}
	f.admins[email] = password
	return &auth.Admin{ID: int64(len(f.admins)), Email: email, CreatedAt: time.Now()}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*auth.Token, error) {
	if stored, ok := f.admins[email]; !ok || stored != password {
		return nil, apperr.Auth("invalid email or password")
	}
	return &auth.Token{AccessToken: "signed", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewAuthHandler(&fakeAuth{admins: map[string]string{}}, discard)
	router := gin.New()
	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	return router
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	router := authRouter()
	body := `{"email":"admin@example.com","password":"correct-horse"}`

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/auth/register", body))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "admin@example.com", decode(t, w)["email"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/auth/register", body))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/auth/login", body))
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)
	assert.Equal(t, "signed", token["accessToken"])
	assert.Equal(t, "Bearer", token["tokenType"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/auth/login", `{"email":"admin@example.com","password":"wrong-password"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid email or password"}`, w.Body.String())
}

func TestAuthHandler_MissingFields(t *testing.T) {
	router := authRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/auth/login", `{"email":"admin@example.com"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeSweeper struct {
	report *reconcile.Report
	err    error
}

func (f fakeSweeper) Sweep(context.Context) (*reconcile.Report, error) {
	return f.report, f.err
}

func TestMaintenanceHandler_Sweep(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/ok", handlers.NewMaintenanceHandler(fakeSweeper{report: &reconcile.Report{Scanned: 3, Removed: 1}}, discard).Sweep)
	router.POST("/busy", handlers.NewMaintenanceHandler(fakeSweeper{err: apperr.Conflict("orphan sweep already running")}, discard).Sweep)
	router.POST("/fail", handlers.NewMaintenanceHandler(fakeSweeper{err: apperr.Storage("orphan sweep incomplete", errors.New("disk gone"))}, discard).Sweep)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/ok", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["removed"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/busy", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"orphan sweep incomplete"}`, w.Body.String(), "causes stay out of responses")
}

func TestMaintenanceHandler_SweepPartialReport(t *testing.T) {
	gin.SetMode(gin.TestMode)

	partial := &reconcile.Report{Scanned: 5, Orphans: 3, Removed: 2, Failed: 1}
	router := gin.New()
	router.POST("/sweep", handlers.NewMaintenanceHandler(fakeSweeper{
		report: partial,
		err:    apperr.Storage("orphan sweep incomplete", errors.New("disk gone")),
	}, discard).Sweep)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/sweep", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body struct {
		Error  string           `json:"error"`
		Report reconcile.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "orphan sweep incomplete", body.Error)
	assert.Equal(t, 2, body.Report.Removed)
	assert.Equal(t, 1, body.Report.Failed)
	assert.NotContains(t, w.Body.String(), "disk gone")
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/health", handlers.HealthHandler(pinger{}))
	router.GET("/down", handlers.HealthHandler(pinger{err: errors.New("connection refused")}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
