package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/national-dialog/app"
	"github.com/mbolis/national-dialog/catalog"
	"github.com/mbolis/national-dialog/config"
	"github.com/mbolis/national-dialog/log"
	"github.com/mbolis/national-dialog/routes/middlewares"
	"github.com/mbolis/national-dialog/session"
	"github.com/mbolis/national-dialog/store"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type ticker struct {
	mu sync.Mutex
	t  time.Time
}

func (c *ticker) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newServer(t *testing.T, adminPassword string) (http.Handler, config.Config) {
	t.Helper()

	cfg := config.Config{
		DataDir:       t.TempDir(),
		Store:         config.StoreJSON,
		TokenSecret:   "test-secret",
		TokenTTL:      time.Minute,
		SessionTTL:    time.Hour,
		AdminUser:     "admin",
		MaxUploadSize: 1 << 20,
	}
	if adminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
		require.NoError(t, err)
		cfg.AdminPasswordHash = string(hash)
	}

	stores, err := store.OpenFiles(cfg.DataDir)
	require.NoError(t, err)

	clock := &ticker{t: time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)}
	a, err := app.New(cfg, stores, catalog.Default(), clock.now)
	require.NoError(t, err)

	return Wire(a), cfg
}

func do(h http.Handler, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("content-type", "application/json")
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func authenticate(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rec := do(h, jsonRequest(http.MethodPost, "/api/auth", authRequest{
		Name:  "Thandi",
		Phone: "0821234567",
		Email: "thandi@example.co.za",
	}), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == middlewares.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func submit(t *testing.T, h http.Handler, cookie *http.Cookie, form int, answers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	path := fmt.Sprintf("/api/forms/%d/submissions", form)
	return do(h, jsonRequest(http.MethodPost, path, map[string]any{"answers": answers}), cookie)
}

func TestAuthValidationMessages(t *testing.T) {
	h, _ := newServer(t, "")

	rec := do(h, jsonRequest(http.MethodPost, "/api/auth", authRequest{Phone: "12345", Email: "nope"}), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []any{
		session.MsgNameRequired,
		session.MsgInvalidPhone,
		session.MsgInvalidEmail,
	}, decode(t, rec)["errors"])
	assert.Empty(t, rec.Result().Cookies())

	rec = do(h, httptest.NewRequest(http.MethodPost, "/api/auth", strings.NewReader("{")), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthGrantsSession(t *testing.T) {
	h, cfg := newServer(t, "")

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/session", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.Unauthenticated, decode(t, rec)["state"])

	cookie := authenticate(t, h)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/session", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, session.Authenticated, body["state"])
	assert.Equal(t, "Thandi", body["user"].(map[string]any)["name"])

	rec = do(h, jsonRequest(http.MethodPost, "/api/auth", authRequest{
		Name: "Again", Phone: "0821234567", Email: "a@b.com",
	}), cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	data, err := os.ReadFile(filepath.Join(cfg.DataDir, store.UsersFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Thandi"`)

	data, err = os.ReadFile(filepath.Join(cfg.DataDir, store.UsersCSVFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "name,phone,email,timestamp\nThandi,0821234567,thandi@example.co.za,"))
}

func TestGatedRoutes(t *testing.T) {
	h, _ := newServer(t, "")

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/forms", nil),
		httptest.NewRequest(http.MethodGet, "/api/feed", nil),
		httptest.NewRequest(http.MethodGet, "/api/poll", nil),
		httptest.NewRequest(http.MethodGet, "/uploads/anything.png", nil),
		jsonRequest(http.MethodPost, "/api/forms/0/submissions", map[string]any{}),
	} {
		rec := do(h, req, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, req.URL.Path)
	}

	bogus := &http.Cookie{Name: middlewares.SessionCookie, Value: "not.a.token"}
	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/forms", nil), bogus)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListForms(t *testing.T) {
	h, _ := newServer(t, "")
	cookie := authenticate(t, h)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/forms", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	forms := decode(t, rec)["forms"].([]any)
	require.Len(t, forms, 4)
	first := forms[0].(map[string]any)
	assert.Equal(t, float64(0), first["index"])
	assert.Equal(t, "Retail Experience", first["title"])
	assert.Len(t, first["questions"], 4)
}

func TestRetailSubmissionFeedsPoll(t *testing.T) {
	h, _ := newServer(t, "")
	cookie := authenticate(t, h)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/poll", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["empty"])
	assert.Equal(t, msgNoPollData, body["message"])
	assert.Equal(t, "Popular Retail Establishments (Poll)", body["title"])

	for _, name := range []string{"Checkers", "Pick n Pay", "Checkers"} {
		rec = submit(t, h, cookie, 0, map[string]string{"q0": name, "q2": "Price"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	assert.Equal(t, msgSubmitted, decode(t, rec)["message"])

	rec = submit(t, h, cookie, 1, map[string]string{"q0": "Checkers"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = submit(t, h, cookie, 0, map[string]string{"q0": ""})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/poll", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, false, body["empty"])
	assert.Equal(t, []any{"Establishment", "Mentions"}, body["columns"])
	assert.Equal(t, []any{
		map[string]any{"value": "Checkers", "count": float64(2)},
		map[string]any{"value": "Pick n Pay", "count": float64(1)},
	}, body["rows"])
}

func TestSubmissionSelectDefaults(t *testing.T) {
	h, _ := newServer(t, "")
	cookie := authenticate(t, h)

	rec := submit(t, h, cookie, 0, map[string]string{"q0": "Spar"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	entry := decode(t, rec)["entry"].(map[string]any)
	assert.Equal(t, "Retail Experience", entry["form"])
	responses := entry["responses"].([]any)
	require.Len(t, responses, 4)
	assert.Equal(t, "Very Satisfied", responses[1].(map[string]any)["text"])
	assert.Equal(t, "Price", responses[2].(map[string]any)["text"])
	assert.Equal(t, "text", responses[3].(map[string]any)["kind"])

	rec = submit(t, h, cookie, 0, map[string]string{"q1": "Ecstatic"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode(t, rec)["errors"], 1)
}

func TestSubmissionUnknownForm(t *testing.T) {
	h, _ := newServer(t, "")
	cookie := authenticate(t, h)

	rec := submit(t, h, cookie, 4, map[string]string{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, jsonRequest(http.MethodPost, "/api/forms/x/submissions", map[string]any{}), cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedShowsLatestTwentyNewestFirst(t *testing.T) {
	h, _ := newServer(t, "")
	cookie := authenticate(t, h)

	for i := 0; i < 25; i++ {
		rec := submit(t, h, cookie, 2, map[string]string{"q0": fmt.Sprintf("answer %d", i)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/feed", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(25), body["total"])

	entries := body["entries"].([]any)
	require.Len(t, entries, 20)
	for i, e := range entries {
		first := e.(map[string]any)["responses"].([]any)[0].(map[string]any)
		assert.Equal(t, fmt.Sprintf("answer %d", 24-i), first["text"])
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 3))))
	return buf.Bytes()
}

func multipartSubmission(t *testing.T, path string, fields map[string]string, fileField string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile(fileField, "place.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("content-type", mw.FormDataContentType())
	return req
}

func TestSubmissionWithImage(t *testing.T) {
	h, _ := newServer(t, "")
	cookie := authenticate(t, h)
	img := pngBytes(t)

	req := multipartSubmission(t, "/api/forms/3/submissions", map[string]string{
		"q0": "Table Mountain",
		"q1": "The view",
		"q3": "Go early",
	}, "q2", img)
	rec := do(h, req, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	responses := decode(t, rec)["entry"].(map[string]any)["responses"].([]any)
	upload := responses[2].(map[string]any)
	assert.Equal(t, "image", upload["kind"])
	url, _ := upload["image_url"].(string)
	require.True(t, strings.HasPrefix(url, "/uploads/"), url)

	rec = do(h, httptest.NewRequest(http.MethodGet, url, nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("content-type"))
	got, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, img, got)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/uploads/../users.json", nil), cookie)
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestSubmissionWithoutImage(t *testing.T) {
	h, _ := newServer(t, "")
	cookie := authenticate(t, h)

	req := multipartSubmission(t, "/api/forms/3/submissions", map[string]string{"q0": "Kruger"}, "", nil)
	rec := do(h, req, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	responses := decode(t, rec)["entry"].(map[string]any)["responses"].([]any)
	assert.Equal(t, "empty", responses[2].(map[string]any)["kind"])
}

func TestSubmissionRejectsNonImage(t *testing.T) {
	h, _ := newServer(t, "")
	cookie := authenticate(t, h)

	req := multipartSubmission(t, "/api/forms/3/submissions", map[string]string{}, "q2", []byte("plain text, not a picture"))
	rec := do(h, req, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode(t, rec)["errors"], 1)
}

func TestAdminDisabled(t *testing.T) {
	h, _ := newServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.SetBasicAuth("admin", "whatever")
	assert.Equal(t, http.StatusNotFound, do(h, req, nil).Code)
}

func TestAdminAPI(t *testing.T) {
	h, _ := newServer(t, "s3cret")
	cookie := authenticate(t, h)
	require.Equal(t, http.StatusCreated, submit(t, h, cookie, 0, map[string]string{"q0": "Woolworths"}).Code)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = do(h, req, nil)
	assert.NotEqual(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.SetBasicAuth("admin", "s3cret")
	rec = do(h, req, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := decode(t, rec)["access_token"].(string)
	require.NotEmpty(t, token)

	admin := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("authorization", "Bearer "+token)
		return do(h, req, nil)
	}

	rec = admin("/api/admin/users")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["users"], 1)

	rec = admin("/api/admin/users.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("content-type"))
	assert.Contains(t, rec.Body.String(), "Thandi,0821234567,thandi@example.co.za,")

	rec = admin("/api/admin/blog")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["entries"], 1)

	rec = admin("/api/admin/polls")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Woolworths"}, decode(t, rec)["samples"])
}

func TestIndexServed(t *testing.T) {
	h, _ := newServer(t, "")

	rec := do(h, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "National Dialog")
}
