package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/logging"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/articles"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/config"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/sessions"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/uploads"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/users"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/shared"
)

const (
	adminAddress  = "0x242dfb7849544ee242b2265ca7e585bdec60456b"
	visitorWallet = "0x1111111111111111111111111111111111111111"
)

// stubVerifier accepts any signature whose message embeds the pending nonce
// and reports the address baked into the message prefix.
type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, message, signature, nonce string) (string, error) {
	if nonce == "" {
		return "", shared.ErrorNoPendingNonce
	}
	if !strings.Contains(message, nonce) || signature != "valid" {
		return "", fmt.Errorf("signature verification failed: %w", shared.ErrorUnauthorized)
	}
	address, _, _ := strings.Cut(message, "|")
	return strings.ToLower(address), nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.FallbackAuthorAddress = ""

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	userSvc := users.NewService(users.NewInMemoryRepository(), cfg.AdminAddresses)
	articleSvc := articles.NewService(articles.NewInMemoryRepository(), userSvc, logger, cfg.FallbackAuthorAddress)
	uploadSvc := uploads.NewService(cfg)
	sm := sessions.NewManager(cfg.SessionTTL, logger)

	srv, err := NewServer(cfg, logger, sm, stubVerifier{}, userSvc, articleSvc, uploadSvc)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func getNonce(t *testing.T, c *http.Client, base string) string {
	t.Helper()
	resp, err := c.Get(base + "/nonce")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	require.NotEmpty(t, buf.String())
	return buf.String()
}

func signIn(t *testing.T, c *http.Client, base, address string) {
	t.Helper()
	nonce := getNonce(t, c, base)

	body, _ := json.Marshal(map[string]string{
		"message":   address + "|" + nonce,
		"signature": "valid",
	})
	resp, err := c.Post(base+"/verify", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestMeUnauthenticated(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	resp, err := c.Get(ts.URL + "/me")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignInFlowAdmin(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	signIn(t, c, ts.URL, adminAddress)

	resp, err := c.Get(ts.URL + "/me")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		Address string `json:"address"`
		IsAdmin bool   `json:"isAdmin"`
		Role    string `json:"role"`
	}
	decodeJSON(t, resp, &me)

	assert.Equal(t, adminAddress, me.Address)
	assert.True(t, me.IsAdmin)
	assert.Equal(t, "ADMIN", me.Role)
}

func TestVerifyWithoutNonce(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	body, _ := json.Marshal(map[string]string{
		"message":   adminAddress + "|whatever",
		"signature": "valid",
	})
	resp, err := c.Post(ts.URL+"/verify", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVerifyBadSignatureBurnsNonce(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	nonce := getNonce(t, c, ts.URL)

	body, _ := json.Marshal(map[string]string{
		"message":   adminAddress + "|" + nonce,
		"signature": "forged",
	})
	resp, err := c.Post(ts.URL+"/verify", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The nonce was consumed by the failed attempt.
	resp, err = c.Post(ts.URL+"/verify", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = c.Get(ts.URL + "/me")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVerifyMissingMessage(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	resp, err := c.Post(ts.URL+"/verify", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSignOut(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	signIn(t, c, ts.URL, adminAddress)

	resp, err := c.Post(ts.URL+"/signout", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.Get(ts.URL + "/me")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateArticleRequiresAuthor(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	body, _ := json.Marshal(map[string]string{"title": "Orphan"})
	resp, err := c.Post(ts.URL+"/articles", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateArticleRequiresTitle(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)
	signIn(t, c, ts.URL, adminAddress)

	resp, err := c.Post(ts.URL+"/articles", "application/json", strings.NewReader(`{"content":"body"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestArticleLifecycle(t *testing.T) {
	ts := newTestServer(t)
	admin := newClient(t)
	signIn(t, admin, ts.URL, adminAddress)

	body, _ := json.Marshal(map[string]string{
		"title":   "Hello World",
		"content": "First post",
		"status":  "PUBLISHED",
	})
	resp, err := admin.Post(ts.URL+"/articles", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created struct {
		Article        *articles.Article `json:"article"`
		AnchorAttached bool              `json:"anchorAttached"`
	}
	decodeJSON(t, resp, &created)
	require.NotNil(t, created.Article)
	assert.Equal(t, "hello-world", created.Article.Slug)
	assert.NotEmpty(t, created.Article.AuthorID)

	// Fetch by slug.
	resp, err = admin.Get(ts.URL + "/articles/hello-world")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched articles.Article
	decodeJSON(t, resp, &fetched)
	assert.Equal(t, created.Article.ID, fetched.ID)

	// Update.
	update, _ := json.Marshal(map[string]string{"title": "Hello Again", "content": "edited", "status": "PUBLISHED"})
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/articles/"+created.Article.ID, bytes.NewReader(update))
	req.Header.Set("Content-Type", "application/json")
	resp, err = admin.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated articles.Article
	decodeJSON(t, resp, &updated)
	assert.Equal(t, "Hello Again", updated.Title)
	assert.Equal(t, "hello-world", updated.Slug)

	// Delete.
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/articles/"+created.Article.ID, nil)
	resp, err = admin.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = admin.Get(ts.URL + "/articles/hello-world")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListVisibilityByRole(t *testing.T) {
	ts := newTestServer(t)
	admin := newClient(t)
	signIn(t, admin, ts.URL, adminAddress)

	for _, a := range []map[string]string{
		{"title": "Public Post", "status": "PUBLISHED"},
		{"title": "Work In Progress", "status": "DRAFT"},
	} {
		body, _ := json.Marshal(a)
		resp, err := admin.Post(ts.URL+"/articles", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// Admin sees everything.
	resp, err := admin.Get(ts.URL + "/articles")
	require.NoError(t, err)
	var adminList []*articles.Article
	decodeJSON(t, resp, &adminList)
	assert.Len(t, adminList, 2)

	// Anonymous visitors only see published posts.
	anon := newClient(t)
	resp, err = anon.Get(ts.URL + "/articles")
	require.NoError(t, err)
	var anonList []*articles.Article
	decodeJSON(t, resp, &anonList)
	require.Len(t, anonList, 1)
	assert.Equal(t, "Public Post", anonList[0].Title)
}

func TestMutationsForbiddenForPlainUser(t *testing.T) {
	ts := newTestServer(t)
	visitor := newClient(t)
	signIn(t, visitor, ts.URL, visitorWallet)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/articles/some-id", nil)
	resp, err := visitor.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpdateMissingArticle(t *testing.T) {
	ts := newTestServer(t)
	admin := newClient(t)
	signIn(t, admin, ts.URL, adminAddress)

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/articles/nope", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := admin.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNavPagesEmpty(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	resp, err := c.Get(ts.URL + "/nav-pages")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pages []*articles.NavPage
	decodeJSON(t, resp, &pages)
	assert.Empty(t, pages)
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadRejectsNonImage(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	body, contentType := multipartBody(t, "image", "notes.txt", []byte("plain text, not an image"))
	resp, err := c.Post(ts.URL+"/upload", contentType, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out struct {
		Success int    `json:"success"`
		Error   string `json:"error"`
	}
	decodeJSON(t, resp, &out)
	assert.Equal(t, 0, out.Success)
	assert.Equal(t, "Only image files are allowed", out.Error)
}

func TestUploadMissingFile(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	body, contentType := multipartBody(t, "document", "notes.txt", []byte("wrong field"))
	resp, err := c.Post(ts.URL+"/upload", contentType, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out struct {
		Success int `json:"success"`
	}
	decodeJSON(t, resp, &out)
	assert.Equal(t, 0, out.Success)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/articles", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestRoot(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	resp, err := c.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
