// AngelaMos | 2026
// router_test.go

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/carterperez-dev/blog-api/internal/admin"
	"github.com/carterperez-dev/blog-api/internal/auth"
	"github.com/carterperez-dev/blog-api/internal/config"
	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/health"
	"github.com/carterperez-dev/blog-api/internal/middleware"
	"github.com/carterperez-dev/blog-api/internal/post"
	"github.com/carterperez-dev/blog-api/internal/server"
	"github.com/carterperez-dev/blog-api/internal/testutil"
	"github.com/carterperez-dev/blog-api/internal/user"
)

const maxUpload = 1 << 20

type testAPI struct {
	handler http.Handler
	auth    *auth.Service
	posts   *testutil.PostRepo
	store   *testutil.ObjectStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	hasher, err := core.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	jwtManager, err := auth.NewJWTManager(config.JWTConfig{
		Secret:            "0123456789abcdef0123456789abcdef",
		AccessTokenExpire: time.Hour,
		Issuer:            "blog-api",
		Audience:          "blog-api-clients",
	})
	require.NoError(t, err)

	users := testutil.NewUserRepo()
	posts := testutil.NewPostRepo()
	store := testutil.NewObjectStore()

	userSvc := user.NewService(users, store, hasher)
	authSvc := auth.NewService(jwtManager, hasher, userSvc, testutil.NewDenylist())
	postSvc := post.NewService(posts, store)

	healthHandler := health.NewHandler()
	srv := server.New(server.Config{
		ServerConfig:  config.ServerConfig{Host: "127.0.0.1", Port: 0},
		HealthHandler: healthHandler,
	})
	router := srv.Router()

	passthrough := func(next http.Handler) http.Handler { return next }
	authenticator := middleware.Authenticator(authSvc, userSvc)
	optionalAuth := middleware.OptionalAuth(authSvc, userSvc)

	healthHandler.RegisterRoutes(router)
	auth.NewHandler(authSvc, maxUpload).RegisterRoutes(router, authenticator, passthrough)
	user.NewHandler(userSvc, maxUpload).RegisterRoutes(router, authenticator, middleware.RequireAdmin)
	post.NewHandler(postSvc, maxUpload).RegisterRoutes(router, authenticator, optionalAuth)
	admin.NewHandler(admin.HandlerConfig{
		Users:       userSvc,
		Posts:       postSvc,
		Provisioner: authSvc,
	}).RegisterRoutes(router, authenticator, middleware.RequireAdmin)

	return &testAPI{handler: router, auth: authSvc, posts: posts, store: store}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (a *testAPI) do(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(
	t *testing.T,
	method, path string,
	fields map[string]string,
	fileField string,
	file []byte,
) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, "image.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (a *testAPI) login(t *testing.T, email, password string) string {
	t.Helper()

	rec, env := a.do(t, jsonRequest(t, http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": password,
	}), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp auth.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (a *testAPI) seedAdmin(t *testing.T) string {
	t.Helper()

	created, err := a.auth.EnsureAdmin(context.Background(), auth.ProvisionAdminRequest{
		Name:     "Root",
		Email:    "root@example.com",
		Password: "root-password",
	})
	require.NoError(t, err)
	require.True(t, created)

	return a.login(t, "root@example.com", "root-password")
}

func (a *testAPI) signup(t *testing.T, name, email string) {
	t.Helper()

	rec, env := a.do(t, formRequest(t, http.MethodPost, "/signup", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
	}, "", nil), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "user registered", env.Message)
}

func TestRouter_Root(t *testing.T) {
	api := newTestAPI(t)

	rec, _ := api.do(t, httptest.NewRequest(http.MethodGet, "/", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Backend is working"}`, rec.Body.String())
}

func TestRouter_Signup(t *testing.T) {
	api := newTestAPI(t)

	api.signup(t, "Ada", "ada@example.com")

	rec, env := api.do(t, formRequest(t, http.MethodPost, "/signup", map[string]string{
		"name":     "Ada Again",
		"email":    "ADA@example.com",
		"password": "password123",
	}, "", nil), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)

	rec, _ = api.do(t, formRequest(t, http.MethodPost, "/signup", map[string]string{
		"name":     "Mallory",
		"email":    "mallory@example.com",
		"password": "password123",
		"role":     "admin",
	}, "", nil), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(t, formRequest(t, http.MethodPost, "/signup", map[string]string{
		"name":     "Shorty",
		"email":    "short@example.com",
		"password": "short",
	}, "", nil), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(t, formRequest(t, http.MethodPost, "/signup", map[string]string{
		"name":     "Texty",
		"email":    "texty@example.com",
		"password": "password123",
	}, "profileImage", []byte("definitely not an image")), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(t, formRequest(t, http.MethodPost, "/signup", map[string]string{
		"name":     "Vector",
		"email":    "vector@example.com",
		"password": "password123",
	}, "profileImage", []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "svg is not accepted")
}

func TestRouter_SignupWithProfileImage(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(t, formRequest(t, http.MethodPost, "/signup", map[string]string{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "password123",
	}, "profileImage", testutil.PNG), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created auth.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.ProfileImageURL)

	rec, _ = api.do(t, httptest.NewRequest(http.MethodGet, created.ProfileImageURL, nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "sandbox")
	assert.Equal(t, testutil.PNG, rec.Body.Bytes())
}

func TestRouter_LoginFailures(t *testing.T) {
	api := newTestAPI(t)
	api.signup(t, "Ada", "ada@example.com")

	for _, creds := range []map[string]string{
		{"email": "ada@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "password123"},
	} {
		rec, env := api.do(t, jsonRequest(t, http.MethodPost, "/login", creds), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
	}

	rec, _ := api.do(t, formRequest(t, http.MethodPost, "/login", map[string]string{
		"email":    "ada@example.com",
		"password": "password123",
	}, "", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code, "form login")
}

func TestRouter_PostLifecycle(t *testing.T) {
	api := newTestAPI(t)
	adminToken := api.seedAdmin(t)
	api.signup(t, "Bob", "bob@example.com")
	bobToken := api.login(t, "bob@example.com", "password123")

	fields := map[string]string{"title": "Hello", "content": "World", "tags": "a, b,c"}

	rec, _ := api.do(t, formRequest(t, http.MethodPost, "/post/create", fields, "", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = api.do(t, formRequest(t, http.MethodPost, "/post/create", fields, "", nil), bobToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	count, err := api.posts.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "denied create stores nothing")

	rec, env := api.do(t, formRequest(t, http.MethodPost, "/post/create", fields, "postImage", testutil.PNG), adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created post.PostResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, []string{"a", "b", "c"}, created.Tags)

	rec, env = api.do(t, httptest.NewRequest(http.MethodGet, "/post", nil), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list post.PostListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, created.ID, list.Posts[0].ID)

	rec, _ = api.do(t, httptest.NewRequest(http.MethodGet, "/post/"+created.ID+"/image", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, testutil.PNG, body)

	rec, _ = api.do(t, httptest.NewRequest(http.MethodGet, "/post/not-an-id", nil), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = api.do(t, formRequest(t, http.MethodPut, "/post/"+created.ID, map[string]string{"title": "Mine now"}, "", nil), bobToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(t, formRequest(t, http.MethodPut, "/post/"+created.ID, nil, "", nil), adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = api.do(t, formRequest(t, http.MethodPut, "/post/"+created.ID, map[string]string{"title": "Edited"}, "", nil), adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated post.PostResponse
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Edited", updated.Title)
	assert.Equal(t, "World", updated.Content)

	rec, _ = api.do(t, httptest.NewRequest(http.MethodDelete, "/post/"+created.ID, nil), bobToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(t, httptest.NewRequest(http.MethodDelete, "/post/"+created.ID, nil), adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, api.store.Len())

	rec, _ = api.do(t, httptest.NewRequest(http.MethodGet, "/post/"+created.ID, nil), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CreatePostForbiddenBeforeBody(t *testing.T) {
	api := newTestAPI(t)
	api.signup(t, "Bob", "bob@example.com")
	bobToken := api.login(t, "bob@example.com", "password123")

	rec, _ := api.do(t, formRequest(t, http.MethodPost, "/post/create", nil, "", nil), bobToken)
	assert.Equal(t, http.StatusForbidden, rec.Code, "empty form")

	oversize := bytes.Repeat([]byte{0}, 2*maxUpload)
	rec, _ = api.do(t, formRequest(t, http.MethodPost, "/post/create", map[string]string{
		"title":   "Big",
		"content": "Body",
	}, "postImage", oversize), bobToken)
	assert.Equal(t, http.StatusForbidden, rec.Code, "oversize image")

	assert.Zero(t, api.store.Len())
}

func TestRouter_ListMine(t *testing.T) {
	api := newTestAPI(t)
	adminToken := api.seedAdmin(t)

	rec, _ := api.do(t, httptest.NewRequest(http.MethodGet, "/post?mine=true", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = api.do(t, formRequest(t, http.MethodPost, "/post/create", map[string]string{
		"title":   "Mine",
		"content": "Body",
	}, "", nil), adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := api.do(t, httptest.NewRequest(http.MethodGet, "/post?mine=true", nil), adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var list post.PostListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)
}

func TestRouter_AdminProvisioning(t *testing.T) {
	api := newTestAPI(t)
	adminToken := api.seedAdmin(t)
	api.signup(t, "Bob", "bob@example.com")
	bobToken := api.login(t, "bob@example.com", "password123")

	body := map[string]string{
		"name":     "Second Admin",
		"email":    "second@example.com",
		"password": "second-password",
	}

	rec, _ := api.do(t, jsonRequest(t, http.MethodPost, "/admin/users", body), bobToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := api.do(t, jsonRequest(t, http.MethodPost, "/admin/users", body), adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created auth.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "admin", created.Role)

	rec, _ = api.do(t, jsonRequest(t, http.MethodPost, "/admin/users", body), adminToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	secondToken := api.login(t, "second@example.com", "second-password")
	rec, _ = api.do(t, formRequest(t, http.MethodPost, "/post/create", map[string]string{
		"title":   "From second",
		"content": "Body",
	}, "", nil), secondToken)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, env = api.do(t, httptest.NewRequest(http.MethodGet, "/admin/stats", nil), adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats admin.SystemStatsResponse
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(3), stats.Content.Users)
	assert.Equal(t, int64(1), stats.Content.Posts)
}

func TestRouter_ProfileAndRevocation(t *testing.T) {
	api := newTestAPI(t)
	adminToken := api.seedAdmin(t)
	api.signup(t, "Bob", "bob@example.com")
	bobToken := api.login(t, "bob@example.com", "password123")

	rec, env := api.do(t, httptest.NewRequest(http.MethodGet, "/user/me", nil), bobToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var me auth.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "bob@example.com", me.Email)

	rec, env = api.do(t, formRequest(t, http.MethodPut, "/user/me", map[string]string{"contact": "555-0100"}, "", nil), bobToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "555-0100", me.Contact)

	rec, env = api.do(t, formRequest(t, http.MethodPut, "/user/me", map[string]string{"contact": ""}, "", nil), bobToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Empty(t, me.Contact, "contact can be cleared")

	rec, _ = api.do(t, formRequest(t, http.MethodPut, "/user/"+me.ID, map[string]string{"role": "admin"}, "", nil), bobToken)
	assert.Equal(t, http.StatusForbidden, rec.Code, "no self promotion")

	rec, _ = api.do(t, formRequest(t, http.MethodPut, "/user/"+me.ID, map[string]string{"role": "admin"}, "", nil), adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = api.do(t, httptest.NewRequest(http.MethodGet, "/user/me", nil), bobToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "role change revokes old tokens")

	bobToken = api.login(t, "bob@example.com", "password123")
	rec, _ = api.do(t, httptest.NewRequest(http.MethodPost, "/logout", nil), bobToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = api.do(t, httptest.NewRequest(http.MethodGet, "/user/me", nil), bobToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "logged out token")

	rec, _ = api.do(t, httptest.NewRequest(http.MethodDelete, "/user/"+me.ID, nil), adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = api.do(t, httptest.NewRequest(http.MethodGet, "/user", nil), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list user.UserListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)
}
