package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"user-account-service/app/server/auth"
	"user-account-service/app/server/constants"
	"user-account-service/app/server/handlers"
	"user-account-service/app/server/inits"
	"user-account-service/app/server/jwt"
	"user-account-service/app/server/models"
	"user-account-service/app/server/password"
	"user-account-service/app/server/store"
	"user-account-service/app/server/types"

	"github.com/alexedwards/argon2id"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type testServer struct {
	e     *echo.Echo
	users *store.Users
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, inits.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	j, err := jwt.New("handler-test-secret")
	require.NoError(t, err)

	hasher := password.New(testParams)
	users := store.NewUsers(db, hasher, nil)
	authService := auth.NewService(users, hasher, j, nil, zap.NewNop())

	e := echo.New()
	handlers.NewApp(zap.NewNop(), users, authService).RegisterHandlers(e)

	return &testServer{e: e, users: users}
}

func (s *testServer) do(t *testing.T, method, target string, body []byte, contentType, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(t *testing.T, method, target string, payload interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	return s.do(t, method, target, body, echo.MIMEApplicationJSON, token)
}

type formFile struct {
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *formFile) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+constants.ProfilePhotoField+`"; filename="me.png"`)
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), w.FormDataContentType()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) register(t *testing.T, name, email, plain string) types.UserInfo {
	t.Helper()
	body, ct := multipartBody(t, map[string]string{"name": name, "email": email, "password": plain}, nil)
	rec := s.do(t, http.MethodPost, "/api/users", body, ct, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[types.UserInfo](t, rec)
}

func (s *testServer) login(t *testing.T, email, plain string) string {
	t.Helper()
	rec := s.doJSON(t, http.MethodPost, "/api/users/login", map[string]string{"email": email, "password": plain}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[types.UserInfo](t, rec).Token
}

func (s *testServer) admin(t *testing.T) string {
	t.Helper()
	u := &models.User{Name: "Admin", Email: "admin@x.com", IsAdmin: true}
	u.SetPassword("adminpass")
	require.NoError(t, s.users.Create(context.Background(), u))
	return s.login(t, "admin@x.com", "adminpass")
}

func TestRegisterLoginProfile(t *testing.T) {
	s := newTestServer(t)

	registered := s.register(t, "Alice", "alice@x.com", "secret123")
	assert.NotZero(t, registered.ID)
	assert.NotEmpty(t, registered.Token)
	assert.False(t, registered.IsAdmin)

	token := s.login(t, "alice@x.com", "secret123")

	rec := s.do(t, http.MethodGet, "/api/users/profile", nil, "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "Alice", raw["name"])
	assert.Equal(t, "alice@x.com", raw["email"])
	assert.Equal(t, false, raw["isAdmin"])
	assert.ElementsMatch(t, []string{"id", "name", "email", "isAdmin"}, keys(raw))
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestLogin_ResponseHasNoSecrets(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Alice", "alice@x.com", "secret123")

	rec := s.doJSON(t, http.MethodPost, "/api/users/login", map[string]string{"email": "alice@x.com", "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "password")
	assert.NotContains(t, rec.Body.String(), "argon2id")
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Alice", "alice@x.com", "secret123")

	wrong := s.doJSON(t, http.MethodPost, "/api/users/login", map[string]string{"email": "alice@x.com", "password": "wrong-pass"}, "")
	unknown := s.doJSON(t, http.MethodPost, "/api/users/login", map[string]string{"email": "nobody@x.com", "password": "secret123"}, "")

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestLogin_MalformedBody(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/users/login", []byte("{"), echo.MIMEApplicationJSON, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.doJSON(t, http.MethodPost, "/api/users/login", map[string]string{"email": "alice@x.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_IgnoresAdminFlag(t *testing.T) {
	s := newTestServer(t)

	body, ct := multipartBody(t, map[string]string{"name": "Mallory", "email": "m@x.com", "password": "secret123", "isAdmin": "true"}, nil)
	rec := s.do(t, http.MethodPost, "/api/users", body, ct, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, decode[types.UserInfo](t, rec).IsAdmin)

	rec = s.doJSON(t, http.MethodPost, "/api/users", map[string]interface{}{"name": "Eve", "email": "e@x.com", "password": "secret123", "isAdmin": true}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, decode[types.UserInfo](t, rec).IsAdmin)
}

func TestRegister_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"missing email", map[string]string{"name": "A", "password": "secret123"}},
		{"bad email", map[string]string{"name": "A", "email": "nope", "password": "secret123"}},
		{"short password", map[string]string{"name": "A", "email": "a@x.com", "password": "abc"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := multipartBody(t, tc.fields, nil)
			rec := s.do(t, http.MethodPost, "/api/users", body, ct, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	count, err := s.users.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Alice", "alice@x.com", "secret123")

	body, ct := multipartBody(t, map[string]string{"name": "Other", "email": "alice@x.com", "password": "secret123"}, nil)
	rec := s.do(t, http.MethodPost, "/api/users", body, ct, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", decode[types.ErrorMessage](t, rec).Message)
}

func TestRegister_OversizedPhoto(t *testing.T) {
	s := newTestServer(t)

	big := &formFile{contentType: "image/png", data: make([]byte, constants.ProfilePhotoMaxSize+1)}
	body, ct := multipartBody(t, map[string]string{"name": "Alice", "email": "alice@x.com", "password": "secret123"}, big)
	rec := s.do(t, http.MethodPost, "/api/users", body, ct, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "images size too big", decode[types.ErrorMessage](t, rec).Message)

	count, err := s.users.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRegister_BodyOverRequestLimit(t *testing.T) {
	s := newTestServer(t)

	huge := &formFile{contentType: "image/png", data: make([]byte, 13*1024*1024)}
	body, ct := multipartBody(t, map[string]string{"name": "Alice", "email": "alice@x.com", "password": "secret123"}, huge)
	rec := s.do(t, http.MethodPost, "/api/users", body, ct, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "images size too big", decode[types.ErrorMessage](t, rec).Message)

	count, err := s.users.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProfileUpdate_BodyOverRequestLimit(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Alice", "alice@x.com", "secret123")
	token := s.login(t, "alice@x.com", "secret123")

	huge := &formFile{contentType: "image/png", data: make([]byte, 13*1024*1024)}
	body, ct := multipartBody(t, map[string]string{"name": "Renamed"}, huge)
	rec := s.do(t, http.MethodPut, "/api/users/profile", body, ct, token)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "images size too big", decode[types.ErrorMessage](t, rec).Message)

	user, err := s.users.FindByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.False(t, user.HasPhoto())
}

func TestLogin_BodyOverRequestLimit(t *testing.T) {
	s := newTestServer(t)

	body := append([]byte(`{"email":"`), bytes.Repeat([]byte("a"), 13*1024*1024)...)
	body = append(body, []byte(`","password":"x"}`)...)
	rec := s.do(t, http.MethodPost, "/api/users/login", body, echo.MIMEApplicationJSON, "")

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRegister_PhotoRoundTrip(t *testing.T) {
	s := newTestServer(t)

	img := &formFile{contentType: "image/png", data: []byte("\x89PNG\r\n\x1a\nfake image bytes")}
	body, ct := multipartBody(t, map[string]string{"name": "Alice", "email": "alice@x.com", "password": "secret123"}, img)
	rec := s.do(t, http.MethodPost, "/api/users", body, ct, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	info := decode[types.UserInfo](t, rec)
	assert.NotContains(t, rec.Body.String(), "photo")

	rec = s.do(t, http.MethodGet, "/api/users/"+itoa(info.ID)+"/photo", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, img.data, rec.Body.Bytes())
}

func TestPhoto_Missing(t *testing.T) {
	s := newTestServer(t)
	info := s.register(t, "Alice", "alice@x.com", "secret123")

	rec := s.do(t, http.MethodGet, "/api/users/"+itoa(info.ID)+"/photo", nil, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/999/photo", nil, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/abc/photo", nil, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfile_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/users/profile", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/profile", nil, "", "forged.token.value")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileUpdate_OnlyProvidedFields(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Alice", "alice@x.com", "secret123")
	token := s.login(t, "alice@x.com", "secret123")

	// 只改名称
	rec := s.doJSON(t, http.MethodPut, "/api/users/profile", map[string]string{"name": "Alice Liddell"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	info := decode[types.UserInfo](t, rec)
	assert.Equal(t, "Alice Liddell", info.Name)
	assert.Equal(t, "alice@x.com", info.Email)

	// 显式清空名称
	body, ct := multipartBody(t, map[string]string{"name": ""}, nil)
	rec = s.do(t, http.MethodPut, "/api/users/profile", body, ct, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	info = decode[types.UserInfo](t, rec)
	assert.Equal(t, "", info.Name)
	assert.Equal(t, "alice@x.com", info.Email)

	// 旧密码依然可用
	s.login(t, "alice@x.com", "secret123")
}

func TestProfileUpdate_PasswordAndPhoto(t *testing.T) {
	s := newTestServer(t)
	info := s.register(t, "Alice", "alice@x.com", "secret123")
	token := s.login(t, "alice@x.com", "secret123")

	img := &formFile{contentType: "image/jpeg", data: []byte("\xff\xd8\xff\xe0 jpeg bytes")}
	body, ct := multipartBody(t, map[string]string{"password": "another456"}, img)
	rec := s.do(t, http.MethodPut, "/api/users/profile", body, ct, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "photo")

	rec = s.doJSON(t, http.MethodPost, "/api/users/login", map[string]string{"email": "alice@x.com", "password": "secret123"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	s.login(t, "alice@x.com", "another456")

	rec = s.do(t, http.MethodGet, "/api/users/"+itoa(info.ID)+"/photo", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get(echo.HeaderContentType))
}

func TestProfileUpdate_EmailTaken(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Alice", "alice@x.com", "secret123")
	s.register(t, "Bob", "bob@x.com", "secret123")
	token := s.login(t, "bob@x.com", "secret123")

	rec := s.doJSON(t, http.MethodPut, "/api/users/profile", map[string]string{"email": "alice@x.com"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_NonAdminForbidden(t *testing.T) {
	s := newTestServer(t)
	victim := s.register(t, "Victim", "victim@x.com", "secret123")
	s.register(t, "Alice", "alice@x.com", "secret123")
	token := s.login(t, "alice@x.com", "secret123")

	rec := s.do(t, http.MethodDelete, "/api/users/"+itoa(victim.ID), nil, "", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, err := s.users.FindByID(context.Background(), victim.ID)
	assert.NoError(t, err)

	for _, target := range []string{"/api/users", "/api/users/" + itoa(victim.ID)} {
		rec = s.do(t, http.MethodGet, target, nil, "", token)
		assert.Equal(t, http.StatusForbidden, rec.Code, target)
	}
	rec = s.doJSON(t, http.MethodPut, "/api/users/"+itoa(victim.ID), map[string]bool{"isAdmin": true}, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdmin_ListAndGet(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.admin(t)
	alice := s.register(t, "Alice", "alice@x.com", "secret123")
	s.register(t, "Bob", "bob@x.com", "secret123")

	rec := s.do(t, http.MethodGet, "/api/users?page=1&limit=2", nil, "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[types.UserListResponse](t, rec)
	assert.Equal(t, 2, list.Limit)
	assert.Equal(t, int64(2), list.PageMax)
	assert.Len(t, list.List, 2)
	assert.NotContains(t, rec.Body.String(), "argon2id")

	rec = s.do(t, http.MethodGet, "/api/users?page=0&limit=0", nil, "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[types.UserListResponse](t, rec).List, 3)

	rec = s.do(t, http.MethodGet, "/api/users/"+itoa(alice.ID), nil, "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@x.com", decode[types.UserInfo](t, rec).Email)

	rec = s.do(t, http.MethodGet, "/api/users/999", nil, "", adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_UpdateKeepsUnsetFields(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.admin(t)
	alice := s.register(t, "Alice", "alice@x.com", "secret123")

	rec := s.doJSON(t, http.MethodPut, "/api/users/"+itoa(alice.ID), map[string]bool{"isAdmin": true}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	info := decode[types.UserInfo](t, rec)
	assert.True(t, info.IsAdmin)
	assert.Equal(t, "Alice", info.Name)

	// 不带 isAdmin 时不会被清除
	rec = s.doJSON(t, http.MethodPut, "/api/users/"+itoa(alice.ID), map[string]string{"name": "Queen Alice"}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	info = decode[types.UserInfo](t, rec)
	assert.True(t, info.IsAdmin)
	assert.Equal(t, "Queen Alice", info.Name)

	// 新的管理员身份立即生效
	aliceToken := s.login(t, "alice@x.com", "secret123")
	rec = s.do(t, http.MethodGet, "/api/users", nil, "", aliceToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmin_DeleteInvalidatesTokens(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.admin(t)
	alice := s.register(t, "Alice", "alice@x.com", "secret123")
	aliceToken := s.login(t, "alice@x.com", "secret123")

	rec := s.do(t, http.MethodDelete, "/api/users/"+itoa(alice.ID), nil, "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User removed", decode[types.MessageResponse](t, rec).Message)

	rec = s.do(t, http.MethodGet, "/api/users/profile", nil, "", aliceToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/users/"+itoa(alice.ID), nil, "", adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/", nil, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "API is running....", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/healthz", nil, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
