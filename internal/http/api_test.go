package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devai-server/internal/domain"
	"devai-server/internal/genimage"
	"devai-server/internal/repository/sqlite"
	"devai-server/internal/service"
	"devai-server/internal/storage"
	"devai-server/internal/token"
)

const fixedUploadURL = "https://media.example.com/devai-posts/fixed.png"

var pngPayload = base64.StdEncoding.EncodeToString([]byte{
	0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R',
})

type fakeUploader struct {
	url   string
	err   error
	calls int
}

func (f *fakeUploader) UploadImage(_ context.Context, _ []byte, _ storage.UploadOptions) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeGenerator struct {
	img   *domain.GeneratedImage
	err   error
	calls int
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (*domain.GeneratedImage, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, genimage.ErrEmptyPrompt
	}
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	img := *f.img
	img.Prompt = prompt
	return &img, nil
}

type testEnv struct {
	router    *gin.Engine
	tokens    *token.Service
	uploader  *fakeUploader
	generator *fakeGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	userRepo := sqlite.NewUserRepository(db)
	postRepo := sqlite.NewPostRepository(db)
	require.NoError(t, userRepo.Init(context.Background()))
	require.NoError(t, postRepo.Init(context.Background()))

	tokens, err := token.NewService(token.Config{Secret: []byte("test-secret"), TTL: time.Hour})
	require.NoError(t, err)

	uploader := &fakeUploader{url: fixedUploadURL}
	generator := &fakeGenerator{
		img: &domain.GeneratedImage{
			DataURI:   "data:image/png;base64," + pngPayload,
			CreatedAt: time.Now().UTC(),
		},
	}

	users := service.NewUserService(userRepo)
	posts := service.NewPostService(postRepo, uploader, storage.UploadOptions{Bucket: "devai", KeyPrefix: "devai-posts"})

	router := gin.New()
	NewHandler(users, posts, generator, tokens).RegisterRoutes(router)

	return &testEnv{
		router:    router,
		tokens:    tokens,
		uploader:  uploader,
		generator: generator,
	}
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)

	var out map[string]any
	if resp.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	}
	return resp, out
}

func (e *testEnv) registerAda(t *testing.T) (userID int64, tok string) {
	t.Helper()
	resp, out := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ada",
		"email":    "ada@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	data := out["data"].(map[string]any)
	tok = data["token"].(string)
	require.NotEmpty(t, tok)

	userID, err := e.tokens.Verify(tok)
	require.NoError(t, err)
	return userID, tok
}

func TestRootRoute(t *testing.T) {
	env := newTestEnv(t)
	resp, out := env.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "API is running", out["message"])
}

func TestRegisterThenLogin(t *testing.T) {
	env := newTestEnv(t)

	registeredID, _ := env.registerAda(t)

	resp, out := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, true, out["success"])

	data := out["data"].(map[string]any)
	loginID, err := env.tokens.Verify(data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, registeredID, loginID, "login token must resolve to the registered user")
	assert.Equal(t, "ada", data["username"])
	assert.Equal(t, "ada@example.com", data["email"])
}

func TestRegisterValidationAndConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.registerAda(t)

	tests := []struct {
		name    string
		body    map[string]string
		status  int
		message string
	}{
		{
			"missing fields",
			map[string]string{"username": "grace"},
			http.StatusBadRequest, "Please provide all required fields",
		},
		{
			"bad email",
			map[string]string{"username": "grace", "email": "nope", "password": "secret1"},
			http.StatusBadRequest, "Please provide a valid email address",
		},
		{
			"short password",
			map[string]string{"username": "grace", "email": "grace@example.com", "password": "five5"},
			http.StatusBadRequest, "Password must be at least 6 characters long",
		},
		{
			"duplicate email",
			map[string]string{"username": "grace", "email": "ada@example.com", "password": "secret1"},
			http.StatusBadRequest, "Email already registered",
		},
		{
			"duplicate username",
			map[string]string{"username": "ada", "email": "grace@example.com", "password": "secret1"},
			http.StatusBadRequest, "Username already taken",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := env.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, false, out["success"])
			assert.Equal(t, tt.message, out["message"])
		})
	}
}

func TestLoginFailuresShareMessage(t *testing.T) {
	env := newTestEnv(t)
	env.registerAda(t)

	respWrong, outWrong := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	respUnknown, outUnknown := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "secret1",
	})

	assert.Equal(t, http.StatusUnauthorized, respWrong.Code)
	assert.Equal(t, http.StatusUnauthorized, respUnknown.Code)
	assert.Equal(t, "Invalid email or password", outWrong["message"])
	assert.Equal(t, outWrong["message"], outUnknown["message"])
}

func TestGenerateRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp, out := env.do(t, http.MethodPost, "/api/generateImage/generate", "", map[string]string{"prompt": "a cat"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Not authorized to access this route", out["message"])

	resp, _ = env.do(t, http.MethodPost, "/api/generateImage/generate", "not-a-token", map[string]string{"prompt": "a cat"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Zero(t, env.generator.calls)
}

func TestGenerateEmptyPrompt(t *testing.T) {
	env := newTestEnv(t)
	_, tok := env.registerAda(t)

	resp, out := env.do(t, http.MethodPost, "/api/generateImage/generate", tok, map[string]string{"prompt": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Valid prompt is required", out["message"])
	assert.Zero(t, env.generator.calls, "no provider call for an empty prompt")
}

func TestGenerateSuccess(t *testing.T) {
	env := newTestEnv(t)
	_, tok := env.registerAda(t)

	resp, out := env.do(t, http.MethodPost, "/api/generateImage/generate", tok, map[string]string{"prompt": "a cat"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "a cat", out["prompt"])
	assert.Equal(t, 1, env.generator.calls)

	photo := out["photo"].(string)
	assert.True(t, strings.HasPrefix(photo, "data:image/png;base64,"))
	assert.NotEmpty(t, out["timestamp"])
}

func TestGenerateUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	_, tok := env.registerAda(t)
	env.generator.err = &genimage.UpstreamError{Message: "API Error: Model is currently loading"}

	resp, out := env.do(t, http.MethodPost, "/api/generateImage/generate", tok, map[string]string{"prompt": "a cat"})
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "API Error: Model is currently loading", out["message"])
}

func TestCreatePostPublishes(t *testing.T) {
	env := newTestEnv(t)

	// the publish endpoint takes no token
	resp, out := env.do(t, http.MethodPost, "/api/posts", "", map[string]string{
		"prompt":   "a cat",
		"photo":    pngPayload,
		"userName": "ada",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	data := out["data"].(map[string]any)
	assert.Equal(t, fixedUploadURL, data["photo"])
	assert.Equal(t, "a cat", data["prompt"])
	assert.Equal(t, "ada", data["userName"])
	assert.NotEmpty(t, data["createdAt"])
	assert.Equal(t, 1, env.uploader.calls)
}

func TestCreatePostValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, out := env.do(t, http.MethodPost, "/api/posts", "", map[string]string{
		"photo": pngPayload, "userName": "ada",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Prompt and photo are required", out["message"])
	assert.Zero(t, env.uploader.calls)
}

func TestCreatePostUploadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.uploader.err = errors.New("bucket unreachable")

	resp, out := env.do(t, http.MethodPost, "/api/posts", "", map[string]string{
		"prompt": "a cat", "photo": pngPayload, "userName": "ada",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "Failed to upload image. Please check your storage configuration.", out["message"])

	// feed stays empty: the failed upload persisted nothing
	_, tok := env.registerAda(t)
	listResp, listOut := env.do(t, http.MethodGet, "/api/posts", tok, nil)
	require.Equal(t, http.StatusOK, listResp.Code)
	assert.Empty(t, listOut["data"])
}

func TestListPostsRequiresAuthAndOrdersNewestFirst(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodGet, "/api/posts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	for _, prompt := range []string{"first", "second", "third"} {
		createResp, _ := env.do(t, http.MethodPost, "/api/posts", "", map[string]string{
			"prompt": prompt, "photo": pngPayload, "userName": "ada",
		})
		require.Equal(t, http.StatusCreated, createResp.Code)
	}

	_, tok := env.registerAda(t)
	listResp, out := env.do(t, http.MethodGet, "/api/posts", tok, nil)
	require.Equal(t, http.StatusOK, listResp.Code)

	data := out["data"].([]any)
	require.Len(t, data, 3)
	prompts := make([]string, len(data))
	for i := range data {
		prompts[i] = data[i].(map[string]any)["prompt"].(string)
	}
	assert.Equal(t, []string{"third", "second", "first"}, prompts)
}
