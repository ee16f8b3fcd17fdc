package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"devai-server/internal/domain"
	"devai-server/internal/genimage"
	"devai-server/internal/service"
	"devai-server/internal/token"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	posts     service.PostService
	generator genimage.Client
	tokens    *token.Service
}

func NewHandler(users service.UserService, posts service.PostService, generator genimage.Client, tokens *token.Service) *Handler {
	return &Handler{
		users:     users,
		posts:     posts,
		generator: generator,
		tokens:    tokens,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(bodyLimitMiddleware())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API is running"})
	})

	auth := router.Group("/api/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
	}

	protected := authMiddleware(h.tokens, h.users)

	generate := router.Group("/api/generateImage")
	{
		generate.POST("/generate", protected, h.generateImage)
	}

	posts := router.Group("/api/posts")
	{
		posts.GET("", protected, h.listPosts)
		// the publish step itself takes no token and trusts the supplied
		// author label; see DESIGN.md
		posts.POST("", h.createPost)
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type createPostRequest struct {
	Prompt   string `json:"prompt"`
	Photo    string `json:"photo"`
	UserName string `json:"userName"`
}

// UserResponse is the auth payload: the account identity plus a fresh token.
type UserResponse struct {
	ID       int64  `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// PostResponse mirrors the persisted record shape returned to clients.
type PostResponse struct {
	ID        int64  `json:"_id"`
	UserName  string `json:"userName"`
	Prompt    string `json:"prompt"`
	Photo     string `json:"photo"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please provide all required fields")
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields),
			errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrPasswordTooShort),
			errors.Is(err, service.ErrEmailTaken),
			errors.Is(err, service.ErrUsernameTaken):
			fail(c, http.StatusBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, "Server error during registration")
		}
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please provide both email and password")
		return
	}
	if req.Email == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "Please provide both email and password")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, "Server error during login")
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user *domain.User) {
	tok, err := h.tokens.Issue(user.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error during registration")
		return
	}

	c.JSON(status, gin.H{
		"success": true,
		"data": UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Token:    tok,
		},
	})
}

func (h *Handler) generateImage(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Valid prompt is required")
		return
	}

	img, err := h.generator.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		var upstream *genimage.UpstreamError
		switch {
		case errors.Is(err, genimage.ErrEmptyPrompt):
			fail(c, http.StatusBadRequest, "Valid prompt is required")
		case errors.As(err, &upstream):
			fail(c, http.StatusInternalServerError, upstream.Message)
		default:
			fail(c, http.StatusInternalServerError, "Failed to generate image: Unknown error")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"photo":     img.DataURI,
		"prompt":    img.Prompt,
		"timestamp": img.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) listPosts(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	resp := make([]PostResponse, len(posts))
	for i := range posts {
		resp[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

func (h *Handler) createPost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Prompt and photo are required")
		return
	}

	post, err := h.posts.Create(c.Request.Context(), req.Prompt, req.Photo, req.UserName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingPostFields),
			errors.Is(err, service.ErrInvalidPhoto):
			fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUpload):
			fail(c, http.StatusInternalServerError, "Failed to upload image. Please check your storage configuration.")
		default:
			fail(c, http.StatusInternalServerError, "Failed to create post")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": postToResponse(*post)})
}

// fail emits the uniform error envelope used across the API.
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func postToResponse(post domain.Post) PostResponse {
	return PostResponse{
		ID:        post.ID,
		UserName:  post.UserName,
		Prompt:    post.Prompt,
		Photo:     post.Photo,
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
		UpdatedAt: post.UpdatedAt.Format(time.RFC3339),
	}
}
