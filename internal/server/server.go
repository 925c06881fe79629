// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tubepost/internal/botcheck"
	"tubepost/internal/pipeline"
	"tubepost/internal/recovery"
	"tubepost/internal/storage"
	"tubepost/internal/transcript"
)

// generator and recoverer are the two pipeline entry points the server
// needs; tests substitute fakes.
type generator interface {
	Generate(ctx context.Context, url string) (*pipeline.Result, error)
}

type recoverer interface {
	Run(ctx context.Context, url string) (*recovery.Outcome, error)
}

// Server wires the HTTP handlers to the pipeline.
type Server struct {
	engine *gin.Engine
	gen    generator
	rec    recoverer
	posts  *storage.Store
	diag   func() gin.H
	log    zerolog.Logger
}

// New builds the server. diag returns the diagnostics payload; pass nil
// to disable the endpoint's tool checks.
func New(gen generator, rec recoverer, posts *storage.Store, diag func() gin.H, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine: gin.New(),
		gen:    gen,
		rec:    rec,
		posts:  posts,
		diag:   diag,
		log:    log,
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	api.POST("/generate", s.handleGenerate)
	api.POST("/recover", s.handleRecover)
	api.GET("/posts", s.handleListPosts)
	api.GET("/posts/:id", s.handleGetPost)
	api.PUT("/posts/:id", s.handleUpdatePost)
	api.DELETE("/posts/:id", s.handleDeletePost)
	api.GET("/diagnostics", s.handleDiagnostics)
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info().Str("addr", addr).Msg("http server listening")
	return s.engine.Run(addr)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

type urlRequest struct {
	URL string `json:"url" binding:"required"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	if transcript.ExtractVideoID(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not a recognizable YouTube video URL"})
		return
	}

	result, err := s.gen.Generate(c.Request.Context(), req.URL)
	if err != nil {
		s.respondGenerateError(c, req.URL, err)
		return
	}

	post := &storage.Post{
		Title:       result.Post.Title,
		Description: result.Post.Description,
		Content:     result.Post.Content,
		VideoURL:    req.URL,
	}
	if result.Info != nil {
		post.VideoTitle = result.Info.Title
		post.VideoChannel = result.Info.ChannelName()
		post.VideoDuration = result.Info.FormattedDuration()
	}
	if err := s.posts.Create(c.Request.Context(), post); err != nil {
		s.log.Error().Err(err).Msg("persist post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "post generated but could not be saved"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"post":              post,
		"transcript_source": result.TranscriptSource,
	})
}

func (s *Server) respondGenerateError(c *gin.Context, url string, err error) {
	var botErr *botcheck.BotDetectionError
	switch {
	case errors.As(err, &botErr):
		c.JSON(http.StatusForbidden, gin.H{
			"bot_detection":      true,
			"url":                url,
			"recovery_available": s.rec != nil,
			"message":            "YouTube requires verification. Run the recovery flow and retry.",
		})
	case errors.Is(err, pipeline.ErrRecoveryExhausted):
		c.JSON(http.StatusForbidden, gin.H{
			"bot_detection":      true,
			"url":                url,
			"recovery_available": false,
			"message":            "Verification did not stick. Try again later or refresh cookies manually.",
		})
	case errors.Is(err, recovery.ErrTimedOut):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"bot_detection": true,
			"url":           url,
			"message":       "YouTube requires verification and the challenge was not solved in time. Run `tubepost solve " + url + "` and retry.",
		})
	case errors.Is(err, recovery.ErrBrowserUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"bot_detection": true,
			"url":           url,
			"message":       "YouTube requires verification but no browser is available on this host. Run `tubepost solve` on a machine with Chrome, then `tubepost cookies import` here.",
		})
	case errors.Is(err, transcript.ErrNoTranscript):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no transcript available for this video"})
	case errors.Is(err, pipeline.ErrDownloadFailed), errors.Is(err, pipeline.ErrTranscriptionFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.log.Error().Err(err).Str("url", url).Msg("generate failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "blog generation failed"})
	}
}

func (s *Server) handleRecover(c *gin.Context) {
	if s.rec == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recovery flow is not configured on this deployment"})
		return
	}
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	outcome, err := s.rec.Run(c.Request.Context(), req.URL)
	switch {
	case errors.Is(err, recovery.ErrTimedOut):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "challenge was not solved in time", "outcome": outcome})
	case errors.Is(err, recovery.ErrBrowserUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no browser available; run `tubepost solve` on a machine with a display", "outcome": outcome})
	case err != nil:
		s.log.Error().Err(err).Msg("recovery failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"outcome": outcome})
	}
}

func (s *Server) handleListPosts(c *gin.Context) {
	posts, err := s.posts.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list posts failed"})
		return
	}
	if posts == nil {
		posts = []*storage.Post{}
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) handleGetPost(c *gin.Context) {
	post, err := s.posts.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get post failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

type updatePostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Category    string `json:"category"`
}

func (s *Server) handleUpdatePost(c *gin.Context) {
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	post, err := s.posts.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get post failed"})
		return
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Description != "" {
		post.Description = req.Description
	}
	if req.Content != "" {
		post.Content = req.Content
	}
	if req.Category != "" {
		post.Category = req.Category
	}

	if err := s.posts.Update(c.Request.Context(), post); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update post failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (s *Server) handleDeletePost(c *gin.Context) {
	err := s.posts.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete post failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDiagnostics(c *gin.Context) {
	payload := gin.H{}
	if s.diag != nil {
		payload = s.diag()
	}
	c.JSON(http.StatusOK, payload)
}
