// Package server exposes the workflow over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/logging"
)

// WelcomeMessage is served at the liveness route.
const WelcomeMessage = "Welcome to the Agent Workflow API"

// Workflow is the conversation service behind the routes.
type Workflow interface {
	Chat(ctx context.Context, message string) (string, error)
	Reset(ctx context.Context) (string, error)
	ContextsJSON() (string, error)
	Load(ctx context.Context, id string) ([]string, error)
}

// Options configures a Server.
type Options struct {
	// BasePath mounts the routes a second time under a prefix. The routes
	// are always available at the root as well.
	BasePath string
	// AllowOrigins restricts CORS. Empty allows every origin.
	AllowOrigins    []string
	ShutdownTimeout time.Duration
	Logger          logging.Logger
}

// Server is the HTTP surface.
type Server struct {
	workflow Workflow
	engine   *gin.Engine
	opts     Options
	logger   logging.Logger
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// New builds the router.
func New(wf Workflow, optFns ...func(o *Options)) *Server {
	opts := Options{BasePath: "/api", ShutdownTimeout: 10 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		workflow: wf,
		opts:     opts,
		logger:   logging.OrNoOp(opts.Logger),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	corsCfg := cors.DefaultConfig()
	if len(opts.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.AllowOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	s.routes(&r.RouterGroup)
	if opts.BasePath != "" && opts.BasePath != "/" {
		s.routes(r.Group(opts.BasePath))
	}

	s.engine = r

	return s
}

func (s *Server) routes(g *gin.RouterGroup) {
	g.GET("/", s.handleRoot)
	g.POST("/chat", s.handleChat)
	g.POST("/reset", s.handleReset)
	g.GET("/get-contexts", s.handleContexts)
	g.POST("/load-context", s.handleLoadContext)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.start", "addr", addr, "base_path", s.opts.BasePath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	s.logger.Info("server.shutdown")

	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": WelcomeMessage})
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusUnprocessableEntity, "Invalid request: "+err.Error(), err)
		return
	}

	resp, err := s.workflow.Chat(c.Request.Context(), req.Message)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "Error processing request: "+err.Error(), err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Response: resp})
}

func (s *Server) handleReset(c *gin.Context) {
	msg, err := s.workflow.Reset(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "Error resetting workflow: "+err.Error(), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (s *Server) handleContexts(c *gin.Context) {
	contexts, err := s.workflow.ContextsJSON()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "Error retrieving contexts: "+err.Error(), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contexts": contexts})
}

func (s *Server) handleLoadContext(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		s.fail(c, http.StatusUnprocessableEntity, "Invalid request: id is required", nil)
		return
	}

	history, err := s.workflow.Load(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.fail(c, http.StatusNotFound, "Context not found.", err)
			return
		}
		s.fail(c, http.StatusInternalServerError, "Error loading context: "+err.Error(), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat_history": history})
}

func (s *Server) fail(c *gin.Context, status int, detail string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("server.request.failed", "path", c.FullPath(), "status", status, "error", err)
	}

	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug("server.request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
