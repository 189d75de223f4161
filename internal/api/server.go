// Package api exposes the packager over HTTP for headless use: a JSON build
// endpoint and a websocket streaming the same log lines the GUI shows.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"H2E/internal/config"
	"H2E/internal/crash"
	"H2E/internal/logging"
	"H2E/internal/packager"
	"H2E/internal/settings"
	"H2E/internal/version"
	websocket "H2E/internal/ws"
)

const defaultAddr = "127.0.0.1:8080"

// Server wires the gin router, the websocket manager, and the packager.
type Server struct {
	Addr string

	router       *gin.Engine
	wsManager    *websocket.Manager
	pkg          *packager.Packager
	settingsPath string
}

// NewServer builds a server around the given packager. settingsPath is where
// POST /api/settings persists changes.
func NewServer(pkg *packager.Packager, settingsPath string) *Server {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Sec-WebSocket-Protocol", "Sec-WebSocket-Version", "Sec-WebSocket-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s := &Server{
		Addr:         defaultAddr,
		router:       router,
		wsManager:    websocket.GetInstance(),
		pkg:          pkg,
		settingsPath: settingsPath,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/ws", s.handleWebSocket)
	s.router.POST("/api/build", s.handleBuild)
	s.router.POST("/api/build/cancel", s.handleCancel)
	s.router.GET("/api/build/status", s.handleStatus)
	s.router.GET("/api/defaults", s.handleDefaults)
	s.router.GET("/api/settings", s.handleGetSettings)
	s.router.POST("/api/settings", s.handleSaveSettings)
	s.router.GET("/api/version", s.handleVersion)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := websocket.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.L().WithError(err).Error("Failed to upgrade websocket connection")
		return
	}

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	s.wsManager.AddClient(conn)
	defer s.wsManager.RemoveClient(conn)

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				logging.L().WithError(err).Warn("Unexpected websocket close")
			}
			return
		}

		if messageType == websocket.TextMessage && string(message) == "ping" {
			if err := conn.WriteControl(websocket.PongMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}

func (s *Server) handleBuild(c *gin.Context) {
	var cfg config.BuildConfig
	if err := c.BindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.pkg.Running() {
		c.JSON(http.StatusConflict, gin.H{"error": packager.ErrBuildRunning.Error()})
		return
	}

	reporter := crash.NewReporter("")
	extra := map[string]string{
		"sourcePath": cfg.SourcePath,
		"outputDir":  cfg.OutputDir,
		"clientIP":   c.ClientIP(),
	}

	go func() {
		defer reporter.RecoverWithCrashReport("Build", extra)

		sink := func(line string) {
			s.wsManager.BroadcastMessage("output", line)
		}
		// Deliberately not the request context: the build outlives the
		// HTTP exchange and is stopped via /api/build/cancel.
		res, err := s.pkg.Build(context.Background(), cfg, sink)
		switch {
		case err != nil:
			logging.L().WithError(err).Error("Build failed before the toolchain ran")
			s.wsManager.BroadcastMessage("error", err.Error())
		case res.ExitCode != 0:
			s.wsManager.BroadcastMessage("error", fmt.Sprintf("Build failed with exit code %d", res.ExitCode))
		default:
			s.wsManager.BroadcastMessage("success",
				fmt.Sprintf("Build finished in %.2fs: %s", res.Elapsed.Seconds(), res.OutputPath))
		}
	}()

	c.JSON(http.StatusOK, gin.H{"message": "Build started"})
}

func (s *Server) handleCancel(c *gin.Context) {
	s.pkg.Cancel()
	c.JSON(http.StatusOK, gin.H{"message": "Cancel requested"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"running": s.pkg.Running()})
}

func (s *Server) handleDefaults(c *gin.Context) {
	cfg := config.Default()
	if st, err := settings.Load(s.settingsPath); err == nil {
		st.ApplyFormDefaults(&cfg)
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleGetSettings(c *gin.Context) {
	st, err := settings.Load(s.settingsPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) handleSaveSettings(c *gin.Context) {
	var st settings.Settings
	if err := c.BindJSON(&st); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := settings.Save(s.settingsPath, st); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// The running packager picks the new tool paths up on its next build.
	s.pkg.Tool = st.PackagerTool
	s.pkg.RsrcTool = st.RsrcTool
	s.pkg.TargetOS = st.TargetOS
	s.pkg.TargetArch = st.TargetArch

	c.JSON(http.StatusOK, gin.H{"message": "Settings saved"})
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": version.Version})
}

// Run blocks serving the API on s.Addr.
func (s *Server) Run() error {
	logging.L().Infof("API listening on %s", s.Addr)
	return s.router.Run(s.Addr)
}
