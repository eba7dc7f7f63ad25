// Package api provides the REST API for forklab.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/forklab-edu/forklab/internal/api/handlers"
	"github.com/forklab-edu/forklab/internal/catalog"
	"github.com/forklab-edu/forklab/internal/core/session"
	"github.com/forklab-edu/forklab/internal/store"
	"github.com/forklab-edu/forklab/pkg/types"
)

// Router holds all API dependencies and routes.
type Router struct {
	engine   *gin.Engine
	manager  *session.Manager
	catalog  *catalog.Catalog
	progress *store.Store // may be nil when persistence is disabled

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// WebSocket clients
	wsClientsMu sync.RWMutex
	wsClients   map[*websocket.Conn]bool
}

// NewRouter creates a new API router.
func NewRouter(manager *session.Manager, cat *catalog.Catalog, progress *store.Store) *Router {
	r := &Router{
		engine:   gin.Default(),
		manager:  manager,
		catalog:  cat,
		progress: progress,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		wsClients: make(map[*websocket.Conn]bool),
	}

	r.setupRoutes()

	// Stream simulation log entries to connected clients
	go r.broadcastLogEntries()

	return r
}

// setupRoutes configures all API routes.
func (r *Router) setupRoutes() {
	// Health check
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := r.engine.Group("/api/v1")
	{
		// Content catalog
		scenarios := v1.Group("/scenarios")
		{
			scenarios.GET("", r.listScenarios)
			scenarios.GET("/:id", r.getScenario)
		}
		challenges := v1.Group("/challenges")
		{
			challenges.GET("", r.listChallenges)
			challenges.GET("/:id", r.getChallenge)
		}

		// Simulation sessions
		sessions := v1.Group("/sessions")
		{
			sessions.GET("", r.listSessions)
			sessions.POST("", r.createSession)
			sessions.GET("/:id", r.getSession)
			sessions.DELETE("/:id", r.deleteSession)
			sessions.POST("/:id/reset", r.resetSession)
			sessions.POST("/:id/fork", r.forkProcess)
			sessions.POST("/:id/exit", r.exitProcess)
			sessions.POST("/:id/wait", r.waitProcess)
			sessions.POST("/:id/step", r.stepSession)
			sessions.POST("/:id/run", r.runSession)
			sessions.POST("/:id/validate", r.validateSession)
			sessions.GET("/:id/snapshot", r.getSnapshot)
			sessions.GET("/:id/tree", r.getTree)
			sessions.GET("/:id/traversal", r.getTraversal)
			sessions.GET("/:id/log", r.getLog)
		}

		// Learner progress
		v1.GET("/progress", r.getProgress)
	}

	// WebSocket for real-time updates
	r.engine.GET("/ws", r.handleWebSocket)
}

// Handler returns the HTTP handler.
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Catalog handlers

func (r *Router) listScenarios(c *gin.Context) {
	h := handlers.NewCatalogHandler(r.catalog)
	h.ListScenarios(c)
}

func (r *Router) getScenario(c *gin.Context) {
	h := handlers.NewCatalogHandler(r.catalog)
	h.GetScenario(c)
}

func (r *Router) listChallenges(c *gin.Context) {
	h := handlers.NewCatalogHandler(r.catalog)
	h.ListChallenges(c)
}

func (r *Router) getChallenge(c *gin.Context) {
	h := handlers.NewCatalogHandler(r.catalog)
	h.GetChallenge(c)
}

// Session handlers

func (r *Router) listSessions(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.List(c)
}

func (r *Router) createSession(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Create(c)
}

func (r *Router) getSession(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Get(c)
}

func (r *Router) deleteSession(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Delete(c)
}

func (r *Router) resetSession(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Reset(c)
}

func (r *Router) forkProcess(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Fork(c)
}

func (r *Router) exitProcess(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Exit(c)
}

func (r *Router) waitProcess(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Wait(c)
}

func (r *Router) stepSession(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Step(c)
}

func (r *Router) runSession(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Run(c)
}

func (r *Router) validateSession(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Validate(c)
}

func (r *Router) getSnapshot(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Snapshot(c)
}

func (r *Router) getTree(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Tree(c)
}

func (r *Router) getTraversal(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Traversal(c)
}

func (r *Router) getLog(c *gin.Context) {
	h := handlers.NewSessionHandler(r.manager, r.catalog)
	h.Log(c)
}

// Progress handler

func (r *Router) getProgress(c *gin.Context) {
	h := handlers.NewProgressHandler(r.progress)
	h.GetProgress(c)
}

// WebSocket handler

func (r *Router) handleWebSocket(c *gin.Context) {
	conn, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// Register client
	r.wsClientsMu.Lock()
	r.wsClients[conn] = true
	r.wsClientsMu.Unlock()

	defer func() {
		r.wsClientsMu.Lock()
		delete(r.wsClients, conn)
		r.wsClientsMu.Unlock()
		conn.Close()
	}()

	// Handle incoming messages (e.g., request a session's current tree)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var req struct {
			Action    string `json:"action"`
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}

		switch req.Action {
		case "session_graph":
			graph, err := r.manager.Graph(req.SessionID)
			if err != nil {
				continue
			}
			msg := types.WebSocketMessage{
				Type:    "session_graph",
				Payload: graph,
			}
			data, _ := json.Marshal(msg)
			conn.WriteMessage(websocket.TextMessage, data)
		}
	}
}

// broadcastLogEntries streams simulation log entries to all WebSocket clients.
func (r *Router) broadcastLogEntries() {
	subID := "api_broadcaster_" + uuid.NewString()
	entryCh := r.manager.Subscribe(subID)
	defer r.manager.Unsubscribe(subID)

	for entry := range entryCh {
		msg := types.WebSocketMessage{
			Type:    "log_entry",
			Payload: entry,
		}
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}

		// Broadcast to all clients
		r.wsClientsMu.RLock()
		for conn := range r.wsClients {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				// Client will be removed when read fails
				continue
			}
		}
		r.wsClientsMu.RUnlock()
	}
}
