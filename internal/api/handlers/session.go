package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forklab-edu/forklab/internal/catalog"
	"github.com/forklab-edu/forklab/internal/core/session"
	"github.com/forklab-edu/forklab/pkg/types"
)

// SessionHandler handles simulation session API requests.
type SessionHandler struct {
	manager *session.Manager
	catalog *catalog.Catalog
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(manager *session.Manager, cat *catalog.Catalog) *SessionHandler {
	return &SessionHandler{manager: manager, catalog: cat}
}

// Create starts a new session. Sandbox sessions need no content reference;
// scenario/challenge sessions are bound to a catalog entry.
func (h *SessionHandler) Create(c *gin.Context) {
	var req struct {
		Mode        session.Mode `json:"mode"`
		ScenarioID  string       `json:"scenario_id"`
		ChallengeID string       `json:"challenge_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		info session.Info
		err  error
	)
	switch req.Mode {
	case session.ModeSandbox, "":
		info, err = h.manager.CreateSandbox()
	case session.ModeScenario:
		var sc *types.Scenario
		if sc, err = h.catalog.Scenario(req.ScenarioID); err == nil {
			info, err = h.manager.CreateScenario(sc)
		}
	case session.ModeChallenge:
		var ch *types.Challenge
		if ch, err = h.catalog.Challenge(req.ChallengeID); err == nil {
			info, err = h.manager.CreateChallenge(ch)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown session mode"})
		return
	}
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, info)
}

// List returns all live sessions.
func (h *SessionHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.List())
}

// Get returns one session summary.
func (h *SessionHandler) Get(c *gin.Context) {
	info, err := h.manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// Delete discards a session.
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.manager.Close(c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session closed"})
}

// Reset replaces the session's tree with a fresh one.
func (h *SessionHandler) Reset(c *gin.Context) {
	info, err := h.manager.Reset(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// Fork forks a child in a sandbox or challenge session.
func (h *SessionHandler) Fork(c *gin.Context) {
	var req struct {
		ParentPID int `json:"parent_pid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.manager.Fork(c.Param("id"), req.ParentPID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	h.respondGraph(c)
}

// Exit exits a process in a sandbox or challenge session.
func (h *SessionHandler) Exit(c *gin.Context) {
	var req struct {
		PID int `json:"pid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.manager.Exit(c.Param("id"), req.PID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	h.respondGraph(c)
}

// Wait reaps a zombie child (or blocks the parent) in a sandbox or
// challenge session.
func (h *SessionHandler) Wait(c *gin.Context) {
	var req struct {
		ParentPID int `json:"parent_pid"`
		TargetPID int `json:"target_pid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.manager.Wait(c.Param("id"), req.ParentPID, req.TargetPID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	h.respondGraph(c)
}

// Step advances a scenario session by one script step.
func (h *SessionHandler) Step(c *gin.Context) {
	info, err := h.manager.Step(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// Run replays a scenario session to completion.
func (h *SessionHandler) Run(c *gin.Context) {
	info, err := h.manager.Run(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// Snapshot returns the raw node set of the session's tree.
func (h *SessionHandler) Snapshot(c *gin.Context) {
	snap, err := h.manager.Snapshot(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Tree returns render-ready graph data for the session's tree.
func (h *SessionHandler) Tree(c *gin.Context) {
	graph, err := h.manager.Graph(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, graph)
}

// Traversal computes a visitation order over the session's current tree.
func (h *SessionHandler) Traversal(c *gin.Context) {
	kind := types.TraversalType(c.DefaultQuery("type", string(types.TraversalPreorder)))

	steps, err := h.manager.Traverse(c.Param("id"), kind)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": kind, "steps": steps})
}

// Log returns the session's simulation log.
func (h *SessionHandler) Log(c *gin.Context) {
	entries, err := h.manager.Log(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Validate checks a challenge session against its expected shape.
func (h *SessionHandler) Validate(c *gin.Context) {
	result, err := h.manager.Validate(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) respondGraph(c *gin.Context) {
	graph, err := h.manager.Graph(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, graph)
}
