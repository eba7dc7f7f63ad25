package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forklab-edu/forklab/internal/catalog"
	"github.com/forklab-edu/forklab/internal/store"
	"github.com/forklab-edu/forklab/pkg/types"
)

// CatalogHandler serves scenario and challenge content.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// ListScenarios returns all scenarios.
func (h *CatalogHandler) ListScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Scenarios())
}

// GetScenario returns one scenario by ID.
func (h *CatalogHandler) GetScenario(c *gin.Context) {
	sc, err := h.catalog.Scenario(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sc)
}

// ListChallenges returns all challenges.
func (h *CatalogHandler) ListChallenges(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Challenges())
}

// GetChallenge returns one challenge by ID.
func (h *CatalogHandler) GetChallenge(c *gin.Context) {
	ch, err := h.catalog.Challenge(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ch)
}

// ProgressHandler serves persisted challenge progress.
type ProgressHandler struct {
	store *store.Store
}

// NewProgressHandler creates a new ProgressHandler. store may be nil when
// persistence is disabled.
func NewProgressHandler(st *store.Store) *ProgressHandler {
	return &ProgressHandler{store: st}
}

// GetProgress returns per-challenge progress plus aggregate stats.
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{
			"challenges": []*types.ChallengeProgress{},
			"stats":      &types.ProgressStats{},
		})
		return
	}

	progress, err := h.store.GetProgress()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	stats, err := h.store.GetProgressStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if progress == nil {
		progress = []*types.ChallengeProgress{}
	}

	c.JSON(http.StatusOK, gin.H{"challenges": progress, "stats": stats})
}
