// Package api serves the localhost diagnostics endpoint: a live view into
// the session's sync state for debugging, not a product surface.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Amaan007S/piq-sync/internal/store"
	syncpkg "github.com/Amaan007S/piq-sync/internal/sync"
)

type Handler struct {
	session *syncpkg.Session
	st      store.Store
}

func NewRouter(session *syncpkg.Session, st store.Store) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{session: session, st: st}
	router.GET("/healthz", h.Healthz)
	router.GET("/status", h.Status)
	router.GET("/record", h.Record)

	return router
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports the identity state machine and a snapshot of every slice.
func (h *Handler) Status(c *gin.Context) {
	provider := h.session.Provider

	resp := gin.H{
		"authStatus":   provider.Status(),
		"phase":        h.session.Phase(),
		"gameStats":    h.session.Streak.Snapshot(),
		"powerUps":     h.session.PowerUps.Snapshot(),
		"wallet":       h.session.Wallet.Snapshot(),
		"transactions": len(h.session.History.Snapshot()),
	}
	if user := provider.User(); user != nil {
		resp["username"] = user.Username
	}
	if err := provider.Err(); err != nil {
		resp["authError"] = err.Error()
	}
	if pub := h.session.StatsPublisher(); pub != nil {
		resp["lastPublished"] = pub.LastSent()
	}

	c.JSON(http.StatusOK, resp)
}

// Record dumps the remote record as stored.
func (h *Handler) Record(c *gin.Context) {
	user := h.session.Provider.User()
	if user == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.st.Get(ctx, user.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rec)
}
