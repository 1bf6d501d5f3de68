package delivery

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/workitem/domain"
	"triage-backend/internal/workitem/usecase"
)

// WorkItemHandler exposes the work item listing, mutation and sync endpoints.
type WorkItemHandler struct {
	items usecase.WorkItemUsecase
	sync  usecase.SyncUsecase
}

func NewWorkItemHandler(items usecase.WorkItemUsecase, syncUC usecase.SyncUsecase) *WorkItemHandler {
	return &WorkItemHandler{items: items, sync: syncUC}
}

// List handles GET /api/items. Every filter is optional and independent.
func (h *WorkItemHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	q := domain.ListQuery{
		Limit:  parseIntDefault(c.Query("limit"), 20),
		Offset: parseIntDefault(c.Query("offset"), 0),
		Search: c.Query("search"),
	}
	if v := c.Query("classification"); v != "" {
		q.Classification = &v
	}
	if v := c.Query("completed"); v != "" {
		completed := v == "true"
		q.IsCompleted = &completed
	}
	// Date params are boundary-validated: a malformed value is rejected, not
	// silently widened to an unfiltered listing.
	if v := c.Query("start"); v != "" {
		t, ok := parseTimeParam(v)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date: " + v})
			return
		}
		q.Start = &t
	}
	if v := c.Query("end"); v != "" {
		t, ok := parseTimeParam(v)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date: " + v})
			return
		}
		q.End = &t
	}

	items, err := h.items.List(userID, q)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be before end"})
			return
		}
		log.Printf("[Handler] List failed for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list work items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// Sync handles POST /api/sync. An unparsable date falls back to an
// unfiltered fetch instead of rejecting the request.
func (h *WorkItemHandler) Sync(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		Source string `json:"source" binding:"required"`
		Date   string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source is required"})
		return
	}

	var targetDay *time.Time
	if req.Date != "" {
		if t, ok := parseTimeParam(req.Date); ok {
			targetDay = &t
		} else {
			log.Printf("[Handler] Ignoring unparsable sync date %q for user %s", req.Date, userID)
		}
	}

	result, err := h.sync.Sync(c.Request.Context(), userID, domain.SourceType(req.Source), targetDay)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownSource) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source: " + req.Source})
			return
		}
		if errors.Is(err, domain.ErrCredentialExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "source credential expired, reconnect the account"})
			return
		}
		log.Printf("[Handler] Sync failed for user %s source %s: %v", userID, req.Source, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed", "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Complete handles POST /api/items/:id/complete.
func (h *WorkItemHandler) Complete(c *gin.Context) {
	h.mutate(c, func(userID, id string) (*domain.WorkItem, error) {
		return h.items.Complete(userID, id)
	})
}

// Snooze handles POST /api/items/:id/snooze.
func (h *WorkItemHandler) Snooze(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		Until time.Time `json:"until" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "until is required"})
		return
	}

	item, err := h.items.Snooze(userID, c.Param("id"), req.Until)
	if err != nil {
		h.writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Unsnooze handles POST /api/items/:id/unsnooze.
func (h *WorkItemHandler) Unsnooze(c *gin.Context) {
	h.mutate(c, func(userID, id string) (*domain.WorkItem, error) {
		return h.items.Unsnooze(userID, id)
	})
}

// Delete handles DELETE /api/items/:id.
func (h *WorkItemHandler) Delete(c *gin.Context) {
	userID := c.GetString("userID")
	if err := h.items.Delete(userID, c.Param("id")); err != nil {
		h.writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *WorkItemHandler) mutate(c *gin.Context, op func(userID, id string) (*domain.WorkItem, error)) {
	item, err := op(c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *WorkItemHandler) writeMutationError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "work item not found"})
		return
	}
	log.Printf("[Handler] Mutation failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
}

func parseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// parseTimeParam accepts RFC3339 or a bare calendar date.
func parseTimeParam(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
