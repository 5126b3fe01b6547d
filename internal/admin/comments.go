package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/apierror"
	"github.com/Zachkp/portfolio/internal/portfolio"
)

// Comment filters on the moderation screen.
const (
	filterAll      = "all"
	filterPinned   = "pinned"
	filterUnpinned = "unpinned"
)

type commentCounts struct {
	Total    int `json:"total"`
	Pinned   int `json:"pinned"`
	Unpinned int `json:"unpinned"`
}

func countComments(all []portfolio.Comment) commentCounts {
	n := commentCounts{Total: len(all)}
	for _, cm := range all {
		if cm.IsPinned {
			n.Pinned++
		}
	}
	n.Unpinned = n.Total - n.Pinned
	return n
}

func (h *Handler) listComments(c *gin.Context) {
	filter := c.DefaultQuery("filter", filterAll)
	switch filter {
	case filterAll, filterPinned, filterUnpinned:
	default:
		apierror.BadRequest(c, "filter must be all, pinned or unpinned")
		return
	}

	if err := h.comments.Load(c.Request.Context()); err != nil {
		apierror.Write(c, h.log, err)
		return
	}

	items := make([]portfolio.Comment, 0)
	for _, cm := range h.comments.Filter(c.Query("q")) {
		if filter == filterAll || (filter == filterPinned) == cm.IsPinned {
			items = append(items, cm)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"comments": items,
		"counts":   countComments(h.comments.Items()),
	})
}

// togglePin flips the pinned flag of one comment.
func (h *Handler) togglePin(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	cm, err := h.commentRepo.Get(ctx, id)
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	cm.IsPinned = !cm.IsPinned

	updated, err := h.comments.Update(ctx, id, cm)
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "comment": updated, "counts": countComments(h.comments.Items())})
}

func (h *Handler) deleteComment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), id, c.Query("confirm") == "true"); err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "counts": countComments(h.comments.Items())})
}
