package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/apierror"
	"github.com/Zachkp/portfolio/internal/objectstore"
	"github.com/Zachkp/portfolio/internal/portfolio"
)

var photoTarget = objectstore.Target{Bucket: portfolio.BucketProfileImages, Policy: objectstore.AnyImage}

// getProfile returns the stored row; exists is false until the first save.
func (h *Handler) getProfile(c *gin.Context) {
	p, found, err := h.profiles.Get(c.Request.Context())
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": p, "exists": found})
}

// saveProfile upserts the profile. A multipart body may carry a new photo
// in "image" next to the JSON "payload".
func (h *Handler) saveProfile(c *gin.Context) {
	p, file, err := decodeRecord[portfolio.Profile](c)
	if file != nil {
		defer file.Close()
	}
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}

	ctx := c.Request.Context()
	// The form echoes the current photo URL; an attached file replaces it.
	if file != nil {
		p.PhotoURL = ""
	}
	p.PhotoURL, err = h.uploader.Resolve(ctx, photoTarget, p.PhotoURL, file)
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	p.CVLink = strings.TrimSpace(p.CVLink)

	saved, err := h.profiles.Save(ctx, p)
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": saved})
}

// uploadPhoto stores a new profile photo and saves its URL on the profile.
func (h *Handler) uploadPhoto(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			apierror.BadRequest(c, "image file is required")
			return
		}
		apierror.BadRequest(c, "invalid upload")
		return
	}
	f, err := fh.Open()
	if err != nil {
		apierror.BadRequest(c, "invalid upload")
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	url, err := h.uploader.Upload(ctx, photoTarget, f)
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}

	p, _, err := h.profiles.Get(ctx)
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	p.PhotoURL = url
	saved, err := h.profiles.Save(ctx, p)
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "url": url, "profile": saved})
}
