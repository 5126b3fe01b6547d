package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/apierror"
	"github.com/Zachkp/portfolio/internal/crud"
	"github.com/Zachkp/portfolio/internal/objectstore"
)

// record is an admin-editable row with an image field.
type record[T any] interface {
	*T
	Normalize()
	Validate() error
}

// resource exposes one crud.Screen over HTTP. Writes accept JSON, or a
// multipart form with the JSON record in "payload" and the image in "image".
type resource[T any, P record[T]] struct {
	screen   *crud.Screen[T]
	uploader *objectstore.Uploader
	target   objectstore.Target
	image    func(*T) *string
	log      *zap.Logger
}

func (r *resource[T, P]) register(rg *gin.RouterGroup, updatable bool) {
	rg.GET("", r.list)
	rg.POST("", r.create)
	if updatable {
		rg.PUT("/:id", r.update)
	}
	rg.DELETE("/:id", r.delete)
}

func (r *resource[T, P]) list(c *gin.Context) {
	if err := r.screen.Load(c.Request.Context()); err != nil {
		apierror.Write(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"items": r.screen.Filter(c.Query("q")),
		"total": len(r.screen.Items()),
	})
}

func (r *resource[T, P]) create(c *gin.Context) {
	item, file, err := decodeRecord[T](c)
	if file != nil {
		defer file.Close()
	}
	if err != nil {
		apierror.Write(c, r.log, err)
		return
	}
	if err := r.prepare(c.Request.Context(), &item, file); err != nil {
		apierror.Write(c, r.log, err)
		return
	}

	created, err := r.screen.Create(c.Request.Context(), item)
	if err != nil {
		apierror.Write(c, r.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "item": created, "items": r.screen.Items()})
}

func (r *resource[T, P]) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, file, err := decodeRecord[T](c)
	if file != nil {
		defer file.Close()
	}
	if err != nil {
		apierror.Write(c, r.log, err)
		return
	}
	if err := r.prepare(c.Request.Context(), &item, file); err != nil {
		apierror.Write(c, r.log, err)
		return
	}

	updated, err := r.screen.Update(c.Request.Context(), id, item)
	if err != nil {
		apierror.Write(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": updated, "items": r.screen.Items()})
}

func (r *resource[T, P]) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := r.screen.Delete(c.Request.Context(), id, c.Query("confirm") == "true"); err != nil {
		apierror.Write(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": r.screen.Items()})
}

// prepare normalizes and validates item, then resolves its image field.
// An attached file replaces the URL the edit form echoes back. Validation
// treats the file as a filled image field so that bad input is rejected
// before anything is uploaded.
func (r *resource[T, P]) prepare(ctx context.Context, item *T, file io.Reader) error {
	P(item).Normalize()
	if file != nil {
		*r.image(item) = ""
	}

	candidate := *item
	if file != nil {
		*r.image(&candidate) = "upload"
	}
	if err := P(&candidate).Validate(); err != nil {
		return err
	}

	url, err := r.uploader.Resolve(ctx, r.target, *r.image(item), file)
	if err != nil {
		return err
	}
	*r.image(item) = url
	return nil
}

// decodeRecord reads a record from JSON or from a multipart form. The
// returned file is nil when no image was attached.
func decodeRecord[T any](c *gin.Context) (T, io.ReadCloser, error) {
	var item T
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		if err := c.ShouldBindJSON(&item); err != nil {
			return item, nil, crud.Invalid("invalid body")
		}
		return item, nil, nil
	}

	if payload := c.PostForm("payload"); payload != "" {
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return item, nil, crud.Invalid("invalid payload")
		}
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return item, nil, nil
	}
	if err != nil {
		return item, nil, crud.Invalid("invalid upload")
	}
	f, err := fh.Open()
	if err != nil {
		return item, nil, crud.Invalid("invalid upload")
	}
	return item, f, nil
}
