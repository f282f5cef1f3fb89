package api

import (
	"errors"
	"net/http"

	"github.com/sensiq/coldmail/internal"
	"github.com/sensiq/coldmail/internal/assets"
)

// AssetHandler serves the email images so previews and clients can load them.
type AssetHandler struct {
	images Images
}

func NewAssetHandler(images Images) *AssetHandler {
	return &AssetHandler{images: images}
}

func (h *AssetHandler) Routes(r internal.Router) {
	r.GET("/assets/{file}", h.serve)
}

func (h *AssetHandler) serve(c internal.Context) error {
	img, err := h.images.Open(c.Param("file"))
	if errors.Is(err, assets.ErrNotFound) || errors.Is(err, assets.ErrInvalidName) {
		return internal.ErrNotFound(msgFileNotFound, internal.WithError(err))
	}
	if err != nil {
		return err
	}

	c.SetHeader("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, img.ContentType, img.Data)
}
