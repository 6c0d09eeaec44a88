package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/shortlink"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ShortLinkHandler hands out and resolves short recipe links.
type ShortLinkHandler struct {
	recipes   service.IRecipeService
	encoder   *shortlink.Encoder
	publicURL string
}

// NewShortLinkHandler builds links against publicURL, or against the request
// host when publicURL is empty.
func NewShortLinkHandler(recipes service.IRecipeService, encoder *shortlink.Encoder, publicURL string) *ShortLinkHandler {
	return &ShortLinkHandler{
		recipes:   recipes,
		encoder:   encoder,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// RegisterRoutes mounts get-link under the API group.
func (h *ShortLinkHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/recipes/:id/get-link", h.GetLink)
}

// RegisterRedirect mounts the public /s/:token redirect.
func (h *ShortLinkHandler) RegisterRedirect(router gin.IRoutes) {
	router.GET("/s/:token", h.Redirect)
}

func (h *ShortLinkHandler) GetLink(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := h.encoder.Encode(recipe.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ShortLinkResponse{ShortLink: h.base(c) + "/s/" + token})
}

func (h *ShortLinkHandler) Redirect(c *gin.Context) {
	id, err := h.encoder.Decode(c.Param("token"))
	if err != nil {
		respondError(c, service.ErrNotFound)
		return
	}
	if _, err := h.recipes.Get(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/recipes/%d", id))
}

func (h *ShortLinkHandler) base(c *gin.Context) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	u := requestURL(c)
	return u.Scheme + "://" + u.Host
}
