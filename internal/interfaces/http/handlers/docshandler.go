package handlers

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"quillform/internal/shared/config"
	"quillform/internal/shared/logger"
	"quillform/internal/shared/utils"
)

var docPagePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// DocsHandler renders the markdown documentation shipped alongside the
// service. Output is sanitized before it leaves the process.
type DocsHandler struct {
	dir       string
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
	logger    logger.Interface
}

// NewDocsHandler creates a new DocsHandler.
func NewDocsHandler(cfg config.DocsConfig, logger logger.Interface) *DocsHandler {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	return &DocsHandler{
		dir:       cfg.Dir,
		markdown:  md,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger,
	}
}

// List handles GET /api/docs
func (h *DocsHandler) List(c *gin.Context) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		h.logger.Errorw("failed to read docs directory", "dir", h.dir, "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Documentation unavailable")
		return
	}

	pages := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		pages = append(pages, strings.TrimSuffix(e.Name(), ".md"))
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"pages": pages})
}

// Page handles GET /api/docs/:page
func (h *DocsHandler) Page(c *gin.Context) {
	page := c.Param("page")
	if !docPagePattern.MatchString(page) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid page name")
		return
	}

	source, err := os.ReadFile(filepath.Join(h.dir, page+".md"))
	if err != nil {
		if os.IsNotExist(err) {
			utils.ErrorResponse(c, http.StatusNotFound, "Page not found")
			return
		}
		h.logger.Errorw("failed to read docs page", "page", page, "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Documentation unavailable")
		return
	}

	var buf bytes.Buffer
	if err := h.markdown.Convert(source, &buf); err != nil {
		h.logger.Errorw("failed to render docs page", "page", page, "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to render page")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", h.sanitizer.SanitizeBytes(buf.Bytes()))
}
