package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinebook/internal/tmdb"
)

// CatalogAPI is the part of *tmdb.Client the proxy uses.
type CatalogAPI interface {
	Search(ctx context.Context, q string, page int) (json.RawMessage, error)
	Popular(ctx context.Context, page int) (json.RawMessage, error)
	Details(ctx context.Context, id string) (*tmdb.MovieDetails, error)
	Credits(ctx context.Context, id string) (json.RawMessage, error)
	Videos(ctx context.Context, id string) (json.RawMessage, error)
}

// TMDBHandler proxies the external catalog so the API key never reaches
// the browser.
type TMDBHandler struct {
	API CatalogAPI
}

func NewTMDBHandler(api CatalogAPI) *TMDBHandler {
	return &TMDBHandler{API: api}
}

func pageParam(c echo.Context) int {
	p, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || p < 1 {
		return 1
	}
	if p > 500 { // upstream rejects pages beyond 500
		return 500
	}
	return p
}

func (h *TMDBHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("query"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query is required"})
	}
	raw, err := h.API.Search(c.Request().Context(), q, pageParam(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

func (h *TMDBHandler) Popular(c echo.Context) error {
	raw, err := h.API.Popular(c.Request().Context(), pageParam(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

func (h *TMDBHandler) Details(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	d, err := h.API.Details(c.Request().Context(), strconv.FormatUint(id, 10))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, d.Raw)
}

func (h *TMDBHandler) Credits(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	raw, err := h.API.Credits(c.Request().Context(), strconv.FormatUint(id, 10))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

func (h *TMDBHandler) Videos(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	raw, err := h.API.Videos(c.Request().Context(), strconv.FormatUint(id, 10))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}
