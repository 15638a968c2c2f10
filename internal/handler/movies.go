package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinebook/internal/service"
)

// MovieHandler serves the /api/movies catalog.
type MovieHandler struct {
	Catalog *service.CatalogService
}

func NewMovieHandler(cat *service.CatalogService) *MovieHandler {
	return &MovieHandler{Catalog: cat}
}

type movieReq struct {
	Title    string `json:"title"`
	Poster   string `json:"poster"`
	Language string `json:"language"`
	Genre    string `json:"genre"`
	TMDBID   flexID `json:"tmdbId"`
}

func (h *MovieHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c, dbTimeout)
	defer cancel()

	out, err := h.Catalog.ListMovies(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MovieHandler) Create(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := requestCtx(c, dbTimeout)
	defer cancel()

	m, err := h.Catalog.AddMovie(ctx, service.MovieInput{
		Title:    req.Title,
		Poster:   req.Poster,
		Language: req.Language,
		Genre:    req.Genre,
		TMDBID:   string(req.TMDBID),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Movie added", "movie": m})
}

func (h *MovieHandler) Delete(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	ctx, cancel := requestCtx(c, dbTimeout)
	defer cancel()

	if err := h.Catalog.DeleteMovie(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Movie deleted"})
}
