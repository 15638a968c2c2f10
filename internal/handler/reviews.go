package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinebook/internal/middleware"
	"github.com/iliyamo/cinebook/internal/service"
)

// ReviewHandler serves /api/reviews.
type ReviewHandler struct {
	Reviews *service.ReviewService
}

func NewReviewHandler(r *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: r}
}

type reviewReq struct {
	MovieID flexID `json:"movieId"`
	Comment string `json:"comment"`
	Rating  *int   `json:"rating"`
}

func (h *ReviewHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c, dbTimeout)
	defer cancel()

	out, err := h.Reviews.ListReviews(ctx, c.Param("movieId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /api/reviews.  The author is the session email; a
// "user" field in the body is ignored.
func (h *ReviewHandler) Create(c echo.Context) error {
	cl := middleware.Claims(c)
	if cl == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := requestCtx(c, dbTimeout)
	defer cancel()

	rv, err := h.Reviews.AddReview(ctx, service.ReviewInput{
		MovieID: string(req.MovieID),
		Author:  cl.Email,
		Comment: req.Comment,
		Rating:  req.Rating,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Review added", "review": rv})
}
