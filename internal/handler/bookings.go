package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinebook/internal/middleware"
	"github.com/iliyamo/cinebook/internal/service"
)

// BookingHandler serves /api/bookings and /api/me/bookings.
type BookingHandler struct {
	Bookings *service.BookingService
}

func NewBookingHandler(b *service.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: b}
}

type bookingReq struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Seats      int    `json:"seats"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	MovieID    flexID `json:"movieId"`
	MovieTitle string `json:"movieTitle"`
}

// Create handles POST /api/bookings.  The metadata lookup for unseen movies
// may hit the external catalog, so the deadline is longer than dbTimeout.
func (h *BookingHandler) Create(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := requestCtx(c, 15*time.Second)
	defer cancel()

	res, err := h.Bookings.CreateBooking(ctx, service.BookingInput{
		Name:       req.Name,
		Email:      req.Email,
		Seats:      req.Seats,
		Date:       req.Date,
		Time:       req.Time,
		MovieID:    string(req.MovieID),
		MovieTitle: req.MovieTitle,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Booking successful", "booking": res.Booking})
}

// List handles GET /api/bookings (admin only).
func (h *BookingHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c, dbTimeout)
	defer cancel()

	out, err := h.Bookings.ListBookings(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Mine handles GET /api/me/bookings.
func (h *BookingHandler) Mine(c echo.Context) error {
	cl := middleware.Claims(c)
	if cl == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	uid, err := cl.UserID()
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := requestCtx(c, dbTimeout)
	defer cancel()

	out, err := h.Bookings.ListUserBookings(ctx, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
