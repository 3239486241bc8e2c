package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cleaning-booking/internal/service"
)

type AgencyHandler struct {
	Agencies *service.AgencyService
	Timeout  time.Duration
}

func NewAgencyHandler(agencies *service.AgencyService, timeout time.Duration) *AgencyHandler {
	return &AgencyHandler{Agencies: agencies, Timeout: timeout}
}

type agencyReq struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Phone    string `json:"phone" validate:"required,max=32"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Postcode string `json:"postcode" validate:"required,max=16"`
	Address  string `json:"address" validate:"required,max=255"`
}

type agencyUpdateReq struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Postcode *string `json:"postcode" validate:"omitempty,max=16"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
}

type assignUserReq struct {
	UserID   string `json:"userId" validate:"required"`
	AgencyID string `json:"agencyId" validate:"required"`
}

// List returns active agencies, or all of them with ?includeInactive=true.
func (h *AgencyHandler) List(c echo.Context) error {
	includeInactive, _ := strconv.ParseBool(c.QueryParam("includeInactive"))
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	list, err := h.Agencies.List(ctx, includeInactive)
	if err != nil {
		return err
	}
	out := make([]agencyResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAgencySummary(a))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AgencyHandler) Get(c echo.Context) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	a, err := h.Agencies.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAgency(a))
}

func (h *AgencyHandler) Create(c echo.Context) error {
	var req agencyReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	a, err := h.Agencies.Create(ctx, service.AgencyInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Postcode: req.Postcode,
		Address:  req.Address,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAgency(a))
}

func (h *AgencyHandler) Update(c echo.Context) error {
	var req agencyUpdateReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	a, err := h.Agencies.Update(ctx, c.Param("id"), service.AgencyUpdate{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Postcode: req.Postcode,
		Address:  req.Address,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAgency(a))
}

func (h *AgencyHandler) setActive(c echo.Context, active bool) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	a, err := h.Agencies.SetActive(ctx, c.Param("id"), active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAgency(a))
}

func (h *AgencyHandler) Deactivate(c echo.Context) error { return h.setActive(c, false) }

func (h *AgencyHandler) Reactivate(c echo.Context) error { return h.setActive(c, true) }

func (h *AgencyHandler) AssignUser(c echo.Context) error {
	var req assignUserReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	u, err := h.Agencies.AssignUser(ctx, req.UserID, req.AgencyID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUser(u))
}

func (h *AgencyHandler) RemoveUser(c echo.Context) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	u, err := h.Agencies.RemoveUser(ctx, c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUser(u))
}
