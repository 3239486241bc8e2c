package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cleaning-booking/internal/service"
)

const photosField = "photos"

type BookingHandler struct {
	Bookings      *service.BookingService
	Timeout       time.Duration
	UploadTimeout time.Duration
}

func NewBookingHandler(bookings *service.BookingService, timeout, uploadTimeout time.Duration) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Timeout: timeout, UploadTimeout: uploadTimeout}
}

type bookingItemReq struct {
	ServiceID string  `json:"serviceId"`
	Notes     *string `json:"notes"`
}

type createBookingReq struct {
	Items         []bookingItemReq `json:"items"`
	ExecutionDate string           `json:"executionDate"`
	Postcode      *string          `json:"postcode"`
	Address       *string          `json:"address"`
	Notes         *string          `json:"notes"`
}

var indexedItem = regexp.MustCompile(`^items\[(\d+)\]\[(serviceId|notes)\]$`)

// parseItems accepts items either as a JSON array in the "items" field or
// as indexed fields like items[0][serviceId].
func parseItems(values map[string][]string) ([]bookingItemReq, error) {
	if raw := strings.TrimSpace(first(values, "items")); raw != "" {
		var items []bookingItemReq
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("%w: items must be a JSON array", service.ErrValidation)
		}
		return items, nil
	}

	byIndex := map[int]*bookingItemReq{}
	for key, vals := range values {
		m := indexedItem.FindStringSubmatch(key)
		if m == nil || len(vals) == 0 {
			continue
		}
		i, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		it := byIndex[i]
		if it == nil {
			it = &bookingItemReq{}
			byIndex[i] = it
		}
		if m[2] == "serviceId" {
			it.ServiceID = vals[0]
		} else {
			notes := vals[0]
			it.Notes = &notes
		}
	}
	idx := make([]int, 0, len(byIndex))
	for i := range byIndex {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	items := make([]bookingItemReq, 0, len(idx))
	for _, i := range idx {
		items = append(items, *byIndex[i])
	}
	return items, nil
}

func first(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func optional(values map[string][]string, key string) *string {
	v := strings.TrimSpace(first(values, key))
	if v == "" {
		return nil
	}
	return &v
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: executionDate %q is not a valid date", service.ErrValidation, s)
}

func toPhotos(files []*multipart.FileHeader) []service.Photo {
	out := make([]service.Photo, 0, len(files))
	for _, fh := range files {
		out = append(out, service.Photo{
			Filename: fh.Filename,
			Size:     fh.Size,
			Open:     func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return out
}

// readCreate builds the booking input from a multipart form or a JSON body.
func readCreate(c echo.Context) (createBookingReq, []service.Photo, error) {
	var req createBookingReq
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		if err := c.Bind(&req); err != nil {
			return req, nil, fmt.Errorf("%w: invalid request body", service.ErrValidation)
		}
		return req, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return req, nil, fmt.Errorf("%w: invalid multipart form", service.ErrValidation)
	}
	req.Items, err = parseItems(form.Value)
	if err != nil {
		return req, nil, err
	}
	req.ExecutionDate = first(form.Value, "executionDate")
	req.Postcode = optional(form.Value, "postcode")
	req.Address = optional(form.Value, "address")
	req.Notes = optional(form.Value, "notes")
	return req, toPhotos(form.File[photosField]), nil
}

type createBookingResp struct {
	Message     string          `json:"message"`
	Booking     bookingResponse `json:"booking"`
	PhotoErrors []string        `json:"photoErrors,omitempty"`
}

// Create accepts a booking with up to the configured number of photos.
// Photos that could not be stored are listed in photoErrors; the booking
// itself is still created.
func (h *BookingHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	req, photos, err := readCreate(c)
	if err != nil {
		return err
	}
	when, err := parseDate(req.ExecutionDate)
	if err != nil {
		return err
	}
	in := service.CreateBookingInput{
		UserID:        p.UserID,
		ExecutionDate: when,
		Postcode:      req.Postcode,
		Address:       req.Address,
		Notes:         req.Notes,
		Photos:        photos,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, service.BookingItemInput{ServiceID: it.ServiceID, Notes: it.Notes})
	}

	ctx, cancel := requestContext(c, h.UploadTimeout)
	defer cancel()
	res, err := h.Bookings.Create(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createBookingResp{
		Message:     "booking created",
		Booking:     toBooking(res.Booking),
		PhotoErrors: res.PhotoErrors,
	})
}

func (h *BookingHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	bookings, err := h.Bookings.List(ctx, p.UserID)
	if err != nil {
		return err
	}
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBooking(b))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	b, err := h.Bookings.Get(ctx, p.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBooking(b))
}
