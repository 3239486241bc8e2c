package handler

import (
	"time"

	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/repository"
)

type agencyRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// userResponse never carries the password hash.
type userResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Phone     *string    `json:"phone"`
	Postcode  *string    `json:"postcode"`
	Address   *string    `json:"address"`
	Language  string     `json:"language"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"isActive"`
	AgencyID  *string    `json:"agencyId"`
	Agency    *agencyRef `json:"agency,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func toUser(u model.User) userResponse {
	out := userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Postcode:  u.Postcode,
		Address:   u.Address,
		Language:  string(u.Language),
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		AgencyID:  u.AgencyID,
		CreatedAt: u.CreatedAt,
	}
	if u.Agency != nil {
		out.Agency = &agencyRef{ID: u.Agency.ID, Name: u.Agency.Name, IsActive: u.Agency.IsActive}
	}
	return out
}

type categoryResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  *string `json:"description"`
	DisplayOrder int     `json:"order"`
}

func toCategory(c model.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description, DisplayOrder: c.DisplayOrder}
}

type serviceResponse struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Slug             string            `json:"slug"`
	Description      *string           `json:"description"`
	ShortDescription *string           `json:"shortDescription"`
	ImageURL         string            `json:"imageUrl"`
	DisplayOrder     int               `json:"order"`
	Category         *categoryResponse `json:"category,omitempty"`
}

func toService(s model.Service, imageURL string) serviceResponse {
	out := serviceResponse{
		ID:               s.ID,
		Name:             s.Name,
		Slug:             s.Slug,
		Description:      s.Description,
		ShortDescription: s.ShortDescription,
		ImageURL:         imageURL,
		DisplayOrder:     s.DisplayOrder,
	}
	if s.Category != nil {
		cat := toCategory(*s.Category)
		out.Category = &cat
	}
	return out
}

type bookingItemResponse struct {
	ID          string  `json:"id"`
	ServiceID   string  `json:"serviceId"`
	ServiceName string  `json:"serviceName,omitempty"`
	ServiceSlug string  `json:"serviceSlug,omitempty"`
	Category    string  `json:"category,omitempty"`
	Notes       *string `json:"notes"`
}

type bookingPhotoResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type bookingResponse struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"userId"`
	ExecutionDate *time.Time             `json:"executionDate"`
	Postcode      *string                `json:"postcode"`
	Address       *string                `json:"address"`
	Notes         *string                `json:"notes"`
	TotalItems    int                    `json:"totalItems"`
	Items         []bookingItemResponse  `json:"items"`
	Photos        []bookingPhotoResponse `json:"photos"`
	CreatedAt     time.Time              `json:"createdAt"`
}

func toBooking(b model.Booking) bookingResponse {
	out := bookingResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		ExecutionDate: b.ExecutionDate,
		Postcode:      b.Postcode,
		Address:       b.Address,
		Notes:         b.Notes,
		TotalItems:    b.TotalItems,
		Items:         make([]bookingItemResponse, 0, len(b.Items)),
		Photos:        make([]bookingPhotoResponse, 0, len(b.Photos)),
		CreatedAt:     b.CreatedAt,
	}
	for _, it := range b.Items {
		item := bookingItemResponse{ID: it.ID, ServiceID: it.ServiceID, Notes: it.Notes}
		if it.Service != nil {
			item.ServiceName = it.Service.Name
			item.ServiceSlug = it.Service.Slug
			if it.Service.Category != nil {
				item.Category = it.Service.Category.Name
			}
		}
		out.Items = append(out.Items, item)
	}
	for _, p := range b.Photos {
		out.Photos = append(out.Photos, bookingPhotoResponse{ID: p.ID, Filename: p.Filename, URL: p.URL})
	}
	return out
}

type agencyResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Phone     string         `json:"phone"`
	Email     string         `json:"email"`
	Postcode  string         `json:"postcode"`
	Address   string         `json:"address"`
	IsActive  bool           `json:"isActive"`
	UserCount *int64         `json:"userCount,omitempty"`
	Users     []userResponse `json:"users,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func toAgency(a model.Agency) agencyResponse {
	out := agencyResponse{
		ID:        a.ID,
		Name:      a.Name,
		Phone:     a.Phone,
		Email:     a.Email,
		Postcode:  a.Postcode,
		Address:   a.Address,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
	}
	for _, u := range a.Users {
		out.Users = append(out.Users, toUser(u))
	}
	return out
}

func toAgencySummary(s repository.AgencySummary) agencyResponse {
	out := toAgency(s.Agency)
	n := s.UserCount
	out.UserCount = &n
	return out
}
