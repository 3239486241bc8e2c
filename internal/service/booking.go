package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/mail"
	"github.com/iliyamo/cleaning-booking/internal/metrics"
	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/repository"
	"github.com/iliyamo/cleaning-booking/internal/storage"
)

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Photo is one uploaded file as received from the client.
type Photo struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

type BookingItemInput struct {
	ServiceID string
	Notes     *string
}

type CreateBookingInput struct {
	UserID        string
	Items         []BookingItemInput
	ExecutionDate *time.Time
	Postcode      *string
	Address       *string
	Notes         *string
	Photos        []Photo
}

// BookingResult is the created booking and any photos that could not be
// stored. The booking exists even when PhotoErrors is not empty.
type BookingResult struct {
	Booking     model.Booking
	PhotoErrors []string
}

type BookingService struct {
	db       *gorm.DB
	bookings *repository.BookingRepo
	catalog  *repository.CatalogRepo
	store    storage.Uploader
	notify   *notifier
	cfg      config.StorageConfig
	notifyTo string
	log      *zap.Logger
	now      func() time.Time
}

func NewBookingService(db *gorm.DB, store storage.Uploader, sender mail.Sender, cfg config.Config, log *zap.Logger) *BookingService {
	return &BookingService{
		db:       db,
		bookings: repository.NewBookingRepo(db),
		catalog:  repository.NewCatalogRepo(db),
		store:    store,
		notify:   newNotifier(sender, log),
		cfg:      cfg.Storage,
		notifyTo: cfg.Mail.NotifyTo,
		log:      log,
		now:      time.Now,
	}
}

// Wait blocks until queued notification emails have been handed off.
func (s *BookingService) Wait() { s.notify.wait() }

type preparedPhoto struct {
	name        string
	contentType string
	data        []byte
}

// Create runs the booking workflow:
//  1. validate items, services and photos
//  2. insert booking and items in one transaction
//  3. upload photos; failures are reported, not fatal
//  4. reload the booking graph
//  5. notify the business inbox in the background
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (BookingResult, error) {
	if len(in.Items) == 0 {
		return BookingResult{}, validationf("at least one item is required")
	}
	ids := make([]string, len(in.Items))
	for i, it := range in.Items {
		ids[i] = strings.TrimSpace(it.ServiceID)
		if ids[i] == "" {
			return BookingResult{}, validationf("item %d: serviceId is required", i)
		}
	}
	missing, err := s.catalog.MissingServices(ctx, ids)
	if err != nil {
		return BookingResult{}, err
	}
	if len(missing) > 0 {
		return BookingResult{}, validationf("unknown service id(s): %s", strings.Join(missing, ", "))
	}
	photos, err := s.preparePhotos(in.Photos)
	if err != nil {
		return BookingResult{}, err
	}

	b := model.Booking{
		UserID:        in.UserID,
		ExecutionDate: in.ExecutionDate,
		Postcode:      in.Postcode,
		Address:       in.Address,
		Notes:         in.Notes,
		TotalItems:    len(in.Items),
		Items:         make([]model.BookingItem, len(in.Items)),
	}
	for i, it := range in.Items {
		b.Items[i] = model.BookingItem{ServiceID: ids[i], Notes: it.Notes}
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.bookings.WithTx(tx).Create(ctx, &b)
	})
	if err != nil {
		return BookingResult{}, fmt.Errorf("create booking: %w", err)
	}
	s.log.Info("booking created", zap.String("booking_id", b.ID), zap.String("user_id", in.UserID), zap.Int("items", b.TotalItems))

	var res BookingResult
	if uploadErr := s.uploadPhotos(ctx, b.ID, photos); uploadErr != nil {
		for _, e := range multierr.Errors(uploadErr) {
			res.PhotoErrors = append(res.PhotoErrors, e.Error())
		}
		s.log.Warn("booking photos failed", zap.String("booking_id", b.ID), zap.Error(uploadErr))
	}

	res.Booking, err = s.bookings.GetByID(ctx, b.ID)
	if err != nil {
		return BookingResult{}, fmt.Errorf("reload booking: %w", err)
	}
	s.sendNotification(ctx, res.Booking)
	return res, nil
}

// preparePhotos reads and sniffs every photo up front so a bad file rejects
// the request before anything is written.
func (s *BookingService) preparePhotos(in []Photo) ([]preparedPhoto, error) {
	if len(in) > s.cfg.MaxPhotos {
		return nil, validationf("at most %d photos are allowed", s.cfg.MaxPhotos)
	}
	out := make([]preparedPhoto, 0, len(in))
	for _, p := range in {
		if p.Size > s.cfg.MaxPhotoBytes {
			return nil, validationf("photo %q exceeds %d bytes", p.Filename, s.cfg.MaxPhotoBytes)
		}
		data, err := readLimited(p, s.cfg.MaxPhotoBytes)
		if err != nil {
			return nil, err
		}
		mt := mimetype.Detect(data)
		if !allowedPhotoTypes[mt.String()] {
			return nil, validationf("photo %q has unsupported type %s", p.Filename, mt.String())
		}
		out = append(out, preparedPhoto{name: p.Filename, contentType: mt.String(), data: data})
	}
	return out, nil
}

func readLimited(p Photo, max int64) ([]byte, error) {
	f, err := p.Open()
	if err != nil {
		return nil, fmt.Errorf("open photo %q: %w", p.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, fmt.Errorf("read photo %q: %w", p.Filename, err)
	}
	if int64(len(data)) > max {
		return nil, validationf("photo %q exceeds %d bytes", p.Filename, max)
	}
	return data, nil
}

// uploadPhotos stores photos concurrently, then records the successful ones.
// The returned error aggregates every failure.
func (s *BookingService) uploadPhotos(ctx context.Context, bookingID string, photos []preparedPhoto) error {
	if len(photos) == 0 {
		return nil
	}
	type result struct {
		photo model.BookingPhoto
		err   error
	}
	results := make([]result, len(photos))
	var wg sync.WaitGroup
	for i, p := range photos {
		wg.Add(1)
		go func(i int, p preparedPhoto) {
			defer wg.Done()
			name := safeFilename(p.name)
			key := fmt.Sprintf("%s/%d-%d-%s", bookingID, s.now().UnixMilli(), i, name)
			url, err := s.store.Upload(ctx, s.cfg.PhotoBucket, key, bytes.NewReader(p.data), int64(len(p.data)), p.contentType)
			if err != nil {
				results[i].err = fmt.Errorf("photo %q: %w", p.name, err)
				return
			}
			results[i].photo = model.BookingPhoto{BookingID: bookingID, Filename: name, URL: url}
		}(i, p)
	}
	wg.Wait()

	var errs error
	for _, r := range results {
		if r.err != nil {
			metrics.PhotoUploadFailures.Inc()
			errs = multierr.Append(errs, r.err)
			continue
		}
		photo := r.photo
		if err := s.bookings.AddPhoto(ctx, &photo); err != nil {
			metrics.PhotoUploadFailures.Inc()
			errs = multierr.Append(errs, fmt.Errorf("photo %q: record: %w", photo.Filename, err))
		}
	}
	return errs
}

func safeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "photo"
	}
	return strings.ReplaceAll(name, " ", "_")
}

func (s *BookingService) sendNotification(ctx context.Context, b model.Booking) {
	if s.notifyTo == "" {
		return
	}
	data := mail.BookingNotificationData{
		BookingID:     b.ID,
		ExecutionDate: b.ExecutionDate,
		Address:       deref(b.Address),
		Postcode:      deref(b.Postcode),
		Notes:         deref(b.Notes),
	}
	if b.User != nil {
		data.CustomerName = b.User.Name
		data.CustomerEmail = b.User.Email
		data.CustomerPhone = deref(b.User.Phone)
	}
	for _, it := range b.Items {
		line := mail.BookingItemLine{Notes: deref(it.Notes)}
		if it.Service != nil {
			line.Service = it.Service.Name
			if it.Service.Category != nil {
				line.Category = it.Service.Category.Name
			}
		}
		data.Items = append(data.Items, line)
	}
	for _, p := range b.Photos {
		data.Photos = append(data.Photos, p.URL)
	}
	msg, err := mail.BookingNotificationEmail(s.notifyTo, data)
	if err != nil {
		s.notify.renderFailed(mail.KindBookingNotification, err)
		return
	}
	s.notify.send(ctx, msg)
}

// List returns the user's bookings, newest first.
func (s *BookingService) List(ctx context.Context, userID string) ([]model.Booking, error) {
	return s.bookings.ListForUser(ctx, userID)
}

// Get returns the booking only when userID owns it; otherwise ErrNotFound.
func (s *BookingService) Get(ctx context.Context, userID, id string) (model.Booking, error) {
	b, err := s.bookings.GetForUser(ctx, userID, id)
	if err != nil {
		return model.Booking{}, notFound(err, "booking")
	}
	return b, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
