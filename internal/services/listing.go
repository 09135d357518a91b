package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patitas-adopcion/apiserver/internal/metrics"
	"github.com/patitas-adopcion/apiserver/internal/store"
	"github.com/patitas-adopcion/apiserver/types"
	"go.uber.org/zap"
)

// RecentLimit caps the homepage preview.
const RecentLimit = 10

var (
	ErrMissingFields  = errors.New("missing required fields")
	ErrInvalidListing = errors.New("invalid listing")
)

// ListingRepository defines persistence operations for listings. Update and
// Delete return the image URL the row held before the write.
type ListingRepository interface {
	List(ctx context.Context, shelterCode string) ([]types.Listing, error)
	Recent(ctx context.Context, limit int) ([]types.RecentListing, error)
	Get(ctx context.Context, id int) (types.Listing, error)
	Create(ctx context.Context, listing types.Listing) (types.Listing, error)
	Update(ctx context.Context, listing types.Listing) (string, error)
	Delete(ctx context.Context, id int) (string, error)
}

// EventPublisher receives listing change events.
type EventPublisher interface {
	PublishListingEvent(ctx context.Context, event types.ListingEvent) error
}

// ListingService encapsulates listing use-cases.
type ListingService struct {
	repo    ListingRepository
	events  EventPublisher
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewListingService wires the service. events, logger and m may be nil.
func NewListingService(repo ListingRepository, events EventPublisher, logger *zap.Logger, m *metrics.Metrics) *ListingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{
		repo:    repo,
		events:  events,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

func (s *ListingService) List(ctx context.Context, shelterCode string) ([]types.Listing, error) {
	return s.repo.List(ctx, strings.TrimSpace(shelterCode))
}

func (s *ListingService) Recent(ctx context.Context) ([]types.RecentListing, error) {
	return s.repo.Recent(ctx, RecentLimit)
}

func (s *ListingService) Get(ctx context.Context, id int) (types.Listing, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores listing, returning it with its new id.
func (s *ListingService) Create(ctx context.Context, listing types.Listing) (types.Listing, error) {
	if err := validateListing(listing); err != nil {
		return types.Listing{}, err
	}

	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		return types.Listing{}, fmt.Errorf("create listing: %w", err)
	}

	s.publish(ctx, types.ListingEvent{
		Type:      types.ListingCreated,
		ListingID: created.ID,
		ImageURL:  created.ImageURLValue(),
	})
	return created, nil
}

// Update replaces every field of listing id. Updating an id that does not
// exist is not an error.
func (s *ListingService) Update(ctx context.Context, id int, listing types.Listing) error {
	if err := validateListing(listing); err != nil {
		return err
	}
	listing.ID = id

	previous, err := s.repo.Update(ctx, listing)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("actualización sin filas afectadas", zap.Int("listing_id", id))
			return nil
		}
		return fmt.Errorf("update listing %d: %w", id, err)
	}

	s.publish(ctx, types.ListingEvent{
		Type:             types.ListingUpdated,
		ListingID:        id,
		ImageURL:         listing.ImageURLValue(),
		PreviousImageURL: previous,
	})
	return nil
}

// Delete removes listing id. Deleting an id that does not exist is not an
// error.
func (s *ListingService) Delete(ctx context.Context, id int) error {
	previous, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("eliminación sin filas afectadas", zap.Int("listing_id", id))
			return nil
		}
		return fmt.Errorf("delete listing %d: %w", id, err)
	}

	s.publish(ctx, types.ListingEvent{
		Type:             types.ListingDeleted,
		ListingID:        id,
		PreviousImageURL: previous,
	})
	return nil
}

// publish is best effort: the write already succeeded.
func (s *ListingService) publish(ctx context.Context, event types.ListingEvent) {
	if s.events == nil {
		return
	}
	event.OccurredAt = s.now().UTC()

	err := s.events.PublishListingEvent(ctx, event)
	s.metrics.ObserveEvent(string(event.Type), err)
	if err != nil {
		s.logger.Warn("no se pudo publicar el evento de mascota",
			zap.String("type", string(event.Type)),
			zap.Int("listing_id", event.ListingID),
			zap.Error(err))
	}
}

func validateListing(listing types.Listing) error {
	if missing := listing.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	if !listing.Species.Valid() {
		return fmt.Errorf("%w: species must be %q or %q", ErrInvalidListing, types.SpeciesCanine, types.SpeciesFeline)
	}
	if !listing.Sex.Valid() {
		return fmt.Errorf("%w: sex must be %q or %q", ErrInvalidListing, types.SexFemale, types.SexMale)
	}
	return nil
}
