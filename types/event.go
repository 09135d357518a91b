package types

import "time"

// ListingEventType names what happened to a listing.
type ListingEventType string

const (
	ListingCreated ListingEventType = "listing.created"
	ListingUpdated ListingEventType = "listing.updated"
	ListingDeleted ListingEventType = "listing.deleted"
)

// ListingEvent is published after a listing write succeeds.
type ListingEvent struct {
	Type      ListingEventType `json:"type"`
	ListingID int              `json:"listing_id"`

	// ImageURL is the image after the write; empty for deletes.
	ImageURL string `json:"image_url,omitempty"`

	// PreviousImageURL is the image before the write, when there was one.
	PreviousImageURL string `json:"previous_image_url,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// ReleasedImage returns the image URL the write stopped using, or "".
func (e ListingEvent) ReleasedImage() string {
	if e.PreviousImageURL == "" || e.PreviousImageURL == e.ImageURL {
		return ""
	}
	return e.PreviousImageURL
}
