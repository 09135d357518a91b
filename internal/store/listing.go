package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/patitas-adopcion/apiserver/types"
)

// ListingRepository handles persistence for listings.
type ListingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

const listingColumns = `
	l.id, l.name, l.species, l.age, l.sex, l.description,
	l.contact_number, l.shelter_code, l.image_url, s.name AS shelter_name`

// List returns every listing joined with its shelter name. An empty
// shelterCode returns all listings in the database's default order.
func (r *ListingRepository) List(ctx context.Context, shelterCode string) ([]types.Listing, error) {
	query := `
		SELECT` + listingColumns + `
		FROM listings l
		LEFT JOIN shelters s ON l.shelter_code = s.code`
	var args []any
	if code := strings.TrimSpace(shelterCode); code != "" {
		query += ` WHERE l.shelter_code = $1`
		args = append(args, code)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]types.Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

// Recent returns the newest listings, highest id first.
func (r *ListingRepository) Recent(ctx context.Context, limit int) ([]types.RecentListing, error) {
	const query = `
		SELECT id, name, image_url
		FROM listings
		ORDER BY id DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recent := make([]types.RecentListing, 0, limit)
	for rows.Next() {
		var item types.RecentListing
		var imageURL sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &imageURL); err != nil {
			return nil, err
		}
		item.ImageURL = nullableString(imageURL)
		recent = append(recent, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recent, nil
}

func (r *ListingRepository) Get(ctx context.Context, id int) (types.Listing, error) {
	query := `
		SELECT` + listingColumns + `
		FROM listings l
		LEFT JOIN shelters s ON l.shelter_code = s.code
		WHERE l.id = $1`
	listing, err := scanListing(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Listing{}, ErrNotFound
		}
		return types.Listing{}, err
	}
	return listing, nil
}

// Create inserts a listing. An empty image URL is stored as NULL.
func (r *ListingRepository) Create(ctx context.Context, listing types.Listing) (types.Listing, error) {
	const query = `
		INSERT INTO listings (name, species, age, sex, description, contact_number, shelter_code, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING id, image_url`
	var imageURL sql.NullString
	if err := r.db.QueryRowContext(
		ctx,
		query,
		listing.Name,
		listing.Species,
		listing.Age,
		listing.Sex,
		listing.Description,
		listing.ContactNumber,
		listing.ShelterCode,
		listing.ImageURLValue(),
	).Scan(&listing.ID, &imageURL); err != nil {
		return types.Listing{}, err
	}
	listing.ImageURL = nullableString(imageURL)
	listing.ShelterName = nil
	return listing, nil
}

// Update replaces every mutable field of the listing and returns the image
// URL it had before the write. ErrNotFound means no row matched.
func (r *ListingRepository) Update(ctx context.Context, listing types.Listing) (string, error) {
	// prev is read from the pre-update snapshot, so it carries the old image.
	const query = `
		UPDATE listings AS l
		SET name = $1,
			species = $2,
			age = $3,
			sex = $4,
			description = $5,
			contact_number = $6,
			shelter_code = $7,
			image_url = NULLIF($8, '')
		FROM listings AS prev
		WHERE l.id = $9 AND prev.id = l.id
		RETURNING prev.image_url`
	var previous sql.NullString
	err := r.db.QueryRowContext(
		ctx,
		query,
		listing.Name,
		listing.Species,
		listing.Age,
		listing.Sex,
		listing.Description,
		listing.ContactNumber,
		listing.ShelterCode,
		listing.ImageURLValue(),
		listing.ID,
	).Scan(&previous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return previous.String, nil
}

// Delete removes the listing and returns the image URL it referenced.
// ErrNotFound means no row matched.
func (r *ListingRepository) Delete(ctx context.Context, id int) (string, error) {
	const query = `DELETE FROM listings WHERE id = $1 RETURNING image_url`
	var previous sql.NullString
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&previous); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return previous.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (types.Listing, error) {
	var listing types.Listing
	var description, imageURL, shelterName sql.NullString
	if err := row.Scan(
		&listing.ID,
		&listing.Name,
		&listing.Species,
		&listing.Age,
		&listing.Sex,
		&description,
		&listing.ContactNumber,
		&listing.ShelterCode,
		&imageURL,
		&shelterName,
	); err != nil {
		return types.Listing{}, err
	}
	listing.Description = description.String
	listing.ImageURL = nullableString(imageURL)
	listing.ShelterName = nullableString(shelterName)
	return listing, nil
}

func nullableString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}
