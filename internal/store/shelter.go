package store

import (
	"context"
	"database/sql"
)

// ShelterRepository reads shelters. Shelters are managed outside this service.
type ShelterRepository struct {
	db *sql.DB
}

func NewShelterRepository(db *sql.DB) *ShelterRepository {
	return &ShelterRepository{db: db}
}

// Codes returns every distinct shelter code in ascending order.
func (r *ShelterRepository) Codes(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT code FROM shelters ORDER BY code`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}
