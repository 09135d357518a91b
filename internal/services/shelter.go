package services

import "context"

// ShelterRepository defines read operations for shelters.
type ShelterRepository interface {
	Codes(ctx context.Context) ([]string, error)
}

// ShelterService encapsulates shelter use-cases.
type ShelterService struct {
	repo ShelterRepository
}

func NewShelterService(repo ShelterRepository) *ShelterService {
	return &ShelterService{repo: repo}
}

// Codes returns the distinct shelter codes in ascending order, never nil.
func (s *ShelterService) Codes(ctx context.Context) ([]string, error) {
	codes, err := s.repo.Codes(ctx)
	if err != nil {
		return nil, err
	}
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}
