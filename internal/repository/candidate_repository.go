package repository

import (
	"database/sql"

	"github.com/reeltest/reeltest-api/internal/models"
)

type CandidateRepository interface {
	GetOrCreateByEmail(email string) (models.Candidate, error)
	GetCandidateByID(candidateID string) (models.Candidate, error)
}

type candidateRepository struct {
	db *sql.DB
}

func NewCandidateRepository(db *sql.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

// GetOrCreateByEmail inserts a candidate for a previously-unseen email or
// returns the existing row. The upsert keeps concurrent invites for the same
// address from racing the select-then-insert.
func (r *candidateRepository) GetOrCreateByEmail(email string) (models.Candidate, error) {
	const query = `
		INSERT INTO candidates (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET updated_at = now()
		RETURNING id, email, name, created_at, updated_at;
	`

	var candidate models.Candidate
	err := r.db.QueryRow(query, email).Scan(
		&candidate.ID,
		&candidate.Email,
		&candidate.Name,
		&candidate.CreatedAt,
		&candidate.UpdatedAt,
	)
	if err != nil {
		return models.Candidate{}, err
	}

	return candidate, nil
}

func (r *candidateRepository) GetCandidateByID(candidateID string) (models.Candidate, error) {
	const query = `
		SELECT id, email, name, created_at, updated_at
		FROM candidates
		WHERE id = $1;
	`

	var candidate models.Candidate
	err := r.db.QueryRow(query, candidateID).Scan(
		&candidate.ID,
		&candidate.Email,
		&candidate.Name,
		&candidate.CreatedAt,
		&candidate.UpdatedAt,
	)
	if err != nil {
		return models.Candidate{}, err
	}

	return candidate, nil
}
