package repository

import (
	"database/sql"

	"github.com/reeltest/reeltest-api/internal/models"
)

type InvitationRepository interface {
	CreateInvitation(invitation models.Invitation) (models.Invitation, error)
	GetInvitationByToken(token string) (models.Invitation, error)
	GetLatestByTestAndEmail(testID, email string) (models.Invitation, error)
	ListInvitationsByTest(testID string) ([]models.Invitation, error)
	MarkCompleted(testID, candidateID string) error
}

type invitationRepository struct {
	db *sql.DB
}

func NewInvitationRepository(db *sql.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

const invitationColumns = `id, test_id, candidate_id, email, status, token, expires_at, deadline, created_at, updated_at`

func scanInvitation(row *sql.Row) (models.Invitation, error) {
	var invitation models.Invitation
	err := row.Scan(
		&invitation.ID,
		&invitation.TestID,
		&invitation.CandidateID,
		&invitation.Email,
		&invitation.Status,
		&invitation.Token,
		&invitation.ExpiresAt,
		&invitation.Deadline,
		&invitation.CreatedAt,
		&invitation.UpdatedAt,
	)
	if err != nil {
		return models.Invitation{}, err
	}
	return invitation, nil
}

func (r *invitationRepository) CreateInvitation(invitation models.Invitation) (models.Invitation, error) {
	const query = `
		INSERT INTO invitations (test_id, candidate_id, email, status, token, expires_at, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + invitationColumns + `;
	`

	return scanInvitation(r.db.QueryRow(query,
		invitation.TestID,
		invitation.CandidateID,
		invitation.Email,
		invitation.Status,
		invitation.Token,
		invitation.ExpiresAt,
		invitation.Deadline,
	))
}

// GetInvitationByToken looks up by token alone; the token column is globally
// unique, so cross-checking the presenting test id is the caller's job.
func (r *invitationRepository) GetInvitationByToken(token string) (models.Invitation, error) {
	const query = `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE token = $1;
	`

	return scanInvitation(r.db.QueryRow(query, token))
}

// GetLatestByTestAndEmail returns the most recent invitation for the pair.
// Re-invitation creates additional rows, so only the newest one gates access.
func (r *invitationRepository) GetLatestByTestAndEmail(testID, email string) (models.Invitation, error) {
	const query = `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE test_id = $1 AND email = $2
		ORDER BY created_at DESC
		LIMIT 1;
	`

	return scanInvitation(r.db.QueryRow(query, testID, email))
}

func (r *invitationRepository) ListInvitationsByTest(testID string) ([]models.Invitation, error) {
	const query = `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE test_id = $1
		ORDER BY created_at DESC;
	`

	rows, err := r.db.Query(query, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var invitation models.Invitation
		if err := rows.Scan(
			&invitation.ID,
			&invitation.TestID,
			&invitation.CandidateID,
			&invitation.Email,
			&invitation.Status,
			&invitation.Token,
			&invitation.ExpiresAt,
			&invitation.Deadline,
			&invitation.CreatedAt,
			&invitation.UpdatedAt,
		); err != nil {
			return nil, err
		}
		invitations = append(invitations, invitation)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return invitations, nil
}

// MarkCompleted moves the candidate's accepted invitations for the test to
// completed. Pending re-invites are left alone; they only advance through
// acceptance when a submission is created.
func (r *invitationRepository) MarkCompleted(testID, candidateID string) error {
	const query = `
		UPDATE invitations
		SET status = 'completed', updated_at = now()
		WHERE test_id = $1 AND candidate_id = $2 AND status = 'accepted';
	`

	_, err := r.db.Exec(query, testID, candidateID)
	return err
}
