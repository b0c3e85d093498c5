package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/reeltest/reeltest-api/internal/models"
)

// ErrDuplicateSubmission is returned when the partial unique index on active
// (test_id, candidate_id) submissions rejects a concurrent insert. Callers
// treat it as the resume path, not a failure.
var ErrDuplicateSubmission = errors.New("submission already exists for candidate")

const uniqueViolation = "23505"

type SubmissionRepository interface {
	GetByTestAndCandidate(testID, candidateID string) (models.TestSubmission, error)
	GetSubmissionByID(submissionID string) (models.TestSubmission, error)
	CreateWithSections(testID, candidateID string, sectionIDs []string) (models.TestSubmission, error)
	ListSectionSubmissions(submissionID string) ([]models.SectionSubmission, error)
	StartSection(submissionID, sectionID string) (models.SectionSubmission, error)
	CompleteSection(submissionID, sectionID, submissionLink, comments string, timeSpent int) (models.SectionSubmission, error)
	MarkSubmissionCompleted(submissionID string) (models.TestSubmission, error)
	ListCandidateProgressByTest(testID string) ([]models.CandidateProgress, error)
}

type submissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

const submissionColumns = `id, test_id, candidate_id, status, started_at, completed_at, created_at, updated_at`

func scanSubmission(row *sql.Row) (models.TestSubmission, error) {
	var submission models.TestSubmission
	err := row.Scan(
		&submission.ID,
		&submission.TestID,
		&submission.CandidateID,
		&submission.Status,
		&submission.StartedAt,
		&submission.CompletedAt,
		&submission.CreatedAt,
		&submission.UpdatedAt,
	)
	if err != nil {
		return models.TestSubmission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) GetByTestAndCandidate(testID, candidateID string) (models.TestSubmission, error) {
	const query = `
		SELECT ` + submissionColumns + `
		FROM test_submissions
		WHERE test_id = $1 AND candidate_id = $2
		ORDER BY created_at DESC
		LIMIT 1;
	`

	return scanSubmission(r.db.QueryRow(query, testID, candidateID))
}

func (r *submissionRepository) GetSubmissionByID(submissionID string) (models.TestSubmission, error) {
	const query = `
		SELECT ` + submissionColumns + `
		FROM test_submissions
		WHERE id = $1;
	`

	return scanSubmission(r.db.QueryRow(query, submissionID))
}

// CreateWithSections creates the submission, one pending section row per
// section, and marks the candidate's invitations accepted, all in one
// transaction. Either every row lands or none do. A unique violation on the
// active-submission index surfaces as ErrDuplicateSubmission.
func (r *submissionRepository) CreateWithSections(testID, candidateID string, sectionIDs []string) (models.TestSubmission, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return models.TestSubmission{}, err
	}
	defer tx.Rollback()

	const submissionQuery = `
		INSERT INTO test_submissions (test_id, candidate_id, status, started_at)
		VALUES ($1, $2, 'in_progress', now())
		RETURNING ` + submissionColumns + `;
	`

	var submission models.TestSubmission
	err = tx.QueryRow(submissionQuery, testID, candidateID).Scan(
		&submission.ID,
		&submission.TestID,
		&submission.CandidateID,
		&submission.Status,
		&submission.StartedAt,
		&submission.CompletedAt,
		&submission.CreatedAt,
		&submission.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.TestSubmission{}, ErrDuplicateSubmission
		}
		return models.TestSubmission{}, err
	}

	const sectionQuery = `
		INSERT INTO section_submissions (test_submission_id, section_id, status, time_spent)
		VALUES ($1, $2, 'pending', 0);
	`

	for _, sectionID := range sectionIDs {
		if _, err := tx.Exec(sectionQuery, submission.ID, sectionID); err != nil {
			return models.TestSubmission{}, err
		}
	}

	const acceptQuery = `
		UPDATE invitations
		SET status = 'accepted', updated_at = now()
		WHERE test_id = $1 AND candidate_id = $2 AND status = 'pending';
	`

	if _, err := tx.Exec(acceptQuery, testID, candidateID); err != nil {
		return models.TestSubmission{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.TestSubmission{}, err
	}

	return submission, nil
}

const sectionSubmissionColumns = `id, test_submission_id, section_id, status, submission_link, comments, time_spent, started_at, completed_at, created_at, updated_at`

func scanSectionSubmission(row *sql.Row) (models.SectionSubmission, error) {
	var section models.SectionSubmission
	err := row.Scan(
		&section.ID,
		&section.TestSubmissionID,
		&section.SectionID,
		&section.Status,
		&section.SubmissionLink,
		&section.Comments,
		&section.TimeSpent,
		&section.StartedAt,
		&section.CompletedAt,
		&section.CreatedAt,
		&section.UpdatedAt,
	)
	if err != nil {
		return models.SectionSubmission{}, err
	}
	return section, nil
}

func (r *submissionRepository) ListSectionSubmissions(submissionID string) ([]models.SectionSubmission, error) {
	const query = `
		SELECT ss.id, ss.test_submission_id, ss.section_id, ss.status, ss.submission_link, ss.comments, ss.time_spent, ss.started_at, ss.completed_at, ss.created_at, ss.updated_at
		FROM section_submissions ss
		JOIN test_sections ts ON ss.section_id = ts.id
		WHERE ss.test_submission_id = $1
		ORDER BY ts.order_index ASC;
	`

	rows, err := r.db.Query(query, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []models.SectionSubmission
	for rows.Next() {
		var section models.SectionSubmission
		if err := rows.Scan(
			&section.ID,
			&section.TestSubmissionID,
			&section.SectionID,
			&section.Status,
			&section.SubmissionLink,
			&section.Comments,
			&section.TimeSpent,
			&section.StartedAt,
			&section.CompletedAt,
			&section.CreatedAt,
			&section.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sections, nil
}

// StartSection moves a section to in_progress. started_at is set once and
// kept on repeat calls, so re-entering a section is harmless.
func (r *submissionRepository) StartSection(submissionID, sectionID string) (models.SectionSubmission, error) {
	const query = `
		UPDATE section_submissions
		SET status = 'in_progress', started_at = COALESCE(started_at, now()), updated_at = now()
		WHERE test_submission_id = $1 AND section_id = $2 AND status <> 'completed'
		RETURNING ` + sectionSubmissionColumns + `;
	`

	return scanSectionSubmission(r.db.QueryRow(query, submissionID, sectionID))
}

// CompleteSection finalizes a pending or in-progress section. Completing an
// already-completed section matches no row and returns sql.ErrNoRows.
func (r *submissionRepository) CompleteSection(submissionID, sectionID, submissionLink, comments string, timeSpent int) (models.SectionSubmission, error) {
	const query = `
		UPDATE section_submissions
		SET status = 'completed', submission_link = $3, comments = $4, time_spent = $5, completed_at = now(), updated_at = now()
		WHERE test_submission_id = $1 AND section_id = $2 AND status <> 'completed'
		RETURNING ` + sectionSubmissionColumns + `;
	`

	return scanSectionSubmission(r.db.QueryRow(query, submissionID, sectionID, submissionLink, comments, timeSpent))
}

func (r *submissionRepository) MarkSubmissionCompleted(submissionID string) (models.TestSubmission, error) {
	const query = `
		UPDATE test_submissions
		SET status = 'completed', completed_at = now(), updated_at = now()
		WHERE id = $1 AND status <> 'completed'
		RETURNING ` + submissionColumns + `;
	`

	return scanSubmission(r.db.QueryRow(query, submissionID))
}

// ListCandidateProgressByTest joins invitations with submissions for the
// recruiter dashboard. Candidates who never started report status "invited".
func (r *submissionRepository) ListCandidateProgressByTest(testID string) ([]models.CandidateProgress, error) {
	const query = `
		SELECT DISTINCT ON (i.candidate_id)
			i.candidate_id, i.email, c.name, i.created_at, i.deadline,
			ts.id, ts.status, ts.started_at, ts.completed_at
		FROM invitations i
		JOIN candidates c ON c.id = i.candidate_id
		LEFT JOIN test_submissions ts ON ts.test_id = i.test_id AND ts.candidate_id = i.candidate_id
		WHERE i.test_id = $1
		ORDER BY i.candidate_id, i.created_at DESC;
	`

	rows, err := r.db.Query(query, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progress []models.CandidateProgress
	for rows.Next() {
		var (
			p      models.CandidateProgress
			status sql.NullString
		)
		if err := rows.Scan(
			&p.CandidateID,
			&p.Email,
			&p.Name,
			&p.InvitedAt,
			&p.Deadline,
			&p.SubmissionID,
			&status,
			&p.StartedAt,
			&p.CompletedAt,
		); err != nil {
			return nil, err
		}
		if status.Valid {
			p.Status = status.String
		} else {
			p.Status = "invited"
		}
		progress = append(progress, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return progress, nil
}
