package repository

import (
	"database/sql"

	"github.com/reeltest/reeltest-api/internal/models"
)

type TestRepository interface {
	CreateTestWithSections(test models.Test, sections []models.TestSection) (models.Test, error)
	UpdateTestWithSections(test models.Test, sections []models.TestSection) (models.Test, error)
	GetTestByID(testID string) (models.Test, error)
	ListTestsByOwner(userID string) ([]models.Test, error)
	ListSections(testID string) ([]models.TestSection, error)
	ArchiveTest(testID, userID string) error
	DeleteTest(testID, userID string) error
}

type testRepository struct {
	db *sql.DB
}

func NewTestRepository(db *sql.DB) TestRepository {
	return &testRepository{db: db}
}

// CreateTestWithSections inserts the test and all of its sections in a single
// transaction so a failed section insert never leaves a sectionless test.
func (r *testRepository) CreateTestWithSections(test models.Test, sections []models.TestSection) (models.Test, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return models.Test{}, err
	}
	defer tx.Rollback()

	const testQuery = `
		INSERT INTO tests (title, role, discipline, category, total_time, created_by, ai_generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at;
	`

	err = tx.QueryRow(testQuery,
		test.Title,
		test.Role,
		test.Discipline,
		test.Category,
		test.TotalTime,
		test.CreatedBy,
		test.AIGenerated,
	).Scan(&test.ID, &test.CreatedAt, &test.UpdatedAt)
	if err != nil {
		return models.Test{}, err
	}

	const sectionQuery = `
		INSERT INTO test_sections (test_id, title, section_type, time_limit, instructions, reference_link, download_link, output_format, order_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`

	for i, section := range sections {
		if _, err := tx.Exec(sectionQuery,
			test.ID,
			section.Title,
			section.Type,
			section.TimeLimit,
			section.Instructions,
			section.ReferenceLink,
			section.DownloadLink,
			section.OutputFormat,
			i,
		); err != nil {
			return models.Test{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Test{}, err
	}

	return test, nil
}

// UpdateTestWithSections updates the test's fields and upserts its sections
// in one transaction: sections carrying an id are updated in place, the rest
// are appended after the current highest order_index. Owner-scoped; a
// non-owner or unknown test id reads as sql.ErrNoRows.
func (r *testRepository) UpdateTestWithSections(test models.Test, sections []models.TestSection) (models.Test, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return models.Test{}, err
	}
	defer tx.Rollback()

	const testQuery = `
		UPDATE tests
		SET title = $3, role = $4, discipline = $5, category = $6, total_time = $7, updated_at = now()
		WHERE id = $1 AND created_by = $2
		RETURNING id, title, role, discipline, category, total_time, created_by, ai_generated, archived, created_at, updated_at;
	`

	var updated models.Test
	err = tx.QueryRow(testQuery,
		test.ID,
		test.CreatedBy,
		test.Title,
		test.Role,
		test.Discipline,
		test.Category,
		test.TotalTime,
	).Scan(
		&updated.ID,
		&updated.Title,
		&updated.Role,
		&updated.Discipline,
		&updated.Category,
		&updated.TotalTime,
		&updated.CreatedBy,
		&updated.AIGenerated,
		&updated.Archived,
		&updated.CreatedAt,
		&updated.UpdatedAt,
	)
	if err != nil {
		return models.Test{}, err
	}

	var nextIndex int
	const indexQuery = `
		SELECT COALESCE(MAX(order_index) + 1, 0)
		FROM test_sections
		WHERE test_id = $1;
	`
	if err := tx.QueryRow(indexQuery, test.ID).Scan(&nextIndex); err != nil {
		return models.Test{}, err
	}

	const updateSectionQuery = `
		UPDATE test_sections
		SET title = $3, section_type = $4, time_limit = $5, instructions = $6, reference_link = $7, download_link = $8, output_format = $9, updated_at = now()
		WHERE id = $1 AND test_id = $2;
	`

	const insertSectionQuery = `
		INSERT INTO test_sections (test_id, title, section_type, time_limit, instructions, reference_link, download_link, output_format, order_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`

	for _, section := range sections {
		if section.ID != "" {
			result, err := tx.Exec(updateSectionQuery,
				section.ID,
				test.ID,
				section.Title,
				section.Type,
				section.TimeLimit,
				section.Instructions,
				section.ReferenceLink,
				section.DownloadLink,
				section.OutputFormat,
			)
			if err != nil {
				return models.Test{}, err
			}
			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return models.Test{}, err
			}
			if rowsAffected == 0 {
				return models.Test{}, sql.ErrNoRows
			}
			continue
		}

		if _, err := tx.Exec(insertSectionQuery,
			test.ID,
			section.Title,
			section.Type,
			section.TimeLimit,
			section.Instructions,
			section.ReferenceLink,
			section.DownloadLink,
			section.OutputFormat,
			nextIndex,
		); err != nil {
			return models.Test{}, err
		}
		nextIndex++
	}

	if err := tx.Commit(); err != nil {
		return models.Test{}, err
	}

	return updated, nil
}

func (r *testRepository) GetTestByID(testID string) (models.Test, error) {
	const query = `
		SELECT id, title, role, discipline, category, total_time, created_by, ai_generated, archived, created_at, updated_at
		FROM tests
		WHERE id = $1;
	`

	var test models.Test
	err := r.db.QueryRow(query, testID).Scan(
		&test.ID,
		&test.Title,
		&test.Role,
		&test.Discipline,
		&test.Category,
		&test.TotalTime,
		&test.CreatedBy,
		&test.AIGenerated,
		&test.Archived,
		&test.CreatedAt,
		&test.UpdatedAt,
	)
	if err != nil {
		return models.Test{}, err
	}

	return test, nil
}

func (r *testRepository) ListTestsByOwner(userID string) ([]models.Test, error) {
	const query = `
		SELECT id, title, role, discipline, category, total_time, created_by, ai_generated, archived, created_at, updated_at
		FROM tests
		WHERE created_by = $1
		ORDER BY created_at DESC;
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []models.Test
	for rows.Next() {
		var test models.Test
		if err := rows.Scan(
			&test.ID,
			&test.Title,
			&test.Role,
			&test.Discipline,
			&test.Category,
			&test.TotalTime,
			&test.CreatedBy,
			&test.AIGenerated,
			&test.Archived,
			&test.CreatedAt,
			&test.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tests = append(tests, test)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tests, nil
}

// ListSections returns the test's sections in candidate-facing order.
func (r *testRepository) ListSections(testID string) ([]models.TestSection, error) {
	const query = `
		SELECT id, test_id, title, section_type, time_limit, instructions, reference_link, download_link, output_format, order_index, created_at, updated_at
		FROM test_sections
		WHERE test_id = $1
		ORDER BY order_index ASC;
	`

	rows, err := r.db.Query(query, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []models.TestSection
	for rows.Next() {
		var section models.TestSection
		if err := rows.Scan(
			&section.ID,
			&section.TestID,
			&section.Title,
			&section.Type,
			&section.TimeLimit,
			&section.Instructions,
			&section.ReferenceLink,
			&section.DownloadLink,
			&section.OutputFormat,
			&section.OrderIndex,
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

// ArchiveTest hides a test from the recruiter's active dashboard without
// touching its invitations or submissions.
func (r *testRepository) ArchiveTest(testID, userID string) error {
	const query = `
		UPDATE tests
		SET archived = TRUE, updated_at = now()
		WHERE id = $1 AND created_by = $2;
	`

	result, err := r.db.Exec(query, testID, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *testRepository) DeleteTest(testID, userID string) error {
	const query = `
		DELETE FROM tests
		WHERE id = $1 AND created_by = $2;
	`

	result, err := r.db.Exec(query, testID, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
