package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/campusqa/courseqa/internal/model"
	appErr "github.com/campusqa/courseqa/internal/pkg/errors"
)

// VerifiedMatch is one similarity-ranked TA-verified answer hit.
type VerifiedMatch struct {
	Answer     model.VerifiedAnswer
	Similarity float64
}

type VerifiedAnswerRepo struct {
	db *sql.DB
}

func NewVerifiedAnswerRepo(db *sql.DB) *VerifiedAnswerRepo {
	return &VerifiedAnswerRepo{db: db}
}

func (r *VerifiedAnswerRepo) Insert(ctx context.Context, va *model.VerifiedAnswer) error {
	const insert = `
		INSERT INTO ta_verified_answers (id, course_id, question, answer, embedding, created_by, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, insert,
		va.ID, va.CourseID, va.Question, va.Answer,
		pgvector.NewVector(va.Embedding), va.CreatedBy, va.Ctime)
	return err
}

// Search returns the top-k verified answers in the course ranked by cosine
// similarity of their question embedding to the query vector.
func (r *VerifiedAnswerRepo) Search(ctx context.Context, courseID string, query []float32, k int) ([]VerifiedMatch, error) {
	if k <= 0 {
		return nil, nil
	}
	const search = `
		SELECT id, course_id, question, answer, created_by, ctime,
		       1 - (embedding <=> $1) AS similarity
		FROM ta_verified_answers
		WHERE course_id = $2
		ORDER BY embedding <=> $1, id
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, search, pgvector.NewVector(query), courseID, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matches []VerifiedMatch
	for rows.Next() {
		var m VerifiedMatch
		if err := rows.Scan(&m.Answer.ID, &m.Answer.CourseID, &m.Answer.Question,
			&m.Answer.Answer, &m.Answer.CreatedBy, &m.Answer.Ctime, &m.Similarity); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *VerifiedAnswerRepo) ListByCourse(ctx context.Context, courseID string) ([]model.VerifiedAnswer, error) {
	const query = `
		SELECT id, course_id, question, answer, created_by, ctime
		FROM ta_verified_answers
		WHERE course_id = $1
		ORDER BY ctime DESC
	`
	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.VerifiedAnswer
	for rows.Next() {
		var va model.VerifiedAnswer
		if err := rows.Scan(&va.ID, &va.CourseID, &va.Question, &va.Answer, &va.CreatedBy, &va.Ctime); err != nil {
			return nil, err
		}
		answers = append(answers, va)
	}
	return answers, rows.Err()
}

func (r *VerifiedAnswerRepo) Delete(ctx context.Context, courseID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM ta_verified_answers WHERE id = $1 AND course_id = $2`, id, courseID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
