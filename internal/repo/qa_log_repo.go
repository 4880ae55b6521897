package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/campusqa/courseqa/internal/model"
	"github.com/campusqa/courseqa/internal/pkg/dbutil"
	appErr "github.com/campusqa/courseqa/internal/pkg/errors"
)

var qaLogFields = []string{"id", "course_id", "user_id", "question", "answer", "citations", "rating", "status", "confidence", "ctime"}

type QALogRepo struct {
	db *sql.DB
}

func NewQALogRepo(db *sql.DB) *QALogRepo {
	return &QALogRepo{db: db}
}

func (r *QALogRepo) Insert(ctx context.Context, log *model.QALog) error {
	citations, err := json.Marshal(log.Citations)
	if err != nil {
		return err
	}
	if log.Citations == nil {
		citations = []byte("[]")
	}
	data := map[string]interface{}{
		"id":         log.ID,
		"course_id":  log.CourseID,
		"user_id":    log.UserID,
		"question":   log.Question,
		"answer":     log.Answer,
		"citations":  citations,
		"rating":     log.Rating,
		"status":     log.Status,
		"confidence": log.Confidence,
		"ctime":      log.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("qa_logs", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *QALogRepo) GetByID(ctx context.Context, logID string) (*model.QALog, error) {
	where := map[string]interface{}{
		"id": logID,
	}
	sqlStr, args, err := builder.BuildSelect("qa_logs", where, qaLogFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanQALog(rows)
}

// Rate records a rating. A thumbs-down also flags the log for TA review,
// in the same statement so the two can never diverge.
func (r *QALogRepo) Rate(ctx context.Context, logID string, rating int) error {
	status := model.QALogStatusAnswered
	if rating == model.RatingDown {
		status = model.QALogStatusFlagged
	}
	const update = `
		UPDATE qa_logs SET rating = $1,
		       status = CASE WHEN status = 'reviewed' THEN status ELSE $2 END
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, update, rating, status, logID)
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

func (r *QALogRepo) UpdateStatus(ctx context.Context, logID string, status string) error {
	where := map[string]interface{}{
		"id": logID,
	}
	update := map[string]interface{}{
		"status": status,
	}
	sqlStr, args, err := builder.BuildUpdate("qa_logs", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
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

func (r *QALogRepo) ListByStatus(ctx context.Context, courseID string, status string, limit, offset uint) ([]model.QALog, error) {
	where := map[string]interface{}{
		"course_id": courseID,
		"status":    status,
		"_orderby":  "ctime desc",
		"_limit":    []uint{offset, limit},
	}
	return r.list(ctx, where)
}

func (r *QALogRepo) ListByCourseUser(ctx context.Context, courseID, userID string, limit, offset uint) ([]model.QALog, error) {
	where := map[string]interface{}{
		"course_id": courseID,
		"user_id":   userID,
		"_orderby":  "ctime desc",
		"_limit":    []uint{offset, limit},
	}
	return r.list(ctx, where)
}

func (r *QALogRepo) ListByCourseSince(ctx context.Context, courseID string, since int64, limit uint) ([]model.QALog, error) {
	where := map[string]interface{}{
		"course_id": courseID,
		"ctime >=":  since,
		"_orderby":  "ctime desc",
		"_limit":    []uint{0, limit},
	}
	return r.list(ctx, where)
}

func (r *QALogRepo) list(ctx context.Context, where map[string]interface{}) ([]model.QALog, error) {
	sqlStr, args, err := builder.BuildSelect("qa_logs", where, qaLogFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []model.QALog
	for rows.Next() {
		log, err := scanQALog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, rows.Err()
}

// CourseStats are aggregate counters for one course since a cutoff time.
type CourseStats struct {
	TotalQuestions int
	Flagged        int
	Reviewed       int
	RatedUp        int
	RatedDown      int
	AvgRating      *float64
	AvgConfidence  *float64
}

func (r *QALogRepo) StatsByCourseSince(ctx context.Context, courseID string, since int64) (*CourseStats, error) {
	const query = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'flagged'),
		       COUNT(*) FILTER (WHERE status = 'reviewed'),
		       COUNT(*) FILTER (WHERE rating = 1),
		       COUNT(*) FILTER (WHERE rating = -1),
		       AVG(rating) FILTER (WHERE rating <> 0),
		       AVG(confidence)
		FROM qa_logs
		WHERE course_id = $1 AND ctime >= $2
	`
	var stats CourseStats
	err := r.db.QueryRowContext(ctx, query, courseID, since).Scan(
		&stats.TotalQuestions, &stats.Flagged, &stats.Reviewed,
		&stats.RatedUp, &stats.RatedDown, &stats.AvgRating, &stats.AvgConfidence)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// DayCount is the number of questions asked on one day.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

func (r *QALogRepo) VolumeByDaySince(ctx context.Context, courseID string, since int64) ([]DayCount, error) {
	const query = `
		SELECT to_char(to_timestamp(ctime / 1000)::date, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM qa_logs
		WHERE course_id = $1 AND ctime >= $2
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, courseID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// UserCount is the number of questions one student asked.
type UserCount struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

func (r *QALogRepo) CountByUser(ctx context.Context, courseID string) ([]UserCount, error) {
	const query = `
		SELECT user_id, COUNT(*)
		FROM qa_logs
		WHERE course_id = $1 AND user_id IS NOT NULL
		GROUP BY user_id
		ORDER BY COUNT(*) DESC, user_id
	`
	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UserCount
	for rows.Next() {
		var uc UserCount
		if err := rows.Scan(&uc.UserID, &uc.Count); err != nil {
			return nil, err
		}
		out = append(out, uc)
	}
	return out, rows.Err()
}

func scanQALog(rows *sql.Rows) (*model.QALog, error) {
	var log model.QALog
	var citations []byte
	if err := rows.Scan(&log.ID, &log.CourseID, &log.UserID, &log.Question, &log.Answer,
		&citations, &log.Rating, &log.Status, &log.Confidence, &log.Ctime); err != nil {
		return nil, err
	}
	if len(citations) > 0 {
		if err := json.Unmarshal(citations, &log.Citations); err != nil {
			return nil, err
		}
	}
	return &log, nil
}
