package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/campusqa/courseqa/internal/model"
	"github.com/campusqa/courseqa/internal/pkg/dbutil"
	appErr "github.com/campusqa/courseqa/internal/pkg/errors"
)

var documentFields = []string{"id", "course_id", "file_name", "storage_path", "kind", "status", "ctime", "mtime"}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":           doc.ID,
		"course_id":    doc.CourseID,
		"file_name":    doc.FileName,
		"storage_path": doc.StoragePath,
		"kind":         doc.Kind,
		"status":       doc.Status,
		"ctime":        doc.Ctime,
		"mtime":        doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("course_documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentRepo) GetByID(ctx context.Context, docID string) (*model.Document, error) {
	where := map[string]interface{}{
		"id": docID,
	}
	sqlStr, args, err := builder.BuildSelect("course_documents", where, documentFields)
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
	return scanDocument(rows)
}

func (r *DocumentRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Document, error) {
	where := map[string]interface{}{
		"course_id": courseID,
		"_orderby":  "ctime asc",
	}
	sqlStr, args, err := builder.BuildSelect("course_documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// UpdateStatus moves a document from one of the allowed source states to
// the target state. Zero rows affected means the document was missing or
// already past the allowed states; the status machine never moves backwards.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, docID string, from []string, to string, mtime int64) error {
	where := map[string]interface{}{
		"id":        docID,
		"status in": from,
	}
	update := map[string]interface{}{
		"status": to,
		"mtime":  mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("course_documents", where, update)
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

// FailStuckProcessing marks documents stuck in processing since before
// cutoff as failed, and returns how many it moved.
func (r *DocumentRepo) FailStuckProcessing(ctx context.Context, cutoff int64, now int64) (int64, error) {
	where := map[string]interface{}{
		"status":   model.DocumentStatusProcessing,
		"mtime <": cutoff,
	}
	update := map[string]interface{}{
		"status": model.DocumentStatusFailed,
		"mtime":  now,
	}
	sqlStr, args, err := builder.BuildUpdate("course_documents", where, update)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *DocumentRepo) Delete(ctx context.Context, docID string) error {
	where := map[string]interface{}{
		"id": docID,
	}
	sqlStr, args, err := builder.BuildDelete("course_documents", where)
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

func scanDocument(rows *sql.Rows) (*model.Document, error) {
	var doc model.Document
	if err := rows.Scan(&doc.ID, &doc.CourseID, &doc.FileName, &doc.StoragePath, &doc.Kind, &doc.Status, &doc.Ctime, &doc.Mtime); err != nil {
		return nil, err
	}
	return &doc, nil
}
