package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/campusqa/courseqa/internal/model"
	"github.com/campusqa/courseqa/internal/pkg/dbutil"
	appErr "github.com/campusqa/courseqa/internal/pkg/errors"
)

var courseFields = []string{"id", "name", "instructor_id", "system_prompt", "ctime", "mtime"}

type CourseRepo struct {
	db *sql.DB
}

func NewCourseRepo(db *sql.DB) *CourseRepo {
	return &CourseRepo{db: db}
}

func (r *CourseRepo) Create(ctx context.Context, course *model.Course) error {
	data := map[string]interface{}{
		"id":            course.ID,
		"name":          course.Name,
		"instructor_id": course.InstructorID,
		"system_prompt": course.SystemPrompt,
		"ctime":         course.Ctime,
		"mtime":         course.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("courses", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *CourseRepo) GetByID(ctx context.Context, courseID string) (*model.Course, error) {
	where := map[string]interface{}{
		"id": courseID,
	}
	sqlStr, args, err := builder.BuildSelect("courses", where, courseFields)
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
	var course model.Course
	if err := rows.Scan(&course.ID, &course.Name, &course.InstructorID, &course.SystemPrompt, &course.Ctime, &course.Mtime); err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepo) List(ctx context.Context) ([]model.Course, error) {
	where := map[string]interface{}{
		"_orderby": "ctime asc",
	}
	sqlStr, args, err := builder.BuildSelect("courses", where, courseFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var courses []model.Course
	for rows.Next() {
		var course model.Course
		if err := rows.Scan(&course.ID, &course.Name, &course.InstructorID, &course.SystemPrompt, &course.Ctime, &course.Mtime); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

func (r *CourseRepo) Update(ctx context.Context, course *model.Course) error {
	where := map[string]interface{}{
		"id": course.ID,
	}
	update := map[string]interface{}{
		"name":          course.Name,
		"system_prompt": course.SystemPrompt,
		"mtime":         course.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("courses", where, update)
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

func (r *CourseRepo) Delete(ctx context.Context, courseID string) error {
	where := map[string]interface{}{
		"id": courseID,
	}
	sqlStr, args, err := builder.BuildDelete("courses", where)
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
