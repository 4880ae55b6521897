package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusqa/courseqa/internal/model"
	appErr "github.com/campusqa/courseqa/internal/pkg/errors"
	"github.com/campusqa/courseqa/internal/repo"
)

const defaultSystemPrompt = "You are a helpful teaching assistant."

// CourseService manages courses and their assistant persona.
type CourseService struct {
	courses *repo.CourseRepo
}

func NewCourseService(courses *repo.CourseRepo) *CourseService {
	return &CourseService{courses: courses}
}

func (s *CourseService) Create(ctx context.Context, name, instructorID, systemPrompt string) (*model.Course, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: course name is required", appErr.ErrInvalid)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}
	now := time.Now().UnixMilli()
	course := &model.Course{
		ID:           uuid.NewString(),
		Name:         name,
		InstructorID: instructorID,
		SystemPrompt: systemPrompt,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Get(ctx context.Context, courseID string) (*model.Course, error) {
	return s.courses.GetByID(ctx, courseID)
}

func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	return s.courses.List(ctx)
}

// Update changes name and persona. Only the owning instructor may update.
func (s *CourseService) Update(ctx context.Context, courseID, instructorID, name, systemPrompt string) (*model.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != instructorID {
		return nil, appErr.ErrForbidden
	}
	if name = strings.TrimSpace(name); name != "" {
		course.Name = name
	}
	if systemPrompt = strings.TrimSpace(systemPrompt); systemPrompt != "" {
		course.SystemPrompt = systemPrompt
	}
	course.Mtime = time.Now().UnixMilli()
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Delete(ctx context.Context, courseID, instructorID string) error {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course.InstructorID != instructorID {
		return appErr.ErrForbidden
	}
	return s.courses.Delete(ctx, courseID)
}
