package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/minato-edu/tutoring-api/internal/models"
)

type lookupStudentSearcher interface {
	Search(ctx context.Context, query, field string, limit int) ([]models.Student, error)
}

type lookupTeacherSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Teacher, error)
}

type lookupCourseSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Course, error)
}

// LookupResult is one type-ahead suggestion.
type LookupResult struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
}

// LookupService answers type-ahead searches over students, teachers and
// courses. Results are cached briefly in Redis; any failure degrades to an
// empty suggestion list so the caller can keep typing and retry.
type LookupService struct {
	students   lookupStudentSearcher
	teachers   lookupTeacherSearcher
	courses    lookupCourseSearcher
	cache      *CacheService
	maxResults int
	logger     *zap.Logger
}

// NewLookupService constructs a LookupService.
func NewLookupService(students lookupStudentSearcher, teachers lookupTeacherSearcher, courses lookupCourseSearcher, cache *CacheService, maxResults int, logger *zap.Logger) *LookupService {
	if maxResults <= 0 {
		maxResults = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{
		students:   students,
		teachers:   teachers,
		courses:    courses,
		cache:      cache,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Students searches students by the given field (full_name, nickname, phone).
func (s *LookupService) Students(ctx context.Context, query, field string) []LookupResult {
	key := lookupKey("students", field, query)
	var cached []LookupResult
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached
	}

	records, err := s.students.Search(ctx, query, field, s.maxResults)
	if err != nil {
		s.logger.Warn("student lookup failed", zap.String("query", query), zap.Error(err))
		return []LookupResult{}
	}
	results := make([]LookupResult, 0, len(records))
	for _, rec := range records {
		results = append(results, LookupResult{ID: rec.ID, Name: rec.FullName, Nickname: rec.Nickname})
	}
	s.cacheSet(ctx, key, results)
	return results
}

// Teachers searches teachers by name or nickname.
func (s *LookupService) Teachers(ctx context.Context, query string) []LookupResult {
	key := lookupKey("teachers", "", query)
	var cached []LookupResult
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached
	}

	records, err := s.teachers.Search(ctx, query, s.maxResults)
	if err != nil {
		s.logger.Warn("teacher lookup failed", zap.String("query", query), zap.Error(err))
		return []LookupResult{}
	}
	results := make([]LookupResult, 0, len(records))
	for _, rec := range records {
		results = append(results, LookupResult{ID: rec.ID, Name: rec.FullName, Nickname: rec.Nickname})
	}
	s.cacheSet(ctx, key, results)
	return results
}

// Courses searches courses by title.
func (s *LookupService) Courses(ctx context.Context, query string) []LookupResult {
	key := lookupKey("courses", "", query)
	var cached []LookupResult
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached
	}

	records, err := s.courses.Search(ctx, query, s.maxResults)
	if err != nil {
		s.logger.Warn("course lookup failed", zap.String("query", query), zap.Error(err))
		return []LookupResult{}
	}
	results := make([]LookupResult, 0, len(records))
	for _, rec := range records {
		results = append(results, LookupResult{ID: rec.ID, Name: rec.Title})
	}
	s.cacheSet(ctx, key, results)
	return results
}

func (s *LookupService) cacheSet(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		s.logger.Warn("failed to cache lookup results", zap.String("key", key), zap.Error(err))
	}
}

func lookupKey(kind, field, query string) string {
	if field == "" {
		field = "default"
	}
	return fmt.Sprintf("lookup:%s:%s:%s", kind, field, strings.ToLower(query))
}
