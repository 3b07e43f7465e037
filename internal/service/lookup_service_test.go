package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minato-edu/tutoring-api/internal/models"
	appErrors "github.com/minato-edu/tutoring-api/pkg/errors"
)

type mockStudentSearcher struct {
	students []models.Student
	err      error
	calls    int
}

func (m *mockStudentSearcher) Search(ctx context.Context, query, field string, limit int) ([]models.Student, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.students, nil
}

type mockTeacherSearcher struct {
	teachers []models.Teacher
	err      error
}

func (m *mockTeacherSearcher) Search(ctx context.Context, query string, limit int) ([]models.Teacher, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.teachers, nil
}

type mockCourseSearcher struct {
	courses []models.Course
	err     error
}

func (m *mockCourseSearcher) Search(ctx context.Context, query string, limit int) ([]models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.courses, nil
}

// memoryCacheRepo is a map-backed stand-in for the Redis repository.
type memoryCacheRepo struct {
	items map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.items = make(map[string][]byte)
	return nil
}

func TestLookupStudentsReturnsSuggestions(t *testing.T) {
	searcher := &mockStudentSearcher{students: []models.Student{
		{ID: "s1", FullName: "Mei Tanaka", Nickname: "Mei"},
	}}
	svc := NewLookupService(searcher, nil, nil, nil, 20, zap.NewNop())

	results := svc.Students(context.Background(), "mei", "nickname")
	require.Len(t, results, 1)
	assert.Equal(t, "Mei Tanaka", results[0].Name)
	assert.Equal(t, "Mei", results[0].Nickname)
}

func TestLookupStudentsDegradesToEmptyOnError(t *testing.T) {
	searcher := &mockStudentSearcher{err: errors.New("db down")}
	svc := NewLookupService(searcher, nil, nil, nil, 20, zap.NewNop())

	results := svc.Students(context.Background(), "mei", "full_name")
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestLookupStudentsServedFromCacheOnRepeat(t *testing.T) {
	searcher := &mockStudentSearcher{students: []models.Student{
		{ID: "s1", FullName: "Mei Tanaka", Nickname: "Mei"},
	}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewLookupService(searcher, nil, nil, cache, 20, zap.NewNop())

	first := svc.Students(context.Background(), "Mei", "full_name")
	second := svc.Students(context.Background(), "mei", "full_name")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, searcher.calls, "second call should hit the cache (key is case-insensitive)")
}

func TestLookupTeachers(t *testing.T) {
	searcher := &mockTeacherSearcher{teachers: []models.Teacher{
		{ID: "t1", FullName: "Aoi Sensei", Nickname: "Aoi"},
	}}
	svc := NewLookupService(nil, searcher, nil, nil, 20, zap.NewNop())

	results := svc.Teachers(context.Background(), "aoi")
	require.Len(t, results, 1)
	assert.Equal(t, "t1", results[0].ID)
}

func TestLookupCourses(t *testing.T) {
	searcher := &mockCourseSearcher{courses: []models.Course{
		{ID: "c1", Title: "Algebra Intensive"},
	}}
	svc := NewLookupService(nil, nil, searcher, nil, 20, zap.NewNop())

	results := svc.Courses(context.Background(), "alg")
	require.Len(t, results, 1)
	assert.Equal(t, "Algebra Intensive", results[0].Name)
	assert.Empty(t, results[0].Nickname)
}

func TestLookupCoursesDegradesToEmptyOnError(t *testing.T) {
	searcher := &mockCourseSearcher{err: errors.New("timeout")}
	svc := NewLookupService(nil, nil, searcher, nil, 20, zap.NewNop())

	results := svc.Courses(context.Background(), "alg")
	assert.Empty(t, results)
}
