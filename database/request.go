package database

import (
	"database/sql"

	"github.com/coinacademy/api/model"
)

func (s *PostgreSQLStore) GetPublishedCourses() ([]model.Course, error) {
	query := `
		SELECT id, title, slug, description, price, published, cover_url
		FROM courses
		WHERE published = TRUE AND deleted_at IS NULL
		ORDER BY created_at DESC;
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		course, err := scanIntoCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}

	return courses, rows.Err()
}

func (s *PostgreSQLStore) GetCourseBySlug(slug string) (*model.Course, error) {
	query := `
		SELECT id, title, slug, description, price, published, cover_url
		FROM courses
		WHERE slug = $1 AND published = TRUE AND deleted_at IS NULL;
	`
	rows, err := s.db.Query(query, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, sql.ErrNoRows
	}

	course, err := scanIntoCourse(rows)
	if err != nil {
		return nil, err
	}

	lessons, err := s.getCourseLessons(course.ID)
	if err != nil {
		return nil, err
	}
	course.Lessons = lessons

	return course, nil
}

func (s *PostgreSQLStore) getCourseLessons(courseID uint) ([]model.Lesson, error) {
	query := `
		SELECT id, course_id, title, position, is_free, duration_sec
		FROM lessons
		WHERE course_id = $1 AND deleted_at IS NULL
		ORDER BY position ASC;
	`
	rows, err := s.db.Query(query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessons := []model.Lesson{}
	for rows.Next() {
		lesson := model.Lesson{}
		// Video URLs are deliberately not selected: the catalog listing
		// must never expose playback locations for gated lessons.
		if err := rows.Scan(
			&lesson.ID,
			&lesson.CourseID,
			&lesson.Title,
			&lesson.Position,
			&lesson.IsFree,
			&lesson.DurationSec,
		); err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}

	return lessons, rows.Err()
}

func scanIntoCourse(rows *sql.Rows) (*model.Course, error) {
	course := new(model.Course)
	err := rows.Scan(
		&course.ID,
		&course.Title,
		&course.Slug,
		&course.Description,
		&course.Price,
		&course.Published,
		&course.CoverURL,
	)
	if err != nil {
		return nil, err
	}
	return course, nil
}
