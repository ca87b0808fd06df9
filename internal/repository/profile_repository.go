package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/internship-api/internal/models"
)

const profileSelect = `SELECT student_id, full_name, COALESCE(phone, '') AS phone, COALESCE(city, '') AS city,
        COALESCE(university, '') AS university, COALESCE(major, '') AS major, COALESCE(level, '') AS level,
        skills, COALESCE(resume_url, '') AS resume_url, COALESCE(avatar_url, '') AS avatar_url, COALESCE(bio, '') AS bio
        FROM profiles`

// ProfileRepository reads student profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByStudent loads one profile. It returns sql.ErrNoRows when the student has none.
func (r *ProfileRepository) FindByStudent(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, profileSelect+` WHERE student_id = $1`, studentID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByStudents loads profiles keyed by student ID.
func (r *ProfileRepository) FindByStudents(ctx context.Context, studentIDs []string) (map[string]models.StudentProfile, error) {
	result := make(map[string]models.StudentProfile, len(studentIDs))
	if len(studentIDs) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(profileSelect+` WHERE student_id IN (?)`, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("build profiles query: %w", err)
	}
	var profiles []models.StudentProfile
	if err := r.db.SelectContext(ctx, &profiles, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	for _, p := range profiles {
		result[p.StudentID] = p
	}
	return result, nil
}
