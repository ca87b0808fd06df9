package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/internship-api/internal/models"
)

const postingSelect = `SELECT i.id, i.company_id, i.title, i.type, i.field, i.duration_months, i.start_date,
        i.location_city, i.location_remote, i.status, i.deadline,
        c.company_name, COALESCE(c.logo_url, '') AS company_logo_url, COALESCE(c.industry, '') AS company_industry
        FROM internships i JOIN companies c ON c.id = i.company_id`

// PostingRepository reads internship postings owned by the posting service.
type PostingRepository struct {
	db *sqlx.DB
}

// NewPostingRepository constructs a PostingRepository.
func NewPostingRepository(db *sqlx.DB) *PostingRepository {
	return &PostingRepository{db: db}
}

// FindByID loads a posting with its company. It returns sql.ErrNoRows when absent.
func (r *PostingRepository) FindByID(ctx context.Context, id string) (*models.Posting, error) {
	var posting models.Posting
	if err := r.db.GetContext(ctx, &posting, postingSelect+` WHERE i.id = $1`, id); err != nil {
		return nil, err
	}
	return &posting, nil
}

// FindByIDs loads postings keyed by ID. Unknown IDs are absent from the map.
func (r *PostingRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Posting, error) {
	result := make(map[string]models.Posting, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(postingSelect+` WHERE i.id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build postings query: %w", err)
	}
	var postings []models.Posting
	if err := r.db.SelectContext(ctx, &postings, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	for _, p := range postings {
		result[p.ID] = p
	}
	return result, nil
}
