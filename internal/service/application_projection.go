package service

import (
	"sort"

	"github.com/noah-isme/internship-api/internal/dto"
	"github.com/noah-isme/internship-api/internal/models"
)

// sortByAppliedAtDesc orders applications most recent first, breaking ties on ID so
// repeated reads are comparable.
func sortByAppliedAtDesc(apps []models.Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		if apps[i].AppliedAt.Equal(apps[j].AppliedAt) {
			return apps[i].ID > apps[j].ID
		}
		return apps[i].AppliedAt.After(apps[j].AppliedAt)
	})
}

func summarizePosting(p *models.Posting) *dto.PostingSummary {
	if p == nil {
		return nil
	}
	return &dto.PostingSummary{
		ID:        p.ID,
		Title:     p.Title,
		Type:      p.Type,
		Field:     p.Field,
		Duration:  p.DurationMonths,
		StartDate: p.StartDate,
		City:      p.City,
		Remote:    p.Remote,
		Status:    p.Status,
		Deadline:  p.Deadline,
		Company: dto.CompanySummary{
			ID:       p.OwnerID,
			Name:     p.CompanyName,
			LogoURL:  p.CompanyLogoURL,
			Industry: p.CompanyIndustry,
		},
	}
}

func studentViews(apps []models.Application, postings map[string]models.Posting) []dto.StudentApplicationView {
	views := make([]dto.StudentApplicationView, 0, len(apps))
	for _, app := range apps {
		view := dto.StudentApplicationView{Application: app.WithoutCompanyNotes()}
		if posting, ok := postings[app.InternshipID]; ok {
			view.Internship = summarizePosting(&posting)
		}
		views = append(views, view)
	}
	return views
}

func candidateViews(apps []models.Application, profiles map[string]models.StudentProfile) []dto.CandidateView {
	views := make([]dto.CandidateView, 0, len(apps))
	for _, app := range apps {
		view := dto.CandidateView{Application: app}
		if profile, ok := profiles[app.StudentID]; ok {
			p := profile
			view.StudentProfile = &p
		}
		views = append(views, view)
	}
	return views
}

// withoutWithdrawn keeps the applications a posting owner still reviews.
func withoutWithdrawn(apps []models.Application) []models.Application {
	active := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		if app.Status != models.StatusWithdrawn {
			active = append(active, app)
		}
	}
	return active
}

func internshipStats(apps []models.Application) dto.InternshipApplicationStats {
	var stats dto.InternshipApplicationStats
	for _, app := range apps {
		switch app.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusReviewing:
			stats.Reviewing++
		case models.StatusAccepted:
			stats.Accepted++
		case models.StatusRejected:
			stats.Rejected++
		default:
			continue
		}
		stats.Total++
	}
	return stats
}

func studentStats(counts []models.StatusCount) dto.StudentApplicationStats {
	var stats dto.StudentApplicationStats
	for _, c := range counts {
		switch c.Status {
		case models.StatusPending:
			stats.Pending += c.Count
		case models.StatusReviewing:
			stats.Reviewing += c.Count
		case models.StatusAccepted:
			stats.Accepted += c.Count
		case models.StatusRejected:
			stats.Rejected += c.Count
		case models.StatusWithdrawn:
			stats.Withdrawn += c.Count
		default:
			continue
		}
		stats.Total += c.Count
	}
	return stats
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
