package repository

import (
	"context"
	"fmt"

	"github.com/noisyneuron/noisyneuron/internal/model"
)

// CountProjects returns the total and completed project counts for a user.
func (r *Repository) CountProjects(ctx context.Context, userID string) (total, completed int64, err error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE processing_status = $2)
		FROM audio_projects
		WHERE user_id = $1
	`

	if err := r.pool.QueryRow(ctx, query, userID, string(model.StatusCompleted)).Scan(&total, &completed); err != nil {
		return 0, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	return total, completed, nil
}

// ListRecentProjects returns the user's newest projects, newest first.
func (r *Repository) ListRecentProjects(ctx context.Context, userID string, limit int) ([]*model.Project, error) {
	query := `
		SELECT id, user_id, title, processing_status, created_at
		FROM audio_projects
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*model.Project, 0, limit)
	for rows.Next() {
		var p model.Project
		var status string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.ProcessingStatus = model.ProcessingStatus(status)
		projects = append(projects, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}
