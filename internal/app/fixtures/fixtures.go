// Package fixtures loads demo rows of the example domain.
package fixtures

import (
	"context"
	"time"

	"github.com/Nigel2392/go-django-repositories/internal/app/models"
	queries "github.com/Nigel2392/go-django-repositories/src"
	"github.com/Nigel2392/go-django/src/core/logger"
)

func bulkCreate[T any](ctx context.Context, s *queries.Session, values []map[string]any) ([]*T, error) {
	var repo, err = queries.NewRepository[T](s)
	if err != nil {
		return nil, err
	}
	return repo.BulkCreate(ctx, values, 0)
}

// Load inserts the demo rows on s, the caller commits.
//
// It expects empty tables, the rows refer to each other by the
// generated primary keys.
func Load(ctx context.Context, s *queries.Session) error {
	statuses, err := bulkCreate[models.PublicationStatus](ctx, s, []map[string]any{
		{"code": "published", "name": "Published"},
		{"code": "draft", "name": "Draft"},
		{"code": "archived", "name": "Archived"},
	})
	if err != nil {
		return err
	}
	var published, draft = statuses[0].ID, statuses[1].ID

	sections, err := bulkCreate[models.Section](ctx, s, []map[string]any{
		{"name": "Getting started", "status_id": published},
		{"name": "Configuration", "status_id": draft},
		{"name": "Queries", "status_id": published},
		{"name": "Deployment", "status_id": draft},
	})
	if err != nil {
		return err
	}

	subsections, err := bulkCreate[models.Subsection](ctx, s, []map[string]any{
		{"name": "Installation", "section_id": sections[0].ID, "status_id": published},
		{"name": "First steps", "section_id": sections[0].ID, "status_id": draft},
		{"name": "Environment", "section_id": sections[1].ID, "status_id": published},
		{"name": "Filtering", "section_id": sections[2].ID, "status_id": published},
		{"name": "Ordering", "section_id": sections[2].ID, "status_id": published},
		{"name": "Docker", "section_id": sections[3].ID, "status_id": draft},
	})
	if err != nil {
		return err
	}

	widgets, err := bulkCreate[models.Widget](ctx, s, []map[string]any{
		{"name": "Video", "code": "video"},
		{"name": "Quiz", "code": "quiz"},
	})
	if err != nil {
		return err
	}

	_, err = bulkCreate[models.ArticleContent](ctx, s, []map[string]any{
		{"subtitle": "Requirements", "text": "A database and a Go toolchain.", "subsection_id": subsections[0].ID, "widget_id": widgets[0].ID},
		{"subtitle": "Lookups", "text": "Filters take a path and a lookup.", "subsection_id": subsections[3].ID, "widget_id": widgets[1].ID},
	})
	if err != nil {
		return err
	}

	typeStatuses, err := bulkCreate[models.UserTypeStatus](ctx, s, []map[string]any{
		{"name": "enabled"},
		{"name": "disabled"},
	})
	if err != nil {
		return err
	}

	types, err := bulkCreate[models.UserType](ctx, s, []map[string]any{
		{"code": "sh", "description": "Shop", "status_id": typeStatuses[0].ID},
		{"code": "adm", "description": "Administrator", "status_id": typeStatuses[0].ID},
		{"code": "gst", "description": "Guest"},
	})
	if err != nil {
		return err
	}

	var changed = time.Date(2025, 5, 5, 15, 36, 0, 0, time.UTC)
	_, err = bulkCreate[models.UserTypeChangeLog](ctx, s, []map[string]any{
		{"created_at": changed, "user_type_id": types[0].ID},
		{"created_at": changed.Add(24 * time.Hour), "user_type_id": types[0].ID},
	})
	if err != nil {
		return err
	}

	// users created by other users are inserted after their creators
	creators, err := bulkCreate[models.User](ctx, s, []map[string]any{
		{"first_name": "Ivan", "last_name": "Petrov", "type_id": types[0].ID, "is_active": true},
	})
	if err != nil {
		return err
	}
	created, err := bulkCreate[models.User](ctx, s, []map[string]any{
		{"first_name": "Anna", "last_name": "Smirnova", "type_id": types[1].ID, "is_active": true, "created_by_id": creators[0].ID},
		{"first_name": "Oleg", "last_name": "Ivanov", "type_id": types[0].ID, "is_active": false, "created_by_id": creators[0].ID},
	})
	if err != nil {
		return err
	}
	last, err := bulkCreate[models.User](ctx, s, []map[string]any{
		{"first_name": "Maria", "last_name": "Sidorova", "is_active": true, "created_by_id": created[0].ID},
	})
	if err != nil {
		return err
	}
	var users = append(append(creators, created...), last...)

	_, err = bulkCreate[models.Document](ctx, s, []map[string]any{
		{"user_id": users[0].ID, "name": "passport"},
		{"user_id": users[0].ID, "name": "visa"},
		{"user_id": users[1].ID, "name": "contract"},
	})
	if err != nil {
		return err
	}

	logger.Debugf("Loaded fixtures: %d sections, %d users", len(sections), len(users))
	return nil
}
