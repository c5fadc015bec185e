// Package repositories holds the repositories of the example domain
// with their named scopes.
package repositories

import (
	"github.com/Nigel2392/go-django-repositories/internal/app/models"
	queries "github.com/Nigel2392/go-django-repositories/src"
)

type UsersRepository struct {
	*queries.Repository[models.User]
}

func NewUsersRepository(s *queries.Session) (*UsersRepository, error) {
	var repo, err = queries.NewRepository[models.User](s)
	if err != nil {
		return nil, err
	}
	return &UsersRepository{Repository: repo}, nil
}

// Active returns the users which are not deactivated.
func (r *UsersRepository) Active() *queries.QuerySet[models.User] {
	return r.Objects().Filter("is_active", true)
}

// UserRestricted returns the users created by the user with the given id.
func (r *UsersRepository) UserRestricted(createdByID int64) *queries.QuerySet[models.User] {
	return r.Objects().Filter("created_by_id", createdByID)
}

type SectionRepository struct {
	*queries.Repository[models.Section]
}

func NewSectionRepository(s *queries.Session) (*SectionRepository, error) {
	var repo, err = queries.NewRepository[models.Section](s)
	if err != nil {
		return nil, err
	}
	return &SectionRepository{Repository: repo}, nil
}

func (r *SectionRepository) Published() *queries.QuerySet[models.Section] {
	return r.Objects().Filter("status__code", "published")
}
