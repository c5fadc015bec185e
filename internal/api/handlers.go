package api

import (
	"net/http"
	"strconv"

	"github.com/Nigel2392/go-django-repositories/internal/app/models"
	"github.com/Nigel2392/go-django-repositories/internal/app/repositories"
	queries "github.com/Nigel2392/go-django-repositories/src"
	"github.com/gin-gonic/gin"
)

type CreateUserRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type PublishSectionsRequest struct {
	Name string `json:"name" binding:"required"`
}

type UserTypeResponse struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type UserResponse struct {
	ID        int64             `json:"id"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Type      *UserTypeResponse `json:"type"`
}

type PublishSectionsResponse struct {
	Updated  int64             `json:"updated"`
	Sections []*models.Section `json:"sections"`
}

func newUserResponse(u *models.User) UserResponse {
	var resp = UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
	if u.Type != nil {
		resp.Type = &UserTypeResponse{
			ID:          u.Type.ID,
			Code:        u.Type.Code,
			Description: u.Type.Description,
		}
	}
	return resp
}

func newUserResponses(users []*models.User) []UserResponse {
	var resp = make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = newUserResponse(u)
	}
	return resp
}

func users(c *gin.Context, qs *queries.QuerySet[models.User]) (int, any, error) {
	var list, err = qs.All(c.Request.Context())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, newUserResponses(list), nil
}

func (h *Handlers) CreateUser(c *gin.Context, s *queries.Session) (int, any, error) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return http.StatusBadRequest, gin.H{"error": "first_name and last_name are required"}, nil
	}

	var repo, err = repositories.NewUsersRepository(s)
	if err != nil {
		return 0, nil, err
	}

	user, err := repo.Create(c.Request.Context(), map[string]any{
		"first_name": req.FirstName,
		"last_name":  req.LastName,
		"is_active":  true,
	}, queries.Flush())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, newUserResponse(user), nil
}

func (h *Handlers) First(c *gin.Context, s *queries.Session) (int, any, error) {
	var repo, err = repositories.NewUsersRepository(s)
	if err != nil {
		return 0, nil, err
	}

	user, err := repo.Objects().
		Filter("id", 1).
		Options("type__status", "type__change_logs", "documents").
		First(c.Request.Context())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, user, nil
}

func (h *Handlers) Ordering(c *gin.Context, s *queries.Session) (int, any, error) {
	var repo, err = repositories.NewUsersRepository(s)
	if err != nil {
		return 0, nil, err
	}
	return users(c, repo.Objects().OrderBy("-first_name", "-last_name").Options("type"))
}

func (h *Handlers) IContains(c *gin.Context, s *queries.Session) (int, any, error) {
	var repo, err = repositories.NewUsersRepository(s)
	if err != nil {
		return 0, nil, err
	}
	var code = c.DefaultQuery("code", "sh")
	return users(c, repo.Objects().Filter("type__code__icontains", code).Options("type").OrderBy("id"))
}

func (h *Handlers) SelectRelated(c *gin.Context, s *queries.Session) (int, any, error) {
	var repo, err = repositories.NewUsersRepository(s)
	if err != nil {
		return 0, nil, err
	}
	return users(c, repo.Objects().Filter("type__id", 1).Options("type__status").OrderBy("id"))
}

func (h *Handlers) OrderBy(c *gin.Context, s *queries.Session) (int, any, error) {
	var repo, err = repositories.NewUsersRepository(s)
	if err != nil {
		return 0, nil, err
	}
	return users(c, repo.Objects().Options("type").OrderBy("type__description", "id"))
}

func (h *Handlers) ActiveOnly(c *gin.Context, s *queries.Session) (int, any, error) {
	var repo, err = repositories.NewUsersRepository(s)
	if err != nil {
		return 0, nil, err
	}
	return users(c, repo.Active().Options("type").OrderBy("id"))
}

func (h *Handlers) CreatedBy(c *gin.Context, s *queries.Session) (int, any, error) {
	var createdBy, err = strconv.ParseInt(c.DefaultQuery("user_id", "1"), 10, 64)
	if err != nil {
		return http.StatusBadRequest, gin.H{"error": "user_id must be an integer"}, nil
	}

	repo, err := repositories.NewUsersRepository(s)
	if err != nil {
		return 0, nil, err
	}
	return users(c, repo.UserRestricted(createdBy).Options("type").OrderBy("id"))
}

// PublishSections moves the sections with the given name to the
// published status and returns them as updated.
func (h *Handlers) PublishSections(c *gin.Context, s *queries.Session) (int, any, error) {
	var req PublishSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return http.StatusBadRequest, gin.H{"error": "name is required"}, nil
	}

	var ctx = c.Request.Context()
	var published, err = queries.Objects[models.PublicationStatus](s).
		Filter("code", "published").
		GetOneOrRaise(ctx)
	if err != nil {
		return 0, nil, err
	}

	repo, err := repositories.NewSectionRepository(s)
	if err != nil {
		return 0, nil, err
	}

	res, err := repo.Objects().
		Filter("name", req.Name).
		Returning(true).
		Update(ctx, map[string]any{"status_id": published.ID})
	if err != nil {
		return 0, nil, err
	}

	var sections = res.Objects
	if sections == nil {
		sections = []*models.Section{}
	}
	return http.StatusOK, PublishSectionsResponse{
		Updated:  res.RowsAffected,
		Sections: sections,
	}, nil
}
