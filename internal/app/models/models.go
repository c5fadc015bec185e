// Package models holds the example domain served by the repositories API.
package models

import (
	"time"

	"github.com/Nigel2392/go-django-repositories/src/models"
)

type PublicationStatus struct {
	ID          int64         `db:"id,pk" json:"id"`
	Code        string        `db:"code,unique" json:"code"`
	Name        string        `db:"name" json:"name"`
	Sections    []*Section    `rel:"sections,reverse=status_id" json:"sections,omitempty"`
	Subsections []*Subsection `rel:"subsections,reverse=status_id" json:"subsections,omitempty"`
}

func (s *PublicationStatus) TableName() string {
	return "publication_statuses"
}

type Section struct {
	ID          int64              `db:"id,pk" json:"id"`
	Name        string             `db:"name" json:"name"`
	StatusID    int64              `db:"status_id" json:"status_id"`
	Status      *PublicationStatus `rel:"status,fk=status_id" json:"status,omitempty"`
	Subsections []*Subsection      `rel:"subsections,reverse=section_id" json:"subsections,omitempty"`
}

type Subsection struct {
	ID              int64              `db:"id,pk" json:"id"`
	Name            string             `db:"name" json:"name"`
	SectionID       int64              `db:"section_id" json:"section_id"`
	Section         *Section           `rel:"section,fk=section_id" json:"section,omitempty"`
	StatusID        int64              `db:"status_id" json:"status_id"`
	Status          *PublicationStatus `rel:"status,fk=status_id" json:"status,omitempty"`
	ArticleContents []*ArticleContent  `rel:"article_contents,reverse=subsection_id" json:"article_contents,omitempty"`
}

type Widget struct {
	ID              int64             `db:"id,pk" json:"id"`
	Name            string            `db:"name" json:"name"`
	Code            string            `db:"code,unique" json:"code"`
	ArticleContents []*ArticleContent `rel:"article_contents,reverse=widget_id" json:"article_contents,omitempty"`
}

type ArticleContent struct {
	ID           int64       `db:"id,pk" json:"id"`
	Subtitle     string      `db:"subtitle" json:"subtitle"`
	Text         string      `db:"text" json:"text"`
	SubsectionID int64       `db:"subsection_id" json:"subsection_id"`
	Subsection   *Subsection `rel:"subsection,fk=subsection_id" json:"subsection,omitempty"`
	WidgetID     int64       `db:"widget_id" json:"widget_id"`
	Widget       *Widget     `rel:"widget,fk=widget_id" json:"widget,omitempty"`
}

type UserTypeStatus struct {
	ID        int64       `db:"id,pk" json:"id"`
	Name      string      `db:"name" json:"name"`
	UserTypes []*UserType `rel:"user_types,reverse=status_id" json:"user_types,omitempty"`
}

func (s *UserTypeStatus) TableName() string {
	return "user_status_types"
}

type UserTypeChangeLog struct {
	ID         int64     `db:"id,pk" json:"id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UserTypeID int64     `db:"user_type_id" json:"user_type_id"`
	UserType   *UserType `rel:"user_type,fk=user_type_id" json:"user_type,omitempty"`
}

func (l *UserTypeChangeLog) TableName() string {
	return "user_type_change_log"
}

type UserType struct {
	ID          int64                `db:"id,pk" json:"id"`
	Code        string               `db:"code" json:"code"`
	Description string               `db:"description" json:"description"`
	StatusID    *int64               `db:"status_id" json:"status_id"`
	Status      *UserTypeStatus      `rel:"status,fk=status_id" json:"status,omitempty"`
	Users       []*User              `rel:"users,reverse=type_id" json:"users,omitempty"`
	ChangeLogs  []*UserTypeChangeLog `rel:"change_logs,reverse=user_type_id" json:"change_logs,omitempty"`
}

type User struct {
	ID          int64       `db:"id,pk" json:"id"`
	FirstName   string      `db:"first_name" json:"first_name"`
	LastName    string      `db:"last_name" json:"last_name"`
	TypeID      *int64      `db:"type_id" json:"type_id"`
	Type        *UserType   `rel:"type,fk=type_id" json:"type,omitempty"`
	IsActive    bool        `db:"is_active" json:"is_active"`
	CreatedByID *int64      `db:"created_by_id" json:"created_by_id"`
	Documents   []*Document `rel:"documents,reverse=user_id" json:"documents,omitempty"`
}

type Document struct {
	ID     int64   `db:"id,pk" json:"id"`
	UserID int64   `db:"user_id" json:"user_id"`
	User   *User   `rel:"user,fk=user_id" json:"user,omitempty"`
	Name   *string `db:"name" json:"name"`
}

// All returns the metadata of every model in dependency order.
func All() ([]*models.Meta, error) {
	var metas = make([]*models.Meta, 0, 10)
	for _, fn := range []func() (*models.Meta, error){
		models.For[PublicationStatus],
		models.For[Section],
		models.For[Subsection],
		models.For[Widget],
		models.For[ArticleContent],
		models.For[UserTypeStatus],
		models.For[UserType],
		models.For[UserTypeChangeLog],
		models.For[User],
		models.For[Document],
	} {
		var meta, err = fn()
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, nil
}
