// Package api serves the example domain over HTTP.
//
// Every request runs on its own session, which is committed when the
// handler succeeds and rolled back otherwise.
package api

import (
	"net/http"

	"github.com/Nigel2392/go-django-repositories/internal/config"
	queries "github.com/Nigel2392/go-django-repositories/src"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rs/cors"
)

// handlerFunc handles a request on a session and returns the status
// and body to write.
type handlerFunc func(c *gin.Context, s *queries.Session) (int, any, error)

type Handlers struct {
	db *sqlx.DB
}

func NewHandlers(db *sqlx.DB) *Handlers {
	return &Handlers{db: db}
}

// wrap runs fn in a session, the response is only written
// after the session has been committed.
func (h *Handlers) wrap(fn handlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			status int
			body   any
		)
		var err = queries.Run(c.Request.Context(), h.db, func(s *queries.Session) (err error) {
			status, body, err = fn(c, s)
			return err
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(status, body)
	}
}

// NewRouter registers the routes of the example domain.
func NewRouter(db *sqlx.DB) *gin.Engine {
	var h = NewHandlers(db)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Logging())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/user", h.wrap(h.CreateUser))
	router.GET("/first", h.wrap(h.First))
	router.GET("/ordering", h.wrap(h.Ordering))
	router.GET("/icontains", h.wrap(h.IContains))
	router.GET("/select-related", h.wrap(h.SelectRelated))
	router.GET("/order-by", h.wrap(h.OrderBy))
	router.GET("/active-only", h.wrap(h.ActiveOnly))
	router.GET("/created-by", h.wrap(h.CreatedBy))
	router.POST("/sections/publish", h.wrap(h.PublishSections))

	return router
}

// NewHandler returns the router wrapped in the CORS policy of cfg.
func NewHandler(db *sqlx.DB, cfg config.HTTPConfig) http.Handler {
	var corsHandler = cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{HeaderRequestID},
	})
	return corsHandler.Handler(NewRouter(db))
}
