// Package web serves the task list over HTTP with gin.
package web

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/buker/go-tasks/docs" // registers the swagger document
	"github.com/buker/go-tasks/internal/storage"
	"github.com/buker/go-tasks/internal/tasks"
)

//go:embed templates/*.html
var templateFS embed.FS

// listErrorMessage is shown above the list when the store cannot be read.
const listErrorMessage = "Tasks could not be loaded: the task store is unavailable."

// Server holds the dependencies of the route handlers.
type Server struct {
	tasks *tasks.Accessor
	log   log.FieldLogger
}

// NewServer returns a Server using accessor for every store call.
func NewServer(accessor *tasks.Accessor, logger log.FieldLogger) *Server {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Server{tasks: accessor, log: logger}
}

// Router builds the gin engine. Each instrument func is applied to the
// engine before any route is registered, so middleware such as request
// metrics sees every route.
func (s *Server) Router(instrument ...func(gin.IRoutes)) *gin.Engine {
	app := gin.Default()
	app.Use(sentrygin.New(sentrygin.Options{
		Repanic: true,
	}))
	app.Use(gzip.Gzip(gzip.DefaultCompression))
	for _, fn := range instrument {
		fn(app)
	}

	app.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	app.GET("/", s.handleHome)
	app.GET("/tasks", s.handleListTasks)
	app.POST("/add", s.handleAddTask)
	app.POST("/delete/:id", s.handleDeleteTask)
	app.GET("/healthz", s.handleHealth)
	app.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	return app
}

// report forwards err to Sentry through the request's hub.
func (s *Server) report(c *gin.Context, err error) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}

// Home godoc
// @Summary Landing page
// @Tags pages
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router / [get]
func (s *Server) handleHome(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

// ListTasks godoc
// @Summary List tasks
// @Description Renders all tasks, highest priority first. Store failures render an empty list with an inline message.
// @Tags tasks
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router /tasks [get]
func (s *Server) handleListTasks(c *gin.Context) {
	list, err := s.tasks.ListAll(c.Request.Context())
	data := gin.H{
		"tasks":    list,
		"degraded": s.tasks.Degraded(),
	}
	if err != nil {
		s.report(c, err)
		data["error"] = listErrorMessage
	}
	c.HTML(http.StatusOK, "tasks.html", data)
}

// AddTask godoc
// @Summary Add a task
// @Description Stores a new task and redirects to the list whatever the store outcome.
// @Tags tasks
// @Accept x-www-form-urlencoded
// @Param task formData string true "Task description"
// @Param priority formData int false "Priority, higher first" default(1)
// @Success 302 {string} string "Redirect to /tasks"
// @Failure 400 {string} string "Priority is not an integer"
// @Router /add [post]
func (s *Server) handleAddTask(c *gin.Context) {
	description := c.PostForm("task")

	priority := storage.DefaultPriority
	if raw, ok := c.GetPostForm("priority"); ok {
		p, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			s.log.WithError(err).WithField("priority", raw).Warn("Rejected task with invalid priority")
			s.report(c, err)
			c.String(http.StatusBadRequest, "priority must be an integer")
			return
		}
		priority = p
	}

	if _, err := s.tasks.Insert(c.Request.Context(), description, priority); err != nil {
		s.report(c, err)
	}
	c.Redirect(http.StatusFound, "/tasks")
}

// DeleteTask godoc
// @Summary Delete a task
// @Description Removes the task and redirects to the list. Unknown ids are ignored.
// @Tags tasks
// @Param id path string true "Task ID"
// @Success 302 {string} string "Redirect to /tasks"
// @Router /delete/{id} [post]
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.report(c, err)
	}
	c.Redirect(http.StatusFound, "/tasks")
}

// Health godoc
// @Summary Health check
// @Description Reports whether the task collection was ensured at startup.
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (s *Server) handleHealth(c *gin.Context) {
	if s.tasks.Degraded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
