package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/auth"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/essay"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/logger"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/metrics"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/rbac"
)

type Deps struct {
	Service *essay.Service
	Auth    *auth.AuthService
	Users   auth.UserStore
	Metrics *metrics.Metrics // nil disables /metrics
	Log     *logger.Logger

	CORSOrigins    []string
	RequestTimeout time.Duration // 0 means 90s
	AccessLog      bool
}

// NewRouter mounts every route behind the shared middleware stack.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 90 * time.Second
	}
	log := d.Log
	svc := d.Service

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	if d.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Users, log))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		// Users (admin)
		pr.With(rbac.Require(rbac.PermUsersCreate)).
			Post("/users", CreateUserHandler(d.Users, log))
		pr.With(rbac.Require(rbac.PermUsersCreate)).
			Post("/users/bulk", BulkCreateUsersHandler(d.Users, log))
		pr.With(rbac.Require(rbac.PermUsersList)).
			Get("/users", ListUsersHandler(d.Users, log))

		// Essays
		pr.With(rbac.Require(rbac.PermEssaySubmit)).
			Post("/essays", SubmitEssayHandler(svc, log))
		// ownership is enforced by the service
		pr.With(rbac.RequireAny(rbac.PermEssayViewOwn, rbac.PermEssayViewAll)).
			Get("/essays", ListEssaysHandler(svc, log))
		pr.With(rbac.RequireAny(rbac.PermEssayViewOwn, rbac.PermEssayViewAll)).
			Get("/essays/{essayID}", GetEssayHandler(svc, log))
		pr.With(rbac.RequireAny(rbac.PermEssayViewOwn, rbac.PermEssayViewAll)).
			Get("/essays/{essayID}/grade", GetGradeHandler(svc, log))
		pr.With(rbac.Require(rbac.PermGradeAI)).
			Post("/essays/{essayID}/grade/ai", GradeEssayHandler(svc, log))
		pr.With(rbac.Require(rbac.PermGradeManual)).
			Post("/essays/{essayID}/grade", ManualGradeHandler(svc, log))
		pr.With(rbac.Require(rbac.PermEssayReturn)).
			Post("/essays/{essayID}/return", ReturnEssayHandler(svc, log))
		pr.With(rbac.Require(rbac.PermEssayViewAll)).
			Get("/essays/{essayID}/events", ListEventsHandler(svc, log))

		// Rubrics
		pr.With(rbac.Require(rbac.PermRubricView)).
			Get("/rubrics", ListRubricsHandler(svc, log))
		pr.With(rbac.Require(rbac.PermRubricView)).
			Get("/rubrics/{rubricID}", GetRubricHandler(svc, log))
		pr.With(rbac.Require(rbac.PermRubricEdit)).
			Post("/rubrics", SaveRubricHandler(svc, log))
		pr.With(rbac.Require(rbac.PermRubricEdit)).
			Put("/rubrics/{rubricID}", SaveRubricHandler(svc, log))
		pr.With(rbac.Require(rbac.PermRubricEdit)).
			Delete("/rubrics/{rubricID}", DeleteRubricHandler(svc, log))

		// Assignments
		pr.With(rbac.Require(rbac.PermAssignmentEdit)).
			Post("/assignments", SaveAssignmentHandler(svc, log))
		pr.With(rbac.Require(rbac.PermAssignmentView)).
			Get("/assignments/{assignmentID}", GetAssignmentHandler(svc, log))

		pr.With(rbac.Require(rbac.PermGradePreview)).
			Post("/grading/preview", PreviewGradeHandler(svc, log))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	return r
}
