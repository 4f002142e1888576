package api

import (
	"fmt"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/skillsharehub/marketplace/internal/api/handler"
	"github.com/skillsharehub/marketplace/internal/api/middleware"
	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"

	_ "github.com/skillsharehub/marketplace/docs"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Log          zerolog.Logger
	JWTSecret    string
	TokenTTL     time.Duration
	SecureCookie bool

	// UploadDir is served at /uploads. MaxUploadBytes bounds course
	// create/update request bodies; zero disables the limit.
	UploadDir      string
	MaxUploadBytes int64

	Auth       ports.AuthService
	Courses    ports.CourseService
	Enrollment ports.EnrollmentService
	Ratings    ports.RatingService
	Admin      ports.AdminService

	Readiness []handler.DependencyCheck

	// MetricsRegisterer receives the HTTP request metrics. Defaults to the
	// global Prometheus registerer.
	MetricsRegisterer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	if d.MetricsRegisterer == nil {
		d.MetricsRegisterer = prometheus.DefaultRegisterer
	}
	promMW, err := echoprometheus.MiddlewareConfig{
		Namespace:  "skillsharehub",
		Subsystem:  "http",
		Registerer: d.MetricsRegisterer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
		},
	}.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("router: prometheus middleware: %w", err)
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(promMW)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Readiness...)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.SecureCookie, d.TokenTTL)
	courseHandler := handler.NewCourseHandler(d.Courses)
	enrollmentHandler := handler.NewEnrollmentHandler(d.Enrollment)
	ratingHandler := handler.NewRatingHandler(d.Ratings)
	adminHandler := handler.NewAdminHandler(d.Admin)

	authMW := middleware.Auth(d.JWTSecret)
	students := middleware.RBAC(domain.RoleStudent)
	instructors := middleware.RBAC(domain.RoleInstructor)
	owners := middleware.RBAC(domain.RoleInstructor, domain.RoleAdmin)
	uploads := bodyLimit(d.MaxUploadBytes)

	api := e.Group("/api")

	// --- Auth routes ---
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, authMW)

	// --- Course routes ---
	courses := api.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.GET("/:id", courseHandler.Get, middleware.OptionalAuth(d.JWTSecret))
	courses.POST("", courseHandler.Create, uploads, authMW, instructors)
	courses.PATCH("/:id", courseHandler.Update, uploads, authMW, owners)
	courses.DELETE("/:id", courseHandler.Delete, authMW, owners)

	// --- Enrollment routes ---
	enrollment := api.Group("/enrollment", authMW, students)
	enrollment.POST("/:courseId", enrollmentHandler.Enroll)
	enrollment.GET("/:courseId/status", enrollmentHandler.Status)
	enrollment.POST("/:courseId/paypal/create-order", enrollmentHandler.CreateOrder)
	enrollment.POST("/:courseId/paypal/capture-order", enrollmentHandler.CaptureOrder)

	// --- Rating routes ---
	ratings := api.Group("/ratings")
	ratings.GET("/:courseId", ratingHandler.List)
	ratings.POST("/:courseId", ratingHandler.Add, authMW, students)

	// --- Admin routes ---
	admin := api.Group("/admin", authMW, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/dashboard", adminHandler.Dashboard)
	admin.GET("/users", adminHandler.ListUsers)
	admin.PUT("/users/:userId/role", adminHandler.UpdateRole)

	return e, nil
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func bodyLimit(maxBytes int64) echo.MiddlewareFunc {
	if maxBytes <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return echomiddleware.BodyLimit(fmt.Sprintf("%dK", (maxBytes+1023)/1024))
}
