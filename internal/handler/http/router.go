package http

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	AllowedOrigins []string
	Env            string
	Version        string
	LogLevel       slog.Level
	// MetricsHandler serves /metrics. Nil uses the default Prometheus gatherer.
	MetricsHandler http.Handler
	// UploadDir is served read-only under UploadURL when both are set.
	UploadDir string
	UploadURL string
}

type Handlers struct {
	Payroll      PayrollHandler
	Salary       SalaryHandler
	Leave        LeaveHandler
	Attendance   AttendanceHandler
	Calendar     CalendarHandler
	Notification NotificationHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	if cfg.UploadDir != "" && strings.HasPrefix(cfg.UploadURL, "/") {
		prefix := strings.TrimSuffix(cfg.UploadURL, "/")
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.UploadDir)))
		r.Method(http.MethodGet, prefix+"/*", fs)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// EventSource cannot set headers, so the stream also accepts ?jwt=
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired)
			r.Get("/notifications/stream", h.Notification.Stream)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/payroll", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionPayslipViewOwn)).Get("/my-payslips", h.Payroll.MyPayslips)
				// Owners and managers; the service decides.
				r.Get("/records/{id}", h.Payroll.GetRecord)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionSalaryManage))
					r.Post("/salary-structure", h.Salary.Create)
					r.Put("/salary-structure/{userID}", h.Salary.Update)
					r.Get("/salary-structure/{userID}", h.Salary.GetActive)
					r.Get("/salary-structure/{userID}/history", h.Salary.History)
					r.Get("/salary-structures", h.Salary.List)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionPayrollManage))
					r.Post("/run", h.Payroll.CreateRun)
					r.Post("/run/{id}/process", h.Payroll.ProcessRun)
					r.Post("/run/{id}/cancel", h.Payroll.CancelRun)
					r.Get("/run/{id}", h.Payroll.GetRun)
					r.Get("/runs", h.Payroll.ListRuns)
					r.Patch("/records/{id}/status", h.Payroll.UpdateRecordStatus)
				})
			})

			r.Route("/leaves", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionLeaveCreate)).Post("/request", h.Leave.Request)
				r.With(middleware.RequirePermission(user.PermissionLeaveCreate)).Patch("/{id}/cancel", h.Leave.Cancel)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionLeaveViewOwn))
					r.Get("/my-leaves", h.Leave.MyLeaves)
					r.Get("/my-balance", h.Leave.MyBalance)
					r.Get("/calendar", h.Leave.Calendar)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionLeaveReview))
					r.Get("/pending", h.Leave.Pending)
					r.Patch("/{id}/approve", h.Leave.Approve)
					r.Patch("/{id}/reject", h.Leave.Reject)
				})

				r.With(middleware.RequirePermission(user.PermissionLeaveViewAll)).Get("/all", h.Leave.All)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionAttendanceCreate)).Post("/check-in", h.Attendance.CheckIn)
				r.With(middleware.RequirePermission(user.PermissionAttendanceCreate)).Post("/check-out", h.Attendance.CheckOut)
				r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/my", h.Attendance.MyAttendance)
			})

			r.With(middleware.RequirePermission(user.PermissionCalendarView)).Get("/calendar/working-days", h.Calendar.WorkingDays)
		})
	})
	return r
}
