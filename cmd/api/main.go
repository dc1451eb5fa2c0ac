package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	appHTTP "github.com/cmlabs-hris/hris-payroll-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cache"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/email"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/migration"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/storage"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-payroll-go/internal/service/attendance"
	calendarService "github.com/cmlabs-hris/hris-payroll-go/internal/service/calendar"
	"github.com/cmlabs-hris/hris-payroll-go/internal/service/file"
	leaveService "github.com/cmlabs-hris/hris-payroll-go/internal/service/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/service/notification"
	payrollService "github.com/cmlabs-hris/hris-payroll-go/internal/service/payroll"
	salaryService "github.com/cmlabs-hris/hris-payroll-go/internal/service/salary"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
)

const version = "v1.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := parseLevel(cfg.App.LogLevel)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).With(
		slog.String("app", "hris-payroll"),
		slog.String("env", cfg.App.Env),
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		sqlDB := stdlib.OpenDBFromPool(db.Pool)
		err := migration.RunMigrations(sqlDB)
		_ = sqlDB.Close()
		if err != nil {
			return err
		}
		slog.Info("database migrations applied")
	}

	appMetrics := metrics.Default()
	clk := clock.New()

	var workingDaysCache cache.WorkingDaysCache = cache.NoopWorkingDaysCache{}
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		workingDaysCache = cache.NewRedisWorkingDaysCache(client, cfg.Redis.TTL)
		slog.Info("working days cache enabled", "addr", cfg.Redis.Addr)
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.BaseURL)
	if err != nil {
		return err
	}

	// Repositories
	txManager := postgresql.NewTxManager(db)
	userRepo := postgresql.NewUserRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	structureRepo := postgresql.NewSalaryStructureRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	leaveRepo := postgresql.NewLeaveRepository(db)
	balanceRepo := postgresql.NewLeaveBalanceRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)

	// Services
	calendarSvc := calendarService.NewCalendarService(holidayRepo, workingDaysCache, appMetrics)
	fileSvc := file.NewFileService(fileStorage)

	policy, err := attendanceService.NewPolicy(cfg.Attendance.WorkStart, cfg.Attendance.LateGrace, cfg.Attendance.HalfDayHours)
	if err != nil {
		return err
	}
	if cfg.Attendance.FenceRadius > 0 {
		policy = policy.WithFence(geo.Point{
			Latitude:  cfg.Attendance.OfficeLatitude,
			Longitude: cfg.Attendance.OfficeLongitude,
		}, cfg.Attendance.FenceRadius)
		slog.Info("check-in fence enabled", "radius_m", cfg.Attendance.FenceRadius)
	}
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, fileSvc, policy, clk)

	allocations := leave.Allocations{
		Sick:     decimal.NewFromFloat(cfg.Leave.SickDays),
		Casual:   decimal.NewFromFloat(cfg.Leave.CasualDays),
		Vacation: decimal.NewFromFloat(cfg.Leave.VacationDays),
	}
	hub := sse.NewHub(16)
	notificationSvc := notification.NewNotificationService(hub)
	notifiers := notification.Fanout{notificationSvc}

	var mailer *notification.Mailer
	if cfg.SMTP.Host != "" {
		emailSvc, err := email.NewEmailService(cfg.SMTP)
		if err != nil {
			return err
		}
		mailer = notification.NewMailer(emailSvc, userRepo)
		notifiers = append(notifiers, mailer)
		slog.Info("leave decision emails enabled", "smtp_host", cfg.SMTP.Host)
	}

	leaveSvc := leaveService.NewLeaveService(txManager, leaveRepo, balanceRepo, userRepo, allocations, clk, appMetrics, notifiers, attendanceSvc)
	salarySvc := salaryService.NewSalaryService(txManager, structureRepo, userRepo, clk)
	payrollSvc := payrollService.NewPayrollService(payrollService.Dependencies{
		Tx:            txManager,
		PayrollRepo:   payrollRepo,
		StructureRepo: structureRepo,
		UserRepo:      userRepo,
		WorkingDays:   calendarSvc,
		Attendance:    attendanceRepo,
		Leaves:        leaveRepo,
		Workers:       cfg.Payroll.Workers,
		Clock:         clk,
		Metrics:       appMetrics,
	})

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		AllowedOrigins: cfg.App.AllowedOrigins,
		Env:            cfg.App.Env,
		Version:        version,
		LogLevel:       level,
		UploadDir:      cfg.Storage.UploadDir,
		UploadURL:      cfg.Storage.BaseURL,
	}, JWTService, appHTTP.Handlers{
		Payroll:      appHTTP.NewPayrollHandler(payrollSvc),
		Salary:       appHTTP.NewSalaryHandler(salarySvc),
		Leave:        appHTTP.NewLeaveHandler(leaveSvc),
		Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc),
		Calendar:     appHTTP.NewCalendarHandler(calendarSvc),
		Notification: appHTTP.NewNotificationHandler(notificationSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Open notification streams never go idle on their own.
	srv.RegisterOnShutdown(hub.Close)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if mailer != nil {
		if err := mailer.Wait(shutdownCtx); err != nil {
			slog.Warn("pending emails not sent before shutdown", "error", err)
		}
	}
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
