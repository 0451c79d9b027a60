package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/admin"
	"github.com/hms/hms/internal/domain/analytics"
	"github.com/hms/hms/internal/domain/appointment"
	"github.com/hms/hms/internal/domain/audit"
	inboxdomain "github.com/hms/hms/internal/domain/notification"
	"github.com/hms/hms/internal/domain/record"
	"github.com/hms/hms/internal/domain/user"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/middleware"
	"github.com/hms/hms/internal/platform/notification"
	"github.com/hms/hms/pkg/response"
)

// doctorDirectory adapts the identity service to the booking-side view of a
// doctor, keeping the appointment package decoupled from the user package.
type doctorDirectory struct {
	users *user.Service
}

func (d doctorDirectory) Schedule(ctx context.Context, doctorID uuid.UUID) (*appointment.DoctorSchedule, error) {
	acct, err := d.users.Account(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if acct.Doctor == nil || !acct.User.Active {
		return nil, user.ErrNotFound
	}
	windows := make(map[string][]appointment.Window, len(acct.Doctor.Availability))
	for day, ws := range acct.Doctor.Availability {
		for _, w := range ws {
			windows[day] = append(windows[day], appointment.Window{Start: w.Start, End: w.End})
		}
	}
	return &appointment.DoctorSchedule{
		Name:        acct.User.Name,
		Windows:     windows,
		SlotMinutes: acct.Doctor.SlotMinutes,
		Fee:         acct.Doctor.ConsultationFee,
	}, nil
}

// patientContacts resolves patient contact details for both the appointment
// and record packages. Only active patient accounts resolve.
type patientContacts struct {
	users *user.Service
}

func (p patientContacts) resolve(ctx context.Context, patientID uuid.UUID) (name, email, phone string, err error) {
	acct, err := p.users.Account(ctx, patientID)
	if err != nil {
		return "", "", "", err
	}
	if acct.Patient == nil || !acct.User.Active {
		return "", "", "", user.ErrNotFound
	}
	return acct.User.Name, acct.User.Email, acct.User.Phone, nil
}

func (p patientContacts) Contact(ctx context.Context, patientID uuid.UUID) (*appointment.Contact, error) {
	name, email, phone, err := p.resolve(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &appointment.Contact{Name: name, Email: email, Phone: phone}, nil
}

func (p patientContacts) PatientContact(ctx context.Context, patientID uuid.UUID) (*record.Contact, error) {
	name, email, phone, err := p.resolve(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &record.Contact{Name: name, Email: email, Phone: phone}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital Management API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			name, _ := cmd.Flags().GetString("name")
			phone, _ := cmd.Flags().GetString("phone")
			department, _ := cmd.Flags().GetString("department")
			if email == "" || password == "" || name == "" {
				return fmt.Errorf("--email, --password, and --name are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			auditSvc := audit.NewService(audit.NewRepo(pool), logger)
			inboxSvc := inboxdomain.NewService(inboxdomain.NewRepo(pool), logger)
			dispatcher := notification.NewDispatcher(&notification.MockEmailSender{}, &notification.MockSMSSender{}, inboxSvc, logger)
			tokens := auth.TokenConfig{Secret: []byte(cfg.JWTSecret), AccessTTL: cfg.AccessTTL(), RefreshTTL: cfg.RefreshTTL()}
			userSvc := user.NewService(user.NewRepo(pool), pool, tokens, auditSvc, dispatcher, logger)

			acct, err := userSvc.Register(ctx, user.RegisterInput{
				Name:       name,
				Email:      email,
				Phone:      phone,
				Password:   password,
				Role:       user.RoleAdmin,
				Department: department,
			}, "", "hms-server admin create")
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Printf("Admin created: %s (%s)\n", acct.User.Email, acct.Admin.EmployeeID)
			return nil
		},
	}
	createCmd.Flags().String("email", "", "Admin email address")
	createCmd.Flags().String("password", "", "Admin password")
	createCmd.Flags().String("name", "", "Admin full name")
	createCmd.Flags().String("phone", "", "Admin phone number")
	createCmd.Flags().String("department", "Administration", "Admin department")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	if n, err := db.NewMigrator(pool, cfg.MigrationsDir).Up(ctx); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	} else if n > 0 {
		logger.Info().Int("applied", n).Msg("migrations applied")
	}

	tokens := auth.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	}

	// Services. The dispatcher writes an in-app copy of every notification,
	// so the inbox service is built before anything that dispatches.
	auditSvc := audit.NewService(audit.NewRepo(pool), logger)
	inboxSvc := inboxdomain.NewService(inboxdomain.NewRepo(pool), logger)
	dispatcher := notification.NewDispatcher(&notification.MockEmailSender{}, &notification.MockSMSSender{}, inboxSvc, logger)

	userSvc := user.NewService(user.NewRepo(pool), pool, tokens, auditSvc, dispatcher, logger)
	contacts := patientContacts{users: userSvc}
	apptSvc := appointment.NewService(appointment.NewRepo(pool), doctorDirectory{users: userSvc}, contacts, auditSvc, dispatcher, logger)
	recordSvc := record.NewService(record.NewRepo(pool), contacts, auditSvc, dispatcher, logger)
	analyticsSvc := analytics.NewService(analytics.NewRepo(pool), analytics.NewCache(pool),
		auditSvc, time.Duration(cfg.CacheTTLSeconds)*time.Second, logger)
	adminSvc := admin.NewService(userSvc, admin.NewRepo(pool))

	// Background maintenance.
	done := make(chan struct{})
	defer close(done)
	auditSvc.StartRetention(done, time.Hour, time.Duration(cfg.AuditRetentionDays)*24*time.Hour)
	analyticsSvc.StartCleanup(done, 10*time.Minute)
	apptSvc.StartReminders(done, 24*time.Hour)

	generalRL := middleware.NewRateLimiterStore(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimitRPM,
		BurstSize:         int(cfg.RateLimitRPM),
	})
	authRL := middleware.NewRateLimiterStore(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimitAuthRPM,
		BurstSize:         int(cfg.RateLimitAuthRPM),
	})
	generalRL.StartEviction(done, time.Minute)
	authRL.StartEviction(done, time.Minute)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = response.ErrorHandler(cfg.IsDev())

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	e.GET("/health", db.HealthHandler(pool))

	api := e.Group("/api")
	api.Use(middleware.RateLimit(generalRL))

	authed := auth.Middleware(tokens, userSvc)

	// Auth surface: credential endpoints are public behind the tighter
	// limiter; session endpoints require a principal.
	authPublic := api.Group("/auth")
	authPublic.Use(middleware.RateLimit(authRL))
	authAuthed := api.Group("/auth")
	authAuthed.Use(authed)

	doctorsPublic := api.Group("/doctors")
	doctorsAuthed := api.Group("/doctors")
	doctorsAuthed.Use(authed)

	patients := api.Group("/patients")
	patients.Use(authed)
	appts := api.Group("/appointments")
	appts.Use(authed)
	records := api.Group("/records")
	records.Use(authed)
	prescriptions := api.Group("/prescriptions")
	prescriptions.Use(authed)
	notifications := api.Group("/notifications")
	notifications.Use(authed)
	adminGroup := api.Group("/admin")
	adminGroup.Use(authed)
	analyticsGroup := api.Group("/analytics")
	analyticsGroup.Use(authed)

	userHandler := user.NewHandler(userSvc, apptSvc, recordSvc, tokens, cfg.IsProduction())
	userHandler.RegisterAuthRoutes(authPublic, authAuthed)
	userHandler.RegisterPatientRoutes(patients)
	userHandler.RegisterDoctorRoutes(doctorsPublic, doctorsAuthed)

	appointment.NewHandler(apptSvc).RegisterRoutes(appts, doctorsPublic)
	record.NewHandler(recordSvc).RegisterRoutes(records, prescriptions)
	inboxdomain.NewHandler(inboxSvc).RegisterRoutes(notifications)
	audit.NewHandler(auditSvc).RegisterRoutes(adminGroup)
	admin.NewHandler(adminSvc).RegisterRoutes(adminGroup)
	analytics.NewHandler(analyticsSvc).RegisterRoutes(analyticsGroup)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()
	logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-sigCtx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
