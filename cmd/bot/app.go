package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"session-attendance-bot/internal/config"
	"session-attendance-bot/internal/repository"
	"session-attendance-bot/internal/service"
)

// app собранные зависимости процесса
type app struct {
	cfg    *config.BotConfig
	db     *gorm.DB
	logger *logrus.Logger

	users         *service.UserService
	sessions      *service.SessionService
	attendance    *service.AttendanceService
	nonWorkingDay *service.NonWorkingDayService
}

func newLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(level)
	return logger
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel)
	logger.Info("Config initialized...")

	policy, err := cfg.AttendancePolicy()
	if err != nil {
		return nil, err
	}

	db, err := repository.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.WithField("driver", cfg.DatabaseDriver).Info("Database connected")

	userRepo, err := repository.NewGormUserRepository(db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user repository: %w", err)
	}
	sessionRepo, err := repository.NewGormSessionTimeLogRepository(db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create session repository: %w", err)
	}
	dayRepo, err := repository.NewGormAttendanceDayRepository(db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create attendance day repository: %w", err)
	}
	requestRepo, err := repository.NewGormLeaveRequestRepository(db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create leave request repository: %w", err)
	}
	holidayRepo, err := repository.NewGormNonWorkingDayRepository(db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create non-working day repository: %w", err)
	}

	clock := service.SystemClock{}
	return &app{
		cfg:           cfg,
		db:            db,
		logger:        logger,
		users:         service.NewUserService(userRepo, logger),
		sessions:      service.NewSessionService(sessionRepo, userRepo, policy, clock, logger),
		attendance:    service.NewAttendanceService(dayRepo, requestRepo, sessionRepo, holidayRepo, policy, clock, logger),
		nonWorkingDay: service.NewNonWorkingDayService(holidayRepo, logger),
	}, nil
}

func (a *app) close() {
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		a.logger.WithError(err).Warn("Error closing database")
	}
}
