package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goalpath/goalpath/internal/config"
	"github.com/goalpath/goalpath/internal/db"
	"github.com/goalpath/goalpath/internal/notify"
	"github.com/goalpath/goalpath/internal/repository"
	"github.com/goalpath/goalpath/internal/service"
	"github.com/goalpath/goalpath/internal/storage"
)

type App struct {
	Cfg                 *config.Config
	DB                  *sqlx.DB
	UserRepository      repository.UserRepository
	AuthService         *service.AuthService
	EmailService        *service.EmailService
	GoalService         *service.GoalService
	ValidationService   *service.ValidationService
	FriendService       *service.FriendService
	MyPageService       *service.MyPageService
	NotificationService *service.NotificationService
	Storage             storage.Storage
}

func New(cfg *config.Config) (*App, error) {
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	instanceRepository := repository.NewInstanceRepository(database)
	validationRepository := repository.NewValidationRepository(database)
	teamRepository := repository.NewTeamRepository(database)
	notificationRepository := repository.NewNotificationRepository(database)
	friendRepository := repository.NewFriendRepository(database)
	donationRepository := repository.NewDonationRepository(database)
	deviceTokenRepository := repository.NewDeviceTokenRepository(database)

	// Storage
	photoStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	emailService := service.NewEmailService(
		userRepository,
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	var pusher notify.Pusher
	if cfg.FirebaseCredentials != "" {
		pushService, err := service.NewPushService(context.Background(), cfg.FirebaseCredentials, deviceTokenRepository, cfg.AppName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize push service: %v", err)
		}
		pusher = pushService
	}

	bridge := notify.New(notificationRepository, emailService, pusher)

	authService := service.NewAuthService(userRepository, cfg.JWTSecret, cfg.JWTExpiry, cfg.IsProduction())
	goalService := service.NewGoalService(goalRepository, instanceRepository, userRepository, donationRepository)
	validationService := service.NewValidationService(goalRepository, validationRepository, teamRepository, bridge)
	friendService := service.NewFriendService(friendRepository, userRepository)
	myPageService := service.NewMyPageService(userRepository, donationRepository)
	notificationService := service.NewNotificationService(notificationRepository, deviceTokenRepository)

	return &App{
		Cfg:                 cfg,
		DB:                  database,
		UserRepository:      userRepository,
		AuthService:         authService,
		EmailService:        emailService,
		GoalService:         goalService,
		ValidationService:   validationService,
		FriendService:       friendService,
		MyPageService:       myPageService,
		NotificationService: notificationService,
		Storage:             photoStorage,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
