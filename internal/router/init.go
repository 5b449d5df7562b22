package router

import (
	"taskvault-api/internal/application"
	"taskvault-api/internal/container"
	pginfra "taskvault-api/internal/infrastructure/postgres"
	handlers "taskvault-api/internal/interface/http"
	"taskvault-api/internal/router/modules"
)

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	users := pginfra.NewUserRepository(pool)
	tokens := pginfra.NewRefreshTokenRepository(pool)
	tasks := pginfra.NewTaskRepository(pool)

	var pub application.JobPublisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}
	mail := application.NewMailDispatcher(pub, cfg.MailSendEnabled, cfg.AppName, logger)

	ledger := application.NewTokenLedger(tokens, users, cfg.RefreshTTL, logger)
	authSvc := application.NewAuthService(users, ledger, container.GetJWT(), mail, cfg, logger)
	accountSvc := application.NewAccountService(users, container.GetJWT(), mail, cfg, logger)
	taskSvc := application.NewTaskService(tasks, users, logger, container.GetES(), cfg.ESTasksIndex)

	authHandler := handlers.NewAuthHandler(authSvc, accountSvc, logger, cfg)
	accountHandler := handlers.NewAccountHandler(accountSvc, logger, cfg)
	taskHandler := handlers.NewTaskHandler(taskSvc, logger, cfg)

	r.Add(modules.NewAuthModule(authHandler, accountHandler, container.GetJWT()))
	r.Add(modules.NewTaskModule(taskHandler, container.GetJWT()))
}
