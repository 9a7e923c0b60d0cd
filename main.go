package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scrumkit/internal/api"
	"scrumkit/internal/config"
	"scrumkit/internal/models"
	"scrumkit/internal/repository"
	"scrumkit/internal/service"
	"scrumkit/internal/session"
	"scrumkit/internal/storage"
	"scrumkit/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logrus.SetLevel(level)
	}

	utils.Configure(cfg.Auth.JWTSecret, cfg.Auth.TokenHours)

	db, err := storage.NewPostgresDB(cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	if err := db.AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.Room{},
		&models.Board{},
		&models.Card{},
		&models.VelocityEntry{},
	); err != nil {
		logrus.WithError(err).Fatal("failed to auto migrate database")
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos)
	engine := session.NewEngine(repository.NewSessionStore(repos))

	r := gin.Default()
	api.SetupRoutes(r, services, engine)

	logrus.WithField("address", cfg.Server.Address).Info("starting server")
	if err := r.Run(cfg.Server.Address); err != nil {
		logrus.WithError(err).Fatal("failed to run server")
	}
}
