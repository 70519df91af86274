//cmd/seeder/main.go
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/db"
)

// seedFiles run in order. schema.sql is idempotent; sample.sql skips rows
// that already exist.
var seedFiles = []string{
	"seed/schema.sql",
	"seed/sample.sql",
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	config.ConfigureLogger(cfg.Log)

	database, err := db.Open(cfg.DB)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close()

	files := seedFiles
	if len(os.Args) > 1 {
		files = os.Args[1:]
	}

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			logrus.WithError(err).WithField("file", file).Fatal("Failed to read seed file")
		}

		if _, err := database.Exec(string(content)); err != nil {
			logrus.WithError(err).WithField("file", file).Fatal("Failed to execute seed file")
		}
		logrus.WithField("file", file).Info("Seeded")
	}

	logrus.Info("Database seeding completed successfully")
}
