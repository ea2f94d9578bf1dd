// Command create-initial-admin creates the bootstrap superuser from INITIAL_ADMIN_* settings,
// or promotes the existing account with that email.
package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/auth"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/config"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/infrastructure/db"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	admin := cfg.InitialAdmin
	if admin.Email == "" || admin.Password == "" {
		logger.Fatal("INITIAL_ADMIN_EMAIL and INITIAL_ADMIN_PASSWORD must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := db.Open(ctx, cfg.PgDsn, time.Duration(cfg.PgLockMs)*time.Millisecond)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()

	if cfg.Migrate {
		if err := db.RunMigrations(store.DB()); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// tokens are never issued here
	users := application.NewUserService(store, auth.NewTokenManager("", "", 0, 0), nil, logger)
	u, created, err := users.EnsureInitialAdmin(ctx, application.RegisterInput{
		Email:     admin.Email,
		Username:  admin.Username,
		Password:  admin.Password,
		FirstName: admin.FirstName,
		LastName:  admin.LastName,
	})
	if err != nil {
		logger.Fatal("failed to create initial admin", zap.Error(err))
	}
	if created {
		logger.Info("initial admin created", zap.String("email", u.Email), zap.String("userId", u.ID.String()))
	} else {
		logger.Info("initial admin already existed; role and password updated", zap.String("email", u.Email))
	}
}
