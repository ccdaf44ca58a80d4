// Command createadmin registers an administrator account in the configured
// store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"camwatch/internal/core/services"
	"camwatch/internal/infrastructure/repositories"
	"camwatch/pkg/config"
	"camwatch/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to the standard search paths)")
	username := flag.String("username", "", "administrator username")
	password := flag.String("password", "", "administrator password (or CAMWATCH_NEW_ADMIN_PASSWORD)")
	flag.Parse()

	_ = godotenv.Load()

	if *password == "" {
		*password = os.Getenv("CAMWATCH_NEW_ADMIN_PASSWORD")
	}
	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: createadmin -username NAME -password SECRET")
		os.Exit(2)
	}

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, _, err = config.LoadFirst(config.DefaultPaths)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	if cfg.Storage.Driver == config.StorageMemory {
		log.Warnw("Storage driver is memory; the account will not outlive this process")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repoFactory, err := repositories.NewRepositoryFactory(ctx, cfg, log)
	if err != nil {
		log.Fatalw("Failed to initialize storage", "error", err)
	}
	defer repoFactory.Close()

	credentials := services.NewCredentialService(repoFactory.UserRepository(), cfg.Auth.BcryptCost, log)
	user, err := credentials.Register(ctx, *username, *password)
	if err != nil {
		log.Fatalw("Failed to create administrator", "username", *username, "error", err)
	}

	fmt.Printf("created administrator %s (%s)\n", user.Username, user.ID)
}
