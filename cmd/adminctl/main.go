package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/thegridhub/backend/internal/domain/identity"
	"github.com/thegridhub/backend/internal/domain/shared"
	"github.com/thegridhub/backend/internal/infrastructure/config"
	"github.com/thegridhub/backend/internal/infrastructure/logger"
	"github.com/thegridhub/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// passwordEnv supplies the password non-interactively
const passwordEnv = "GRIDHUB_ADMIN_PASSWORD"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: "info", Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := persistence.NewDatabase(ctx, cfg.Database, persistence.Options{Logger: log})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	users := persistence.NewGormAdminUserRepository(db.DB)

	switch os.Args[1] {
	case "create":
		err = create(ctx, users, os.Args[2:], log)
	case "deactivate":
		err = deactivate(ctx, users, os.Args[2:], log)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("Command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func create(ctx context.Context, users identity.AdminUserRepository, args []string, log *zap.Logger) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	email := fs.String("email", "", "Operator email")
	role := fs.String("role", string(identity.AdminRoleViewer), "Role: viewer, operator, superadmin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := users.FindByEmail(ctx, *email); err == nil {
		return fmt.Errorf("admin user %s already exists", *email)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	user, err := identity.NewAdminUser(*email, password, identity.AdminRole(*role))
	if err != nil {
		return err
	}
	if err := users.Save(ctx, user); err != nil {
		return err
	}

	log.Info("Admin user created",
		zap.String("admin_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))
	return nil
}

func deactivate(ctx context.Context, users identity.AdminUserRepository, args []string, log *zap.Logger) error {
	fs := flag.NewFlagSet("deactivate", flag.ExitOnError)
	email := fs.String("email", "", "Operator email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := users.FindByEmail(ctx, *email)
	if err != nil {
		return err
	}
	user.Deactivate()
	if err := users.Save(ctx, user); err != nil {
		return err
	}

	log.Info("Admin user deactivated", zap.String("email", user.Email))
	return nil
}

// readPassword takes the password from the environment or the first line of stdin
func readPassword() (string, error) {
	if p := os.Getenv(passwordEnv); p != "" {
		return p, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printUsage() {
	fmt.Println(`TheGridHub internal console operators

Usage:
  adminctl create -email <email> [-role viewer|operator|superadmin]
  adminctl deactivate -email <email>

The password is read from ` + passwordEnv + ` or stdin.`)
}
