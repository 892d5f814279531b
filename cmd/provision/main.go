// AngelaMos | 2026
// main.go

// Command provision creates an administrator account directly in the
// configured store. It is the trusted path for the first admin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/carterperez-dev/blog-api/internal/auth"
	"github.com/carterperez-dev/blog-api/internal/config"
	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/storage"
	"github.com/carterperez-dev/blog-api/internal/user"
)

const generatedPasswordBytes = 18

func main() {
	configPath := flag.String("config", "", "path to config file")
	email := flag.String("email", "", "administrator email")
	name := flag.String("name", "Administrator", "administrator display name")
	password := flag.String("password", "", "administrator password (generated when empty)")
	flag.Parse()

	if err := run(*configPath, *email, *name, *password); err != nil {
		slog.Error("provision failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, email, name, password string) error {
	if email == "" {
		return errors.New("-email is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	generated := false
	if password == "" {
		password, err = core.GenerateSecureToken(generatedPasswordBytes)
		if err != nil {
			return err
		}
		generated = true
	}

	stores, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer stores.Close(ctx) //nolint:errcheck // process exits right after

	hasher, err := core.NewHasher(cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	// Only account creation runs here; image and token paths stay unwired.
	userSvc := user.NewService(stores.Users, nil, hasher)
	authSvc := auth.NewService(nil, hasher, userSvc, nil)

	req := auth.ProvisionAdminRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}
	if err := core.NewValidator().Struct(req); err != nil {
		return errors.New(core.FormatValidationError(err))
	}

	created, err := authSvc.EnsureAdmin(ctx, req)
	if err != nil {
		return err
	}

	if !created {
		fmt.Printf("account %s already exists; nothing changed\n", auth.NormalizeEmail(email))
		return nil
	}

	fmt.Printf("administrator %s created\n", auth.NormalizeEmail(email))
	if generated {
		fmt.Printf("generated password: %s\n", password)
	}

	return nil
}
