// Command admintoken mints a back office bearer token for a staff member.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "admintoken", Output: os.Stderr})

	_ = godotenv.Load()

	subject := flag.String("subject", "", "staff identifier recorded as the audit actor")
	roleFlag := flag.String("role", string(enums.StaffRoleStaff), "staff role: admin|staff")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	role, err := enums.ParseStaffRole(*roleFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *subject == "" {
		fmt.Fprintln(os.Stderr, "missing -subject")
		os.Exit(2)
	}

	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{Subject: *subject, Role: role})
	if err != nil {
		logg.Error(ctx, "failed to mint token", err)
		os.Exit(1)
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"subject":            *subject,
		"role":               role,
		"expiration_minutes": cfg.JWT.ExpirationMinutes,
	})
	logg.Info(logCtx, "token minted")
	fmt.Println(token)
}
