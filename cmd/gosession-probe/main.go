package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/httpapi"
	"github.com/MrEthical07/goSession/policy"
	"github.com/MrEthical07/goSession/storage"
)

// gosession-probe exercises a live auth backend end to end: restore,
// optional login, one route-guard evaluation, and a metrics dump.
func main() {
	var (
		baseURL   = flag.String("base-url", "", "auth backend base URL (required)")
		email     = flag.String("email", "", "login email; if empty, only restore is attempted")
		password  = flag.String("password", "", "login password")
		remember  = flag.Bool("remember", false, "persist credentials across runs")
		stateFile = flag.String("state-file", "", "persistence file; defaults to in-memory")
		redisAddr = flag.String("redis-addr", "", "persist to redis instead of a file")
		path      = flag.String("path", "/student/dashboard", "route path to evaluate")
		roles     = flag.String("roles", "", "comma-separated roles the route requires")
		level     = flag.String("level", "", "access level the route requires (basic|intermediate|advanced)")
		verified  = flag.Bool("require-verified", false, "route requires a verified email")
		failOpen  = flag.Bool("fail-open", false, "allow the route when the guard times out")
		verbose   = flag.Bool("verbose", false, "debug logging")
	)
	flag.Parse()

	if *baseURL == "" {
		fmt.Fprintln(os.Stderr, "base-url is required")
		os.Exit(2)
	}

	logLevel := zerolog.InfoLevel
	if *verbose {
		logLevel = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(logLevel).
		With().Timestamp().Logger()

	api, err := httpapi.New(httpapi.Config{BaseURL: *baseURL}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "api client: %v\n", err)
		os.Exit(1)
	}

	medium, cleanup, err := buildMedium(*stateFile, *redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	cfg := goSession.DefaultConfig()
	if *failOpen {
		cfg.Guard.TimeoutPolicy = goSession.FailOpen
	}

	sessions, err := goSession.New().
		WithConfig(cfg).
		WithAPI(api).
		WithStorage(medium).
		WithLogger(logger).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	state := sessions.Restore(ctx)
	fmt.Printf("restore: %s\n", state)

	if *email != "" && !sessions.IsAuthenticated() {
		user, err := sessions.Login(ctx, *email, *password, *remember)
		if err != nil {
			fmt.Fprintf(os.Stderr, "login: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("login: user=%s role=%s verified=%t\n", user.ID, user.Role, user.EmailVerified)
	}

	if user, ok := sessions.User(); ok {
		sub := sessions.Subscription()
		fmt.Printf("session: role=%s level=%s tier=%s active=%t\n",
			user.Role, sessions.AccessLevel(), sub.Tier, sub.Active)
	}

	decision := guard.New(sessions).Evaluate(ctx, buildRequirement(*roles, *level, *verified), *path)
	switch decision.Action {
	case guard.ActionAllow:
		fmt.Printf("guard: allow %s\n", *path)
	case guard.ActionRedirect:
		fmt.Printf("guard: redirect %s -> %s\n", *path, decision.Target)
	default:
		fmt.Printf("guard: pending %s\n", *path)
	}

	printMetrics(sessions.Metrics().Snapshot())
}

func buildMedium(stateFile, redisAddr string) (storage.Medium, func(), error) {
	switch {
	case redisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		medium, err := storage.NewRedis(client, "")
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return medium, func() { _ = client.Close() }, nil
	case stateFile != "":
		medium, err := storage.NewFile(stateFile)
		if err != nil {
			return nil, nil, err
		}
		return medium, func() {}, nil
	default:
		return storage.NewMemory(), func() {}, nil
	}
}

func buildRequirement(roles, level string, verified bool) guard.Requirement {
	req := guard.Requirement{RequireVerifiedEmail: verified}
	for _, raw := range strings.Split(roles, ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			req.Roles = append(req.Roles, policy.NormalizeRole(raw))
		}
	}
	if level != "" {
		req.Level = policy.AccessLevel(strings.ToLower(strings.TrimSpace(level)))
	}
	return req
}

func printMetrics(s goSession.MetricsSnapshot) {
	fmt.Println("---- metrics ----")
	fmt.Printf("login: success=%d failure=%d logout=%d\n", s.LoginSuccess, s.LoginFailure, s.Logout)
	fmt.Printf("refresh: success=%d failure=%d rejected=%d coalesced=%d\n",
		s.RefreshSuccess, s.RefreshFailure, s.RefreshRejected, s.RefreshCoalesced)
	fmt.Printf("restore: authenticated=%d anonymous=%d invalidated=%d\n",
		s.RestoreAuthenticated, s.RestoreAnonymous, s.SessionInvalidated)
	fmt.Printf("guard: allow=%d redirect=%d timeout=%d subscription_fallback=%d\n",
		s.GuardAllow, s.GuardRedirect, s.GuardTimeout, s.SubscriptionFallback)
}
