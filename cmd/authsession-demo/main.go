// Command authsession-demo walks one session through its lifecycle against a
// Redis-backed token store: restore, sign-in, expiry detected by the
// watchdog, sign-out, and finally a Prometheus dump of the manager metrics.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/authsession"
	"github.com/MrEthical07/authsession/jwt"
	"github.com/MrEthical07/authsession/metrics/export/prometheus"
	"github.com/MrEthical07/authsession/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg demoConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, cleanup, err := openRedis(cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}
	defer cleanup()

	tokenStore := store.NewRedis(client, cfg.RedisPrefix, cfg.StoreTTL)
	rtt, err := tokenStore.Ping(ctx)
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	logger.Debug("redis reachable", "rtt", rtt)

	signer, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(cfg.Secret),
		Issuer:        cfg.Issuer,
	})
	if err != nil {
		return fmt.Errorf("signer setup: %w", err)
	}

	opts := []authsession.Option{
		authsession.WithKey(cfg.Key),
		authsession.WithLogger(logger),
		authsession.WithMetrics(authsession.MetricsConfig{Enabled: true, EnableLatencyHistograms: true}),
	}
	if cfg.Audit {
		opts = append(opts, authsession.WithAuditSink(authsession.NewJSONWriterSink(os.Stdout), authsession.AuditConfig{}))
	}
	manager := authsession.New(opts...)
	defer manager.Close()

	if err := manager.Setup(ctx, authsession.Config{Storage: tokenStore, Decoder: signer.Decoder()}); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	if err := manager.Ready(ctx); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	restored, _ := manager.IsAuthenticated()
	logger.Info("session restored", "has_token", manager.HasToken(), "authenticated", restored)

	signedOut := make(chan struct{}, 1)
	manager.OnSignJWT(func(context.Context) error {
		info, err := manager.Info()
		if err != nil || info == nil {
			return err
		}
		logger.Info("signed in", "user_id", info.ID, "username", info.Username, "roles", info.Roles)
		return nil
	})
	manager.OnSignout(func(context.Context) error {
		logger.Info("signed out")
		select {
		case signedOut <- struct{}{}:
		default:
		}
		return nil
	})

	if _, err := manager.EnableCheckExp(ctx, cfg.CheckInterval, nil); err != nil {
		return fmt.Errorf("watchdog: %w", err)
	}

	token, err := signer.Sign(jwt.Claims{
		ID:       uuid.NewString(),
		Username: cfg.Username,
		Roles:    cfg.Roles,
	}, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	if err := manager.SignJWT(ctx, token); err != nil {
		return fmt.Errorf("sign-in: %w", err)
	}

	deadline := time.NewTimer(cfg.TokenTTL + 2*cfg.CheckInterval + time.Second)
	defer deadline.Stop()
	select {
	case <-signedOut:
	case <-deadline.C:
		logger.Warn("watchdog did not sign out before the deadline")
	case <-ctx.Done():
		logger.Info("interrupted")
	}

	manager.DisableCheckExp()
	fmt.Print(prometheus.NewExporter(manager).Render())
	return nil
}

func openRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}
