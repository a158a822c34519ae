// Command authgate runs the protective authentication gateway.
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/hookguard/authgate"
)

func main() {
	cfg, err := authgate.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var (
		store     authgate.SessionStore
		blacklist authgate.Blacklist
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store, err = authgate.NewRedisSessionStore(client)
		if err != nil {
			log.Fatalf("failed to connect session store: %v", err)
		}
		blacklist, err = authgate.NewRedisBlacklist(client)
		if err != nil {
			log.Fatalf("failed to connect blacklist: %v", err)
		}
		logger.Info("using redis backend", "addr", cfg.RedisAddr)
	} else {
		store = authgate.NewMemorySessionStore()
		blacklist = authgate.NewMemoryBlacklist()
	}

	manager, err := authgate.NewSessionManager(*cfg, store, blacklist, logger)
	if err != nil {
		log.Fatalf("failed to initialize session manager: %v", err)
	}
	defer manager.Close()

	relay, err := authgate.NewRelayClient(cfg.TargetURL, cfg.RelaySigningKey, cfg.RelayTimeout)
	if err != nil {
		log.Fatalf("failed to initialize relay client: %v", err)
	}

	server, err := authgate.NewServer(*cfg, manager, relay, logger)
	if err != nil {
		log.Fatalf("failed to initialize server: %v", err)
	}

	logger.Info("authgate listening", "addr", cfg.ListenAddr)
	if err := server.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
