package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/toyamagu-2021/argocd-exporter/internal/argocd/client"
	"github.com/toyamagu-2021/argocd-exporter/internal/config"
	"github.com/toyamagu-2021/argocd-exporter/internal/logging"
	"github.com/toyamagu-2021/argocd-exporter/internal/metrics"
	"github.com/toyamagu-2021/argocd-exporter/internal/poller"
	"github.com/toyamagu-2021/argocd-exporter/internal/server"
)

const version = "1.0.0"

func main() {
	log := logging.GetLogger()

	log.WithFields(logrus.Fields{
		"version": version,
		"pid":     os.Getpid(),
	}).Info("Starting ArgoCD exporter")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Configuration error")
	}

	log.WithFields(logrus.Fields{
		"servers":       len(cfg.Servers),
		"port":          cfg.Port,
		"poll_interval": cfg.PollInterval.String(),
	}).Info("Configuration loaded")

	clients := make([]client.Interface, 0, len(cfg.Servers))
	for _, sc := range cfg.Servers {
		clients = append(clients, client.New(sc))
	}

	registry := metrics.NewRegistry()

	srv := server.New(registry, cfg.Port, log)
	if err := srv.Listen(); err != nil {
		log.WithError(err).Fatal("Failed to bind metrics listener")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := poller.New(clients, registry, cfg.PollInterval, log)
	go p.Run(ctx)

	go func() {
		<-ctx.Done()
		log.Info("Signal received, shutting down")
		// In-flight fetches are abandoned, not drained
		_ = srv.Close()
	}()

	if err := srv.Serve(); err != nil {
		log.WithError(err).Fatal("Server error")
	}
}
