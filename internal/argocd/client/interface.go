package client

import (
	"context"

	"github.com/toyamagu-2021/argocd-exporter/internal/argocd"
)

//go:generate mockgen -source=interface.go -destination=mock/mock_client.go -package=mock

// Interface defines the contract for fetching application state from
// one ArgoCD server
type Interface interface {
	// Server returns the configured server URL
	Server() string
	// ListApplications returns the normalized status of every
	// application the server reports
	ListApplications(ctx context.Context) ([]argocd.ApplicationStatus, error)
}

// Ensure Client implements Interface
var _ Interface = (*Client)(nil)
