package main

import (
	"context"

	"github.com/pkg/browser"

	"beeno/internal/devserver"
	"beeno/internal/session"
	"beeno/internal/types"
)

// serverControl is the part of the lifecycle manager the loops drive.
type serverControl interface {
	StartWithCode(ctx context.Context, code string, port uint16, mode string) (types.ServerStatus, error)
	HotfixWithCode(ctx context.Context, code, mode string) (types.ServerStatus, error)
	Stop(ctx context.Context) error
	Status() (types.ServerStatus, bool)
	LastSource() (string, bool)
}

var _ serverControl = (*devserver.Manager)(nil)

// openURL opens url in the default browser.
func openURL(url string) error {
	return browser.OpenURL(url)
}

// summaryWithServer folds the live server state into the current summary.
func summaryWithServer(s *session.RollingSummarizer, server serverControl) types.SessionSummary {
	status, ok := server.Status()
	return session.WithServer(s.Current(), status, ok)
}
