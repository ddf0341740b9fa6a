// Package api contains the HTTP handlers. Dependencies are injected through
// Handler rather than reached via package globals so the whole surface can
// be exercised against an in-memory store.
package api

import (
	"go.uber.org/zap"

	"truecrime-studio/service"
	"truecrime-studio/storage"
)

type Handler struct {
	Session   *service.Session
	Repo      *storage.Repository
	Monitor   *storage.Monitor
	Optimizer *storage.Optimizer
	Tasks     *service.TaskRegistry
	Queue     *service.Queue
	Services  *service.Services
	Log       *zap.Logger

	// RecoveryPercent is the usage target manual cleanup defaults to.
	RecoveryPercent int
}
