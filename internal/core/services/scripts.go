package services

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// Ensure ScriptService implements the interface.
var _ driving.ScriptService = (*ScriptService)(nil)

// ScriptService exposes the configured maintenance scripts.
type ScriptService struct {
	runner driven.ScriptRunner
}

// NewScriptService creates a script service over runner.
func NewScriptService(runner driven.ScriptRunner) *ScriptService {
	return &ScriptService{runner: runner}
}

// Run executes a script by name. Unknown names return domain.ErrUnknownScript.
func (s *ScriptService) Run(ctx context.Context, name string, out io.Writer) error {
	if s.runner == nil || !slices.Contains(s.runner.Names(), name) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownScript, name)
	}
	start := time.Now()
	logger.Info("script %s: started", name)
	if err := s.runner.Run(ctx, name, out); err != nil {
		logger.Warn("script %s: failed after %s: %v", name, time.Since(start).Round(time.Millisecond), err)
		return fmt.Errorf("script %s: %w", name, err)
	}
	logger.Info("script %s: finished in %s", name, time.Since(start).Round(time.Millisecond))
	return nil
}

// Names lists the configured scripts.
func (s *ScriptService) Names() []string {
	if s.runner == nil {
		return nil
	}
	return s.runner.Names()
}
