package clipboard

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/repositories"
)

// HostClipboard writes to the clipboard of the machine running the process
type HostClipboard struct {
	write  func(string) error
	logger *zap.Logger
}

var _ repositories.Clipboard = (*HostClipboard)(nil)

// NewHostClipboard returns a clipboard backed by the operating system
func NewHostClipboard(logger *zap.Logger) *HostClipboard {
	return &HostClipboard{write: clipboard.WriteAll, logger: logger}
}

// Available reports whether the host has a usable clipboard utility
func Available() bool {
	return !clipboard.Unsupported
}

func (h *HostClipboard) WriteText(ctx context.Context, text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("%w: no clipboard utility available", domain.ErrClipboardFailure)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrClipboardFailure, err)
	}

	if err := h.write(text); err != nil {
		h.logger.Warn("Failed to write host clipboard", zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrClipboardFailure, err)
	}

	h.logger.Debug("Wrote host clipboard", zap.Int("length", len(text)))
	return nil
}
