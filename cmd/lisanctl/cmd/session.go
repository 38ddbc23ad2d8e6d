package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/satriahrh/lisan/adapters/clipboard"
	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/internal/config"
	"github.com/satriahrh/lisan/internal/notification"
	"github.com/satriahrh/lisan/internal/providers"
	"github.com/satriahrh/lisan/usecase"
)

// localSession is a coordinator running in-process with terminal output
type localSession struct {
	coordinator   *usecase.Coordinator
	notifications chan entities.Notification
	providers     *providers.Set
}

// filePlayer writes every clip it plays to path
type filePlayer struct {
	path string
}

func (p filePlayer) Play(ctx context.Context, clip *entities.AudioClip) error {
	if clip.Released() {
		return domain.ErrPlaybackFailure
	}
	if err := os.WriteFile(p.path, clip.Data(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPlaybackFailure, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d bytes of %s to %s\n", clip.Size(), clip.ContentType, p.path)
	return nil
}

func newLocalSession(ctx context.Context, cfg config.Config, pair entities.LanguagePair, out string, logger *zap.Logger) (*localSession, error) {
	set, err := providers.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	notifications := make(chan entities.Notification, 16)
	notifier := notification.NewService(logger, notification.WithTTL(cfg.Notification.TTL))
	notifier.Subscribe(func(event notification.Event) {
		if event.Type != notification.EventAdded {
			return
		}
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", event.Notification.Kind, event.Notification.Title, event.Notification.Description)
		select {
		case notifications <- event.Notification:
		default:
		}
	})

	coordinator, err := usecase.NewCoordinator(usecase.Dependencies{
		Catalog:     cfg.Languages.Catalog,
		Pair:        pair,
		Notifier:    notifier,
		Translator:  set.Translator,
		Synthesizer: set.Synthesizer,
		Player:      filePlayer{path: out},
		Capability:  set.Capability,
		Clipboard:   clipboard.NewHostClipboard(logger),
		Logger:      logger,
	})
	if err != nil {
		set.Close()
		return nil, err
	}

	return &localSession{
		coordinator:   coordinator,
		notifications: notifications,
		providers:     set,
	}, nil
}

// waitFor blocks until a notification titled one of titles arrives
func (s *localSession) waitFor(ctx context.Context, titles ...string) (entities.Notification, error) {
	for {
		select {
		case n := <-s.notifications:
			for _, title := range titles {
				if n.Title == title {
					return n, nil
				}
			}
		case <-ctx.Done():
			return entities.Notification{}, ctx.Err()
		}
	}
}

// pendingError returns the first queued error notification, if any
func (s *localSession) pendingError() error {
	for {
		select {
		case n := <-s.notifications:
			if n.Kind == entities.NotificationError {
				return errors.New(n.Description)
			}
		default:
			return nil
		}
	}
}

func (s *localSession) Close() {
	s.coordinator.Close()
	s.providers.Close()
}

// resolvePair applies --from/--to on top of the configured default pair
func resolvePair(cfg config.Config, from, to string) entities.LanguagePair {
	pair := cfg.Languages.DefaultPair
	if from != "" {
		pair.Source = entities.LanguageCode(from)
	}
	if to != "" {
		pair.Target = entities.LanguageCode(to)
	}
	return pair
}
