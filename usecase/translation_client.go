package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
)

// SettleFunc sees the outcome of a request before it is reported. Returning
// false drops the outcome without a notification.
type SettleFunc func(result string, err error) bool

// TranslationClient issues one translation request per call and reports the
// outcome through the notifier
type TranslationClient struct {
	translator repositories.Translator
	notifier   Notifier
	logger     *zap.Logger
}

func NewTranslationClient(translator repositories.Translator, notifier Notifier, logger *zap.Logger) *TranslationClient {
	return &TranslationClient{
		translator: translator,
		notifier:   notifier,
		logger:     logger,
	}
}

// Translate sends req to the backend. Blank text returns domain.ErrEmptyText
// without a request or a notification.
func (t *TranslationClient) Translate(ctx context.Context, req entities.TranslationRequest, settle SettleFunc) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", domain.ErrEmptyText
	}

	t.logger.Info("Translating text",
		zap.String("from", string(req.From)),
		zap.String("to", string(req.To)),
		zap.Int("textLength", len(req.Text)))

	result, err := t.translator.Translate(ctx, req)

	if settle != nil && !settle(result, err) {
		t.logger.Info("Discarding superseded translation", zap.Error(err))
		return result, err
	}

	if err != nil {
		t.logger.Error("Translation failed", zap.Error(err))
		t.notifier.Enqueue("Translation Error", "Could not translate text. Please check your input/network.", entities.NotificationError)
		return "", err
	}

	t.notifier.Enqueue("Success", "Text translated successfully.", entities.NotificationSuccess)
	return result, nil
}
