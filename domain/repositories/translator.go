package repositories

import (
	"context"

	"github.com/satriahrh/lisan/domain/entities"
)

// Translator abstracts a remote translation service
type Translator interface {
	// Translate returns the translated text for a single request
	Translate(ctx context.Context, req entities.TranslationRequest) (string, error)
}
