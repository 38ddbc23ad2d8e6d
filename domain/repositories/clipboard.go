package repositories

import "context"

// Clipboard writes text into a clipboard
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}
