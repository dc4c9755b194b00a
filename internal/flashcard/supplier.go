// Package flashcard serves prompt words for rounds. It is a pure lookup: a
// supplier never remembers which cards a room has already seen.
package flashcard

import (
	"context"
	"errors"

	"github.com/scythe504/skribblr-teams/internal"
)

var ErrNoFlashcards = errors.New("no flashcards available")

type Supplier interface {
	GetFlashcard(ctx context.Context, difficulty internal.Difficulty) (internal.Flashcard, error)
}

// SupplierFunc adapts a plain function to Supplier.
type SupplierFunc func(ctx context.Context, difficulty internal.Difficulty) (internal.Flashcard, error)

func (f SupplierFunc) GetFlashcard(ctx context.Context, difficulty internal.Difficulty) (internal.Flashcard, error) {
	return f(ctx, difficulty)
}
