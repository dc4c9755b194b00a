package flashcard

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scythe504/skribblr-teams/internal"
)

type PostgresSupplier struct {
	pool *pgxpool.Pool
}

func NewPostgresSupplier(ctx context.Context, connString string) (*PostgresSupplier, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("creating pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &PostgresSupplier{pool: pool}, nil
}

const selectFlashcard = `SELECT id, word, hint, image_ref, difficulty, variants
FROM flashcards WHERE difficulty = $1 ORDER BY random() LIMIT 1`

const selectAnyFlashcard = `SELECT id, word, hint, image_ref, difficulty, variants
FROM flashcards ORDER BY random() LIMIT 1`

// GetFlashcard falls back to any tier when the requested one has no rows.
func (p *PostgresSupplier) GetFlashcard(ctx context.Context, difficulty internal.Difficulty) (internal.Flashcard, error) {
	card, err := p.scanOne(ctx, selectFlashcard, string(difficulty))
	if errors.Is(err, pgx.ErrNoRows) {
		card, err = p.scanOne(ctx, selectAnyFlashcard)
	}
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return internal.Flashcard{}, ErrNoFlashcards
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return internal.Flashcard{}, err
		default:
			return internal.Flashcard{}, fmt.Errorf("querying flashcard: %w", err)
		}
	}
	return card, nil
}

func (p *PostgresSupplier) scanOne(ctx context.Context, query string, args ...any) (internal.Flashcard, error) {
	var (
		card       internal.Flashcard
		difficulty string
	)
	err := p.pool.QueryRow(ctx, query, args...).Scan(
		&card.ID, &card.Word, &card.Hint, &card.ImageRef, &difficulty, &card.Variants,
	)
	if err != nil {
		return internal.Flashcard{}, err
	}
	card.Difficulty = internal.Difficulty(difficulty)
	return card, nil
}

// AddFlashcard inserts a card and returns its id.
func (p *PostgresSupplier) AddFlashcard(ctx context.Context, card internal.Flashcard) (int64, error) {
	variants := card.Variants
	if variants == nil {
		variants = []string{}
	}
	var id int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO flashcards(word, hint, image_ref, difficulty, variants) VALUES($1, $2, $3, $4, $5) RETURNING id`,
		card.Word, card.Hint, card.ImageRef, string(card.Difficulty), variants,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting flashcard %q: %w", card.Word, err)
	}
	return id, nil
}

func (p *PostgresSupplier) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresSupplier) Close() {
	p.pool.Close()
}
