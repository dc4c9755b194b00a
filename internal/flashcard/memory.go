package flashcard

import (
	"context"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-teams/internal"
)

//go:embed deck.csv
var defaultDeck string

// MemorySupplier picks random cards from an in-memory deck. It is read-only
// after construction and safe for concurrent use.
type MemorySupplier struct {
	cards map[internal.Difficulty][]internal.Flashcard
	total int
}

func NewMemorySupplier(cards []internal.Flashcard) *MemorySupplier {
	m := &MemorySupplier{cards: make(map[internal.Difficulty][]internal.Flashcard)}
	for i, c := range cards {
		if c.ID == 0 {
			c.ID = int64(i + 1)
		}
		m.cards[c.Difficulty] = append(m.cards[c.Difficulty], c)
		m.total++
	}
	return m
}

// DefaultDeck returns the deck bundled with the binary.
func DefaultDeck() (*MemorySupplier, error) {
	return ReadCSV(strings.NewReader(defaultDeck))
}

// LoadCSV reads a deck file. An empty path yields the bundled deck.
func LoadCSV(filePath string) (*MemorySupplier, error) {
	if filePath == "" {
		return DefaultDeck()
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening deck %s: %w", filePath, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses rows of word,hint,image_ref,difficulty[,variant|variant].
// Malformed rows are skipped.
func ReadCSV(r io.Reader) (*MemorySupplier, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	csvReader.Comment = '#'

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing deck csv: %w", err)
	}

	cards := make([]internal.Flashcard, 0, len(records))
	for _, record := range records {
		if len(record) < 4 {
			log.Warn().Strs("record", record).Msg("[flashcard] skipping short record")
			continue
		}
		word := strings.TrimSpace(record[0])
		if word == "" || strings.EqualFold(word, "word") {
			continue
		}
		difficulty, ok := internal.ParseDifficulty(record[3])
		if !ok {
			log.Warn().Str("word", word).Str("difficulty", record[3]).Msg("[flashcard] skipping record with unknown difficulty")
			continue
		}

		card := internal.Flashcard{
			Word:       word,
			Hint:       strings.TrimSpace(record[1]),
			ImageRef:   strings.TrimSpace(record[2]),
			Difficulty: difficulty,
		}
		if len(record) > 4 && strings.TrimSpace(record[4]) != "" {
			for _, v := range strings.Split(record[4], "|") {
				if v = strings.TrimSpace(v); v != "" {
					card.Variants = append(card.Variants, v)
				}
			}
		}
		cards = append(cards, card)
	}

	if len(cards) == 0 {
		return nil, ErrNoFlashcards
	}
	return NewMemorySupplier(cards), nil
}

// GetFlashcard falls back to the whole deck when the tier is empty.
func (m *MemorySupplier) GetFlashcard(ctx context.Context, difficulty internal.Difficulty) (internal.Flashcard, error) {
	if err := ctx.Err(); err != nil {
		return internal.Flashcard{}, err
	}
	if tier := m.cards[difficulty]; len(tier) > 0 {
		return tier[rand.IntN(len(tier))], nil
	}
	if m.total == 0 {
		return internal.Flashcard{}, ErrNoFlashcards
	}

	n := rand.IntN(m.total)
	for _, tier := range m.cards {
		if n < len(tier) {
			return tier[n], nil
		}
		n -= len(tier)
	}
	return internal.Flashcard{}, ErrNoFlashcards
}

func (m *MemorySupplier) Len() int {
	return m.total
}
