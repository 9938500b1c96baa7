// Package wordbank holds the in-memory pool of words that turns draw from.
package wordbank

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wezaxes/alias-server-go/internal/config"
	apperrors "github.com/wezaxes/alias-server-go/internal/errors"
	"github.com/wezaxes/alias-server-go/internal/repository"
)

// Defaults seed the bank when nothing has been persisted yet.
var Defaults = []string{
	"Пудж", "Бебра", "Стан", "Мід", "Рошан",
	"Сленг", "Крінж", "Абобус", "Wezaxes", "Тільт",
}

// Rand is the randomness a draw needs. *rand.Rand satisfies it; Global is
// safe for concurrent use.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Global draws from the math/rand/v2 top-level generator.
var Global Rand = globalRand{}

type Bank struct {
	mu     sync.RWMutex
	words  []string
	folded map[string]struct{}
	store  repository.WordRepository
}

// New returns a bank seeded with Defaults. Call Load to replace them with
// persisted words.
func New(store repository.WordRepository) *Bank {
	b := &Bank{store: store}
	b.reset(Defaults)
	return b
}

func (b *Bank) reset(words []string) {
	b.words = make([]string, 0, len(words))
	b.folded = make(map[string]struct{}, len(words))
	for _, w := range words {
		key := fold(w)
		if _, dup := b.folded[key]; dup {
			continue
		}
		b.folded[key] = struct{}{}
		b.words = append(b.words, w)
	}
}

// Load reads persisted words. An empty or unreadable store leaves the bank
// on Defaults.
func (b *Bank) Load(ctx context.Context) {
	if b.store == nil {
		return
	}

	words, err := b.store.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load words, using defaults")
		return
	}

	var clean []string
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			clean = append(clean, w)
		}
	}
	if len(clean) == 0 {
		log.Info().Int("count", len(Defaults)).Msg("no persisted words, using defaults")
		return
	}

	b.mu.Lock()
	b.reset(clean)
	count := len(b.words)
	b.mu.Unlock()

	log.Info().Int("count", count).Msg("word bank loaded")
}

// Normalize trims a word and capitalizes it: first letter upper, the rest lower.
func Normalize(word string) string {
	word = strings.TrimSpace(word)
	if word == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(word)
	return cases.Upper(language.Und).String(string(first)) +
		cases.Lower(language.Und).String(word[size:])
}

func fold(word string) string {
	return cases.Fold().String(word)
}

// Add appends a normalized word unless a case-variant is already present.
// Persisting is best effort: a failed write is logged and the word stays
// usable in memory.
func (b *Bank) Add(ctx context.Context, raw string) (string, error) {
	word := Normalize(raw)
	if word == "" {
		return "", apperrors.MissingRequired("word")
	}
	if utf8.RuneCountInString(word) > config.MaxWordLength {
		return "", apperrors.InvalidInput("word", "too long")
	}

	key := fold(word)

	b.mu.Lock()
	if _, dup := b.folded[key]; dup {
		b.mu.Unlock()
		return "", apperrors.AlreadyExists("Word")
	}
	b.folded[key] = struct{}{}
	b.words = append(b.words, word)
	b.mu.Unlock()

	if b.store != nil {
		if err := b.store.Add(ctx, word); err != nil {
			log.Warn().Err(err).Str("word", word).Msg("failed to persist word")
		}
	}

	return word, nil
}

// Draw returns a uniformly random word. Repeats across draws are allowed.
func (b *Bank) Draw(rng Rand) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.words) == 0 {
		panic("wordbank: draw from empty bank")
	}
	return b.words[rng.IntN(len(b.words))]
}

// DrawNext draws a word different from current whenever the bank has more
// than one word, so the explainer always sees the word change.
func (b *Bank) DrawNext(rng Rand, current string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.words)
	if n == 0 {
		panic("wordbank: draw from empty bank")
	}
	if n == 1 {
		return b.words[0]
	}
	for {
		if w := b.words[rng.IntN(n)]; w != current {
			return w
		}
	}
}

func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.words)
}

// Words returns a copy of the bank in insertion order.
func (b *Bank) Words() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.words))
	copy(out, b.words)
	return out
}
