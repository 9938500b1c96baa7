package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/wezaxes/alias-server-go/internal/wordbank"
)

type AddWordResult struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type WordService struct {
	bank *wordbank.Bank
}

func NewWordService(bank *wordbank.Bank) *WordService {
	return &WordService{bank: bank}
}

func (s *WordService) Count() int {
	return s.bank.Len()
}

func (s *WordService) Add(ctx context.Context, raw string) (*AddWordResult, error) {
	word, err := s.bank.Add(ctx, raw)
	if err != nil {
		return nil, err
	}

	count := s.bank.Len()
	log.Info().Str("word", word).Int("count", count).Msg("word added")

	return &AddWordResult{Word: word, Count: count}, nil
}

// Words returns the bank in load order.
func (s *WordService) Words() []string {
	return s.bank.Words()
}
