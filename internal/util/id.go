package util

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

const gameIDBytes = 10

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewGameID returns a random, URL-safe identifier for a local game.
// 10 random bytes encode to 16 lowercase base32 characters.
func NewGameID() (string, error) {
	b := make([]byte, gameIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToLower(idEncoding.EncodeToString(b)), nil
}
