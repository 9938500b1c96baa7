package util

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wezaxes/alias-server-go/internal/config"
	apperrors "github.com/wezaxes/alias-server-go/internal/errors"
)

// NormalizeNickname trims a player name and checks it is usable as a room
// member key.
func NormalizeNickname(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperrors.MissingRequired("nickname")
	}
	if utf8.RuneCountInString(name) > config.MaxNicknameLength {
		return "", apperrors.InvalidInput("nickname", "too long")
	}
	if strings.ContainsFunc(name, unicode.IsControl) {
		return "", apperrors.InvalidInput("nickname", "contains control characters")
	}
	return name, nil
}
