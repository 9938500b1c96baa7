package service

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	roomCodeLetters   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	roomCodeDigits    = "0123456789"
	roomCodeLetterLen = 4
	roomCodeDigitLen  = 2
	roomCodeLen       = roomCodeLetterLen + roomCodeDigitLen
)

func randomIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return int(v.Int64())
}

// generateRoomCode returns four letters and two digits in random order,
// e.g. "K7QZ2M".
func generateRoomCode() string {
	code := make([]byte, 0, roomCodeLen)
	for range roomCodeLetterLen {
		code = append(code, roomCodeLetters[randomIndex(len(roomCodeLetters))])
	}
	for range roomCodeDigitLen {
		code = append(code, roomCodeDigits[randomIndex(len(roomCodeDigits))])
	}
	for i := len(code) - 1; i > 0; i-- {
		j := randomIndex(i + 1)
		code[i], code[j] = code[j], code[i]
	}
	return string(code)
}

// NormalizeRoomCode accepts what players type: stray spaces and lower case.
func NormalizeRoomCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidRoomCode reports whether code could have come from generateRoomCode.
func ValidRoomCode(code string) bool {
	if len(code) != roomCodeLen {
		return false
	}
	letters, digits := 0, 0
	for i := 0; i < len(code); i++ {
		switch c := code[i]; {
		case c >= 'A' && c <= 'Z':
			letters++
		case c >= '0' && c <= '9':
			digits++
		default:
			return false
		}
	}
	return letters == roomCodeLetterLen && digits == roomCodeDigitLen
}
