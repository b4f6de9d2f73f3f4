package utils

import "crypto/rand"

const joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateJoinCode returns a short shareable code for joining a challenge.
// Uniqueness is enforced by the database; callers retry on collision.
func GenerateJoinCode(length int) string {
	if length <= 0 {
		length = 6
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the system is in far worse trouble
		panic(err)
	}
	for i := range b {
		b[i] = joinCodeAlphabet[int(b[i])%len(joinCodeAlphabet)]
	}
	return string(b)
}
