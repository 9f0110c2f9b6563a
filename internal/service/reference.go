package service

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// ReferenceCodeLength is the number of digits of a payment reference.
const ReferenceCodeLength = 12

const digits = "0123456789"

// GenerateReferenceCode returns a numeric code of the given length drawn
// from crypto/rand.  Uniqueness is enforced by the payments table; the
// caller retries on a collision.
func GenerateReferenceCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	max := big.NewInt(int64(len(digits)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(digits[n.Int64()])
	}
	return b.String(), nil
}

// MaskCardNumber keeps the last four digits of a card number and masks
// the rest in groups of four, e.g. "**** **** **** 4242".  Spaces and
// dashes in the input are ignored.
func MaskCardNumber(number string) string {
	clean := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if len(clean) <= 4 {
		return clean
	}
	last := clean[len(clean)-4:]
	groups := (len(clean) - 4 + 3) / 4
	return strings.Repeat("**** ", groups) + last
}
