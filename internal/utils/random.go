package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
)

// Random — источник случайности для кодов и токенов.
// В проде используется crypto/rand, в тестах можно подставить seed.
type Random struct {
	// seeded != nil — детерминированный режим (только тесты)
	seeded *mrand.Rand
}

func NewRandom() *Random { return &Random{} }

// NewSeededRandom — детерминированный источник для тестов.
func NewSeededRandom(seed int64) *Random {
	return &Random{seeded: mrand.New(mrand.NewSource(seed))}
}

// NumericCode — код фиксированной длины из десятичных цифр.
// Код короткоживущий и ограничен по попыткам, но смещения всё равно избегаем.
func (r *Random) NumericCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	digits := make([]byte, length)
	for i := range digits {
		if r.seeded != nil {
			digits[i] = byte('0' + r.seeded.Intn(10))
			continue
		}
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("random digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// OpaqueToken — bearer-строка, обязан быть криптостойким.
func (r *Random) OpaqueToken(length int) (string, error) {
	if length <= 0 {
		length = 48
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range out {
		if r.seeded != nil {
			out[i] = tokenAlphabet[r.seeded.Intn(len(tokenAlphabet))]
			continue
		}
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("random token char: %w", err)
		}
		out[i] = tokenAlphabet[n.Int64()]
	}
	return string(out), nil
}
