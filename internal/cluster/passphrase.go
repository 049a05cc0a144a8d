package cluster

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassphrase возвращает bcrypt-хэш пароля группы.
// cost <= 0 означает bcrypt.DefaultCost.
func HashPassphrase(passphrase string, cost int) ([]byte, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), cost)
	if err != nil {
		return nil, fmt.Errorf("hash passphrase: %w", err)
	}
	return hash, nil
}

// VerifyPassphrase сверяет пароль с сохранённым хэшем.
func VerifyPassphrase(hash []byte, passphrase string) error {
	err := bcrypt.CompareHashAndPassword(hash, []byte(passphrase))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassphrase
	}
	return fmt.Errorf("verify passphrase: %w", err)
}
