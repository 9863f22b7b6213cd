package services

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/thereayou/flux/internal/apperr"
)

const (
	minPasswordLength = 8
	// bcrypt не принимает больше 72 байт
	maxPasswordBytes = 72
)

// passwordLength проверяет обе границы длины пароля
func passwordLength(pw string) error {
	if utf8.RuneCountInString(pw) < minPasswordLength {
		return apperr.Validation("password must be at least 8 characters long")
	}
	if len(pw) > maxPasswordBytes {
		return apperr.Validation("password must be at most 72 bytes long")
	}
	return nil
}

// strongPassword от 8 символов до 72 байт, хотя бы одна заглавная буква и одна цифра
func strongPassword(pw string) error {
	if err := passwordLength(pw); err != nil {
		return err
	}
	var upper, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !digit {
		return apperr.Validation("password must contain an uppercase letter and a digit")
	}
	return nil
}

func hashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.New(apperr.KindInternal, "cannot hash password").Wrap(err)
	}
	return string(hash), nil
}

func checkPassword(hash, pw string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, apperr.New(apperr.KindInternal, "cannot verify password").Wrap(err)
	}
	return true, nil
}
