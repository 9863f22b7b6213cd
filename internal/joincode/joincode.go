// Package joincode генерирует короткие коды приглашения в группу.
//
// Коды не криптографические: это удобный для ввода идентификатор,
// уникальность которого гарантирует уникальный индекс в БД.
package joincode

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/internal/metrics"
)

const (
	Alphabet           = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultLength      = 6
	DefaultMaxAttempts = 5
)

// ExistsFunc проверяет, занят ли код
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// InsertFunc пытается сохранить сущность с кодом
type InsertFunc func(ctx context.Context, code string) error

type options struct {
	length      int
	maxAttempts int
	intn        func(n int) int
}

type Option func(*options)

func WithLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.length = n
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithRand подменяет источник случайности (для тестов)
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		if r != nil {
			o.intn = r.IntN
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		length:      DefaultLength,
		maxAttempts: DefaultMaxAttempts,
		intn:        rand.IntN,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) draw() string {
	var b strings.Builder
	b.Grow(o.length)
	for i := 0; i < o.length; i++ {
		b.WriteByte(Alphabet[o.intn(len(Alphabet))])
	}
	metrics.JoinCodeAttempts.Inc()
	return b.String()
}

// Generate возвращает один случайный код без проверки уникальности
func Generate(opts ...Option) string {
	return buildOptions(opts).draw()
}

// GenerateUnique генерирует код, которого нет по exists.
// exists вызывается не более maxAttempts раз.
func GenerateUnique(ctx context.Context, exists ExistsFunc, opts ...Option) (string, error) {
	o := buildOptions(opts)

	for attempt := 0; attempt < o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", apperr.Backend(err)
		}

		code := o.draw()
		taken, err := exists(ctx, code)
		if err != nil {
			return "", apperr.Backend(err)
		}
		if !taken {
			return code, nil
		}
	}

	metrics.JoinCodeExhausted.Inc()
	return "", apperr.ErrGenerationExhausted
}

// Insert генерирует код и сразу сохраняет его через insert.
// При нарушении уникальности (isConflict) пробует новый код; арбитр уникальности здесь индекс БД.
func Insert(ctx context.Context, insert InsertFunc, isConflict func(error) bool, opts ...Option) (string, error) {
	o := buildOptions(opts)

	for attempt := 0; attempt < o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", apperr.Backend(err)
		}

		code := o.draw()
		err := insert(ctx, code)
		if err == nil {
			return code, nil
		}
		if !isConflict(err) {
			return "", err
		}
	}

	metrics.JoinCodeExhausted.Inc()
	return "", apperr.ErrGenerationExhausted
}

// Normalize приводит пользовательский ввод к виду кода
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid проверяет длину и алфавит уже нормализованного кода
func Valid(code string) bool {
	if len(code) != DefaultLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
