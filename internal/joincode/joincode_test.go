package joincode

import (
	"context"
	"errors"
	"math/rand/v2"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/flux/internal/apperr"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func seeded() Option {
	return WithRand(rand.New(rand.NewPCG(1, 2)))
}

func TestGenerate_Format(t *testing.T) {
	for i := 0; i < 500; i++ {
		code := Generate()
		assert.Regexp(t, codePattern, code)
	}
}

func TestGenerate_CustomLength(t *testing.T) {
	assert.Len(t, Generate(WithLength(10)), 10)
	assert.Len(t, Generate(WithLength(0)), DefaultLength)
}

func TestGenerateUnique_FirstFree(t *testing.T) {
	calls := 0
	code, err := GenerateUnique(context.Background(), func(ctx context.Context, code string) (bool, error) {
		calls++
		return false, nil
	}, seeded())

	require.NoError(t, err)
	assert.Regexp(t, codePattern, code)
	assert.Equal(t, 1, calls)
}

func TestGenerateUnique_RetriesOnCollision(t *testing.T) {
	seen := []string{}
	code, err := GenerateUnique(context.Background(), func(ctx context.Context, code string) (bool, error) {
		seen = append(seen, code)
		return len(seen) < 3, nil
	}, seeded())

	require.NoError(t, err)
	assert.Len(t, seen, 3)
	assert.Equal(t, seen[2], code)
}

func TestGenerateUnique_ExhaustedAfterFiveChecks(t *testing.T) {
	calls := 0
	code, err := GenerateUnique(context.Background(), func(ctx context.Context, code string) (bool, error) {
		calls++
		return true, nil
	})

	assert.Empty(t, code)
	assert.ErrorIs(t, err, apperr.ErrGenerationExhausted)
	assert.Equal(t, DefaultMaxAttempts, calls)
}

func TestGenerateUnique_StopsBeforeFailingSixthCheck(t *testing.T) {
	calls := 0
	_, err := GenerateUnique(context.Background(), func(ctx context.Context, code string) (bool, error) {
		calls++
		if calls > 5 {
			return false, errors.New("should not be reached")
		}
		return true, nil
	})

	assert.ErrorIs(t, err, apperr.ErrGenerationExhausted)
	assert.Equal(t, 5, calls)
}

func TestGenerateUnique_BackendErrorIsNotCoerced(t *testing.T) {
	dbErr := errors.New("connection reset")
	calls := 0
	_, err := GenerateUnique(context.Background(), func(ctx context.Context, code string) (bool, error) {
		calls++
		return false, dbErr
	})

	assert.Equal(t, apperr.KindBackendUnavailable, apperr.KindOf(err))
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, 1, calls)
}

func TestGenerateUnique_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GenerateUnique(ctx, func(ctx context.Context, code string) (bool, error) {
		t.Fatal("exists must not be called")
		return false, nil
	})
	assert.Equal(t, apperr.KindBackendUnavailable, apperr.KindOf(err))
}

var errDuplicate = errors.New("duplicate key")

func isDuplicate(err error) bool { return errors.Is(err, errDuplicate) }

func TestInsert_RetriesOnConflict(t *testing.T) {
	inserted := map[string]bool{}
	calls := 0
	code, err := Insert(context.Background(), func(ctx context.Context, code string) error {
		calls++
		if calls < 2 {
			return errDuplicate
		}
		inserted[code] = true
		return nil
	}, isDuplicate, seeded())

	require.NoError(t, err)
	assert.True(t, inserted[code])
	assert.Equal(t, 2, calls)
}

func TestInsert_Exhausted(t *testing.T) {
	calls := 0
	_, err := Insert(context.Background(), func(ctx context.Context, code string) error {
		calls++
		return errDuplicate
	}, isDuplicate)

	assert.ErrorIs(t, err, apperr.ErrGenerationExhausted)
	assert.Equal(t, DefaultMaxAttempts, calls)
}

func TestInsert_OtherErrorStops(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := Insert(context.Background(), func(ctx context.Context, code string) error {
		calls++
		return boom
	}, isDuplicate)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestNormalizeAndValid(t *testing.T) {
	tests := []struct {
		in    string
		norm  string
		valid bool
	}{
		{" ab12cd ", "AB12CD", true},
		{"ABC", "ABC", false},
		{"ab-12c", "AB-12C", false},
		{"ñandu1", "ÑANDU1", false},
	}

	for _, tt := range tests {
		got := Normalize(tt.in)
		assert.Equal(t, tt.norm, got)
		assert.Equal(t, tt.valid, Valid(got), tt.in)
	}
}
