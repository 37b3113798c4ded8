package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("book %q: %w", "1", ErrConflict), KindConflict},
		{fmt.Errorf("year 1800: %w", ErrRange), KindRange},
		{ErrValidation, KindValidation},
		{fmt.Errorf("decode: %w", ErrFormat), KindFormat},
		{fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ErrNotFound)), KindNotFound},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), tt.err.Error())
	}
}

func TestFromKind(t *testing.T) {
	assert.ErrorIs(t, FromKind(KindConflict), ErrConflict)
	assert.ErrorIs(t, FromKind(KindFormat), ErrFormat)
	assert.Nil(t, FromKind(KindInternal))
	assert.Nil(t, FromKind("nope"))
}
