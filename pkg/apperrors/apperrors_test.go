package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, KindUnavailable, KindOf(Unavailable("taken")))
	assert.Equal(t, KindUnauthorized, KindOf(Unauthorized("nope")))
	assert.Equal(t, KindAlreadyReturned, KindOf(AlreadyReturned("closed")))
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain error")))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("context: %w", Unavailable("taken"))
	assert.Equal(t, KindUnavailable, KindOf(err))
}

func TestInternalWraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("store failure", cause)
	assert.Equal(t, "store failure", err.Error())
	assert.ErrorIs(t, err, cause)
}
