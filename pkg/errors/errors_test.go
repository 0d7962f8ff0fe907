package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeForErrorsIs(t *testing.T) {
	err := Clone(ErrOutOfRangeSlot, "07:45 is not bookable on day 1")
	wrapped := fmt.Errorf("save fulfillment: %w", err)

	assert.True(t, errors.Is(wrapped, ErrOutOfRangeSlot))
	assert.False(t, errors.Is(wrapped, ErrUnknownDay))
	assert.Equal(t, "07:45 is not bookable on day 1", FromError(wrapped).Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Nil(t, FromError(nil))
}

func TestTransient(t *testing.T) {
	timeout := Wrap(context.DeadlineExceeded, ErrStoreUnavail.Code, ErrStoreUnavail.Status, "commit timed out")
	assert.True(t, Transient(timeout))
	assert.False(t, Transient(ErrAlreadyExists))
}
