package fault_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sudo-init-do/lancepay/internal/fault"
)

func TestKindOf(t *testing.T) {
	err := fault.New(fault.KindInsufficientFunds, "insufficient balance")
	assert.Equal(t, fault.KindInsufficientFunds, fault.KindOf(err))
	assert.True(t, fault.Is(err, fault.KindInsufficientFunds))

	wrapped := fmt.Errorf("handling request: %w", err)
	assert.Equal(t, fault.KindInsufficientFunds, fault.KindOf(wrapped))

	assert.Equal(t, fault.KindInternal, fault.KindOf(errors.New("plain")))
	assert.False(t, fault.Is(nil, fault.KindInternal))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := fault.Wrap(fault.KindInternal, "load wallet", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "load wallet")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[fault.Kind]int{
		fault.KindValidation:        http.StatusBadRequest,
		fault.KindForbidden:         http.StatusForbidden,
		fault.KindNotFound:          http.StatusNotFound,
		fault.KindInvalidState:      http.StatusConflict,
		fault.KindInsufficientFunds: http.StatusUnprocessableEntity,
		fault.KindBusy:              http.StatusServiceUnavailable,
		fault.KindInternal:          http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, fault.HTTPStatus(fault.New(kind, "x")))
	}
}
