package platformerrors

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsError_KeepsTypeAndID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	inner := NewError(ctx, LayerRepository, ErrorTypeNotFound, "job not found", nil)

	outer := AsError(ctx, LayerDomain, inner, "get job")
	assert.Equal(t, ErrorTypeNotFound, outer.Type)
	assert.Equal(t, inner.ID, outer.ID)
	assert.Equal(t, "req-1", outer.RequestID)
	assert.True(t, IsErrorType(outer, ErrorTypeNotFound))
	assert.ErrorIs(t, outer, inner)

	plain := AsError(ctx, LayerDomain, errors.New("boom"), "get job")
	assert.Equal(t, ErrorTypeInternal, plain.Type)
	assert.Nil(t, AsError(ctx, LayerDomain, nil, "noop"))
}

func TestErrorTypeToHTTPStatus(t *testing.T) {
	tests := map[ErrorType]int{
		ErrorTypeNotFound:   http.StatusNotFound,
		ErrorTypeValidation: http.StatusBadRequest,
		ErrorTypeConflict:   http.StatusConflict,
		ErrorTypeExternal:   http.StatusBadGateway,
		ErrorTypeTimeout:    http.StatusGatewayTimeout,
		ErrorTypeInternal:   http.StatusInternalServerError,
	}
	for typ, want := range tests {
		assert.Equal(t, want, ErrorTypeToHTTPStatus(typ), typ)
	}
}
