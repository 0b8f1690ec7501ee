package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "nil error", err: nil, want: KindNone},
		{name: "customer not found", err: ErrCustomerNotFound, want: KindNotFound},
		{name: "wrapped cart miss", err: fmt.Errorf("remove from cart: %w", ErrCartItemNotFound), want: KindNotFound},
		{name: "duplicate product", err: ErrProductExists, want: KindConflict},
		{name: "insufficient stock", err: errors.Join(ErrInsufficientStock, errors.New("product 10")), want: KindConflict},
		{name: "unavailable", err: fmt.Errorf("%w: dial tcp", ErrStorageUnavailable), want: KindUnavailable},
		{name: "validation", err: ErrQtyInvalid, want: KindInvalid},
		{name: "unknown", err: context.Canceled, want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsNotFoundAndIsConflict(t *testing.T) {
	if !IsNotFound(ErrProductNotFound) {
		t.Error("expected ErrProductNotFound to be not-found")
	}
	if IsNotFound(ErrStillReferenced) {
		t.Error("ErrStillReferenced must not be not-found")
	}
	if !IsConflict(ErrStillReferenced) {
		t.Error("expected ErrStillReferenced to be conflict")
	}
}
