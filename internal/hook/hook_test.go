package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_FireInRegistrationOrder(t *testing.T) {
	r := NewRegistry()

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		r.Register(HandlerFunc{
			HandlerName: name,
			Fn: func(_ context.Context, _ Point, _ *Event) error {
				order = append(order, name)
				return nil
			},
		})
	}

	failures := r.Fire(context.Background(), PreDownload, &Event{GameVersion: "1.21"})

	assert.Empty(t, failures)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestRegistry_HandlerErrorDoesNotStopOthers(t *testing.T) {
	r := NewRegistry()

	boom := errors.New("boom")
	var laterRan bool

	r.Register(HandlerFunc{
		HandlerName: "failing",
		Fn:          func(_ context.Context, _ Point, _ *Event) error { return boom },
	})
	r.Register(HandlerFunc{
		HandlerName: "later",
		Fn: func(_ context.Context, _ Point, _ *Event) error {
			laterRan = true
			return nil
		},
	})

	failures := r.Fire(context.Background(), PostDownload, &Event{})

	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], boom)
	assert.True(t, laterRan)
}

func TestRegistry_FireEmpty(t *testing.T) {
	r := NewRegistry()

	assert.Empty(t, r.Fire(context.Background(), PrePackage, &Event{}))
}

func TestPoint_String(t *testing.T) {
	tests := []struct {
		point Point
		want  string
	}{
		{PreResolve, "pre-resolve"},
		{PostResolve, "post-resolve"},
		{PreDownload, "pre-download"},
		{PostDownload, "post-download"},
		{PrePackage, "pre-package"},
		{PostPackage, "post-package"},
		{Point(42), "unknown(42)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.point.String())
	}
}
