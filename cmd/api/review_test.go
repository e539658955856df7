package main

import (
	"bytes"
	"testing"
	"time"

	"payrecon/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReview(t *testing.T) {
	var buf bytes.Buffer
	err := writeReview(&buf, []usecase.ReviewOutput{{
		Order: usecase.OrderOutput{
			OrderNumber: "ORD-ABC",
			TotalAmount: "150.00",
			Currency:    "try",
			CreatedAt:   time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		},
		Notes: []string{"cart arrived as a summary of 3 items", "shipping address could not be parsed"},
	}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "ORDER")
	assert.Contains(t, out, "ORD-ABC")
	assert.Contains(t, out, "150.00 TRY")
	assert.Contains(t, out, "2026-03-01 09:30")
	assert.Contains(t, out, "summary of 3 items; shipping address")
}

func TestWriteReview_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReview(&buf, nil))
	assert.Equal(t, "no orders need review\n", buf.String())
}

func TestRootCmd_HasCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "review"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
