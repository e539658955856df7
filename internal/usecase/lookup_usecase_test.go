package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"payrecon/internal/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	he, ok := AsHTTPError(err)
	require.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, status, he.Status)
}

func TestLookup_OrderByTransactionID(t *testing.T) {
	rec, db := newReconcileFixture(t, nil)
	created, err := rec.ReconcileSucceeded(context.Background(), succeededEvent("pi_look"))
	require.NoError(t, err)

	uc := NewLookupUsecase(db, NewIdempotencyGuard(db))

	out, err := uc.OrderByTransactionID(context.Background(), " pi_look ")
	require.NoError(t, err)
	assert.Equal(t, created.Order.OrderNumber, out.OrderNumber)
	assert.Equal(t, "pi_look", out.ExternalTransactionID)
	assert.Equal(t, "299.00", out.TotalAmount)
	assert.Equal(t, int64(29900), out.TotalMinor)
	assert.Len(t, out.Items, 2)
}

func TestLookup_OrderByTransactionID_Errors(t *testing.T) {
	rec, db := newReconcileFixture(t, nil)
	_, err := rec.RecordFailed(context.Background(), failedEvent("pi_failed_only"))
	require.NoError(t, err)

	uc := NewLookupUsecase(db, NewIdempotencyGuard(db))

	_, err = uc.OrderByTransactionID(context.Background(), "")
	assertHTTPStatus(t, err, http.StatusBadRequest)

	_, err = uc.OrderByTransactionID(context.Background(), strings.Repeat("x", 256))
	assertHTTPStatus(t, err, http.StatusBadRequest)

	_, err = uc.OrderByTransactionID(context.Background(), "pi_unknown")
	assertHTTPStatus(t, err, http.StatusNotFound)

	//失敗決済には注文がない
	_, err = uc.OrderByTransactionID(context.Background(), "pi_failed_only")
	assertHTTPStatus(t, err, http.StatusNotFound)

	db.failLookups = errors.New("db gone")
	_, err = uc.OrderByTransactionID(context.Background(), "pi_unknown")
	assertHTTPStatus(t, err, http.StatusInternalServerError)
}

func TestLookup_ListNeedingReview(t *testing.T) {
	rec, db := newReconcileFixture(t, &scriptedNumbers{script: []string{"ORD-A", "ORD-B", "ORD-C"}})

	clean := succeededEvent("pi_clean")
	_, err := rec.ReconcileSucceeded(context.Background(), clean)
	require.NoError(t, err)

	summary := succeededEvent("pi_summary")
	summary.Metadata[metadata.KeyCartItems] = `{"itemCount":"4"}`
	_, err = rec.ReconcileSucceeded(context.Background(), summary)
	require.NoError(t, err)

	marker := succeededEvent("pi_marker")
	marker.Metadata[metadata.KeyShippingAddress] = `{"hasAddress":true}`
	_, err = rec.ReconcileSucceeded(context.Background(), marker)
	require.NoError(t, err)

	uc := NewLookupUsecase(db, NewIdempotencyGuard(db))

	outs, err := uc.ListNeedingReview(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, outs, 2)

	assert.Equal(t, "ORD-B", outs[0].Order.OrderNumber)
	require.Len(t, outs[0].Notes, 1)
	assert.Contains(t, outs[0].Notes[0], "summary of 4 items")
	require.Len(t, outs[0].Order.Items, 1)
	assert.Equal(t, metadata.SummaryProductID, outs[0].Order.Items[0].ProductID)

	assert.Equal(t, "ORD-C", outs[1].Order.OrderNumber)
	assert.True(t, outs[1].Order.ShippingAddress.NeedsCorrection)

	limited, err := uc.ListNeedingReview(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestLookup_ListNeedingReview_InvalidLimit(t *testing.T) {
	db := newMemDB()
	uc := NewLookupUsecase(db, NewIdempotencyGuard(db))

	for _, limit := range []int{0, -1, 201} {
		_, err := uc.ListNeedingReview(context.Background(), limit)
		assertHTTPStatus(t, err, http.StatusBadRequest)
	}
}
