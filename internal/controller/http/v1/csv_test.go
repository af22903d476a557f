package v1_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
)

func TestGetBatchExpensesCSV(t *testing.T) {
	t.Parallel()

	handler, m := newHandler(t)

	batch := &domain.BatchUpload{ID: 55, Token: "tok-csv"}
	expenses := []*domain.Expense{
		{
			ID:          201,
			Category:    domain.CategoryFeed,
			Amount:      45.99,
			Description: "Chicken feed",
			ExpenseDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          202,
			Category:    domain.CategoryOther,
			Amount:      12.50,
			Description: "Misc, with comma",
			ExpenseDate: time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		},
	}

	m.batches.On("BatchByToken", mock.Anything, "tok-csv", int64(5)).Return(batch, nil)
	m.expenses.On("ExpensesByBatch", mock.Anything, int64(55), mock.Anything, uint64(0)).
		Return(expenses, 2, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts/batch/tok-csv/expenses.csv", nil)
	req.Header.Set("X-User-ID", "5")
	req = withToken(req, "tok-csv")

	rec := httptest.NewRecorder()
	handler.GetBatchExpensesCSV(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "tok-csv-expenses.csv")

	body := rec.Body.String()
	assert.Contains(t, body, "expense_date,description,category,amount,notes")
	assert.Contains(t, body, "2026-03-15,Chicken feed,feed,45.99,")
	assert.Contains(t, body, `"Misc, with comma"`)
}
