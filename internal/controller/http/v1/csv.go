package v1

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/jszwec/csvutil"
)

// csvExportLimit bounds one export; batches are user uploads and stay well
// under this.
const csvExportLimit = 10000

type expenseCSVRow struct {
	ExpenseDate string  `csv:"expense_date"`
	Description string  `csv:"description"`
	Category    string  `csv:"category"`
	Amount      float64 `csv:"amount"`
	Notes       string  `csv:"notes"`
}

// GetBatchExpensesCSV streams the batch's expenses as CSV for import into
// bookkeeping tools.
func (h *BatchesHandler) GetBatchExpensesCSV(w http.ResponseWriter, r *http.Request) {
	batch, ok := h.ownedBatch(w, r)
	if !ok {
		return
	}

	expenses, _, err := h.expenses.ExpensesByBatch(r.Context(), batch.ID, csvExportLimit, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", batch.Token+"-expenses.csv"))

	writer := csv.NewWriter(w)
	encoder := csvutil.NewEncoder(writer)

	for _, expense := range expenses {
		row := expenseCSVRow{
			ExpenseDate: expense.ExpenseDate.Format("2006-01-02"),
			Description: expense.Description,
			Category:    string(expense.Category),
			Amount:      expense.Amount,
			Notes:       expense.Notes,
		}

		if err := encoder.Encode(row); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	writer.Flush()
}
