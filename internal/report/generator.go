package report

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
)

const reportPageSize = 1000

type ExpensesProvider interface {
	ExpensesByBatch(ctx context.Context, batchID int64, limit, offset uint64) ([]*domain.Expense, int, error)
}

// Generator renders a one-page PDF summary per completed batch: counters on
// top, one row per created expense below.
type Generator struct {
	log       *slog.Logger
	outputDir string
	expenses  ExpensesProvider
}

func NewGenerator(log *slog.Logger, outputDir string, expenses ExpensesProvider) *Generator {
	return &Generator{
		log:       log,
		outputDir: outputDir,
		expenses:  expenses,
	}
}

func (g *Generator) GenerateBatchReport(ctx context.Context, batch *domain.BatchUpload) error {
	expenses, _, err := g.expenses.ExpensesByBatch(ctx, batch.ID, reportPageSize, 0)
	if err != nil {
		return fmt.Errorf("loading batch expenses: %w", err)
	}

	cfg := config.NewBuilder().
		WithPageNumber().
		Build()

	m := maroto.New(cfg)

	m.AddRow(12, text.NewCol(12, "Receipt Batch Summary", props.Text{
		Size:  14,
		Style: fontstyle.Bold,
		Align: align.Center,
	}))

	m.AddRow(8, text.NewCol(12, fmt.Sprintf("Batch %s (engine %s)", batch.Token, batch.OCREngine), props.Text{
		Size:  10,
		Align: align.Center,
	}))

	m.AddRow(8, text.NewCol(12, fmt.Sprintf(
		"%d files: %d succeeded, %d failed",
		batch.TotalCount, batch.SuccessCount, batch.ErrorCount,
	), props.Text{
		Size:  10,
		Align: align.Center,
	}))

	m.AddRow(10,
		text.NewCol(3, "Date", props.Text{Style: fontstyle.Bold}),
		text.NewCol(4, "Description", props.Text{Style: fontstyle.Bold}),
		text.NewCol(3, "Category", props.Text{Style: fontstyle.Bold}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Align: align.Right}),
	)

	var total float64
	for _, expense := range expenses {
		total += expense.Amount

		m.AddRow(7,
			text.NewCol(3, expense.ExpenseDate.Format("2006-01-02")),
			text.NewCol(4, expense.Description),
			text.NewCol(3, string(expense.Category)),
			text.NewCol(2, fmt.Sprintf("%.2f", expense.Amount), props.Text{Align: align.Right}),
		)
	}

	m.AddRow(9,
		text.NewCol(10, "Total", props.Text{Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, fmt.Sprintf("%.2f", total), props.Text{Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("generating pdf: %w", err)
	}

	path := filepath.Join(g.outputDir, batch.Token+".pdf")
	if err := doc.Save(path); err != nil {
		return fmt.Errorf("saving pdf: %w", err)
	}

	g.log.InfoContext(ctx, "batch report written",
		slog.String("token", batch.Token),
		slog.String("path", path),
		slog.Int("expenses", len(expenses)))

	return nil
}
