package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/farmbooks/receipt_pipeline/internal/config"
	v1 "github.com/farmbooks/receipt_pipeline/internal/controller/http/v1"
	"github.com/farmbooks/receipt_pipeline/internal/extraction"
	"github.com/farmbooks/receipt_pipeline/internal/ocr"
	"github.com/farmbooks/receipt_pipeline/internal/pipeline"
	"github.com/farmbooks/receipt_pipeline/internal/report"
	"github.com/farmbooks/receipt_pipeline/internal/repository/postgresql"
)

type App struct {
	log *slog.Logger
	cfg *config.Config
}

func New(log *slog.Logger, cfg *config.Config) *App {
	return &App{
		log: log,
		cfg: cfg,
	}
}

func (a *App) Run(ctx context.Context) error {
	a.log.InfoContext(ctx, "starting app",
		slog.String("reports_dir", a.cfg.App.ReportsDirectory),
		slog.String("llm_url", a.cfg.LLM.BaseURL),
		slog.Duration("ocr_classical_timeout", a.cfg.OCR.ClassicalTimeout),
		slog.Duration("ocr_neural_timeout", a.cfg.OCR.NeuralTimeout),
	)

	a.log.InfoContext(ctx, "establishing postgresql connection",
		slog.String("postgresql_host", a.cfg.PostgreSQL.Host),
		slog.String("postgresql_port", a.cfg.PostgreSQL.Port),
		slog.String("postgresql_dbname", a.cfg.PostgreSQL.DBName),
	)

	pool, err := postgresql.NewConnection(ctx, a.log, a.cfg.PostgreSQL)
	if err != nil {
		return fmt.Errorf("failed to create db connection: %w", err)
	}
	defer pool.Close()

	receiptsRepository := postgresql.NewReceiptsRepository(pool)
	batchesRepository := postgresql.NewBatchesRepository(pool)
	vendorsRepository := postgresql.NewVendorsRepository(pool)
	expensesRepository := postgresql.NewExpensesRepository(pool)
	txManager := postgresql.NewTxManager(pool)

	router := ocr.NewRouter(a.log)
	router.Register(ocr.EngineTesseract, ocr.NewTesseractAdapter(a.cfg.OCR.Language))
	for _, engine := range ocr.Engines {
		if ocr.Neural(engine) {
			router.Register(engine, ocr.NewInferenceAdapter(engine, a.cfg.OCR.InferenceURL, engineOptions(engine)))
		}
	}

	extractor := extraction.NewClient(a.log, a.cfg.LLM.BaseURL, a.cfg.LLM.Timeout)
	materializer := pipeline.NewMaterializer(a.log, vendorsRepository, expensesRepository, txManager)
	reporter := report.NewGenerator(a.log, a.cfg.App.ReportsDirectory, expensesRepository)

	batchIDs := make(chan int64, a.cfg.App.QueueBuffer)

	orchestrator := pipeline.NewOrchestrator(
		a.log,
		batchIDs,
		batchesRepository,
		receiptsRepository,
		vendorsRepository,
		router,
		extractor,
		materializer,
		txManager,
		reporter,
		a.cfg.OCR.ClassicalTimeout,
		a.cfg.OCR.NeuralTimeout,
		a.cfg.LLM.MaxRetries,
	)

	enqueue := func(batchID int64) {
		select {
		case batchIDs <- batchID:
		default:
			a.log.Warn("batch queue full, batch will be requeued on restart",
				slog.Int64("batch_id", batchID))
		}
	}

	// Batches interrupted by a previous shutdown go back on the queue.
	// Their terminal items are skipped, so nothing gets processed twice.
	unfinished, err := batchesRepository.UnfinishedBatchIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load unfinished batches: %w", err)
	}
	for _, batchID := range unfinished {
		enqueue(batchID)
	}

	if len(unfinished) > 0 {
		a.log.InfoContext(ctx, "requeued unfinished batches", slog.Int("count", len(unfinished)))
	}

	handler := v1.NewBatchesHandler(
		a.log,
		batchesRepository,
		receiptsRepository,
		expensesRepository,
		txManager,
		router.Supported(),
		enqueue,
	)
	server := v1.NewServer(a.cfg.HTTP, handler)

	erg, ctx := errgroup.WithContext(ctx)

	erg.Go(func() error {
		a.log.InfoContext(ctx, "orchestrator started")
		return orchestrator.Run(ctx)
	})

	erg.Go(func() error {
		a.log.InfoContext(ctx, "starting http server",
			slog.String("addr", net.JoinHostPort(a.cfg.HTTP.Host, a.cfg.HTTP.Port)),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}

		return nil
	})

	erg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	a.log.InfoContext(ctx, "all components started")

	if err := erg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.log.ErrorContext(ctx, "app stopped with error", slog.String("err", err.Error()))

		return err
	}

	a.log.InfoContext(ctx, "app stopped gracefully")

	return nil
}

// engineOptions carries the knobs each neural backend expects.
func engineOptions(engine string) map[string]string {
	switch engine {
	case ocr.EngineGOTOCR:
		return map[string]string{"ocr_type": "format"}
	case ocr.EngineDonut:
		return map[string]string{"task": "receipt"}
	default:
		return nil
	}
}
