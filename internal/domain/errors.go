package domain

import "errors"

var (
	// ErrUnsupportedEngine means the requested OCR engine is not in the
	// closed engine set. Configuration-level, never retried.
	ErrUnsupportedEngine = errors.New("unsupported ocr engine")

	// ErrOCRTimeout means the OCR backend exceeded its wall-clock budget.
	// The abandoned call may still be running; its results are ignored.
	ErrOCRTimeout = errors.New("ocr timed out")

	ErrBatchNotFound   = errors.New("batch not found")
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrVendorNotFound  = errors.New("vendor not found")
)
