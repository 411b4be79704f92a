package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/catalog"
	"github.com/salesflow/backend/internal/domain/shared"
)

// IntegrityReport describes how a product's projection relates to its ledger
type IntegrityReport struct {
	ProductID     uuid.UUID  `json:"product_id"`
	ProductCode   string     `json:"product_code"`
	InitialStock  int64      `json:"initial_stock"`
	LedgerSum     int64      `json:"ledger_sum"`
	ExpectedStock int64      `json:"expected_stock"`
	ActualStock   int64      `json:"actual_stock"`
	Entries       int        `json:"entries"`
	BrokenEntryID *uuid.UUID `json:"broken_entry_id,omitempty"`
	Consistent    bool       `json:"consistent"`
	Detail        string     `json:"detail,omitempty"`
}

// Err returns an INTEGRITY_VIOLATION error when the report is inconsistent
func (r *IntegrityReport) Err() error {
	if r.Consistent {
		return nil
	}
	return shared.NewDomainError(
		shared.CodeIntegrityViolation,
		fmt.Sprintf("Stock ledger mismatch for product %s: %s", r.ProductID, r.Detail),
	)
}

// VerifyProjection replays the chronological ledger of a product and checks
// that it explains the projected stock exactly. The snapshot chain is
// checked as well so the first entry written out of lockstep can be located.
func VerifyProjection(product *catalog.Product, entries []StockAdjustment) *IntegrityReport {
	report := &IntegrityReport{
		ProductID:    product.ID,
		ProductCode:  product.Code,
		InitialStock: product.InitialStock,
		ActualStock:  product.Stock,
		Entries:      len(entries),
		Consistent:   true,
	}

	running := product.InitialStock
	for i := range entries {
		e := entries[i]
		report.LedgerSum += e.Quantity
		if report.BrokenEntryID == nil {
			switch {
			case e.PreviousStock != running:
				report.markBroken(e.ID, fmt.Sprintf("entry %s starts at %d but the ledger stood at %d", e.ID, e.PreviousStock, running))
			case e.NewStock != e.PreviousStock+e.Quantity:
				report.markBroken(e.ID, fmt.Sprintf("entry %s snapshots %d -> %d but carries quantity %d", e.ID, e.PreviousStock, e.NewStock, e.Quantity))
			}
		}
		running += e.Quantity
	}

	report.ExpectedStock = product.InitialStock + report.LedgerSum
	if report.ExpectedStock != product.Stock {
		report.Consistent = false
		if report.Detail == "" {
			report.Detail = fmt.Sprintf("projected stock %d differs from initial %d plus ledger sum %d", product.Stock, product.InitialStock, report.LedgerSum)
		}
	}
	return report
}

// VerifySum is the cheap variant of VerifyProjection that only checks the
// totals, used for tenant-wide sweeps
func VerifySum(product *catalog.Product, ledgerSum int64) *IntegrityReport {
	report := &IntegrityReport{
		ProductID:     product.ID,
		ProductCode:   product.Code,
		InitialStock:  product.InitialStock,
		LedgerSum:     ledgerSum,
		ExpectedStock: product.InitialStock + ledgerSum,
		ActualStock:   product.Stock,
		Entries:       -1,
		Consistent:    true,
	}
	if report.ExpectedStock != report.ActualStock {
		report.Consistent = false
		report.Detail = fmt.Sprintf("projected stock %d differs from initial %d plus ledger sum %d", product.Stock, product.InitialStock, ledgerSum)
	}
	return report
}

func (r *IntegrityReport) markBroken(id uuid.UUID, detail string) {
	r.Consistent = false
	r.BrokenEntryID = &id
	r.Detail = detail
}
