// Package store is the read-only storage collaborator for the pricing
// pipeline. All reference data it serves is loaded by the batch loaders or
// curated by administrators; nothing here mutates during a pricing request.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gyeh/carecost/internal/model"
)

// Store exposes the read queries the pricing pipeline depends on.
// Implementations return nil (not an error) for single-row lookups that miss.
type Store interface {
	// GetWorkflowBySlug returns the active workflow with the given slug,
	// or nil when it is missing or inactive.
	GetWorkflowBySlug(ctx context.Context, slug string) (*model.Workflow, error)

	// GetPayer returns the payer by id, or nil when unknown.
	GetPayer(ctx context.Context, id int64) (*model.Payer, error)

	// ListWorkflowCodes returns the workflow's codes in serving order:
	// base codes first, then display order ascending, then code ascending.
	ListWorkflowCodes(ctx context.Context, workflowID int64) ([]model.WorkflowCode, error)

	// GetBaselineFees returns the national baseline fee per code for
	// (cy, place). Codes without a row are absent from the map.
	GetBaselineFees(ctx context.Context, codes []string, cy int32, place model.Place) (map[string]model.FeeAmount, error)

	// GetLocalityFees returns locality-specific allowed amounts per code for
	// (cy, place, mac, locality). Absence is expected for most codes.
	GetLocalityFees(ctx context.Context, codes []string, cy int32, place model.Place, mac, locality string) (map[string]decimal.Decimal, error)

	// GetPayerOverrides returns fixed override amounts per code for
	// (payer, cy, place).
	GetPayerOverrides(ctx context.Context, payerID int64, codes []string, cy int32, place model.Place) (map[string]decimal.Decimal, error)

	// GetDescriptions returns the active description per code: sources
	// preferred AMA_CPT, then CMS_HCPCS, then INTERNAL; latest version within
	// a source.
	GetDescriptions(ctx context.Context, codes []string) (map[string]model.Description, error)

	// GetHcpcsMeta returns the most recent meta row per code.
	GetHcpcsMeta(ctx context.Context, codes []string) (map[string]model.HcpcsMeta, error)

	// GetDocNotes returns note texts per code for the year, ordered by
	// priority then insertion.
	GetDocNotes(ctx context.Context, codes []string, cy int32) (map[string][]string, error)

	// ListActiveWorkflows returns active workflows ordered by name.
	ListActiveWorkflows(ctx context.Context) ([]model.Workflow, error)

	// ListPayers returns all payers ordered by id.
	ListPayers(ctx context.Context) ([]model.Payer, error)

	// ListDistinctLocalities returns the MAC/locality pairs priced in cy.
	ListDistinctLocalities(ctx context.Context, cy int32) ([]model.Locality, error)
}
