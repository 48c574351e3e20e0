package store_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gyeh/carecost/internal/db"
	"github.com/gyeh/carecost/internal/logging"
	"github.com/gyeh/carecost/internal/model"
	"github.com/gyeh/carecost/internal/store"
)

const (
	testPort     = 15432
	testDB       = "carecosttest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var (
	testDSN string
	pg      *embeddedpostgres.EmbeddedPostgres
)

func TestMain(m *testing.M) {
	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg = embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

// setupDB recreates the schemas, applies migrations, and seeds reference data.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	for _, schema := range []string{"ref", "fees", "ingest"} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
			t.Fatalf("drop schema %s: %v", schema, err)
		}
	}

	log := logging.Setup("text", false)
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

func seedWorkflow(t *testing.T, pool *pgxpool.Pool) int64 {
	t.Helper()
	ctx := context.Background()

	for _, stmt := range []string{
		`INSERT INTO ref.codes (code, code_type) VALUES
		 ('99213', 'CPT'), ('99214', 'CPT'), ('G0011', 'HCPCS'), ('G2211', 'HCPCS')`,
		`INSERT INTO ref.workflows (slug, name, description, active) VALUES
		 ('annual-visit', 'Annual Visit', 'Routine annual evaluation', true),
		 ('retired-flow', 'Retired Flow', '', false)`,
	} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	var workflowID int64
	err := pool.QueryRow(ctx,
		`SELECT id FROM ref.workflows WHERE slug = 'annual-visit'`).Scan(&workflowID)
	if err != nil {
		t.Fatalf("seed workflow id: %v", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO ref.workflow_codes (workflow_id, code, is_base, display_order) VALUES
		 ($1, 'G0011', false, 2),
		 ($1, '99213', true, 0),
		 ($1, 'G2211', false, 1),
		 ($1, '99214', false, 1)`,
		workflowID,
	)
	if err != nil {
		t.Fatalf("seed workflow codes: %v", err)
	}
	return workflowID
}

func TestMigrationsIdempotent(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text", false)

	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
}

func TestSeededPayers(t *testing.T) {
	pool := setupDB(t)
	st := store.NewPG(pool)
	ctx := context.Background()

	payers, err := st.ListPayers(ctx)
	if err != nil {
		t.Fatalf("ListPayers: %v", err)
	}
	if len(payers) != 3 {
		t.Fatalf("payers = %d, want 3 seeded", len(payers))
	}
	if payers[0].ID != 1 || payers[0].Kind != model.KindMedicareOriginal {
		t.Errorf("payer 1 = %+v, want original medicare", payers[0])
	}
	if !payers[0].Multiplier.Equal(decimalFromString(t, "1.000")) {
		t.Errorf("payer 1 multiplier = %s, want 1.000", payers[0].Multiplier)
	}
	if payers[2].Kind != model.KindCommercial || !payers[2].Multiplier.Equal(decimalFromString(t, "1.350")) {
		t.Errorf("payer 3 = %+v, want commercial 1.350", payers[2])
	}
}

func TestGetWorkflowBySlug(t *testing.T) {
	pool := setupDB(t)
	seedWorkflow(t, pool)
	st := store.NewPG(pool)
	ctx := context.Background()

	wf, err := st.GetWorkflowBySlug(ctx, "annual-visit")
	if err != nil {
		t.Fatalf("GetWorkflowBySlug: %v", err)
	}
	if wf == nil || wf.Name != "Annual Visit" {
		t.Fatalf("workflow = %+v", wf)
	}

	// Inactive workflows are invisible.
	wf, err = st.GetWorkflowBySlug(ctx, "retired-flow")
	if err != nil {
		t.Fatalf("GetWorkflowBySlug inactive: %v", err)
	}
	if wf != nil {
		t.Errorf("inactive workflow returned: %+v", wf)
	}

	wf, err = st.GetWorkflowBySlug(ctx, "missing")
	if err != nil || wf != nil {
		t.Errorf("missing workflow = %+v, %v; want nil, nil", wf, err)
	}
}

func TestListWorkflowCodesOrdering(t *testing.T) {
	pool := setupDB(t)
	workflowID := seedWorkflow(t, pool)
	st := store.NewPG(pool)

	codes, err := st.ListWorkflowCodes(context.Background(), workflowID)
	if err != nil {
		t.Fatalf("ListWorkflowCodes: %v", err)
	}

	// Base first, then display order, then code for ties.
	want := []string{"99213", "99214", "G2211", "G0011"}
	if len(codes) != len(want) {
		t.Fatalf("codes = %d, want %d", len(codes), len(want))
	}
	for i, w := range want {
		if codes[i].Code != w {
			t.Errorf("position %d = %q, want %q", i, codes[i].Code, w)
		}
	}
	if !codes[0].IsBase {
		t.Error("first code must be the base")
	}
	if codes[0].CodeType != model.CodeTypeCPT || codes[3].CodeType != model.CodeTypeHCPCS {
		t.Errorf("code types = %q/%q", codes[0].CodeType, codes[3].CodeType)
	}
}

func TestBaselineAndLocalityFees(t *testing.T) {
	pool := setupDB(t)
	seedWorkflow(t, pool)
	st := store.NewPG(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx,
		`INSERT INTO fees.medicare_fee (code, cy, place, allowed_amount, is_placeholder) VALUES
		 ('99213', 2025, 'nonfacility', 90.00, false),
		 ('99213', 2025, 'facility', 68.00, false),
		 ('G0011', 2025, 'nonfacility', 65.00, true)`)
	if err != nil {
		t.Fatalf("seed fees: %v", err)
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO fees.medicare_fee_locality
		 (code, cy, place, mac_code, locality_number, allowed_amount) VALUES
		 ('99213', 2025, 'nonfacility', '10212', '00', 95.50)`)
	if err != nil {
		t.Fatalf("seed locality fees: %v", err)
	}

	fees, err := st.GetBaselineFees(ctx, []string{"99213", "G0011", "G2211"}, 2025, model.PlaceNonFacility)
	if err != nil {
		t.Fatalf("GetBaselineFees: %v", err)
	}
	if len(fees) != 2 {
		t.Fatalf("fees = %d, want 2", len(fees))
	}
	if f := fees["99213"]; !f.Amount.Equal(decimalFromString(t, "90.00")) || f.IsPlaceholder {
		t.Errorf("99213 = %+v", f)
	}
	if f := fees["G0011"]; !f.IsPlaceholder {
		t.Errorf("G0011 placeholder flag lost: %+v", f)
	}

	loc, err := st.GetLocalityFees(ctx, []string{"99213", "G0011"}, 2025, model.PlaceNonFacility, "10212", "00")
	if err != nil {
		t.Fatalf("GetLocalityFees: %v", err)
	}
	if len(loc) != 1 || !loc["99213"].Equal(decimalFromString(t, "95.50")) {
		t.Errorf("locality fees = %v", loc)
	}

	// Wrong locality misses.
	loc, err = st.GetLocalityFees(ctx, []string{"99213"}, 2025, model.PlaceNonFacility, "10212", "99")
	if err != nil {
		t.Fatalf("GetLocalityFees miss: %v", err)
	}
	if len(loc) != 0 {
		t.Errorf("locality fees = %v, want empty", loc)
	}

	// Empty code list short-circuits.
	fees, err = st.GetBaselineFees(ctx, nil, 2025, model.PlaceNonFacility)
	if err != nil || len(fees) != 0 {
		t.Errorf("empty codes = %v, %v", fees, err)
	}
}

func TestPayerOverrides(t *testing.T) {
	pool := setupDB(t)
	seedWorkflow(t, pool)
	st := store.NewPG(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx,
		`INSERT INTO ref.payer_overrides (payer_id, code, cy, place, amount) VALUES
		 (3, '99213', 2025, 'nonfacility', 40.00),
		 (3, '99213', 2025, 'facility', 35.00),
		 (3, '99213', 2024, 'nonfacility', 42.00)`)
	if err != nil {
		t.Fatalf("seed overrides: %v", err)
	}

	got, err := st.GetPayerOverrides(ctx, 3, []string{"99213", "G0011"}, 2025, model.PlaceNonFacility)
	if err != nil {
		t.Fatalf("GetPayerOverrides: %v", err)
	}
	if len(got) != 1 || !got["99213"].Equal(decimalFromString(t, "40.00")) {
		t.Errorf("overrides = %v, want only the 2025 nonfacility row", got)
	}

	got, err = st.GetPayerOverrides(ctx, 1, []string{"99213"}, 2025, model.PlaceNonFacility)
	if err != nil {
		t.Fatalf("GetPayerOverrides other payer: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("overrides for payer 1 = %v, want none", got)
	}
}

func TestDescriptionPreference(t *testing.T) {
	pool := setupDB(t)
	seedWorkflow(t, pool)
	st := store.NewPG(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx,
		`INSERT INTO ref.code_descriptions (code, source, version, short_desc, long_desc) VALUES
		 ('99213', 'CMS_HCPCS', '2025-10', 'cms short', null),
		 ('99213', 'AMA_CPT', '2024', 'ama short', 'ama long'),
		 ('G0011', 'INTERNAL', '1', 'internal short', null),
		 ('G0011', 'CMS_HCPCS', '2025-01', 'old cms', null),
		 ('G0011', 'CMS_HCPCS', '2025-10', 'new cms', null)`)
	if err != nil {
		t.Fatalf("seed descriptions: %v", err)
	}

	got, err := st.GetDescriptions(ctx, []string{"99213", "G0011", "G2211"})
	if err != nil {
		t.Fatalf("GetDescriptions: %v", err)
	}

	// AMA_CPT beats CMS_HCPCS regardless of version.
	d := got["99213"]
	if d.Source != model.SourceAMACPT || d.Short == nil || *d.Short != "ama short" {
		t.Errorf("99213 = %+v", d)
	}
	// Within CMS_HCPCS the latest version wins, and CMS beats INTERNAL.
	d = got["G0011"]
	if d.Source != model.SourceCMSHCPCS || d.Short == nil || *d.Short != "new cms" {
		t.Errorf("G0011 = %+v", d)
	}
	if _, ok := got["G2211"]; ok {
		t.Error("G2211 has no description but appeared in the result")
	}
}

func TestHcpcsMetaLatestVersion(t *testing.T) {
	pool := setupDB(t)
	seedWorkflow(t, pool)
	st := store.NewPG(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx,
		`INSERT INTO ref.hcpcs_meta (code, version, betos, tos1, tos2, tos3, opps_pi) VALUES
		 ('G0011', '2025-01', 'OLD', '9', null, null, 'X'),
		 ('G0011', '2025-10', 'O1E', '1', '', 'F', 'A')`)
	if err != nil {
		t.Fatalf("seed meta: %v", err)
	}

	got, err := st.GetHcpcsMeta(ctx, []string{"G0011", "99213"})
	if err != nil {
		t.Fatalf("GetHcpcsMeta: %v", err)
	}

	m := got["G0011"]
	if m.Betos == nil || *m.Betos != "O1E" {
		t.Errorf("betos = %v, want latest-version O1E", m.Betos)
	}
	// Blank TOS slots are dropped.
	if len(m.TOS) != 2 || m.TOS[0] != "1" || m.TOS[1] != "F" {
		t.Errorf("tos = %v, want [1 F]", m.TOS)
	}
	if m.OppsPI == nil || *m.OppsPI != "A" {
		t.Errorf("opps_pi = %v", m.OppsPI)
	}
	if _, ok := got["99213"]; ok {
		t.Error("99213 has no meta but appeared in the result")
	}
}

func TestDocNotesOrdering(t *testing.T) {
	pool := setupDB(t)
	seedWorkflow(t, pool)
	st := store.NewPG(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx,
		`INSERT INTO ref.doc_notes (code, cy, note_text, priority) VALUES
		 ('G0011', 2025, 'second note', 20),
		 ('G0011', 2025, 'first note', 10),
		 ('G0011', 2024, 'other year', 1)`)
	if err != nil {
		t.Fatalf("seed notes: %v", err)
	}

	got, err := st.GetDocNotes(ctx, []string{"G0011"}, 2025)
	if err != nil {
		t.Fatalf("GetDocNotes: %v", err)
	}
	notes := got["G0011"]
	if len(notes) != 2 || notes[0] != "first note" || notes[1] != "second note" {
		t.Errorf("notes = %v, want priority order without the 2024 note", notes)
	}
}

func TestListActiveWorkflows(t *testing.T) {
	pool := setupDB(t)
	seedWorkflow(t, pool)
	st := store.NewPG(pool)

	got, err := st.ListActiveWorkflows(context.Background())
	if err != nil {
		t.Fatalf("ListActiveWorkflows: %v", err)
	}
	if len(got) != 1 || got[0].Slug != "annual-visit" {
		t.Errorf("workflows = %+v, inactive flows must be excluded", got)
	}
}

func TestListDistinctLocalities(t *testing.T) {
	pool := setupDB(t)
	seedWorkflow(t, pool)
	st := store.NewPG(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx,
		`INSERT INTO fees.medicare_fee_locality
		 (code, cy, place, mac_code, locality_number, allowed_amount) VALUES
		 ('99213', 2025, 'nonfacility', '10212', '00', 95.50),
		 ('99213', 2025, 'facility', '10212', '00', 70.10),
		 ('G0011', 2025, 'nonfacility', '01112', '05', 60.00),
		 ('99213', 2024, 'nonfacility', '99999', '01', 88.00)`)
	if err != nil {
		t.Fatalf("seed locality fees: %v", err)
	}

	got, err := st.ListDistinctLocalities(ctx, 2025)
	if err != nil {
		t.Fatalf("ListDistinctLocalities: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("localities = %+v, want 2 distinct pairs for 2025", got)
	}
	if got[0].MAC != "01112" || got[0].Number != "05" {
		t.Errorf("first = %+v, want 01112/05", got[0])
	}
	if got[1].MAC != "10212" || got[1].Number != "00" {
		t.Errorf("second = %+v, want 10212/00", got[1])
	}
}
