package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(FS, "migrations/*_"+suffix+".sql")
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := fs.ReadFile(FS, matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestBillingMigrationsContainStorageConstraints(t *testing.T) {
	cases := map[string][]string{
		"create_plans": {
			"CREATE TABLE IF NOT EXISTS plans",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_plans_type_version ON plans (plan_type, version)",
			"DROP TABLE IF EXISTS plans",
		},
		"create_subscriptions": {
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_active_hostel",
			"WHERE status = 'active' AND is_deleted = false",
			"CHECK (end_date >= start_date)",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_subscription_cancellations_subscription_id",
			"DROP TABLE IF EXISTS subscriptions",
		},
		"create_billing_tables": {
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_invoice_number ON invoices (invoice_number)",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_commissions_booking_id ON commissions (booking_id)",
			"CHECK (due_date >= invoice_date)",
			"CHECK (amount_paid >= 0)",
			"CHECK (amount_due >= 0)",
			"CHECK (commission_amount >= 0)",
			"DROP TABLE IF EXISTS invoices",
		},
		"create_usage_tables": {
			"idx_feature_usage_subscription_feature ON feature_usage (subscription_id, feature_key)",
			"idx_subscription_limits_subscription_type ON subscription_limits (subscription_id, limit_type)",
			"DROP TABLE IF EXISTS feature_usage",
		},
	}
	for suffix, checks := range cases {
		content := readMigration(t, suffix)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", suffix, sub)
			}
		}
	}
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	if err := ValidateEmbedded(); err != nil {
		t.Fatalf("ValidateEmbedded: %v", err)
	}
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}

	files, err := listFiles(FS, embeddedDir)
	if err != nil {
		t.Fatalf("listFiles: %v", err)
	}
	if files[0].Name != "create_plans" {
		t.Fatalf("plans must be created first, got %s", files[0].Name)
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected error for empty directory")
	}
	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected error for invalid filename")
	}

	dir = t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "20240101000000_no_down.sql"), []byte("-- +goose Up\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected error for missing down section")
	}

	dir = t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"
	if err := os.WriteFile(filepath.Join(dir, "20240101000000_unbalanced.sql"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected error for unbalanced statement block")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Invoice Notes!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_invoice_notes.sql") {
		t.Fatalf("unexpected migration path %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
	if _, err := CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected error for name without usable characters")
	}
}

func TestCreateSQLMigrationNeverReusesVersion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "20300101000000_future.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	clock := func() time.Time { return time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC) }

	path, err := createSQLMigration(dir, "add_credit_notes", clock)
	if err != nil {
		t.Fatalf("createSQLMigration: %v", err)
	}
	if filepath.Base(path) != "20300101000001_add_credit_notes.sql" {
		t.Fatalf("expected version after the newest file, got %s", filepath.Base(path))
	}

	path, err = createSQLMigration(dir, "add_refunds", clock)
	if err != nil {
		t.Fatalf("createSQLMigration: %v", err)
	}
	if filepath.Base(path) != "20300101000002_add_refunds.sql" {
		t.Fatalf("unexpected path %s", filepath.Base(path))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestNextVersionRollsOverMinutes(t *testing.T) {
	if got := nextVersion(20240105235959); got != 20240106000000 {
		t.Fatalf("unexpected next version %d", got)
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := ParseVersion("20240105090200"); err != nil || v != 20240105090200 {
		t.Fatalf("unexpected version %d err=%v", v, err)
	}
	for _, bad := range []string{"", "2024", "2024010509020x"} {
		if _, err := ParseVersion(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
