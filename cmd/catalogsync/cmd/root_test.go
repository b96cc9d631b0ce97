package cmd_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-sync/cmd/catalogsync/cmd"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// fakeStore tienda WooCommerce mínima: sin categorías y con un producto AB-12.
// Cuenta las peticiones que no son GET (escrituras).
func fakeStore(t *testing.T) (*httptest.Server, *int64) {
	t.Helper()
	var writes int64
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wc/v3/products/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			atomic.AddInt64(&writes, 1)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":500,"name":"x","slug":"x","parent":0}`)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/wp-json/wc/v3/products", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sku") == "AB-12" {
			_, _ = io.WriteString(w, `[{"id":7,"sku":"AB-12","regular_price":"100.00","status":"publish"}]`)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/wp-json/wc/v3/products/7", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&writes, 1)
		_, _ = io.WriteString(w, `{"id":7}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &writes
}

// setEnv configuración mínima sin base de datos (auditoría deshabilitada).
func setEnv(t *testing.T, storeURL string) {
	t.Helper()
	t.Setenv("STORE_BASE_URL", storeURL)
	t.Setenv("STORE_CONSUMER_KEY", "ck")
	t.Setenv("STORE_CONSUMER_SECRET", "cs")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("PRICING_FX_RATE", "13")
	t.Setenv("PRICING_MARKUP_PCT", "20")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cmd.NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestToken_GeneraTokenValido(t *testing.T) {
	setEnv(t, "http://unused")
	out, err := run(t, "token", "--subject", "cron-nightly", "--role", "sync", "-q")
	require.NoError(t, err)

	subject, role, err := jwt.Parse("cli-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "cron-nightly", subject)
	assert.Equal(t, jwt.RoleSync, role)
}

func TestToken_RolInvalido(t *testing.T) {
	setEnv(t, "http://unused")
	_, err := run(t, "token", "--subject", "x", "--role", "vendedor", "-q")
	assert.Error(t, err)
}

func TestCategories_DryRunDesdeSnapshot(t *testing.T) {
	srv, writes := fakeStore(t)
	setEnv(t, srv.URL)
	snapshot := writeFile(t, "tree.json", `[{"id":1,"title":"Motor","children":[{"id":2,"title":"Filtros"}]}]`)

	out, err := run(t, "categories", "--root", "1", "--dry-run", "--source-file", snapshot, "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "src-cat-1")
	assert.Contains(t, out, "src-cat-2")
	assert.Contains(t, out, "dry-run")
	assert.Contains(t, out, "creados: 2")
	assert.Zero(t, atomic.LoadInt64(writes))
}

func TestCategories_RequiereRoot(t *testing.T) {
	setEnv(t, "http://unused")
	_, err := run(t, "categories", "-q")
	assert.Error(t, err)
}

func TestPrices_JSONDryRun(t *testing.T) {
	srv, writes := fakeStore(t)
	setEnv(t, srv.URL)
	feedPath := writeFile(t, "feed.csv", "Part No,Price\nAB-12,10\nZZ-99,3\n")

	out, err := run(t, "prices", "--file", feedPath, "--dry-run", "--json", "-q")
	require.NoError(t, err)

	var result entity.ReconciliationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.NotFound)
	assert.Equal(t, "156.00", result.Samples.Updated[0].Price)
	assert.Zero(t, atomic.LoadInt64(writes))
}

func TestPrices_SkipUnchangedNoReescribe(t *testing.T) {
	srv, writes := fakeStore(t)
	setEnv(t, srv.URL)
	feedPath := writeFile(t, "feed.csv", "Part No,Price\nAB-12,10\n")

	// 10 * 10 sin margen = 100.00, el precio que ya tiene la tienda.
	out, err := run(t, "prices", "--file", feedPath, "--fx", "10", "--markup", "0", "--skip-unchanged", "--json", "-q")
	require.NoError(t, err)

	var result entity.ReconciliationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, atomic.LoadInt64(writes))
}

func TestPrices_PricingInvalido(t *testing.T) {
	srv, _ := fakeStore(t)
	setEnv(t, srv.URL)
	feedPath := writeFile(t, "feed.csv", "Part No,Price\nAB-12,10\n")

	_, err := run(t, "prices", "--file", feedPath, "--mode", "banker", "-q")
	assert.Error(t, err)
}
