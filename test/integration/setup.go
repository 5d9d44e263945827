package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"pricesync/internal/config"
	"pricesync/internal/database"
	"pricesync/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	Config    config.DatabaseConfig
}

// SetupTestDB creates a PostgreSQL test container with the catalogue schema applied.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	pool, err := database.NewPool(ctx, dbConfig, "pricesync-integration", zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		Config:    dbConfig,
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "TRUNCATE product_prices, products RESTART IDENTITY"); err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// CountPrices returns the number of stored price records.
func CountPrices(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()

	var n int
	if err := pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM product_prices").Scan(&n); err != nil {
		t.Fatalf("failed to count prices: %v", err)
	}
	return n
}

// Demo catalogue served by FakeOmega.
const (
	ChairID = 123456
	TableID = 234567
	LampID  = 345678
	XboxID  = 720720
)

// FakeOmega is an in-process Omega pricing API.
// It serves a fixed catalogue whose prices the test controls, and honours the vendor's demo modes.
type FakeOmega struct {
	Server *httptest.Server
	APIKey string

	mu       sync.Mutex
	prices   map[int]string
	requests []VendorRequest
}

// VendorRequest is the query of one request received by FakeOmega.
type VendorRequest struct {
	StartDate string
	EndDate   string
	Demo      string
}

type fakeRecord struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	Category     string `json:"category"`
	Discontinued bool   `json:"discontinued"`
}

// NewFakeOmega starts a fake vendor accepting apiKey.
func NewFakeOmega(t *testing.T, apiKey string) *FakeOmega {
	t.Helper()

	f := &FakeOmega{
		APIKey: apiKey,
		prices: map[int]string{
			ChairID: "$50.00",
			TableID: "$120.00",
			LampID:  "$35.99",
			XboxID:  "$499.99",
		},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// SetPrice changes the price served for a product.
func (f *FakeOmega) SetPrice(id int, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[id] = price
}

// Requests returns the query parameters of every accepted request.
func (f *FakeOmega) Requests() []VendorRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]VendorRequest(nil), f.requests...)
}

func (f *FakeOmega) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/pricing/records.json" {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")
	if q.Get("api_key") != f.APIKey {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{}`))
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, VendorRequest{StartDate: q.Get("start_date"), EndDate: q.Get("end_date"), Demo: q.Get("demo")})
	records := f.records(q.Get("demo"))
	f.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]any{
		"period_start":   q.Get("start_date"),
		"period_end":     q.Get("end_date"),
		"productRecords": records,
	})
}

func (f *FakeOmega) product(id int, name, category string) fakeRecord {
	return fakeRecord{ID: id, Name: name, Price: f.prices[id], Category: category}
}

func (f *FakeOmega) records(demo string) []fakeRecord {
	chair := f.product(ChairID, "Fancy Chair", "chair")
	table := f.product(TableID, "Wood Table", "table")
	lamp := f.product(LampID, "Floor Lamp", "lamp")

	switch demo {
	case "name_change":
		chair.Name = "Irregular Chair"
		return []fakeRecord{chair, table, lamp}
	case "new_product":
		return []fakeRecord{f.product(XboxID, "Xbox Series X", "game console"), table, lamp}
	case "three_fiddy":
		chair.Price = "$3.50"
		return []fakeRecord{chair, table, lamp}
	case "no_results":
		return []fakeRecord{}
	default:
		return []fakeRecord{chair, table, lamp}
	}
}

// VendorID renders a demo product id the way it is stored.
func VendorID(id int) string {
	return strconv.Itoa(id)
}
