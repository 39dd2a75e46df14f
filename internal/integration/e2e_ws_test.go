package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"product_transactions/internal/config"
	"product_transactions/internal/domain"
	httpserver "product_transactions/internal/http"
	"product_transactions/internal/http/handlers"
	"product_transactions/internal/migrations"
	"product_transactions/internal/repository"
	"product_transactions/internal/service"
	"product_transactions/internal/ws"
)

// TestE2E_SeedBroadcast seeds through the HTTP API and expects the websocket
// feed to announce it before the rows become visible through the listing.
func TestE2E_SeedBroadcast(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	if err := migrations.Up(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := repository.OpenStore(ctx, repository.StoreConfig{Backend: repository.BackendPostgres, DatabaseURL: dsn})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	// unique source ids and title per run
	run := time.Now().UnixNano()
	title := fmt.Sprintf("e2e-%d", run)
	dataset := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"id":%d,"title":%q,"price":12.5,"sold":true,"category":"e2e","dateOfSale":"2022-03-05T10:00:00Z"},
			{"id":%d,"title":%q,"price":250,"sold":false,"category":"e2e","dateOfSale":"2022-03-06T10:00:00Z"}
		]`, run, title, run+1, title)
	}))
	defer dataset.Close()

	opts := service.QueryOptions{Mode: domain.FilterModeStrict, Location: time.UTC}
	reports := service.NewReportService(store, nil, opts)
	seeder := service.NewSeeder(store, dataset.URL, reports)

	hub := ws.NewHub()
	go hub.Run(ctx)
	seeder.OnSeeded = func(r service.SeedResult) { hub.NotifySeeded(r.Fetched, r.Inserted) }

	gin.SetMode(gin.TestMode)
	r := gin.New()
	httpserver.RegisterRoutes(r, httpserver.Deps{
		Handler: handlers.NewHandler(service.NewTransactionService(store, opts), reports, seeder),
		Health:  handlers.NewHealthHandler(store, repository.BackendPostgres, "e2e"),
		Hub:     hub,
	}, &config.Config{APIRateLimit: 100, APIRateWindow: time.Minute, SeedEndpointEnabled: true})

	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readType := func() string {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ev ws.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("decode %s: %v", msg, err)
		}
		return ev.Type
	}

	if typ := readType(); typ != ws.MsgReady {
		t.Fatalf("expected ready, got %s", typ)
	}

	resp, err := http.Post(srv.URL+"/api/seed?force=true", "application/json", nil)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	var res service.SeedResult
	_ = json.NewDecoder(resp.Body).Decode(&res)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || res.Inserted != 2 {
		t.Fatalf("unexpected seed response %d %+v", resp.StatusCode, res)
	}

	if typ := readType(); typ != ws.MsgDatasetSeeded {
		t.Fatalf("expected %s, got %s", ws.MsgDatasetSeeded, typ)
	}

	resp, err = http.Get(srv.URL + "/api/transactions?month=March&year=2022&search=" + title)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	var page domain.TransactionPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 seeded rows, got %d", page.Total)
	}
}
