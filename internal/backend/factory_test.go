package backend

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"greefin/internal/config"
	"greefin/internal/core"
	applog "greefin/internal/log"
	"greefin/internal/ports"
)

func quietFactory() Factory {
	return NewFactory(applog.New(applog.Config{Output: io.Discard}))
}

func TestCreateBackend_Memory(t *testing.T) {
	res, err := quietFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend, AMQPURL: "amqp://ignored", AMQPExchange: "x", AMQPQueue: "q"})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if res.Store == nil {
		t.Fatal("expected a store")
	}
	if res.Publisher != nil {
		t.Error("memory backend should not publish events")
	}
	if res.Cleanup != nil {
		t.Error("memory backend needs no cleanup")
	}
	if _, ok := res.Store.(ports.HistoryReader); ok {
		t.Error("memory backend should not expose history")
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "greefin.db")

	res, err := quietFactory().CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			t.Errorf("Cleanup() error = %v", err)
		}
	}()

	if res.Publisher != nil {
		t.Error("publisher should be nil without AMQP_URL")
	}
	if _, ok := res.Store.(ports.HistoryReader); !ok {
		t.Error("sqlite backend should expose history")
	}
	if _, err := res.Store.GetProfile(ctx, "nobody"); !errors.Is(err, core.ErrProfileNotFound) {
		t.Errorf("GetProfile() error = %v, want ErrProfileNotFound", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", AMQPURL: "amqp://", AMQPExchange: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "db.sqlite", AMQPURL: "amqp://x", AMQPExchange: "e", AMQPQueue: "q"}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	want := Config{Type: SQLiteBackend, SQLiteDBPath: "db.sqlite", AMQPURL: "amqp://x", AMQPExchange: "e", AMQPQueue: "q"}
	if got != want {
		t.Errorf("FromAppConfig() = %+v, want %+v", got, want)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 2 || got[0] != "memory" || got[1] != "sqlite" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}
