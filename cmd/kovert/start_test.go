package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cybernetics/kovert/internal/cli"
	"github.com/cybernetics/kovert/internal/cluster"
	"github.com/cybernetics/kovert/internal/config"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadRuntimeConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kovert.toml")
	data := "cluster_name = \"from-file\"\ncluster_pass = \"file-pass\"\nworker_pool_size = 3\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvClusterName, "from-env")

	cfg, err := loadRuntimeConfig(cli.StartOptions{ConfigPath: path, Standalone: true})
	if err != nil {
		t.Fatalf("loadRuntimeConfig: %v", err)
	}
	if cfg.ClusterName != "from-env" {
		t.Errorf("cluster name = %q, env should win over file", cfg.ClusterName)
	}
	if cfg.ClusterPassphrase != "file-pass" || cfg.WorkerPoolSize != 3 {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.Clustered {
		t.Error("--standalone should disable clustering")
	}
}

func TestLoadRuntimeConfig_MissingFile(t *testing.T) {
	_, err := loadRuntimeConfig(cli.StartOptions{ConfigPath: filepath.Join(t.TempDir(), "nope.toml")})
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadRuntimeConfig_MalformedEnv(t *testing.T) {
	t.Setenv(config.EnvClustered, "yes please")

	_, err := loadRuntimeConfig(cli.StartOptions{})
	if !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestMembersHandler_NotClustered(t *testing.T) {
	rec := httptest.NewRecorder()
	membersHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_kovert/members", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMembersHandler_ListsGroup(t *testing.T) {
	ctx := context.Background()
	manager := cluster.NewManager(cluster.Config{
		GroupName:       "edge",
		GroupPassphrase: "secret",
		PassphraseCost:  bcrypt.MinCost,
		Host:            "node-a",
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	nodeID := uuid.New()
	if err := manager.Join(ctx, nodeID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	defer manager.Leave(ctx)

	rec := httptest.NewRecorder()
	membersHandler(manager).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_kovert/members", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data MembersInfo `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Group != "edge" {
		t.Errorf("group = %q", resp.Data.Group)
	}
	if len(resp.Data.Members) != 1 || resp.Data.Members[0].NodeID != nodeID {
		t.Errorf("members = %+v", resp.Data.Members)
	}
	if resp.Data.Peers == nil || len(resp.Data.Peers) != 0 {
		t.Errorf("peers = %+v, want empty list", resp.Data.Peers)
	}
}
