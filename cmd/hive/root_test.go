package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes a YAML fleet config to a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hive.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// fakeTaskWorker is an httptest server implementing the worker task API.
func fakeTaskWorker(t *testing.T, result string) (host string, port int) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_ = json.NewEncoder(w).Encode(map[string]any{"session_id": "s1", "uptime": 12.0})
		case "/task":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true, "result": result, "execution_time": 0.1,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	h, p, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	var portNum int
	if _, err := fmt.Sscanf(p, "%d", &portNum); err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return h, portNum
}

func TestWorkersCmdListsFleet(t *testing.T) {
	cfg := writeConfig(t, `
workers:
  - name: docker-vm
    host: 192.168.50.10
    capabilities: [docker, compose]
  - name: gpu-worker
    host: 192.168.50.20
    port: 9000
default_worker: gpu-worker
`)

	out, err := runCLI(t, "--config", cfg, "workers")
	if err != nil {
		t.Fatalf("workers: %v", err)
	}
	if !strings.Contains(out, "docker-vm") || !strings.Contains(out, "http://192.168.50.20:9000") {
		t.Errorf("output missing workers:\n%s", out)
	}
	if !strings.Contains(out, "gpu-worker (default)") {
		t.Errorf("default worker not marked:\n%s", out)
	}
	if !strings.Contains(out, "docker,compose") {
		t.Errorf("capabilities missing:\n%s", out)
	}
}

func TestRoutesCmdListsAndTests(t *testing.T) {
	cfg := writeConfig(t, `
workers:
  - name: docker-vm
    host: 192.168.50.10
  - name: gpu-worker
    host: 192.168.50.20
routing:
  - pattern: "docker|容器"
    worker: docker-vm
  - pattern: "gpu|模型"
    worker: gpu-worker
default_worker: docker-vm
`)

	out, err := runCLI(t, "--config", cfg, "routes")
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	if !strings.Contains(out, "docker|容器") || !strings.Contains(out, "(default)") {
		t.Errorf("routes listing incomplete:\n%s", out)
	}

	out, err = runCLI(t, "--config", cfg, "routes", "--test", "restart the docker container")
	if err != nil {
		t.Fatalf("routes --test: %v", err)
	}
	if !strings.Contains(out, "docker-vm") {
		t.Errorf("test routing wrong:\n%s", out)
	}
}

func TestStatusCmdMixedFleet(t *testing.T) {
	host, port := fakeTaskWorker(t, "ok")
	cfg := writeConfig(t, fmt.Sprintf(`
workers:
  - name: live
    host: %s
    port: %d
  - name: dead
    host: 127.0.0.1
    port: 1
`, host, port))

	out, err := runCLI(t, "--config", cfg, "status", "--plain")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got:\n%s", out)
	}
	if !strings.Contains(lines[1], "live") || !strings.Contains(lines[1], "up") {
		t.Errorf("live row wrong: %q", lines[1])
	}
	if !strings.Contains(lines[2], "dead") || !strings.Contains(lines[2], "down") {
		t.Errorf("dead row wrong: %q", lines[2])
	}
}

func TestSendCmdRendersResultAndRecordsHistory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	host, port := fakeTaskWorker(t, "# Done\n\n**container** restarted ✅")
	cfg := writeConfig(t, fmt.Sprintf(`
workers:
  - name: docker-vm
    host: %s
    port: %d
`, host, port))

	out, err := runCLI(t, "--config", cfg, "send", "docker-vm", "restart", "jellyfin")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(out, "■ DONE") || !strings.Contains(out, "「container」 restarted ✓") {
		t.Errorf("rendered output wrong:\n%s", out)
	}

	logs, err := runCLI(t, "logs")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if !strings.Contains(logs, "docker-vm") || !strings.Contains(logs, "restart jellyfin") {
		t.Errorf("dispatch not recorded:\n%s", logs)
	}
}

func TestAskCmdRoutesTask(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	host, port := fakeTaskWorker(t, "answer")
	cfg := writeConfig(t, fmt.Sprintf(`
workers:
  - name: gpu-worker
    host: %s
    port: %d
routing:
  - pattern: "ollama|inference"
    worker: gpu-worker
`, host, port))

	out, err := runCLI(t, "--config", cfg, "ask", "run", "ollama", "inference")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(out, "answer") {
		t.Errorf("result not printed:\n%s", out)
	}
}

func TestBroadcastCmdAllWorkers(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	h1, p1 := fakeTaskWorker(t, "from one")
	h2, p2 := fakeTaskWorker(t, "from two")
	cfg := writeConfig(t, fmt.Sprintf(`
workers:
  - name: one
    host: %s
    port: %d
  - name: two
    host: %s
    port: %d
`, h1, p1, h2, p2))

	out, err := runCLI(t, "--config", cfg, "broadcast", "uptime")
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	oneIdx := strings.Index(out, "=== one (ok) ===")
	twoIdx := strings.Index(out, "=== two (ok) ===")
	if oneIdx < 0 || twoIdx < 0 || oneIdx > twoIdx {
		t.Errorf("broadcast output wrong order:\n%s", out)
	}
}

func TestMissingConfigIsError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if _, err := runCLI(t, "workers"); err == nil {
		t.Error("expected error with no workers configured")
	}
}
