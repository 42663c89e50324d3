package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}

	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	router.HandleFunc("/transcode-audio", noop).Methods(http.MethodPost).Name("transcode")
	router.HandleFunc("/healthz", noop).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/anything", noop)

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}
	if len(routes) != 4 {
		t.Fatalf("GetRoutes() returned %d routes, want 4: %+v", len(routes), routes)
	}

	if routes[0].Method != http.MethodPost || routes[0].Path != "/transcode-audio" || routes[0].Name != "transcode" {
		t.Errorf("routes[0] = %+v", routes[0])
	}
	if routes[3].Method != "*" || routes[3].Path != "/anything" {
		t.Errorf("routes[3] = %+v, want wildcard method", routes[3])
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/transcode-audio", "transcode-audio"},
		{"/pubsub/push", "pubsub"},
		{"/", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestPrepareScratchDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "scratch")
	if err := PrepareScratchDir(dir); err != nil {
		t.Fatalf("PrepareScratchDir() error = %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("scratch dir not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".write-test")); !os.IsNotExist(err) {
		t.Error("write test file was left behind")
	}
}

func TestPrepareScratchDirNotADirectory(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := PrepareScratchDir(file); err == nil {
		t.Error("PrepareScratchDir() expected error for a regular file")
	}
}

func TestCheckFFmpegMissing(t *testing.T) {
	t.Parallel()

	if err := checkFFmpeg(filepath.Join(t.TempDir(), "no-ffmpeg")); err == nil {
		t.Error("checkFFmpeg() expected error for missing binary")
	}
}

func TestCheckFFmpegFake(t *testing.T) {
	t.Parallel()

	bin := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\necho 'ffmpeg version 6.1-test'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := checkFFmpeg(bin); err != nil {
		t.Errorf("checkFFmpeg() error = %v", err)
	}
}

func TestLogHelpersDoNotPanic(_ *testing.T) {
	cfg := &Config{StorageBackend: "minio", LockBackend: "redis", MinIOAccessKey: "key"}
	LogConfig(cfg)
	LogSweep(2, nil)
	LogSweep(0, os.ErrPermission)
	LogLockInit("none")
	LogLockInit("file")
	LogTranscoderInit("/nonexistent/ffmpeg-binary", time.Minute, 2)
	LogServerStarted(ServerConfig{Port: "8080", MetricsPort: "9090", MetricsEnabled: true})
	LogShutdownInitiated("SIGTERM")
	LogShutdownStep("Stopping")
	LogShutdownStepComplete("Stopped")
	LogShutdownComplete()
}
