package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"audio-transcoder/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

func section(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

// LogConfig prints the banner, system information and the resolved
// configuration. Secrets are masked.
func LogConfig(cfg *Config) {
	printBanner()
	logSystemInfo()

	section("CONFIGURATION")
	if cfg.ConfigFile != "" {
		logging.Info("  Config file:          %s", cfg.ConfigFile)
	}
	logging.Info("  PORT:                 %s", cfg.Port)
	logging.Info("  METRICS_PORT:         %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:      %v", cfg.MetricsEnabled)
	logging.Info("  LOG_LEVEL:            %s", cfg.LogLevel)
	logging.Info("  LOG_FORMAT:           %s", cfg.LogFormat)
	logging.Info("  LOG_HEALTH_CHECKS:    %v", cfg.LogHealthChecks)
	logging.Info("  STORAGE_BACKEND:      %s", cfg.StorageBackend)
	switch cfg.StorageBackend {
	case "s3":
		logging.Info("  S3_REGION:            %s", cfg.S3Region)
		logging.Info("  S3_ENDPOINT:          %s", cfg.S3Endpoint)
		logging.Info("  S3_ACCESS_KEY_ID:     %s", mask(cfg.S3AccessKeyID))
		logging.Info("  S3_USE_PATH_STYLE:    %v", cfg.S3UsePathStyle)
	case "minio":
		logging.Info("  MINIO_ENDPOINT:       %s", cfg.MinIOEndpoint)
		logging.Info("  MINIO_ACCESS_KEY:     %s", mask(cfg.MinIOAccessKey))
		logging.Info("  MINIO_USE_SSL:        %v", cfg.MinIOUseSSL)
	default:
		logging.Info("  STORAGE_ENDPOINT:     %s", cfg.StorageEndpoint)
	}
	logging.Info("  SCRATCH_DIR:          %s", cfg.ScratchDir)
	logging.Info("  FFMPEG_PATH:          %s", cfg.FFmpegPath)
	logging.Info("  ENCODER_TIMEOUT:      %v", cfg.EncoderTimeout)
	if cfg.MaxConcurrentEncodes > 0 {
		logging.Info("  MAX_CONCURRENT_ENCODES: %d", cfg.MaxConcurrentEncodes)
	} else {
		logging.Info("  MAX_CONCURRENT_ENCODES: auto")
	}
	if cfg.MemoryLimit > 0 {
		logging.Info("  MEMORY_LIMIT:         %d (ratio %.2f)", cfg.MemoryLimit, cfg.MemoryRatio)
	}
	logging.Info("  LOCK_BACKEND:         %s", cfg.LockBackend)
	if cfg.LockBackend == "redis" {
		logging.Info("  REDIS_ADDR:           %s", cfg.RedisAddr)
		logging.Info("  REDIS_PASSWORD:       %s", mask(cfg.RedisPassword))
		logging.Info("  LOCK_TTL:             %v", cfg.LockTTL)
	}
	logging.Info("  TAG_SOURCE_ON_RENAME: %v", cfg.TagSourceOnRename)
	logging.Info("  PROCESS_ALL_EVENTS:   %v", cfg.ProcessAllEvents)
	logging.Info("  MAX_BODY_BYTES:       %d", cfg.MaxBodyBytes)
	logging.Info("  SENTRY_DSN:           %s", mask(cfg.SentryDSN))
}

// PrepareScratchDir creates the scratch root if needed and verifies that it
// is writable. Encoding cannot work without it.
func PrepareScratchDir(path string) error {
	section("SCRATCH SPACE")
	if err := ensureDirectory(path, "scratch"); err != nil {
		return fmt.Errorf("scratch directory error: %w", err)
	}
	logging.Debug("  Testing scratch directory write access...")
	if err := testWriteAccess(path); err != nil {
		return fmt.Errorf("scratch directory is not writable: %w", err)
	}
	logging.Info("  [OK] Scratch directory is writable: %s", path)
	return nil
}

// LogSweep logs the result of removing stale workspaces left by a crash.
func LogSweep(removed int, err error) {
	if err != nil {
		logging.Warn("  Stale workspace sweep failed: %v", err)
		return
	}
	if removed > 0 {
		logging.Info("  Removed %d stale workspace(s)", removed)
	}
}

// LogStorageInit logs storage backend initialization
func LogStorageInit(backend string, duration time.Duration) {
	section("STORAGE INITIALIZATION")
	logging.Info("  [OK] %s backend ready in %v", backend, duration)
}

// LogLockInit logs lock backend initialization
func LogLockInit(backend string) {
	if backend == "none" {
		logging.Warn("  Object locking disabled; duplicate deliveries may encode twice")
		return
	}
	logging.Info("  [OK] %s lock backend ready", backend)
}

// LogTranscoderInit logs transcoder initialization and checks FFmpeg
func LogTranscoderInit(ffmpegPath string, timeout time.Duration, slots int) {
	section("TRANSCODER INITIALIZATION")
	logging.Info("  Encoder timeout: %v", timeout)
	logging.Info("  Encoder slots:   %d", slots)

	if err := checkFFmpeg(ffmpegPath); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Transcoding requests will fail until FFmpeg is available")
	} else {
		logging.Info("  [OK] FFmpeg is available")
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	section("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	first, _, _ := strings.Cut(path, "/")
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Push webhook:  http://0.0.0.0:%s/transcode-audio", config.Port)
	logging.Info("    Health:        http://0.0.0.0:%s/healthz", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	section(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// PrintVersion writes build information to stdout for --version.
func PrintVersion() {
	info := GetBuildInfo()
	fmt.Printf("%s %s\n", ApplicationName, info.Version)
	fmt.Printf("  commit:     %s\n", info.Commit)
	fmt.Printf("  built:      %s\n", info.BuildTime)
	fmt.Printf("  go version: %s %s/%s\n", info.GoVersion, info.OS, info.Arch)
}

func printBanner() {
	banner := `
------------------------------------------------------------
                 _ _         _                                 _
  __ _ _  _ __| (_)___    | |_ _ _ __ _ _ _  ___ __ ___  __| |___ _ _
 / _' | || / _' | / _ \   |  _| '_/ _' | ' \(_-</ _/ _ \/ _' / -_) '_|
 \__,_|\_,_\__,_|_\___/    \__|_| \__,_|_||_/__/\__\___/\__,_\___|_|

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkFFmpeg(ffmpegPath string) error {
	path, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return fmt.Errorf("%s not found: %w", ffmpegPath, err)
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	if first, _, _ := strings.Cut(string(output), "\n"); first != "" {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(first))
	}

	return nil
}
