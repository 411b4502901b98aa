// Package server previews a converted site over HTTP and rebuilds it when
// its sources change.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shirayu/pagenerator/internal/metrics"
)

const debounceDuration = 300 * time.Millisecond

// Options configures Run.
type Options struct {
	// Addr is the listen address, such as ":8000".
	Addr string
	// Root is the output directory that is served.
	Root string
	// Watch lists the directories and files whose changes trigger a rebuild.
	// Missing paths are ignored.
	Watch []string
	// Registry, when set, is exposed on /metrics.
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// Run builds the site once, then serves opts.Root with live reload until ctx
// is cancelled. build is called again after every batch of changes below
// opts.Watch.
func Run(ctx context.Context, opts Options, build func() error) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := build(); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}
	defer watcher.Close()

	dirs, err := watchDirs(opts.Watch)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			logger.Warn("Could not watch directory", "dir", dir, "error", err)
			continue
		}
		logger.Debug("Watching directory", "dir", dir)
	}

	hub := newHub(logger)
	rb := &rebuilder{build: build, hub: hub, logger: logger}
	go watchForChanges(ctx, watcher, rb, logger)

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           newMux(opts, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving site", "url", "http://localhost"+opts.Addr, "root", opts.Root)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hub.closeAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func newMux(opts Options, hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r)
	})
	if opts.Registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(opts.Registry))
	}
	mux.Handle("/", liveReloadWrapper(http.FileServer(http.Dir(opts.Root))))
	return mux
}

// watchDirs expands paths into the set of directories to watch. Directories
// are walked recursively; a file is watched through its parent so that
// editors replacing the file on save are still noticed.
func watchDirs(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("could not stat path %s: %w", p, err)
		}
		if !info.IsDir() {
			add(filepath.Dir(p))
			continue
		}
		err = filepath.WalkDir(p, func(walkPath string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				add(walkPath)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to watch directory %s: %w", p, err)
		}
	}
	return dirs, nil
}

func watchForChanges(ctx context.Context, watcher *fsnotify.Watcher, rb *rebuilder, logger *slog.Logger) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.Warn("Could not watch directory", "dir", event.Name, "error", err)
					}
				}
			}
			name := event.Name
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDuration, func() { rb.rebuild(name) })
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error", "error", err)
		}
	}
}

// rebuilder runs one build at a time and tells connected browsers to reload
// after each successful build.
type rebuilder struct {
	mu     sync.Mutex
	build  func() error
	hub    *Hub
	logger *slog.Logger
}

func (r *rebuilder) rebuild(trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Info("Change detected, rebuilding", "path", trigger)
	if err := r.build(); err != nil {
		r.logger.Error("Rebuild failed", "error", err)
		return
	}
	r.logger.Info("Site rebuilt, triggering reload")
	r.hub.broadcastMessage([]byte("reload"))
}

// liveReloadWrapper disables caching and injects the reload script before
// the closing body tag of every successful HTML response.
func liveReloadWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		isHTML := strings.HasSuffix(r.URL.Path, ".html") || strings.HasSuffix(r.URL.Path, "/")
		if !isHTML {
			next.ServeHTTP(w, r)
			return
		}

		iw := newInterceptingWriter()
		next.ServeHTTP(iw, r)

		for key, values := range iw.Header() {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		body := iw.body.Bytes()
		if iw.statusCode == http.StatusOK {
			body = injectReloadScript(body)
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		}
		w.WriteHeader(iw.statusCode)
		_, _ = w.Write(body)
	})
}

func injectReloadScript(body []byte) []byte {
	return bytes.Replace(body, []byte("</body>"), []byte(liveReloadScript+"</body>"), 1)
}

// interceptingWriter buffers a response so it can be rewritten.
type interceptingWriter struct {
	body       *bytes.Buffer
	statusCode int
	header     http.Header
}

func newInterceptingWriter() *interceptingWriter {
	return &interceptingWriter{
		body:       new(bytes.Buffer),
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (iw *interceptingWriter) Header() http.Header {
	return iw.header
}

func (iw *interceptingWriter) Write(b []byte) (int, error) {
	return iw.body.Write(b)
}

func (iw *interceptingWriter) WriteHeader(statusCode int) {
	iw.statusCode = statusCode
}

const liveReloadScript = `
<script>
  (function() {
    let socket = new WebSocket("ws://" + window.location.host + "/ws");
    socket.onmessage = function(event) {
      if (event.data === "reload") {
        window.location.reload();
      }
    };
    socket.onerror = function() {
      console.error("Live reload connection lost. Restart 'pagenerator serve'.");
    };
  })();
</script>
`
