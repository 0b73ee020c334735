package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/Eudaldz/aicitychallenge-viewer/internal/config"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/handlers"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/hub"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/logger"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/playback"
)

// SetupRoutes registers the viewer websocket, session API, log endpoints
// and static file serving.
func SetupRoutes(ctrl *playback.Controller, h *hub.Hub, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files (viewer page, scripts)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	// API endpoints
	mux.HandleFunc("/api/view", handlers.ViewerWebsocketHandler(ctrl, h, logger))
	mux.HandleFunc("/api/session", handlers.SessionInfoHandler(ctrl))

	// Log endpoints
	mux.HandleFunc("/logs/info", handlers.ShowInfoLogsHandler(cfg))
	mux.HandleFunc("/logs/warning", handlers.ShowWarningLogsHandler(cfg))
	mux.HandleFunc("/logs/error", handlers.ShowErrorLogsHandler(cfg))

	// Automatic HTML handler mapping, for example: /settings -> static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg))

	return mux
}

// dynamicHTMLHandler serves /path as <static>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(cfg.StaticDir, path+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}
