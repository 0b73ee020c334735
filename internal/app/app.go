package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Eudaldz/aicitychallenge-viewer/internal/annotation"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/config"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/decoder"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/discovery"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/hub"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/logger"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/model"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/offsets"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/playback"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/routes"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/track"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	hub        *hub.Hub
	controller *playback.Controller
}

// NewApp discovers the dataset, builds one track per valid camera and wires
// the playback controller to the viewer hub. Fails hard only when no camera
// can serve the timeline; per-camera and per-line problems degrade to
// warnings.
func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	cameras, err := discovery.Scan(cfg.DatasetDir, cfg.VideoFilename)
	if err != nil {
		return nil, err
	}

	offsetTable, err := offsets.Load(filepath.Join(cfg.DatasetDir, cfg.OffsetsFile))
	if err != nil {
		return nil, err
	}
	if n := offsetTable.Skipped(); n > 0 {
		log.Warning("Offsets file: skipped %d malformed line(s)", n)
	}

	var tracks []*track.Track
	for _, cam := range cameras {
		dec, err := decoder.Open(cam.VideoPath)
		if err != nil {
			log.Warning("Camera %s: %v - skipping", cam.ID, err)
			continue
		}

		stores := map[model.Kind]*annotation.Store{
			model.KindGroundTruth: loadStore(cam.ID, cam.GTDBPath, cam.GTPath, log),
			model.KindDetection:   loadStore(cam.ID, cam.DetDBPath, cam.DetPath, log),
		}

		offset := offsetTable.Get(cam.ID)
		tr := track.New(cam.ID, dec, offset, stores)
		if tr.EffectiveLength() <= 0 {
			log.Warning("Camera %s: stream (%d frames, offset %d) never overlaps the global timeline", cam.ID, tr.Length(), offset)
		}
		tracks = append(tracks, tr)
	}

	h := hub.New(log)
	consumer := func(agg model.Aggregate) {
		payload, err := json.Marshal(agg)
		if err != nil {
			log.Error("Failed to encode aggregate at position %d: %v", agg.Position, err)
			return
		}
		h.Broadcast(payload)
	}

	controller, err := playback.NewController(tracks, cfg.FPS, consumer, log)
	if err != nil {
		for _, tr := range tracks {
			tr.Close()
		}
		return nil, fmt.Errorf("dataset %s: %w", cfg.DatasetDir, err)
	}

	return &App{
		config:     cfg,
		logger:     log,
		hub:        h,
		controller: controller,
	}, nil
}

func (a *App) Run() error {
	go a.hub.Run()

	router := routes.SetupRoutes(a.controller, a.hub, a.config, a.logger)

	fmt.Printf("🎥 Multi-Camera Sync Viewer\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📁 Dataset: %s\n", a.config.DatasetDir)
	fmt.Printf("🎞  Cameras: %d, global length: %d frames\n", len(a.controller.Cameras()), a.controller.Length())

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}

// Close tears the session down and releases every decoder.
func (a *App) Close() error {
	return a.controller.Stop()
}

// loadStore loads one camera's annotation source for one kind, preferring
// the SQLite database over the text file when both exist. Load problems
// degrade to an empty store.
func loadStore(camera, dbPath, txtPath string, log *logger.Logger) *annotation.Store {
	if _, err := os.Stat(dbPath); err == nil {
		db, err := annotation.OpenDB(dbPath)
		if err != nil {
			log.Warning("Camera %s: %v - falling back to %s", camera, err, txtPath)
		} else {
			defer db.Close()
			store, err := db.LoadStore()
			if err == nil {
				log.Info("Camera %s: loaded %d annotation(s) from %s", camera, store.Len(), dbPath)
				return store
			}
			log.Warning("Camera %s: %v - falling back to %s", camera, err, txtPath)
		}
	}

	store, err := annotation.Load(txtPath)
	if err != nil {
		log.Warning("Camera %s: %v", camera, err)
		return annotation.Empty()
	}
	if n := store.Skipped(); n > 0 {
		log.Warning("Camera %s: skipped %d malformed annotation line(s) in %s", camera, n, txtPath)
	}
	return store
}
