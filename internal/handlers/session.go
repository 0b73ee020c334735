package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Eudaldz/aicitychallenge-viewer/internal/model"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/playback"
)

// sessionInfo is the bootstrap payload the viewer page fetches before
// opening its websocket: enough to render the progress bar and the grid.
type sessionInfo struct {
	Session  string              `json:"session"`
	Position int                 `json:"position"`
	Length   int                 `json:"length"`
	State    model.PlaybackState `json:"state"`
	Cameras  []string            `json:"cameras"`
}

// SessionInfoHandler reports the current session layout and playback state.
func SessionInfoHandler(ctrl *playback.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := sessionInfo{
			Session:  ctrl.Session(),
			Position: ctrl.Position(),
			Length:   ctrl.Length(),
			State:    ctrl.State(),
			Cameras:  ctrl.Cameras(),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(info); err != nil {
			http.Error(w, "failed to encode session info", http.StatusInternalServerError)
		}
	}
}
