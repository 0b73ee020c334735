package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Eudaldz/aicitychallenge-viewer/internal/hub"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/logger"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/model"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/playback"
)

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// controlMessage is what the viewer page sends over the websocket.
type controlMessage struct {
	Action   string `json:"action"` // play | pause | seek | step
	Position int    `json:"position"`
	Delta    int    `json:"delta"`
	Kind     string `json:"kind"` // gt | det
}

// ViewerWebsocketHandler registers the connection with the hub so it
// receives published aggregates, and reads control messages that drive the
// playback controller.
func ViewerWebsocketHandler(ctrl *playback.Controller, h *hub.Hub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		h.Register(connection)
		defer h.Unregister(connection)

		for {
			_, msg, err := connection.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Warning("Error reading viewer message: %v", err)
				}
				break
			}
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))

			var ctl controlMessage
			if err := json.Unmarshal(msg, &ctl); err != nil {
				logger.Warning("Invalid control message: %v", err)
				continue
			}

			if err := dispatch(ctrl, ctl); err != nil {
				logger.Warning("Control %q rejected: %v", ctl.Action, err)
			}
		}
	}
}

// dispatch maps one control message onto a controller operation. Superseded
// seeks and redundant play/pause are expected during scrubbing, not errors.
func dispatch(ctrl *playback.Controller, ctl controlMessage) error {
	kind := model.Kind(ctl.Kind)

	var err error
	switch ctl.Action {
	case "play":
		err = ctrl.Play()
	case "pause":
		err = ctrl.Pause()
	case "seek":
		_, err = ctrl.SeekTo(ctl.Position, kind)
	case "step":
		_, err = ctrl.StepOffset(ctl.Delta, kind)
	default:
		return errors.New("unknown action")
	}

	if errors.Is(err, playback.ErrSuperseded) ||
		errors.Is(err, playback.ErrAlreadyPlaying) ||
		errors.Is(err, playback.ErrNotPlaying) {
		return nil
	}
	return err
}
