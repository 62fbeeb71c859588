package api

import (
	"github.com/hbomb79/vidinfo/internal/api/components"
	"github.com/hbomb79/vidinfo/internal/api/util"
	"github.com/hbomb79/vidinfo/internal/autohook"
	"github.com/hbomb79/vidinfo/internal/http/websocket"
)

const (
	TITLE_VIDEO_INFO = "VIDEO_INFO"
)

type broadcaster struct {
	socketHub *websocket.SocketHub
	host      components.Host
}

func newBroadcaster(socketHub *websocket.SocketHub, host components.Host) *broadcaster {
	return &broadcaster{socketHub, host}
}

// BroadcastSummary pushes the summary of a probed upload to every
// client of the activity feed.
func (hub *broadcaster) BroadcastSummary(summary autohook.Summary) {
	if !hub.socketHub.Running() {
		return
	}

	hub.broadcast(TITLE_VIDEO_INFO, summary)
}

// connectionPayload furnishes new clients with the components of the host.
func (hub *broadcaster) connectionPayload() map[string]any {
	return map[string]any{"components": util.ApplyConversion(hub.host.Components(), components.NewDto)}
}

func (hub *broadcaster) broadcast(title string, update any) {
	hub.socketHub.Send(&websocket.SocketMessage{
		Title: title,
		Body:  map[string]any{"arguments": update},
		Type:  websocket.Update,
	})
}
