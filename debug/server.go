// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package debug

import (
	"math"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/gviegas/seascene"
)

// Request is a message sent by a websocket client.
type Request struct {
	Path  string  `json:"path"`
	Value float64 `json:"value"`
}

// Reply is a message sent to a websocket client, once on
// connection and once per Request.
// Values that are not finite are sent as null.
type Reply struct {
	Values map[string]*float64 `json:"values"`
	Error  string              `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Handler returns a websocket endpoint that queues the
// tweaks it receives.
func (p *Panel) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			seascene.Logger().Warn("debug: upgrade", "err", err)
			return
		}
		defer ws.Close()
		seascene.Logger().Info("debug: client connected", "addr", r.RemoteAddr)

		if err := ws.WriteJSON(p.reply(nil)); err != nil {
			return
		}
		for {
			var req Request
			if err := ws.ReadJSON(&req); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					seascene.Logger().Debug("debug: read", "err", err)
				}
				return
			}
			if err := ws.WriteJSON(p.reply(p.Set(req.Path, req.Value))); err != nil {
				seascene.Logger().Debug("debug: write", "err", err)
				return
			}
		}
	})
}

func (p *Panel) reply(err error) Reply {
	vals := p.Values()
	r := Reply{Values: make(map[string]*float64, len(vals))}
	for k, v := range vals {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			r.Values[k] = nil
			continue
		}
		r.Values[k] = &v
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
