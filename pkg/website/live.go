package website

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
)

// attendanceUpdate is pushed to every /live subscriber whenever a guest
// responds.
type attendanceUpdate struct {
	Attending int `json:"attending"`
}

// live upgrades the request to a websocket and streams attendance counts
// until the page closes the socket or the server shuts down.
func (ws *Website) live(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		ws.logger.VerboseMsg("websocket.Accept(): %s\n", err)
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "")

	updates, cancel := ws.store.Subscribe()
	defer cancel()

	ctx := r.Context()

	// Reads are discarded; the socket exists for pushes only. The read
	// loop still has to run so control frames are handled and we notice
	// when the peer goes away.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := c.Read(ctx); err != nil {
				return
			}
		}
	}()

	if err := ws.push(ctx, c, ws.store.Attendance()); err != nil {
		return
	}

	for {
		select {
		case count := <-updates:
			if err := ws.push(ctx, c, count); err != nil {
				return
			}
		case <-readDone:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (ws *Website) push(ctx context.Context, c *websocket.Conn, count int) error {
	payload, err := json.Marshal(attendanceUpdate{Attending: count})
	if err != nil {
		return err
	}
	if err := c.Write(ctx, websocket.MessageText, payload); err != nil {
		ws.logger.VerboseMsg("Pushing attendance update: %s\n", err)
		return err
	}
	return nil
}
