package collector

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Collector is the receiving side of the chunk wire contract: a websocket
// endpoint that takes one raw encoded chunk per binary message, in production
// order, with no framing and no handshake beyond the connection itself. Each
// connection's chunks are appended to one file under Dir. The wire carries no
// negotiated media type, so files use a fixed .webm extension matching the
// default encoding profile.
type Collector struct {
	Dir string
}

func New(dir string) (*Collector, error) {
	if dir == "" {
		return nil, fmt.Errorf("recordings directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recordings directory: %w", err)
	}
	return &Collector{Dir: dir}, nil
}

// chunkReader is the slice of the websocket connection the collector needs.
type chunkReader interface {
	ReadMessage() (int, []byte, error)
}

// Handler returns the websocket handler for the collect route.
func (c *Collector) Handler() func(*websocket.Conn) {
	return func(ws *websocket.Conn) {
		defer ws.Close()
		log.Println("Collector stream connected")
		c.collect(ws)
	}
}

// collect drains binary chunk messages until the peer disconnects. The
// recording file is created lazily on the first chunk, so an empty stream
// leaves nothing behind.
func (c *Collector) collect(conn chunkReader) {
	path := filepath.Join(c.Dir, fmt.Sprintf("recording-%d.webm", time.Now().UnixMilli()))

	var file *os.File
	var chunks, total int
	defer func() {
		if file != nil {
			file.Close()
		}
		log.Printf("Collector stream closed: %d chunks, %d bytes", chunks, total)
	}()

	for {
		messageType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("Collector stream closed normally:", err)
			} else {
				log.Printf("Collector read error: %v", err)
			}
			return
		}
		if messageType != websocket.BinaryMessage || len(msg) == 0 {
			continue
		}

		if file == nil {
			f, err := os.Create(path)
			if err != nil {
				log.Printf("Collector file create error: %v", err)
				return
			}
			file = f
		}
		if _, err := file.Write(msg); err != nil {
			log.Printf("Collector write error: %v", err)
			return
		}
		chunks++
		total += len(msg)
	}
}
