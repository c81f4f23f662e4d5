// Package main connects probe clients to the /ws hub, sends post events and
// reports how many relays came back.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the probe results
type Metrics struct {
	ConnectionsAttempted atomic.Int64
	ConnectionsSuccess   atomic.Int64
	ConnectionsFailed    atomic.Int64
	MessagesSent         atomic.Int64
	MessagesReceived     atomic.Int64
	Errors               atomic.Int64
}

var metrics Metrics

func main() {
	host := flag.String("host", "localhost:5000", "API server host")
	room := flag.String("room", "post-1", "Room to join before sending")
	clients := flag.Int("clients", 2, "Number of concurrent clients")
	postID := flag.Int("post", 1, "Post id carried by sent events")
	interval := flag.Duration("interval", 5*time.Second, "Delay between events per client")
	duration := flag.Duration("duration", 15*time.Second, "Probe duration")
	verbose := flag.Bool("v", false, "Print every relayed frame")
	flag.Parse()

	log.Printf("Probing ws://%s/ws with %d clients for %v", *host, *clients, *duration)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := range *clients {
		wg.Add(1)
		go runClient(probe{
			host: *host, room: *room, postID: *postID,
			id: i, interval: *interval, verbose: *verbose,
		}, stop, &wg)
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
		log.Println("Probe duration reached")
	case <-interrupt:
		log.Println("Interrupted")
	}

	close(stop)
	wg.Wait()
	printMetrics()
}

type probe struct {
	host     string
	room     string
	postID   int
	id       int
	interval time.Duration
	verbose  bool
}

func runClient(p probe, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	metrics.ConnectionsAttempted.Add(1)

	u := url.URL{Scheme: "ws", Host: p.host, Path: "/ws"}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		metrics.ConnectionsFailed.Add(1)
		metrics.Errors.Add(1)
		log.Printf("client %d: dial failed: %v", p.id, err)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()
	metrics.ConnectionsSuccess.Add(1)

	if err := c.WriteJSON(map[string]any{"type": "join_room", "room": p.room}); err != nil {
		metrics.Errors.Add(1)
		return
	}

	go func() {
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			metrics.MessagesReceived.Add(1)
			if p.verbose {
				log.Printf("client %d <- %s", p.id, data)
			}
		}
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-stop:
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			frame := event(p, n)
			msg, _ := json.Marshal(frame)
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				metrics.Errors.Add(1)
				return
			}
			metrics.MessagesSent.Add(1)
		}
	}
}

// event alternates comment and reaction frames.
func event(p probe, n int) map[string]any {
	if n%2 == 0 {
		return map[string]any{
			"type":    "new_comment",
			"postId":  p.postID,
			"comment": map[string]any{"content": fmt.Sprintf("probe %d message %d", p.id, n)},
		}
	}
	return map[string]any{
		"type":     "new_reaction",
		"postId":   p.postID,
		"reaction": map[string]any{"type": "like"},
	}
}

func printMetrics() {
	log.Println("Probe Results")
	log.Println("=============")
	log.Printf("Connections Attempted: %d", metrics.ConnectionsAttempted.Load())
	log.Printf("Connections Successful: %d", metrics.ConnectionsSuccess.Load())
	log.Printf("Connections Failed: %d", metrics.ConnectionsFailed.Load())
	log.Printf("Events Sent: %d", metrics.MessagesSent.Load())
	log.Printf("Relays Received: %d", metrics.MessagesReceived.Load())
	log.Printf("Total Errors: %d", metrics.Errors.Load())
}
