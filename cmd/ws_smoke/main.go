package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"product_transactions/internal/logger"

	"github.com/gorilla/websocket"
)

func main() {
	force := flag.Bool("force", true, "pass force=true to the seed endpoint")
	wait := flag.Duration("wait", 10*time.Second, "how long to wait for events")
	flag.Parse()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+base+"/ws", nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	defer conn.Close()

	events := make(chan string)
	go func() {
		defer close(events)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			events <- string(msg)
		}
	}()

	// ready handshake first, then trigger a reload
	select {
	case msg, ok := <-events:
		if !ok {
			logger.Fatal("connection closed before ready")
		}
		fmt.Println("got:", msg)
	case <-time.After(3 * time.Second):
		logger.Fatal("no ready message")
	}

	resp, err := http.Post(fmt.Sprintf("http://%s/api/seed?force=%t", base, *force), "application/json", nil)
	if err != nil {
		logger.Fatal("seed request", "error", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	fmt.Printf("seed: %d %s\n", resp.StatusCode, body)

	deadline := time.After(*wait)
	for {
		select {
		case msg, ok := <-events:
			if !ok {
				fmt.Println("connection closed")
				return
			}
			fmt.Println("got:", msg)
		case <-deadline:
			fmt.Println("smoke test finished")
			return
		}
	}
}
