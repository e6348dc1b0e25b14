package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
)

// Heartbeat mirrors the gateway's periodic status report.
type Heartbeat struct {
	Endpoints int       `json:"endpoints"`
	Networks  int       `json:"networks"`
	Timestamp time.Time `json:"timestamp"`
}

// FailureSignal mirrors the gateway's mark-failed notification.
type FailureSignal struct {
	ID        string    `json:"id"`
	Network   string    `json:"network"`
	Address   string    `json:"address"`
	Timestamp time.Time `json:"timestamp"`
}

func main() {
	var natsURL = flag.String("nats", nats.DefaultURL, "NATS server URL")
	flag.Parse()

	conn, err := nats.Connect(*natsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS at %s: %v", *natsURL, err)
	}
	defer conn.Close()

	log.Printf("Watching gateway traffic on %s", *natsURL)

	_, err = conn.Subscribe("monitoring.gateway.heartbeat", func(msg *nats.Msg) {
		var hb Heartbeat
		if err := json.Unmarshal(msg.Data, &hb); err != nil {
			log.Printf("Bad heartbeat payload: %v", err)
			return
		}
		log.Printf("heartbeat: %d endpoints across %d networks", hb.Endpoints, hb.Networks)
	})
	if err != nil {
		log.Fatalf("Failed to subscribe to heartbeats: %v", err)
	}

	_, err = conn.Subscribe("pool.endpoint.failed", func(msg *nats.Msg) {
		var sig FailureSignal
		if err := json.Unmarshal(msg.Data, &sig); err != nil {
			log.Printf("Bad failure signal payload: %v", err)
			return
		}
		log.Printf("endpoint failed: %s (%s) on %s", sig.ID, sig.Address, sig.Network)
	})
	if err != nil {
		log.Fatalf("Failed to subscribe to failure signals: %v", err)
	}

	_, err = conn.Subscribe("pool.*.endpoints", func(msg *nats.Msg) {
		log.Printf("endpoint announcement on %s: %d bytes", msg.Subject, len(msg.Data))
	})
	if err != nil {
		log.Fatalf("Failed to subscribe to announcements: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
