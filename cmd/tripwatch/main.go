// Command tripwatch follows a single trip's seat availability in real time.
//
// It connects to the portal's realtime server, joins the trip's room, and
// logs every seat change and booking as it arrives. Useful for watching a
// trip fill up during a sale, or for smoke-testing a realtime deployment.
//
// Connection settings come from the environment (see package config);
// flags select the trip and seed the seat counts.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/buslinehq/realtime/bridge"
	"github.com/buslinehq/realtime/config"
	"github.com/buslinehq/realtime/rooms"
	"github.com/buslinehq/realtime/seats"
	"github.com/buslinehq/realtime/socket"
)

func main() {
	cmd := &cli.Command{
		Name:  "tripwatch",
		Usage: "follow a trip's live seat availability",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "trip",
				Usage:    "trip id to watch",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "total-seats",
				Usage: "total seats on the bus",
				Value: 40,
			},
			&cli.IntFlag{
				Name:  "seats",
				Usage: "seats available at startup, before any events",
				Value: 40,
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatalf("tripwatch: %v", err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	tripID := cmd.String("trip")
	cfg := config.Load()

	br := bridge.New()
	br.Subscribe(bridge.CategoryWarning, func(s bridge.Signal) {
		log.Printf("warning (%s): %s", s.Type, s.Message)
	})
	br.Subscribe(bridge.CategoryError, func(s bridge.Signal) {
		log.Printf("socket error (%s): %s", s.Type, s.Message)
	})
	br.Subscribe(bridge.CategoryBlocked, func(s bridge.Signal) {
		log.Printf("account blocked: %s", s.Message)
	})

	mgr := socket.NewManager(cfg.Socket(), socket.NewWebsocketTransport(), br)
	tracker := rooms.NewTracker(mgr, br)
	tracker.Bind(mgr)

	rec := seats.NewReconciler(tripID, int(cmd.Int("total-seats")), int(cmd.Int("seats")), func(available int) {
		log.Printf("trip %s: %d seats available", tripID, available)
	})
	feed := seats.NewFeed()

	mgr.OnBookingUpdated(func(u socket.BookingUpdate) {
		if u.TripID != tripID {
			return
		}
		rec.Apply(seats.Update{
			TripID:         u.TripID,
			SeatsAvailable: u.SeatsAvailable,
			AssignedSeats:  u.AssignedSeats,
			BookingID:      u.BookingID,
			Timestamp:      u.Timestamp,
		})
	})
	mgr.OnNewBooking(func(b socket.NewBooking) {
		if feed.Add(seats.Entry{
			BookingID: b.BookingID,
			TripID:    b.TripID,
			UserEmail: b.UserEmail,
			Amount:    b.TotalAmount,
			Timestamp: b.Timestamp,
		}) {
			log.Printf("booking %s on trip %s (%s)", b.BookingID, b.TripID, b.UserEmail)
		}
	})

	// Rooms are not rejoined automatically after a reconnect; watch the
	// state and re-enter the trip's room whenever the connection returns.
	mgr.OnStateChange(rejoinOnConnect(tracker, tripID))

	log.Printf("connecting to %s", cfg.ServerURL)
	if err := mgr.Connect(); err != nil {
		return err
	}
	tracker.Enter(tripID)

	<-ctx.Done()

	log.Println("shutting down")
	tracker.Leave(tripID)
	mgr.Disconnect()
	return nil
}

// rejoinOnConnect returns a state hook that re-enters the trip room each
// time the connection comes back up.
func rejoinOnConnect(tracker *rooms.Tracker, tripID string) func(socket.State) {
	return func(st socket.State) {
		if st == socket.StateConnected && !tracker.Joined(tripID) {
			tracker.Enter(tripID)
		}
	}
}
