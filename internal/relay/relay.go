package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/core/event"
)

// Relay mirrors domain events onto NATS subjects "<prefix>.<event name>" for
// observers outside the process. Clients of the game never see these.
type Relay struct {
	conn   *nats.Conn
	prefix string
	log    *zap.Logger

	published uint64
	failed    uint64
}

func Connect(url, prefix string, log *zap.Logger) (*Relay, error) {
	conn, err := nats.Connect(url,
		nats.Name("realmsync-relay"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("relay disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("relay reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &Relay{conn: conn, prefix: prefix, log: log}, nil
}

// Attach subscribes the relay to every event on the bus. Events are
// published from the game loop during dispatch.
func (r *Relay) Attach(bus *event.Bus) {
	bus.SubscribeAll(r.publish)
}

// Subject returns the subject an event is published on.
func (r *Relay) Subject(ev any) string {
	return r.prefix + "." + event.Name(ev)
}

func (r *Relay) publish(ev any) {
	data, err := json.Marshal(ev)
	if err != nil {
		r.failed++
		r.log.Error("relay encode", zap.String("event", event.Name(ev)), zap.Error(err))
		return
	}
	if err := r.conn.Publish(r.Subject(ev), data); err != nil {
		r.failed++
		r.log.Warn("relay publish", zap.String("event", event.Name(ev)), zap.Error(err))
		return
	}
	r.published++
}

// Stats reports published and failed event counts. Game loop only.
func (r *Relay) Stats() (published, failed uint64) {
	return r.published, r.failed
}

// Close flushes pending publishes and closes the connection.
func (r *Relay) Close() {
	if err := r.conn.Drain(); err != nil {
		r.log.Warn("relay drain", zap.Error(err))
		r.conn.Close()
	}
}
