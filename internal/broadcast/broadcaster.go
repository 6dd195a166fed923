package broadcast

import (
	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/net/message"
	"github.com/l1jgo/realmsync/internal/world"
)

// Directory resolves rooms and session ids to transports.
type Directory interface {
	MembersOf(room world.RoomID) []string
	SinkFor(sessionID string) world.Sink
	SessionIDs() []string
}

// Broadcaster fans encoded messages out to sessions. Delivery is
// best-effort per recipient: a failed send is logged and counted, and a
// session that fails maxFailures times in a row has its transport closed,
// which the input system turns into disconnect cleanup.
//
// Used only from the game loop goroutine.
type Broadcaster struct {
	dir         Directory
	maxFailures int
	failures    map[string]int
	log         *zap.Logger
}

func New(dir Directory, maxFailures int, log *zap.Logger) *Broadcaster {
	if maxFailures <= 0 {
		maxFailures = 1
	}
	return &Broadcaster{
		dir:         dir,
		maxFailures: maxFailures,
		failures:    make(map[string]int),
		log:         log,
	}
}

// Broadcast sends msg to every member of room except exclude (may be "").
// Returns the number of successful deliveries.
func (b *Broadcaster) Broadcast(room world.RoomID, msg any, exclude string) int {
	data, ok := b.encode(msg)
	if !ok {
		return 0
	}
	return b.deliver(b.dir.MembersOf(room), data, exclude)
}

// BroadcastGlobal sends msg to every joined session except exclude.
func (b *Broadcaster) BroadcastGlobal(msg any, exclude string) int {
	data, ok := b.encode(msg)
	if !ok {
		return 0
	}
	return b.deliver(b.dir.SessionIDs(), data, exclude)
}

// SendTo delivers msg to one session.
func (b *Broadcaster) SendTo(sessionID string, msg any) bool {
	data, ok := b.encode(msg)
	if !ok {
		return false
	}
	return b.deliver([]string{sessionID}, data, "") == 1
}

// SendSink delivers msg to a transport that has no session yet.
func (b *Broadcaster) SendSink(sink world.Sink, msg any) bool {
	data, ok := b.encode(msg)
	if !ok {
		return false
	}
	if err := sink.Send(data); err != nil {
		b.log.Warn("send failed", zap.Error(err))
		return false
	}
	return true
}

// Forget drops the failure count of a departed session.
func (b *Broadcaster) Forget(sessionID string) {
	delete(b.failures, sessionID)
}

func (b *Broadcaster) encode(msg any) ([]byte, bool) {
	data, err := message.Encode(msg)
	if err != nil {
		b.log.Error("encode outbound message", zap.Error(err))
		return nil, false
	}
	return data, true
}

func (b *Broadcaster) deliver(ids []string, data []byte, exclude string) int {
	delivered := 0
	for _, id := range ids {
		if id == exclude {
			continue
		}
		sink := b.dir.SinkFor(id)
		if sink == nil {
			continue
		}
		if b.sendOne(id, sink, data) {
			delivered++
		}
	}
	return delivered
}

func (b *Broadcaster) sendOne(id string, sink world.Sink, data []byte) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error("send panic recovered", zap.String("session", id), zap.Any("panic", rec))
			ok = false
			b.fail(id, sink)
		}
	}()
	if err := sink.Send(data); err != nil {
		b.log.Warn("send failed", zap.String("session", id), zap.Error(err))
		b.fail(id, sink)
		return false
	}
	delete(b.failures, id)
	return true
}

func (b *Broadcaster) fail(id string, sink world.Sink) {
	b.failures[id]++
	if b.failures[id] >= b.maxFailures {
		b.log.Warn("dropping unresponsive session", zap.String("session", id), zap.Int("failures", b.failures[id]))
		delete(b.failures, id)
		sink.Close()
	}
}
