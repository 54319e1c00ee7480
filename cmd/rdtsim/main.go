// Command rdtsim is a small in-process demonstration harness: it wires a
// Sender and a Receiver together over a simulated lossy channel and drives
// them from a line-oriented REPL. It is glue code around the core
// protocol, not part of it.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"rdt-pa/internal/config"
	"rdt-pa/pkg/rdt"
)

// loop is the single-threaded event executor every host callback and REPL
// command posts onto, so the core's no-reentrancy assumption holds even
// though timers and the REPL run on their own goroutines.
type loop struct {
	events chan func()
}

func newLoop() *loop {
	return &loop{events: make(chan func(), 256)}
}

func (l *loop) post(f func()) { l.events <- f }

func (l *loop) run() {
	for f := range l.events {
		f()
	}
}

// simClock is a wall-clock-backed Clock, in seconds since the run started.
type simClock struct{ start time.Time }

func (c *simClock) Now() float64 { return time.Since(c.start).Seconds() }

// simTimer is a one-shot HostTimer backed by time.AfterFunc; expiry is
// posted back onto the loop rather than invoked from the timer's own
// goroutine.
type simTimer struct {
	l     *loop
	fire  func()
	timer *time.Timer
	set   bool
}

func (t *simTimer) TimerStart(d time.Duration) {
	t.timer = time.AfterFunc(d, func() { t.l.post(t.fire) })
	t.set = true
}

func (t *simTimer) TimerStop() {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.set = false
}

func (t *simTimer) TimerIsSet() bool { return t.set }

// channel models the unreliable link: each transmitted frame is dropped,
// corrupted, or delayed independently according to cfg's rates before
// (possibly) being handed to deliver.
type channel struct {
	cfg     *config.Config
	rng     *rand.Rand
	l       *loop
	log     hclog.Logger
	deliver func(*rdt.Frame)
}

func (c *channel) send(frame *rdt.Frame) {
	if c.rng.Float64() < c.cfg.DropRate {
		c.log.Debug("channel dropped frame", "seq", frame.Seq, "flags", frame.Flags)
		return
	}
	wire := frame.MarshalBinary()
	if c.rng.Float64() < c.cfg.CorruptRate {
		wire[rdt.HeaderSize+c.rng.Intn(len(wire)-rdt.HeaderSize)] ^= 0xFF
		c.log.Debug("channel corrupted frame", "seq", frame.Seq)
	}
	delay := time.Duration(0)
	if c.cfg.DelayMaxMS > 0 {
		delay = time.Duration(c.rng.Intn(c.cfg.DelayMaxMS)) * time.Millisecond
	}
	decoded, err := rdt.UnmarshalFrame(wire)
	if err != nil {
		c.log.Error("failed to decode simulated wire frame", "err", err)
		return
	}
	time.AfterFunc(delay, func() { c.l.post(func() { c.deliver(decoded) }) })
}

// senderHost and receiverHost adapt the shared simClock/channel/timer into
// the interfaces pkg/rdt expects from its host.
type senderHost struct {
	clock *simClock
	ch    *channel
	timer *simTimer
}

func (h *senderHost) Now() float64                  { return h.clock.Now() }
func (h *senderHost) SendToLower(f *rdt.Frame)       { h.ch.send(f) }
func (h *senderHost) TimerStart(d time.Duration)     { h.timer.TimerStart(d) }
func (h *senderHost) TimerStop()                     { h.timer.TimerStop() }
func (h *senderHost) TimerIsSet() bool               { return h.timer.TimerIsSet() }

type receiverHost struct {
	clock    *simClock
	ch       *channel
	upstream *upperLayerSink
}

func (h *receiverHost) Now() float64            { return h.clock.Now() }
func (h *receiverHost) SendToLower(f *rdt.Frame) { h.ch.send(f) }
func (h *receiverHost) DeliverToUpper(data []byte) { h.upstream.push(data) }

// upperLayerSink accumulates bytes the receiver has delivered upward, for
// inspection from the REPL goroutine.
type upperLayerSink struct {
	mu  sync.Mutex
	buf []byte
}

func (u *upperLayerSink) push(data []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.buf = append(u.buf, data...)
}

func (u *upperLayerSink) snapshot() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]byte, len(u.buf))
	copy(out, u.buf)
	return out
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "rdtsim:", err)
		os.Exit(1)
	}

	log := hclog.New(&hclog.LoggerOptions{Name: "rdtsim", Level: hclog.Info})
	log.Info("starting run", "id", cfg.RunID, "dropRate", cfg.DropRate, "corruptRate", cfg.CorruptRate)

	l := newLoop()
	clock := &simClock{start: time.Now()}
	rng := rand.New(rand.NewSource(1))
	sink := &upperLayerSink{}

	sHost := &senderHost{clock: clock, timer: &simTimer{l: l}}
	rHost := &receiverHost{clock: clock, upstream: sink}

	var sender *rdt.Sender
	var receiver *rdt.Receiver

	sHost.ch = &channel{cfg: cfg, rng: rng, l: l, log: log.Named("sender->receiver"), deliver: func(f *rdt.Frame) { receiver.FromLowerLayer(f) }}
	rHost.ch = &channel{cfg: cfg, rng: rng, l: l, log: log.Named("receiver->sender"), deliver: func(f *rdt.Frame) { sender.FromLowerLayer(f) }}

	sender = rdt.NewSenderWithTimeouts(sHost, log.Named("sender"), cfg.SenderTimeout, cfg.NakTimeout)
	receiver = rdt.NewReceiver(rHost, log.Named("receiver"))
	sHost.timer.fire = sender.OnTimer

	go l.run()
	l.post(sender.Init)
	l.post(receiver.Init)

	repl(l, sender, sink, log)
}

func repl(l *loop, sender *rdt.Sender, sink *upperLayerSink, log hclog.Logger) {
	fmt.Println("rdtsim ready. commands: send <text> | recv | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit":
			return
		case line == "recv":
			fmt.Printf("%d bytes delivered: %q\n", len(sink.snapshot()), sink.snapshot())
		case strings.HasPrefix(line, "send "):
			msg := []byte(line[len("send "):])
			done := make(chan struct{})
			l.post(func() { sender.FromUpperLayer(msg); close(done) })
			<-done
			fmt.Println("queued", strconv.Itoa(len(msg)), "bytes")
		default:
			fmt.Println("unrecognized command:", line)
		}
	}
	log.Info("repl closed")
}
