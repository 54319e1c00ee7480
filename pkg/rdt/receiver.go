package rdt

import "github.com/hashicorp/go-hclog"

type inSlot struct {
	received bool
	naked    bool // bookkeeping only; see Receiver.gap
	len      uint8
	payload  [MaxPayload]byte
}

// no timer of its own: all retransmission pressure originates at the sender
type Receiver struct {
	host ReceiverHost
	log  hclog.Logger

	windowStart  Seq
	receivedLast Seq

	inBuf [256]inSlot
}

func NewReceiver(host ReceiverHost, log hclog.Logger) *Receiver {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Receiver{
		host:         host,
		log:          log,
		windowStart:  0,
		receivedLast: Minus(0, 1), // no gap observed yet
	}
}

func (r *Receiver) Init() {
	r.log.Info("receiver initializing", "at", r.host.Now())
}

func (r *Receiver) Final() {
	r.log.Info("receiver finalizing", "at", r.host.Now())
}

func (r *Receiver) FromLowerLayer(pkt *Frame) {
	if !Check(pkt) {
		r.log.Debug("dropping corrupt frame at receiver")
		return
	}

	s := pkt.Seq
	if Lt(s, r.windowStart) {
		// already delivered; resend the ack so a lost one doesn't stall the sender
		r.sendAck()
		return
	}

	r.log.Debug("data frame received", "at", r.host.Now(), "seq", s)
	slot := &r.inBuf[s]
	slot.received = true
	slot.naked = false
	slot.len = uint8(copy(slot.payload[:], pkt.Payload[:pkt.Len]))
	if Lt(r.receivedLast, s) {
		r.receivedLast = s
	}

	r.deliver()
	r.gap()
}

func (r *Receiver) deliver() {
	for r.inBuf[r.windowStart].received {
		cur := &r.inBuf[r.windowStart]
		data := make([]byte, cur.len)
		copy(data, cur.payload[:cur.len])
		r.host.DeliverToUpper(data)
		cur.received = false
		Inc(&r.windowStart)
	}
}

// unguarded: fires every time, since the receiver has no timer of its own
func (r *Receiver) gap() {
	if Lt(r.windowStart, r.receivedLast) {
		r.inBuf[r.windowStart].naked = true
		r.sendNak(r.windowStart)
		return
	}
	r.sendAck()
}

func (r *Receiver) sendAck() {
	r.log.Debug("sending ack", "at", r.host.Now(), "ack", Minus(r.windowStart, 1))
	frame := &Frame{Seq: 0, Ack: Minus(r.windowStart, 1), Flags: FlagData, Len: 0}
	if err := FillChecksum(frame); err != nil {
		r.log.Error("failed to checksum outgoing ack", "err", err)
		return
	}
	r.host.SendToLower(frame)
}

func (r *Receiver) sendNak(missing Seq) {
	r.log.Debug("sending nak", "at", r.host.Now(), "missing", missing)
	frame := &Frame{Seq: 0, Ack: missing, Flags: FlagNak, Len: 0}
	if err := FillChecksum(frame); err != nil {
		r.log.Error("failed to checksum outgoing nak", "err", err)
		return
	}
	r.host.SendToLower(frame)
}
