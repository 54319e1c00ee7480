package rdt

import (
	"container/heap"
	"time"

	"github.com/hashicorp/go-hclog"

	"rdt-pa/priorityQueue"
)

// ids are sequence numbers; the sender cancels before re-adding so at most
// one entry per id is ever pending
type timerQueue struct {
	host    HostTimer
	clock   Clock
	onFire  func(id Seq)
	log     hclog.Logger
	items   priorityQueue.PriorityQueue
	nextOrd uint64
}

func newTimerQueue(host HostTimer, clock Clock, onFire func(Seq), log hclog.Logger) *timerQueue {
	return &timerQueue{host: host, clock: clock, onFire: onFire, log: log}
}

func (q *timerQueue) add(id Seq, timeout time.Duration) {
	entry := &priorityQueue.TimerEntry{
		ID:       id,
		Deadline: q.clock.Now() + timeout.Seconds(),
		Order:    q.nextOrd,
	}
	q.nextOrd++
	heap.Push(&q.items, entry)
	if q.items[0] == entry {
		q.rearm()
	}
}

func (q *timerQueue) cancel(id Seq) {
	idx := -1
	for i, e := range q.items {
		if e.ID != id {
			continue
		}
		if idx == -1 || q.items.Less(i, idx) {
			idx = i
		}
	}
	if idx == -1 {
		q.log.Debug("cancel of absent timer id", "id", id)
		return
	}
	wasHead := idx == 0
	q.items.Remove(idx)
	if wasHead {
		q.rearm()
	}
}

func (q *timerQueue) onExpiry() {
	if len(q.items) == 0 {
		q.log.Warn("timer fired with empty timer queue")
		return
	}
	now := q.clock.Now()
	for len(q.items) > 0 && q.items[0].Deadline <= now+timerEpsilon.Seconds() {
		entry := heap.Pop(&q.items).(*priorityQueue.TimerEntry)
		q.onFire(entry.ID)
	}
	q.rearm()
}

func (q *timerQueue) rearm() {
	if q.host.TimerIsSet() {
		q.host.TimerStop()
	}
	if len(q.items) == 0 {
		return
	}
	delay := q.items[0].Deadline - q.clock.Now()
	if delay < 0 {
		delay = 0
	}
	q.host.TimerStart(time.Duration(delay * float64(time.Second)))
}
