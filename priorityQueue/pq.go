package priorityQueue

import "container/heap"

// A TimerEntry is something we manage in a priority queue.
type TimerEntry struct {
	ID       uint8   // sequence number this entry guards a retransmission for
	Deadline float64 // simulation time, in seconds, at which this entry fires
	Order    uint64  // breaks ties between equal deadlines
	Index    int     // the index of the item in the heap
}

// A PriorityQueue implements heap.Interface and holds TimerEntries.
type PriorityQueue []*TimerEntry

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	if pq[i].Deadline != pq[j].Deadline {
		return pq[i].Deadline < pq[j].Deadline
	}
	return pq[i].Order < pq[j].Order
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *PriorityQueue) Push(x any) {
	n := len(*pq)
	item := x.(*TimerEntry)
	item.Index = n
	*pq = append(*pq, item)
}

func (pq *PriorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // don't stop the GC from reclaiming the item eventually
	item.Index = -1
	*pq = old[0 : n-1]
	return item
}

func (pq *PriorityQueue) Remove(i int) *TimerEntry {
	return heap.Remove(pq, i).(*TimerEntry)
}
