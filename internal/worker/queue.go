// Package worker implements the priority job queue and Worker Manager
// (spec.md §5): a bounded pool of goroutines draining a priority queue where
// higher-priority jobs run first and equal-priority jobs run FIFO.
package worker

import (
	"container/heap"

	"github.com/noah-isme/scheduler-engine/internal/dto"
)

// queuedJob is one heap entry: a job plus the priority and submission
// sequence it was queued with. seq breaks ties between equal priorities in
// submission order, since container/heap does not guarantee stability.
type queuedJob struct {
	job      *Job
	priority dto.JobPriority
	seq      uint64
	index    int
}

// priorityQueue is a max-heap on (priority, then earliest seq).
type priorityQueue []*queuedJob

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority > pq[j].priority
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*queuedJob)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

var _ heap.Interface = (*priorityQueue)(nil)
