package worker

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/scheduler-engine/internal/dto"
)

func TestPriorityQueueOrdersByPriorityThenSeq(t *testing.T) {
	pq := priorityQueue{}
	heap.Init(&pq)

	heap.Push(&pq, &queuedJob{job: &Job{ID: "a"}, priority: dto.PriorityLow, seq: 1})
	heap.Push(&pq, &queuedJob{job: &Job{ID: "b"}, priority: dto.PriorityHigh, seq: 2})
	heap.Push(&pq, &queuedJob{job: &Job{ID: "c"}, priority: dto.PriorityHigh, seq: 3})
	heap.Push(&pq, &queuedJob{job: &Job{ID: "d"}, priority: dto.PriorityNormal, seq: 4})

	var order []string
	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*queuedJob)
		order = append(order, item.job.ID)
	}

	assert.Equal(t, []string{"b", "c", "d", "a"}, order)
}

func TestPriorityQueueRemoveMidHeap(t *testing.T) {
	pq := priorityQueue{}
	heap.Init(&pq)

	items := map[string]*queuedJob{
		"a": {job: &Job{ID: "a"}, priority: dto.PriorityLow, seq: 1},
		"b": {job: &Job{ID: "b"}, priority: dto.PriorityHigh, seq: 2},
		"c": {job: &Job{ID: "c"}, priority: dto.PriorityNormal, seq: 3},
	}
	for _, item := range items {
		heap.Push(&pq, item)
	}

	heap.Remove(&pq, items["c"].index)
	assert.Equal(t, 2, pq.Len())

	var order []string
	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*queuedJob)
		order = append(order, item.job.ID)
	}
	assert.Equal(t, []string{"b", "a"}, order)
}
