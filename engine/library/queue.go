package library

// Queue is a FIFO ring buffer that grows by its initial size when full.
type Queue[T any] struct {
	nodes []T
	grow  int
	head  int
	tail  int
	count int
}

func NewQueue[T any](size int) *Queue[T] {
	if size < 1 {
		size = 1
	}
	return &Queue[T]{nodes: make([]T, size), grow: size}
}

func (q *Queue[T]) Push(items ...T) {
	for _, item := range items {
		if q.count == len(q.nodes) {
			q.resize()
		}
		q.nodes[q.tail] = item
		q.tail = (q.tail + 1) % len(q.nodes)
		q.count++
	}
}

func (q *Queue[T]) resize() {
	nodes := make([]T, len(q.nodes)+q.grow)
	n := copy(nodes, q.nodes[q.head:])
	copy(nodes[n:], q.nodes[:q.head])
	q.head = 0
	q.tail = q.count
	q.nodes = nodes
}

// Pop returns the oldest item, or false if the queue is empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	if q.count == 0 {
		return item, false
	}
	var zero T
	item = q.nodes[q.head]
	q.nodes[q.head] = zero
	q.head = (q.head + 1) % len(q.nodes)
	q.count--
	return item, true
}

func (q *Queue[T]) Len() int {
	return q.count
}
