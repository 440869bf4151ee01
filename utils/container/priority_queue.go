package container

import "container/heap"

// entry 优先队列中的单个元素
type entry[T any] struct {
	value    T
	priority float64 // 越小越优先
	seq      uint64  // 入队序号，优先级相同时先入先出
}

// entries 实现heap.Interface
type entries[T any] []*entry[T]

func (pq entries[T]) Len() int { return len(pq) }

func (pq entries[T]) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].seq < pq[j].seq
}

func (pq entries[T]) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *entries[T]) Push(x any) {
	*pq = append(*pq, x.(*entry[T]))
}

func (pq *entries[T]) Pop() any {
	old := *pq
	n := len(old)
	e := old[n-1]
	old[n-1] = nil // 避免内存泄漏
	*pq = old[0 : n-1]
	return e
}

// PriorityQueue 最小优先队列
// 功能：按优先级从小到大弹出元素，同优先级按入队顺序弹出
// 说明：用于定时器按触发步排序，保证同一步内回调的执行顺序确定
type PriorityQueue[T any] struct {
	queue entries[T]
	seq   uint64
}

// NewPriorityQueue 创建优先队列
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{queue: make(entries[T], 0)}
}

// Len 获取当前队列长度
func (q *PriorityQueue[T]) Len() int {
	return len(q.queue)
}

// Peek 查看优先级最高（数值最小）的元素，不移除
// 说明：队列为空时调用会panic
func (q *PriorityQueue[T]) Peek() (value T, priority float64) {
	e := q.queue[0]
	return e.value, e.priority
}

// HeapPush 加入元素并维护堆结构
func (q *PriorityQueue[T]) HeapPush(value T, priority float64) {
	heap.Push(&q.queue, &entry[T]{
		value:    value,
		priority: priority,
		seq:      q.seq,
	})
	q.seq++
}

// HeapPop 弹出优先级最高的元素
func (q *PriorityQueue[T]) HeapPop() (value T, priority float64) {
	e := heap.Pop(&q.queue).(*entry[T])
	return e.value, e.priority
}
