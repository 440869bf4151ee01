package container

// Ring 定长环形缓冲区
// 功能：按写入顺序循环覆盖保存最近Cap()个元素
// 说明：count记录自上次Reset以来的写入总数，可超过容量，用于判断样本是否充足
type Ring[T any] struct {
	data  []T
	next  int // 下一次写入的位置
	count int // 自上次Reset以来写入的元素总数
}

// NewRing 创建容量为capacity的环形缓冲区，capacity至少为1
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{data: make([]T, capacity)}
}

func (r *Ring[T]) Cap() int {
	return len(r.data)
}

// Len 当前有效元素个数
func (r *Ring[T]) Len() int {
	return min(r.count, len(r.data))
}

// Count 自上次Reset以来写入的元素总数
func (r *Ring[T]) Count() int {
	return r.count
}

// NextIndex 下一次写入的位置
func (r *Ring[T]) NextIndex() int {
	return r.next
}

// Full 缓冲区是否已被写满
func (r *Ring[T]) Full() bool {
	return r.count >= len(r.data)
}

// Push 写入元素并推进写入位置
func (r *Ring[T]) Push(v T) {
	r.data[r.next] = v
	r.next = (r.next + 1) % len(r.data)
	r.count++
}

// Newest 最近写入的元素
// 说明：缓冲区为空时返回零值
func (r *Ring[T]) Newest() T {
	if r.count == 0 {
		var zero T
		return zero
	}
	return r.data[(r.next-1+len(r.data))%len(r.data)]
}

// Oldest 最早的有效元素
// 算法说明：写入总数不超过容量时最早元素位于0号位置，否则位于下一次写入的位置（即将被覆盖）
func (r *Ring[T]) Oldest() T {
	if r.count <= len(r.data) {
		return r.data[0]
	}
	return r.data[r.next]
}

// Reset 清空缓冲区（不释放底层存储）
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.data {
		r.data[i] = zero
	}
	r.next = 0
	r.count = 0
}

// RingState 环形缓冲区的值拷贝，用于快照与恢复
type RingState[T any] struct {
	Data  []T
	Next  int
	Count int
}

// State 拷贝当前状态
func (r *Ring[T]) State() RingState[T] {
	data := make([]T, len(r.data))
	copy(data, r.data)
	return RingState[T]{Data: data, Next: r.next, Count: r.count}
}

// Restore 从状态恢复，容量不一致时panic
func (r *Ring[T]) Restore(s RingState[T]) {
	if len(s.Data) != len(r.data) {
		panic("container: ring capacity mismatch on restore")
	}
	copy(r.data, s.Data)
	r.next = s.Next
	r.count = s.Count
}
