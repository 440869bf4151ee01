package container

import (
	"sort"
	"sync"
)

// IIncrementalItem 可放入增量数组的元素，元素自己记录所在下标
type IIncrementalItem interface {
	Index() int
	SetIndex(index int)
}

// IncrementalItemBase 下标记录的默认实现，嵌入即可
type IncrementalItemBase struct {
	index int
}

func (b *IncrementalItemBase) Index() int {
	return b.index
}

func (b *IncrementalItemBase) SetIndex(index int) {
	b.index = index
}

// IncrementalArray 增量数组
// 功能：增删操作先进入待处理列表，Prepare时统一生效，保证一个仿真步内遍历到的集合不变
// 说明：Add/Remove可在并行阶段调用；Data与Prepare只能在仿真线程上调用。删除采用与末尾交换的方式，不保持元素顺序
type IncrementalArray[T IIncrementalItem] struct {
	data        []T
	add         []T
	remove      []T
	addMutex    sync.Mutex
	removeMutex sync.Mutex
}

func NewIncrementalArray[T IIncrementalItem]() *IncrementalArray[T] {
	return &IncrementalArray[T]{
		data:   make([]T, 0),
		add:    make([]T, 0),
		remove: make([]T, 0),
	}
}

// Len 已生效的元素数
func (a *IncrementalArray[T]) Len() int {
	return len(a.data)
}

// Data 已生效的元素，调用方不得修改
func (a *IncrementalArray[T]) Data() []T {
	return a.data
}

// Add 增加元素（等到Prepare时才会真正增加）
func (a *IncrementalArray[T]) Add(value T) {
	a.addMutex.Lock()
	defer a.addMutex.Unlock()
	a.add = append(a.add, value)
}

// Remove 删除元素（等到Prepare时才会真正删除）
func (a *IncrementalArray[T]) Remove(value T) {
	a.removeMutex.Lock()
	defer a.removeMutex.Unlock()
	a.remove = append(a.remove, value)
}

// Prepare 执行增量操作
// 算法说明：
// 1. 待删除元素按下标从大到小处理，每个与当前末尾元素交换后截断；
// 从大到小保证被换过来的末尾元素不在待删除列表中
// 2. 新元素追加到末尾并设置下标
func (a *IncrementalArray[T]) Prepare() {
	if len(a.remove) > 0 {
		sort.Slice(a.remove, func(i, j int) bool { return a.remove[i].Index() > a.remove[j].Index() })
		for _, x := range a.remove {
			ind, last := x.Index(), len(a.data)-1
			a.data[ind] = a.data[last]
			a.data[ind].SetIndex(ind)
			a.data = a.data[:last]
		}
	}
	for _, x := range a.add {
		x.SetIndex(len(a.data))
		a.data = append(a.data, x)
	}
	a.add = []T{}
	a.remove = []T{}
}
