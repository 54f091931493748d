package tasklist

// List is a sequence of Task values kept sorted by nondecreasing
// AbsoluteDeadline. It exclusively owns its entries: callers get back
// copies from Push/RemoveByID/Head/Iter, never a shared reference, which is
// what lets the coordinator reason about Handle ownership without the
// double-free/use-after-free hazards of an intrusive linked list sharing
// node pointers with worker tasks.
//
// List is not safe for concurrent use; the coordinator that owns one is
// single-threaded by construction (see the dds package), so this is free.
type List struct {
	items []Task
}

// Push inserts t immediately before the first existing element with a
// strictly greater deadline. Tasks with an equal deadline are placed after
// existing equals, giving FIFO ordering among ties.
func (l *List) Push(t Task) {
	idx := len(l.items)
	for i, existing := range l.items {
		if existing.AbsoluteDeadline > t.AbsoluteDeadline {
			idx = i
			break
		}
	}
	l.items = append(l.items, Task{})
	copy(l.items[idx+1:], l.items[idx:])
	l.items[idx] = t
}

// RemoveByID removes and returns the task with the given id, transferring
// ownership of its Handle to the caller. The second return value is false
// if no such task is present.
func (l *List) RemoveByID(id uint32) (Task, bool) {
	for i, t := range l.items {
		if t.TaskID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return t, true
		}
	}
	return Task{}, false
}

// Head returns a copy of the earliest-deadline element, or the zero Task and
// false if the list is empty.
func (l *List) Head() (Task, bool) {
	if len(l.items) == 0 {
		return Task{}, false
	}
	return l.items[0], true
}

// Iter returns an in-order, non-owning snapshot of the list's contents.
// Mutating the returned slice has no effect on the list.
func (l *List) Iter() []Task {
	out := make([]Task, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of tasks currently stored.
func (l *List) Len() int {
	return len(l.items)
}

// Free releases all entries and resets the list to empty.
func (l *List) Free() {
	l.items = nil
}
