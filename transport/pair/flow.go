package pair

// flowController is the admission accounting for one direction queue:
// bytes currently buffered against a fixed capacity. It carries no
// synchronization of its own; callers hold the owning queue's lock.
type flowController struct {
	cap  uint
	used uint
}

// tryReserve admits n more bytes iff they fit. used never exceeds cap.
func (f *flowController) tryReserve(n uint) bool {
	if f.used+n > f.cap {
		return false
	}
	f.used += n
	return true
}

// release returns n consumed bytes to the budget.
func (f *flowController) release(n uint) {
	if n > f.used {
		panic("flow: releasing more than reserved")
	}
	f.used -= n
}

func (f *flowController) capacity() uint { return f.cap }

func (f *flowController) buffered() uint { return f.used }

// room is the space left for admission right now.
func (f *flowController) room() uint { return f.cap - f.used }
