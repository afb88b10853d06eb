package renderpipeline

// workBuffer collects values from parallel loops without locking: every
// context appends to its own slice, addressed by the context index handed to
// the loop body. Collected values are drained on the main thread between
// parallel phases.
type workBuffer[T any] struct {
	items [][]T
}

// reset clears the buffer for a new frame, keeping slice capacity.
func (b *workBuffer[T]) reset(numContexts int) {
	if len(b.items) != numContexts {
		b.items = make([][]T, numContexts)
	}
	for i := range b.items {
		b.items[i] = b.items[i][:0]
	}
}

// push appends a value to one context's slice. Safe as long as each context
// index is used by a single goroutine at a time.
func (b *workBuffer[T]) push(contextIndex int, v T) {
	b.items[contextIndex] = append(b.items[contextIndex], v)
}

// size returns the total number of collected values.
func (b *workBuffer[T]) size() int {
	total := 0
	for i := range b.items {
		total += len(b.items[i])
	}
	return total
}

// appendTo drains the buffer into dst and returns the result.
func (b *workBuffer[T]) appendTo(dst []T) []T {
	for i := range b.items {
		dst = append(dst, b.items[i]...)
	}
	return dst
}

// forEach visits every collected value on the calling goroutine.
func (b *workBuffer[T]) forEach(fn func(v T)) {
	for i := range b.items {
		for j := range b.items[i] {
			fn(b.items[i][j])
		}
	}
}
