package indicator

import "github.com/rodrigo-brito/taengine/model"

// window is a fixed size ring buffer over the newest values of a stream.
type window struct {
	buf   []float64
	next  int
	count int
}

func newWindow(size int) *window {
	return &window{buf: make([]float64, size)}
}

func (w *window) push(v float64) {
	w.buf[w.next] = v
	w.next = (w.next + 1) % len(w.buf)
	if w.count < len(w.buf) {
		w.count++
	}
}

func (w *window) full() bool {
	return w.count == len(w.buf)
}

// values copies the buffered values into dst, oldest first.
func (w *window) values(dst []float64) model.Series[float64] {
	dst = dst[:0]
	start := 0
	if w.full() {
		start = w.next
	}
	for i := 0; i < w.count; i++ {
		dst = append(dst, w.buf[(start+i)%len(w.buf)])
	}
	return dst
}

// sum adds the buffered values oldest first, so the result only depends on the
// values inside the window and not on the history that left it.
func (w *window) sum() float64 {
	start := 0
	if w.full() {
		start = w.next
	}
	total := 0.0
	for i := 0; i < w.count; i++ {
		total += w.buf[(start+i)%len(w.buf)]
	}
	return total
}

func (w *window) reset() {
	w.next = 0
	w.count = 0
	for i := range w.buf {
		w.buf[i] = 0
	}
}
