package data

import (
	"sync"
	"time"
)

// DefaultDebounceDelay пауза тишины перед срабатыванием.
const DefaultDebounceDelay = 500 * time.Millisecond

// Debouncer схлопывает шквал вызовов Trigger в один вызов fn: fn
// выполняется, когда после последнего Trigger прошло delay. Каждый
// новый Trigger перезапускает отсчёт.
type Debouncer struct {
	fn    func()
	delay time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// NewDebouncer creates a debouncer around fn
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Debouncer{fn: fn, delay: delay}
}

// Trigger перезапускает отсчёт тишины.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Close отменяет отложенный вызов. Debouncer после Close мёртв.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
