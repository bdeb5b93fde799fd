package pipeline

import "sync"

type progress struct {
	mu    sync.Mutex
	done  int
	total int
	fn    ProgressFunc
}

func newProgress(total int, fn ProgressFunc) *progress {
	return &progress{total: total, fn: fn}
}

func (p *progress) step(url string) {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	p.fn(p.done, p.total, url)
}
