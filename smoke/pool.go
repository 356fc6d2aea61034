package smoke

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum row count worth splitting across workers.
const parallelThreshold = 16

// bandFunc renders rows [start, end).
type bandFunc func(start, end int)

type band struct {
	start, end int
	fn         bandFunc
}

// pool is a set of persistent worker goroutines rendering row bands.
type pool struct {
	numWorkers int

	workChan chan band
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newPool(workers int) *pool {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &pool{numWorkers: workers}
}

// start launches the workers.
func (p *pool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan band, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *pool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case b, ok := <-p.workChan:
			if !ok {
				return
			}
			b.fn(b.start, b.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run splits n rows into bands, renders them and waits for completion.
// Small jobs, or a stopped pool, run on the calling goroutine.
func (p *pool) run(n int, fn bandFunc) {
	if n <= 0 {
		return
	}
	if !p.running || n < parallelThreshold || p.numWorkers == 1 {
		fn(0, n)
		return
	}

	size := (n + p.numWorkers - 1) / p.numWorkers
	sent := 0
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		p.workChan <- band{start: start, end: end, fn: fn}
		sent++
	}

	for i := 0; i < sent; i++ {
		<-p.doneChan
	}
}
