package sim

import "sync"

// parallelThreshold is the minimum cell count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	nearby []int
}

// workChunk assigns one strided slice of the cell range to a worker:
// indices wi, wi+wn, wi+2wn, ...
type workChunk struct {
	wi, wn int
}

// workerPool runs the force phase as one fan-out/fan-in barrier per step
// over persistent worker goroutines.
type workerPool struct {
	numWorkers int
	scratches  []workerScratch

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newWorkerPool(numWorkers int) *workerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		scratches[i].nearby = make([]int, 0, 64)
	}
	return &workerPool{
		numWorkers: numWorkers,
		scratches:  scratches,
	}
}

// run computes candidates for all n cells, in parallel when worthwhile.
func (p *workerPool) run(m *Model, n int) {
	if n < parallelThreshold || p.numWorkers == 1 {
		m.updateBatch(0, 1, &p.scratches[0])
		return
	}

	if !p.running {
		p.start(m)
	}
	for wi := 0; wi < p.numWorkers; wi++ {
		p.workChan <- workChunk{wi: wi, wn: p.numWorkers}
	}
	for i := 0; i < p.numWorkers; i++ {
		<-p.doneChan
	}
}

// start launches persistent worker goroutines.
func (p *workerPool) start(m *Model) {
	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(m, i)
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker(m *Model, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			m.updateBatch(chunk.wi, chunk.wn, scratch)
			p.doneChan <- struct{}{}
		}
	}
}
