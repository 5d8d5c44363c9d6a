package worker

import (
	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/storage"
	"github.com/irc-library/maktaba/store"
)

type WorkPool interface {
	Push(job model.Job)
}

type Worker interface {
	Run(c <-chan model.Job)
}

type Pool struct {
	queue chan model.Job
}

func (p *Pool) Push(job model.Job) {
	p.queue <- job
}

// NewCoverPool creates a pool of background cover-processing workers.
func NewCoverPool(store *store.Store, host storage.CoverHost, size int) *Pool {
	workerPool := &Pool{
		queue: make(chan model.Job),
	}

	for i := 0; i < size; i++ {
		worker := &CoverWorker{id: i, store: store, host: host}
		go worker.Run(workerPool.queue)
	}
	return workerPool
}
