package worker

import (
	"context"

	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/storage"
	"github.com/irc-library/maktaba/store"
	"github.com/irc-library/maktaba/util"
	"go.uber.org/zap"
)

const coverQuality = 75

// CoverWorker re-encodes an uploaded title page as webp, pushes it to the
// cover host, and points the book at the public URL. Failures leave the
// book's previous cover URL untouched.
type CoverWorker struct {
	id    int
	store *store.Store
	host  storage.CoverHost
}

func (w *CoverWorker) Run(c <-chan model.Job) {
	for job := range c {
		w.process(job)
	}
}

func (w *CoverWorker) process(job model.Job) {
	log.Debug("Processing cover",
		zap.Int("worker", w.id),
		zap.String("book_id", job.BookID),
		zap.String("file", job.FileName))

	data, err := util.ImageToWebp(job.Data, coverQuality)
	if err != nil {
		log.Warn("Failed to encode cover",
			zap.String("book_id", job.BookID), zap.Error(err))
		return
	}

	url, err := w.host.Put(context.Background(), job.BookID+".webp", data, "image/webp")
	if err != nil {
		log.Warn("Failed to host cover",
			zap.String("book_id", job.BookID), zap.Error(err))
		return
	}

	if _, err := w.store.UpdateBook(&model.UpdateBook{
		ID:        job.BookID,
		TitlePage: &url,
	}); err != nil {
		log.Warn("Failed to attach cover to book",
			zap.String("book_id", job.BookID), zap.Error(err))
	}
}
