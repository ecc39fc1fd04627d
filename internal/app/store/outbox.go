package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"eventlive/internal/app/whiteboard"
	"eventlive/internal/pkg/logx"
)

const (
	// outboxQueueSize bounds the number of pending persistence jobs. When the
	// queue is full, new jobs are dropped and logged rather than blocking the
	// broadcast path.
	outboxQueueSize = 256

	// jobTimeout bounds one persistence attempt.
	jobTimeout = 5 * time.Second
)

// SnapshotArchive is the optional secondary sink for whiteboard snapshots
// (an S3-compatible object store).
type SnapshotArchive interface {
	UploadSnapshot(ctx context.Context, roomID string, data []byte) error
}

type jobKind int

const (
	jobChatMessage jobKind = iota
	jobSnapshot
)

type job struct {
	kind jobKind
	msg  ChatMessage
	snap whiteboard.Snapshot
}

// Outbox is the fire-and-forget seam between the realtime core and durable
// storage. Submissions never block and never fail the caller; persistence
// failures are logged and the in-memory state stays authoritative
// (at-most-once durability effort).
type Outbox struct {
	store   Store
	archive SnapshotArchive

	queue chan job
	wg    sync.WaitGroup

	logger zerolog.Logger
}

// NewOutbox starts the outbox worker. archive may be nil.
func NewOutbox(store Store, archive SnapshotArchive) *Outbox {
	o := &Outbox{
		store:   store,
		archive: archive,
		queue:   make(chan job, outboxQueueSize),
		logger:  logx.Logger().With().Str("component", "outbox").Logger(),
	}

	o.wg.Add(1)
	go o.run()

	return o
}

// SubmitChatMessage queues a chat message for durable storage.
func (o *Outbox) SubmitChatMessage(msg ChatMessage) {
	o.submit(job{kind: jobChatMessage, msg: msg})
}

// SubmitSnapshot queues a whiteboard snapshot for durable storage. Implements
// whiteboard.Archiver.
func (o *Outbox) SubmitSnapshot(snap whiteboard.Snapshot) {
	o.submit(job{kind: jobSnapshot, snap: snap})
}

func (o *Outbox) submit(j job) {
	select {
	case o.queue <- j:
	default:
		o.logger.Warn().
			Int("queue_len", len(o.queue)).
			Msg("Outbox queue full, dropping persistence job.")
	}
}

// Shutdown stops accepting jobs and waits for the worker to drain the queue.
func (o *Outbox) Shutdown() {
	close(o.queue)
	o.wg.Wait()
}

func (o *Outbox) run() {
	defer o.wg.Done()

	o.logger.Info().Msg("Outbox worker started.")

	for j := range o.queue {
		o.process(j)
	}

	o.logger.Info().Msg("Outbox worker stopped.")
}

func (o *Outbox) process(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	switch j.kind {
	case jobChatMessage:
		if err := o.store.SaveChatMessage(ctx, j.msg); err != nil {
			o.logger.Error().Err(err).
				Str("message_id", j.msg.ID).
				Str("room", j.msg.Room).
				Msg("Failed to persist chat message.")
		}

	case jobSnapshot:
		if err := o.store.SaveSnapshot(ctx, j.snap); err != nil {
			o.logger.Error().Err(err).
				Str("room", j.snap.RoomID).
				Msg("Failed to persist whiteboard snapshot.")
		}

		if o.archive == nil {
			return
		}

		data, err := json.Marshal(j.snap)
		if err != nil {
			o.logger.Error().Err(err).
				Str("room", j.snap.RoomID).
				Msg("Failed to marshal snapshot for archive.")
			return
		}

		if err := o.archive.UploadSnapshot(ctx, j.snap.RoomID, data); err != nil {
			o.logger.Error().Err(err).
				Str("room", j.snap.RoomID).
				Msg("Failed to archive whiteboard snapshot.")
		}
	}
}
