package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/domain"
	"github.com/yokitheyo/bgremover/internal/helpers"
	"github.com/yokitheyo/bgremover/internal/infrastructure/codec"
	"github.com/yokitheyo/bgremover/internal/worker"
)

const sideEffectTimeout = 30 * time.Second

// RemovalUsecase drives one removal request: decode, validate, run the
// remover on the worker pool, encode. Decode and validation failures are
// returned as errors; every later failure becomes an unsuccessful response.
type RemovalUsecase struct {
	remover domain.BackgroundRemover
	pool    *worker.Pool
	storage domain.StorageService
	events  domain.EventPublisher

	mu         sync.Mutex
	draining   bool
	background sync.WaitGroup
}

// NewRemovalUsecase wires the orchestrator. storage and events may be nil.
func NewRemovalUsecase(
	remover domain.BackgroundRemover,
	pool *worker.Pool,
	storage domain.StorageService,
	events domain.EventPublisher,
) *RemovalUsecase {
	return &RemovalUsecase{
		remover: remover,
		pool:    pool,
		storage: storage,
		events:  events,
	}
}

func (u *RemovalUsecase) RemoveBackground(ctx context.Context, req domain.RemovalRequest) (*domain.RemovalResponse, error) {
	start := time.Now()
	requestID := uuid.NewString()
	log := zlog.Logger.With().
		Str("request_id", requestID).
		Str("filename", req.Filename).
		Logger()
	trace(log, domain.StateReceived)

	trace(log, domain.StateDecoding)
	input, err := codec.Decode(req.ImageData)
	if err != nil {
		log.Warn().Err(err).Msg("rejected removal request")
		return nil, err
	}

	trace(log, domain.StateValidating)
	info, err := codec.Validate(input)
	if err != nil {
		log.Warn().Err(err).Int("bytes", input.Len()).Msg("rejected removal request")
		return nil, err
	}

	output, err := u.process(ctx, log, input)
	if err != nil {
		resp := domain.NewRemovalFailure(failureMessage(err), time.Since(start))
		log.Error().
			Err(err).
			Float64("processing_time", resp.ProcessingTime).
			Msg("background removal failed")
		trace(log, domain.StateResponded)
		u.afterRemoval(requestID, req.Filename, input, info, domain.ImageBuffer{}, resp)
		return resp, nil
	}

	trace(log, domain.StateEncoding)
	resp := domain.NewRemovalSuccess(codec.Encode(output), time.Since(start))

	log.Info().
		Str("format", info.Format).
		Int("width", info.Width).
		Int("height", info.Height).
		Int("input_bytes", input.Len()).
		Int("output_bytes", output.Len()).
		Float64("processing_time", resp.ProcessingTime).
		Msg("background removed")
	trace(log, domain.StateResponded)
	u.afterRemoval(requestID, req.Filename, input, info, output, resp)
	return resp, nil
}

// process runs the removal on the pool. The task is detached from ctx
// cancellation; ctx only bounds how long this request waits for it.
func (u *RemovalUsecase) process(ctx context.Context, log zerolog.Logger, input domain.ImageBuffer) (domain.ImageBuffer, error) {
	trace(log, domain.StateDispatched)
	taskCtx := context.WithoutCancel(ctx)
	future, err := worker.Submit(u.pool, func() (domain.ImageBuffer, error) {
		return u.remover.RemoveBackground(taskCtx, input)
	})
	if err != nil {
		return domain.ImageBuffer{}, err
	}

	trace(log, domain.StateAwaiting)
	output, err := future.Wait(ctx)
	if err != nil {
		return domain.ImageBuffer{}, err
	}
	if output.IsEmpty() {
		return domain.ImageBuffer{}, fmt.Errorf("%w: remover returned no data", domain.ErrProcessingFailed)
	}
	return output, nil
}

func failureMessage(err error) string {
	if errors.Is(err, domain.ErrProcessingFailed) {
		return "Background removal failed: " + domain.Reason(err, domain.ErrProcessingFailed)
	}
	return "Processing failed: " + err.Error()
}

func trace(log zerolog.Logger, state domain.RemovalState) {
	log.Debug().Str("state", string(state)).Msg("removal state")
}

// afterRemoval archives the result and publishes an event in the background.
// Neither affects the response already built.
func (u *RemovalUsecase) afterRemoval(
	requestID, filename string,
	input domain.ImageBuffer,
	info domain.ImageInfo,
	output domain.ImageBuffer,
	resp *domain.RemovalResponse,
) {
	if u.storage == nil && u.events == nil {
		return
	}

	event := domain.RemovalEvent{
		RequestID:      requestID,
		Filename:       filename,
		Success:        resp.Success,
		ProcessingTime: resp.ProcessingTime,
		InputBytes:     input.Len(),
		OutputBytes:    output.Len(),
		Width:          info.Width,
		Height:         info.Height,
		CreatedAt:      time.Now().UTC(),
	}
	if resp.Error != nil {
		event.Error = *resp.Error
	}

	// после начала Wait новые фоновые задачи не запускаются
	u.mu.Lock()
	if u.draining {
		u.mu.Unlock()
		zlog.Logger.Warn().Str("request_id", requestID).Msg("shutting down, archive and event skipped")
		return
	}
	u.background.Add(1)
	u.mu.Unlock()

	go func() {
		defer u.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		if u.storage != nil && resp.Success {
			name := helpers.ProcessedName(filename, requestID)
			path, err := u.storage.SaveProcessed(ctx, name, output.Reader())
			if err != nil {
				zlog.Logger.Warn().Err(err).Str("request_id", requestID).Msg("failed to archive processed image")
			} else {
				event.ArchivePath = path
			}
		}

		if u.events != nil {
			if err := u.events.PublishRemoval(ctx, event); err != nil {
				zlog.Logger.Warn().Err(err).Str("request_id", requestID).Msg("failed to publish removal event")
			}
		}
	}()
}

// Wait stops new archive and event work from starting, then blocks until the
// work already started has finished or ctx is done.
func (u *RemovalUsecase) Wait(ctx context.Context) error {
	u.mu.Lock()
	u.draining = true
	u.mu.Unlock()

	done := make(chan struct{})
	go func() {
		u.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background work: %w", ctx.Err())
	}
}
