package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"autosub/internal/asr"
	"autosub/internal/cache"
	"autosub/internal/config"
	"autosub/internal/logging"
	"autosub/internal/media"
	"autosub/internal/services"
	"autosub/internal/subtitle"
)

// Runner drives one item through fetch, transcription, and segmentation,
// short-circuiting on whatever the cache already holds.
type Runner struct {
	cfg       *config.Config
	store     *cache.Store
	client    asr.Client
	fetcher   *media.Fetcher
	segmenter *subtitle.Segmenter
	logger    *slog.Logger
}

// NewRunner wires the pipeline stages together. The segmenter thresholds
// come from configuration.
func NewRunner(cfg *config.Config, store *cache.Store, client asr.Client, fetcher *media.Fetcher, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:       cfg,
		store:     store,
		client:    client,
		fetcher:   fetcher,
		segmenter: subtitle.NewSegmenter(cfg.Segmenter.MaxChars, time.Duration(cfg.Segmenter.PauseMS)*time.Millisecond),
		logger:    logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}
}

// Run produces the SRT transcript for itemID, consulting the cache at
// each stage. Concurrent runs for the same item are rejected via a
// per-item file lock.
func (r *Runner) Run(ctx context.Context, itemID string, source media.Source) (string, error) {
	ctx = services.WithItemID(ctx, itemID)
	logger := r.logger.With(logging.String(logging.FieldItemID, itemID))

	lock := flock.New(filepath.Join(r.cfg.Paths.CacheDir, itemID+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "pipeline", "lock", "acquire item lock", err)
	}
	if !locked {
		return "", fmt.Errorf("item %s is already being processed", itemID)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("failed to release item lock", logging.Error(unlockErr))
		}
	}()

	// Stage 1: transcript already cached.
	record, err := r.store.Get(ctx, itemID)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "pipeline", "cache_lookup", "read cache record", err)
	}
	if record.HasTranscript() {
		logger.Info("transcript served from cache",
			logging.String(logging.FieldStage, "cache"))
		return record.TranscriptText, nil
	}

	// Stage 2: audio, from cache or the network.
	var audio []byte
	if record != nil {
		audio = record.Audio
		logger.Info("audio served from cache",
			logging.String(logging.FieldStage, "fetch"),
			logging.Int64("size_bytes", record.SizeBytes))
	} else {
		audio, err = r.fetchAudio(ctx, itemID, source, logger)
		if err != nil {
			return "", err
		}
	}

	// Stage 3: transcription.
	stageLogger := logger.With(logging.String(logging.FieldStage, "transcribe"),
		logging.String(logging.FieldProvider, r.cfg.Provider.Name))
	stageLogger.Info("transcription started", logging.Int("audio_bytes", len(audio)))
	words, err := r.client.Transcribe(services.WithStage(ctx, "transcribe"), audio)
	if err != nil {
		return "", err
	}
	stageLogger.Info("transcription finished", logging.Int("words", len(words)))

	// Stage 4: segmentation and SRT assembly.
	cues := r.segmenter.Segment(words)
	srt := subtitle.FormatSRT(cues)
	logger.Info("cues segmented",
		logging.String(logging.FieldStage, "segment"),
		logging.Int("cues", len(cues)))

	if err := r.store.AttachTranscript(ctx, itemID, srt); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "pipeline", "persist", "attach transcript", err)
	}
	return srt, nil
}

func (r *Runner) fetchAudio(ctx context.Context, itemID string, source media.Source, logger *slog.Logger) ([]byte, error) {
	if source == nil {
		return nil, services.Wrap(services.ErrExtraction, "pipeline", "fetch", "no media source for uncached item", nil)
	}
	ctx = services.WithStage(ctx, "fetch")
	stageLogger := logger.With(logging.String(logging.FieldStage, "fetch"))

	streams, err := source.Streams(ctx)
	if err != nil {
		return nil, err
	}
	stream, err := media.SelectBest(streams)
	if err != nil {
		return nil, err
	}
	if err := media.CheckFreeSpace(r.cfg.Paths.CacheDir, int64(r.cfg.MinFreeBytes())); err != nil {
		return nil, err
	}

	stageLogger.Info("downloading audio stream",
		logging.Int64("bandwidth", stream.Bandwidth))
	lastLogged := time.Now()
	audio, err := r.fetcher.Download(ctx, stream, func(loaded, total int64) {
		if time.Since(lastLogged) < 2*time.Second {
			return
		}
		lastLogged = time.Now()
		stageLogger.Debug("download progress",
			logging.Int64("loaded_bytes", loaded),
			logging.Int64("total_bytes", total))
	})
	if err != nil {
		return nil, err
	}

	filename := media.SanitizeFilename(itemID) + ".m4a"
	if err := r.store.Put(ctx, itemID, audio, filename); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "fetch", "cache downloaded audio", err)
	}
	stageLogger.Info("audio cached", logging.Int("size_bytes", len(audio)))
	return audio, nil
}
