package sync

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/projx/gphotos-export/internal/config"
	"github.com/projx/gphotos-export/internal/db"
	"github.com/projx/gphotos-export/pkg/models"
	"github.com/projx/gphotos-export/pkg/utils"
)

// Syncer uploads the exported tree to a bucket
type Syncer struct {
	db          *db.DB
	cfg         config.Push
	root        string
	minioClient *minio.Client
	numWorkers  int
	progress    bool
	logger      *zap.Logger
}

// SyncerConfig holds configuration for the syncer
type SyncerConfig struct {
	NumWorkers int
	Progress   bool
}

// DefaultSyncerConfig returns default syncer configuration
func DefaultSyncerConfig() SyncerConfig {
	return SyncerConfig{
		NumWorkers: 16,
		Progress:   true,
	}
}

// NewSyncer creates a syncer for files exported under root
func NewSyncer(store *db.DB, cfg config.Push, root string, sc *SyncerConfig, logger *zap.Logger) (*Syncer, error) {
	if sc == nil {
		defaultConfig := DefaultSyncerConfig()
		sc = &defaultConfig
	}
	if sc.NumWorkers <= 0 {
		sc.NumWorkers = 1
	}

	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	opts := minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.Secure,
		Transport:    tr,
		BucketLookup: minio.BucketLookupAuto,
	}

	minioClient, err := minio.New(cfg.Endpoint, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	return &Syncer{
		db:          store,
		cfg:         cfg,
		root:        root,
		minioClient: minioClient,
		numWorkers:  sc.NumWorkers,
		progress:    sc.Progress,
		logger:      logger,
	}, nil
}

// ObjectKey maps an exported file to its key: the configured folder
// followed by the path relative to the export root
func ObjectKey(folder, root, localPath string) (string, error) {
	rel, err := filepath.Rel(root, localPath)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside of %s", localPath, root)
	}
	key := path.Join(strings.Trim(folder, "/"), rel)
	return cleanKey(key), nil
}

// cleanKey drops characters object stores handle badly
func cleanKey(key string) string {
	key = strings.Map(func(r rune) rune {
		switch r {
		case '\u3000': // full-width space
			return ' '
		case '\u200B', '\uFEFF': // zero-width space and BOM
			return -1
		default:
			return r
		}
	}, key)
	key = strings.ReplaceAll(key, "\\", "/")
	return strings.TrimPrefix(key, "/")
}

// Queue registers every exported file for upload. Files queued by an
// earlier call keep their status.
func (s *Syncer) Queue() (int, error) {
	files, err := s.db.ExportedFiles()
	if err != nil {
		return 0, fmt.Errorf("failed to list exported files: %w", err)
	}
	for i := range files {
		key, err := ObjectKey(s.cfg.Folder, s.root, files[i].LocalPath)
		if err != nil {
			return 0, err
		}
		files[i].ObjectKey = key
	}
	if err := s.db.QueuePushes(files); err != nil {
		return 0, fmt.Errorf("failed to queue files: %w", err)
	}
	return len(files), nil
}

// Checksum returns the blake2b-256 digest of the file at path in hex
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// userMetadata builds the object metadata of a queued file
func userMetadata(file models.PushRecord, checksum string) map[string]string {
	meta := map[string]string{
		"source":   sanitizePath(file.MediaPath),
		"checksum": "blake2b-256:" + checksum,
	}
	if file.TakenAt != 0 {
		meta["taken"] = time.Unix(file.TakenAt, 0).UTC().Format(time.RFC3339)
	}
	if d := strings.TrimSpace(file.Description); d != "" {
		meta["description"] = url.QueryEscape(d)
	}
	return meta
}

type pushProgress struct {
	uploaded, skipped, failed          int64
	uploadedSize, skippedSize, retried int64
	bar                                *pb.ProgressBar
	sync.Mutex
}

func (p *pushProgress) done(status string, size int64, isRetry bool) {
	p.Lock()
	defer p.Unlock()
	switch status {
	case models.PushUploaded:
		p.uploaded++
		p.uploadedSize += size
		if isRetry {
			p.retried++
		}
	case models.PushSkipped:
		p.skipped++
		p.skippedSize += size
	case models.PushPending:
		// stopped before upload
		return
	default:
		p.failed++
	}
	if p.bar != nil {
		p.bar.Add64(size)
	}
}

// PushStats summarizes one push
type PushStats struct {
	Uploaded     int64
	UploadedSize int64
	Skipped      int64
	SkippedSize  int64
	Failed       int64
	Retried      int64
	Stopped      bool
	Elapsed      time.Duration
}

// Push uploads pending and previously failed files. Cancelling ctx stops
// workers after their current upload; unfinished files stay pending.
func (s *Syncer) Push(ctx context.Context) (*PushStats, error) {
	files, err := s.db.GetPendingPushes()
	if err != nil {
		return nil, err
	}

	var totalSize int64
	retries := 0
	for _, f := range files {
		totalSize += f.Size
		if f.Status == models.PushFailed {
			retries++
		}
	}
	s.logger.Info("starting push",
		zap.Int("files", len(files)),
		zap.String("size", utils.FormatSize(totalSize)),
		zap.Int("retries", retries),
		zap.String("bucket", s.cfg.Bucket),
	)

	start := time.Now()
	progress := &pushProgress{}
	if s.progress && len(files) > 0 {
		progress.bar = pb.New64(totalSize)
		progress.bar.Set(pb.Bytes, true)
		progress.bar.SetTemplate(`{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{etime . }}`)
		progress.bar.Start()
	}

	jobs := make(chan models.PushRecord, s.numWorkers)
	var wg sync.WaitGroup
	for i := 0; i < s.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				status := s.pushFile(ctx, job)
				if err := s.db.UpdatePushStatus(job.LocalPath, status); err != nil {
					s.logger.Warn("failed to update push status", zap.String("path", job.LocalPath), zap.Error(err))
				}
				progress.done(status, job.Size, job.Status == models.PushFailed)
			}
		}()
	}

	stopped := false
feed:
	for _, f := range files {
		select {
		case <-ctx.Done():
			stopped = true
			break feed
		case jobs <- f:
		}
	}
	close(jobs)
	wg.Wait()
	if progress.bar != nil {
		progress.bar.Finish()
	}

	stats := &PushStats{
		Uploaded:     progress.uploaded,
		UploadedSize: progress.uploadedSize,
		Skipped:      progress.skipped,
		SkippedSize:  progress.skippedSize,
		Failed:       progress.failed,
		Retried:      progress.retried,
		Stopped:      stopped || ctx.Err() != nil,
		Elapsed:      time.Since(start).Round(time.Second),
	}
	return stats, nil
}

func (s *Syncer) pushFile(ctx context.Context, file models.PushRecord) string {
	log := s.logger.With(zap.String("path", file.LocalPath), zap.String("key", file.ObjectKey))

	if _, err := os.Stat(file.LocalPath); os.IsNotExist(err) {
		log.Warn("skipping push, file no longer exists")
		return models.PushSkipped
	}
	if ctx.Err() != nil {
		return models.PushPending
	}

	sum, err := Checksum(file.LocalPath)
	if err != nil {
		log.Warn("failed to checksum file", zap.Error(err))
		return models.PushFailed
	}

	opts := minio.PutObjectOptions{
		UserMetadata: userMetadata(file, sum),
		ContentType:  mime.TypeByExtension(strings.ToLower(filepath.Ext(file.LocalPath))),
	}
	info, err := s.minioClient.FPutObject(ctx, s.cfg.Bucket, file.ObjectKey, file.LocalPath, opts)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if minioErr, ok := err.(minio.ErrorResponse); ok {
			fields = append(fields, zap.String("code", minioErr.Code), zap.String("bucket", minioErr.BucketName))
		}
		log.Warn("failed to upload file", fields...)
		return models.PushFailed
	}

	if info.Size != file.Size {
		log.Warn("uploaded size mismatch", zap.Int64("expected", file.Size), zap.Int64("actual", info.Size))
		return models.PushFailed
	}
	return models.PushUploaded
}

// sanitizePath encodes each path segment for use as a metadata value
func sanitizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")

	segments := strings.Split(path, "/")
	for i, segment := range segments {
		decoded, err := url.QueryUnescape(segment)
		if err == nil {
			segment = decoded
		}
		segment = strings.ReplaceAll(segment, "&", "and")
		segment = strings.ReplaceAll(segment, "+", "plus")
		segments[i] = url.QueryEscape(segment)
	}

	sanitized := strings.Join(segments, "/")
	for strings.Contains(sanitized, "//") {
		sanitized = strings.ReplaceAll(sanitized, "//", "/")
	}
	return sanitized
}
