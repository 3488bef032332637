package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gradecli/internal/dataprocessing"
	"gradecli/internal/exporter"
	"gradecli/internal/infrastructure"
	"gradecli/internal/moderation"
)

// Notifier receives moderation-complete events for UI push. The websocket
// hub implements it; a nil notifier is a no-op.
type Notifier interface {
	NotifyModerationComplete(gradebookID, runID string, summary moderation.Summary)
}

// Gradebook is one uploaded, cleaned table held in memory. The raw upload is
// read once; every moderation run recomputes from the cleaned table.
type Gradebook struct {
	ID         string                      `json:"id"`
	Filename   string                      `json:"filename"`
	UploadedAt time.Time                   `json:"uploaded_at"`
	Clean      *dataprocessing.CleanResult `json:"-"`
	Resolution dataprocessing.Resolution   `json:"resolution"`

	// lastResult holds the most recent moderation run for export
	lastResult *moderation.Result
}

// UploadInfo is the response payload for a successful upload
type UploadInfo struct {
	ID         string                    `json:"id"`
	Filename   string                    `json:"filename"`
	RowCount   int                       `json:"row_count"`
	Candidates []string                  `json:"candidates"`
	Resolution dataprocessing.Resolution `json:"resolution"`
}

// ModerateParams are the caller-supplied knobs for one moderation run
type ModerateParams struct {
	Column            string   `json:"column,omitempty"`
	MaxPoints         *float64 `json:"max_points,omitempty"`
	TargetMean        float64  `json:"target_mean"`
	TargetStd         float64  `json:"target_std" validate:"gte=0"`
	Policy            string   `json:"policy,omitempty" validate:"omitempty,oneof=none cusp_avoidance soft_fail gentle_boost"`
	SoftFailThreshold float64  `json:"soft_fail_threshold,omitempty" validate:"omitempty,gte=45,lt=50"`
	GentleBoostDelta  float64  `json:"gentle_boost_delta,omitempty"`
	CuspRule          string   `json:"cusp_rule,omitempty" validate:"omitempty,oneof=exact range"`
}

// ModerationService owns the upload store and runs the moderation pipeline.
// All state is per-process; nothing persists between restarts.
type ModerationService struct {
	logger   *slog.Logger
	cleaner  *dataprocessing.Cleaner
	pipeline *moderation.Pipeline
	csv      *exporter.CSVWriter
	xlsx     *exporter.XLSXWriter
	metrics  *infrastructure.PipelineMetrics
	notifier Notifier

	maxUploads int

	mu         sync.RWMutex
	gradebooks map[string]*Gradebook
}

// NewModerationService creates the service. metrics and notifier may be nil.
func NewModerationService(logger *slog.Logger, maxUploads int, metrics *infrastructure.PipelineMetrics, notifier Notifier) *ModerationService {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploads <= 0 {
		maxUploads = 32
	}
	return &ModerationService{
		logger:     logger.With(slog.String("component", "moderation_service")),
		cleaner:    dataprocessing.NewCleaner(logger),
		pipeline:   moderation.NewPipeline(logger),
		csv:        exporter.NewCSVWriter(logger),
		xlsx:       exporter.NewXLSXWriter(logger),
		metrics:    metrics,
		notifier:   notifier,
		maxUploads: maxUploads,
		gradebooks: make(map[string]*Gradebook),
	}
}

// Upload parses and cleans a gradebook, storing it for later moderation
func (s *ModerationService) Upload(ctx context.Context, r io.Reader, filename string) (*UploadInfo, error) {
	table, err := dataprocessing.ParseTable(r, filename)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ParseFailures.Add(ctx, 1)
		}
		return nil, err
	}

	clean, err := s.cleaner.Clean(table)
	if err != nil {
		return nil, err
	}

	column, err := dataprocessing.ResolveColumn(clean, "")
	if err != nil {
		return nil, err
	}
	resolution := dataprocessing.ResolveMax(clean, column, nil)

	gb := &Gradebook{
		ID:         uuid.New().String(),
		Filename:   filename,
		UploadedAt: time.Now(),
		Clean:      clean,
		Resolution: resolution,
	}

	s.mu.Lock()
	s.evictOldestLocked()
	s.gradebooks[gb.ID] = gb
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "gradebook uploaded",
		slog.String("gradebook_id", gb.ID),
		slog.String("filename", filename),
		slog.Int("rows", len(clean.Table.Rows)),
		slog.Int("candidates", len(clean.Candidates)),
		slog.String("default_column", resolution.Column))

	return &UploadInfo{
		ID:         gb.ID,
		Filename:   filename,
		RowCount:   len(clean.Table.Rows),
		Candidates: clean.Candidates,
		Resolution: resolution,
	}, nil
}

// Get returns a stored gradebook
func (s *ModerationService) Get(id string) (*Gradebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gb, ok := s.gradebooks[id]
	if !ok {
		return nil, ErrGradebookNotFound
	}
	return gb, nil
}

// Moderate runs the full pipeline against a stored gradebook. Every call
// recomputes from the cleaned table; prior results are replaced, never
// patched.
func (s *ModerationService) Moderate(ctx context.Context, id string, params ModerateParams) (*moderation.Result, error) {
	gb, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	column, err := dataprocessing.ResolveColumn(gb.Clean, params.Column)
	if err != nil {
		return nil, err
	}
	resolution := dataprocessing.ResolveMax(gb.Clean, column, params.MaxPoints)

	req := moderation.Request{
		Column:    column,
		MaxPoints: resolution.MaxPoints,
		Params: moderation.CurveParameters{
			TargetMean: params.TargetMean,
			TargetStd:  params.TargetStd,
		},
		Policy:   policyFromParams(params),
		CuspRule: moderation.CuspRule(params.CuspRule),
	}

	result, err := s.pipeline.Run(ctx, gb.Clean, req)
	if s.metrics != nil {
		s.metrics.RecordRun(ctx, time.Since(start), recordCount(result), string(req.Policy.Kind), err == nil)
	}
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()

	s.mu.Lock()
	gb.lastResult = result
	gb.Resolution = resolution
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.NotifyModerationComplete(id, runID, result.Report.Summary)
	}

	return result, nil
}

// Export streams the augmented table in the requested format. The gradebook
// must have been moderated at least once; there is no partial export.
func (s *ModerationService) Export(ctx context.Context, id, format string, w io.Writer) (string, error) {
	gb, err := s.Get(id)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	result := gb.lastResult
	s.mu.RUnlock()
	if result == nil {
		return "", ErrNotModerated
	}

	table := exporter.Augment(gb.Clean, result)
	base := strings.TrimSuffix(gb.Filename, ".csv")
	base = strings.TrimSuffix(base, ".xlsx")

	switch format {
	case "csv", "":
		return fmt.Sprintf("%s_moderated.csv", base), s.csv.WriteTable(w, table)
	case "xlsx":
		return fmt.Sprintf("%s_moderated.xlsx", base), s.xlsx.WriteTable(w, table)
	default:
		return "", ErrInvalidFormat
	}
}

// evictOldestLocked drops the oldest gradebooks once the store is full.
// Caller holds mu.
func (s *ModerationService) evictOldestLocked() {
	if len(s.gradebooks) < s.maxUploads {
		return
	}

	ids := make([]string, 0, len(s.gradebooks))
	for id := range s.gradebooks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.gradebooks[ids[i]].UploadedAt.Before(s.gradebooks[ids[j]].UploadedAt)
	})

	for len(s.gradebooks) >= s.maxUploads {
		oldest := ids[0]
		ids = ids[1:]
		delete(s.gradebooks, oldest)
		s.logger.Warn("evicted oldest gradebook", slog.String("gradebook_id", oldest))
	}
}

func policyFromParams(params ModerateParams) moderation.AdjustmentPolicy {
	kind := moderation.PolicyKind(params.Policy)
	if params.Policy == "" {
		kind = moderation.PolicyNone
	}
	return moderation.AdjustmentPolicy{
		Kind:              kind,
		SoftFailThreshold: params.SoftFailThreshold,
		GentleBoostDelta:  params.GentleBoostDelta,
	}
}

func recordCount(result *moderation.Result) int {
	if result == nil {
		return 0
	}
	return len(result.Records)
}
