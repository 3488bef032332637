package moderation

import (
	"context"
	"log/slog"

	"gradecli/internal/dataprocessing"
	"gradecli/internal/errors"
)

// GradeRecord is one student's moderated result. Identifier fields are for
// display only and never feed computation. Records live for the duration of
// one moderation request and are fully recomputed when any input changes.
type GradeRecord struct {
	Student    string `json:"student"`
	StudentID  string `json:"student_id,omitempty"`
	SISLoginID string `json:"sis_login_id,omitempty"`
	Section    string `json:"section,omitempty"`

	// RowIndex points back into the cleaned table for export alignment
	RowIndex int `json:"row_index"`

	RawOriginal float64 `json:"raw_original"`
	PctOriginal float64 `json:"pct_original"`
	PctAdjusted float64 `json:"pct_adjusted"`
	RawAdjusted float64 `json:"raw_adjusted"`

	CategoryOriginal Band `json:"category_original"`
	CategoryAdjusted Band `json:"category_adjusted"`

	IsCuspOriginal bool `json:"is_cusp_original"`
	IsCuspAdjusted bool `json:"is_cusp_adjusted"`
}

// Request captures every input of one moderation run. All inputs are taken
// atomically before computation begins; nothing is read from shared state
// mid-computation.
type Request struct {
	Column     string           `json:"column"`
	MaxPoints  float64          `json:"max_points"`
	Params     CurveParameters  `json:"params"`
	Policy     AdjustmentPolicy `json:"policy"`
	CuspRule   CuspRule         `json:"cusp_rule"`
	Boundaries BoundarySet      `json:"boundaries,omitempty"`
}

// Result is the complete outcome of one moderation run
type Result struct {
	Column          string           `json:"column"`
	MaxPoints       float64          `json:"max_points"`
	RequestedParams CurveParameters  `json:"requested_params"`
	EffectiveParams CurveParameters  `json:"effective_params"`
	Policy          AdjustmentPolicy `json:"policy"`
	CuspRule        CuspRule         `json:"cusp_rule"`
	Records         []GradeRecord    `json:"records"`
	Report          MigrationReport  `json:"report"`
}

// Pipeline runs the full moderation computation: percentages, curve,
// smoothing, categorization, report. It is a single synchronous pass with no
// shared mutable state; a parameter change reruns everything from the
// cleaned table.
type Pipeline struct {
	logger *slog.Logger
}

// NewPipeline creates a moderation pipeline
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{logger: logger.With(slog.String("component", "moderation_pipeline"))}
}

// Run moderates the selected column of a cleaned table
func (p *Pipeline) Run(ctx context.Context, clean *dataprocessing.CleanResult, req Request) (*Result, error) {
	if req.Boundaries == nil {
		req.Boundaries = DefaultBoundaries()
	}
	if req.CuspRule == "" {
		req.CuspRule = CuspExact
	}

	if err := p.validate(req); err != nil {
		return nil, err
	}

	scores := clean.Scores(req.Column)
	if scores == nil {
		return nil, errors.NewAppValidationError("column is not a scored column: " + req.Column)
	}

	records := collectRecords(clean, scores, req.MaxPoints)

	pcts := make([]float64, len(records))
	for i, r := range records {
		pcts[i] = r.PctOriginal
	}

	curMean := Mean(pcts)
	curStd := SampleStd(pcts)
	effective := req.Policy.RewriteTargets(req.Params, curMean, curStd)

	adjusted := ApplyCurve(pcts, effective)
	for i := range adjusted {
		adjusted[i] = Clip(req.Policy.Smooth(adjusted[i], req.Boundaries))
	}

	for i := range records {
		r := &records[i]
		r.PctAdjusted = adjusted[i]
		r.RawAdjusted = ToRaw(adjusted[i], req.MaxPoints)
		r.CategoryOriginal = req.Boundaries.Categorize(&r.PctOriginal)
		r.CategoryAdjusted = req.Boundaries.Categorize(&r.PctAdjusted)
		r.IsCuspOriginal = req.Boundaries.OnCusp(&r.PctOriginal, req.CuspRule)
		r.IsCuspAdjusted = req.Boundaries.OnCusp(&r.PctAdjusted, req.CuspRule)
	}

	result := &Result{
		Column:          req.Column,
		MaxPoints:       req.MaxPoints,
		RequestedParams: req.Params,
		EffectiveParams: effective,
		Policy:          req.Policy,
		CuspRule:        req.CuspRule,
		Records:         records,
		Report:          BuildReport(records, req.Boundaries),
	}

	p.logger.InfoContext(ctx, "moderation run complete",
		slog.String("column", req.Column),
		slog.Float64("max_points", req.MaxPoints),
		slog.Int("records", len(records)),
		slog.Float64("mean_original", result.Report.Summary.MeanOriginal),
		slog.Float64("mean_adjusted", result.Report.Summary.MeanAdjusted),
		slog.String("policy", string(req.Policy.Kind)))

	return result, nil
}

func (p *Pipeline) validate(req Request) error {
	if req.Params.TargetStd < 0 {
		return errors.NewAppValidationError("target std must be non-negative")
	}
	if req.MaxPoints == 0 {
		return errors.NewAppValidationError("max points must be resolved before moderation")
	}
	if err := req.Policy.Validate(); err != nil {
		return errors.NewAppValidationError(err.Error())
	}
	if err := req.Boundaries.Validate(); err != nil {
		return errors.NewAppValidationError(err.Error())
	}
	if !req.CuspRule.Valid() {
		return errors.NewAppValidationError("unknown cusp rule: " + string(req.CuspRule))
	}
	return nil
}

// collectRecords builds one GradeRecord per row with a non-missing score
func collectRecords(clean *dataprocessing.CleanResult, scores []*float64, max float64) []GradeRecord {
	records := make([]GradeRecord, 0, len(scores))
	for i, raw := range scores {
		if raw == nil {
			continue
		}
		row := clean.Table.Rows[i]
		records = append(records, GradeRecord{
			Student:     row["Student"],
			StudentID:   row["ID"],
			SISLoginID:  row["SIS Login ID"],
			Section:     row["Section"],
			RowIndex:    i,
			RawOriginal: *raw,
			PctOriginal: ToPercentage(*raw, max),
		})
	}
	return records
}
