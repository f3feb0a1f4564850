package engine

import (
	"context"

	"github.com/tliron/commonlog"

	"stylusguard/internal/cache"
	"stylusguard/internal/config"
	"stylusguard/internal/detect"
	"stylusguard/internal/gas"
	"stylusguard/internal/model"
	"stylusguard/internal/parser"
	"stylusguard/internal/report"
	"stylusguard/internal/score"
)

const modelCacheSize = 128

// Engine runs the full pipeline: build the contract model, estimate gas,
// run detectors, classify, score, and assemble the report. One engine is
// safe for concurrent use across files.
type Engine struct {
	cfg       config.Config
	estimator *gas.Estimator
	registry  *detect.Registry
	models    *cache.ModelCache
	log       commonlog.Logger
}

// New validates the configuration and wires the pipeline. Invalid
// configuration fails here, before any source is touched.
func New(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:       cfg,
		estimator: gas.New(gas.DefaultTable(), cfg.FallbackOpCost, cfg.CarbonPerUnit, cfg.EnergyPerUnit),
		registry:  detect.ForCategories(cfg.EnabledCategories),
		models:    cache.New(modelCacheSize),
		log:       commonlog.GetLogger("stylusguard.engine"),
	}, nil
}

// BuildModel lexes and builds the contract model, memoized by content.
func (e *Engine) BuildModel(filename string, source []byte) (*parser.ParseResult, error) {
	key := cache.Key(append([]byte(filename+"\x00"), source...))
	if result, ok := e.models.Get(key); ok {
		e.log.Debugf("model cache hit for %s", filename)
		return result, nil
	}

	result, err := parser.Build(filename, string(source), parser.Dialect(e.cfg.Dialect))
	if err != nil {
		return nil, err
	}
	e.models.Put(key, result)
	return result, nil
}

// Analyze runs detectors and scoring over a built model. Partial inputs
// are first class: builder diagnostics ride along, and a detector that
// times out surfaces as a diagnostic without dropping the rest.
func (e *Engine) Analyze(ctx context.Context, built *parser.ParseResult) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contract := built.Contract

	cost, unpriced := e.estimator.EstimateContract(contract)
	run := &detect.Context{
		Cost:             cost,
		Unpriced:         unpriced,
		Table:            e.estimator.Table(),
		GasCostThreshold: e.cfg.GasCostThreshold,
	}

	findings, timeouts := e.registry.Run(ctx, contract, run, e.cfg.Timeout.Std())
	for _, timeout := range timeouts {
		e.log.Errorf("%s: %s", contract.Name, timeout.Error())
	}

	var rules []model.RuleMeta
	for _, d := range e.registry.Detectors() {
		rules = append(rules, d.Meta())
	}
	classified := score.Classify(findings, rules)

	aggregator := report.NewAggregator(e.cfg.SeverityFloor)
	prepared := aggregator.Prepare(classified)

	scorer := score.NewScorer()
	scores := scorer.Score(prepared, len(contract.Functions))
	quality := scorer.Quality(contract)
	risk := scorer.Risk(prepared, len(contract.Functions))

	var diagnostics []model.Diagnostic
	for _, d := range built.Diagnostics {
		diagnostics = append(diagnostics, model.Diagnostic{
			Kind:     "parse",
			Position: model.Position{File: d.Pos.File, Line: d.Pos.Line, Column: d.Pos.Column},
			Message:  d.Message,
		})
	}
	for _, timeout := range timeouts {
		diagnostics = append(diagnostics, model.Diagnostic{Kind: "timeout", Message: timeout.Error()})
	}

	e.log.Infof("%s: %d finding(s), risk %s", contract.Name, len(prepared), risk)
	return aggregator.Assemble(contract.Name, prepared, cost, quality, scores, risk, diagnostics), nil
}

// AnalyzeSource is the single-file entry point: build then analyze.
func (e *Engine) AnalyzeSource(ctx context.Context, filename string, source []byte) (*model.Report, error) {
	built, err := e.BuildModel(filename, source)
	if err != nil {
		return nil, err
	}
	return e.Analyze(ctx, built)
}
