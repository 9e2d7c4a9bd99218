package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/impact-report/internal/document"
	"github.com/sells-group/impact-report/internal/generate"
	"github.com/sells-group/impact-report/internal/model"
	"github.com/sells-group/impact-report/internal/resolve"
	"github.com/sells-group/impact-report/internal/rules"
	"github.com/sells-group/impact-report/internal/store"
	"github.com/sells-group/impact-report/internal/validate"
)

// Source supplies the two record sets.
type Source interface {
	SurveyRecords(ctx context.Context) ([]model.SurveyRecord, error)
	ImpactProfiles(ctx context.Context, company string) ([]model.CompanyImpactProfile, error)
	SurveyPath() string
	MechanismsPath() string
}

// Pipeline assembles one report per company: extract, resolve, insert,
// validate, save.
type Pipeline struct {
	rules  *rules.Config
	source Source
	loader document.Loader
	gen    *generate.Client
	store  store.Store
	now    func() time.Time
}

// New creates a Pipeline. gen may be nil when no rule generates text; st
// may be nil to skip the run ledger.
func New(cfg *rules.Config, src Source, loader document.Loader, gen *generate.Client, st store.Store) *Pipeline {
	if st == nil {
		st = store.Nop{}
	}
	return &Pipeline{
		rules:  cfg,
		source: src,
		loader: loader,
		gen:    gen,
		store:  st,
		now:    time.Now,
	}
}

// TraceabilityRecord is the side file written next to each report.
type TraceabilityRecord struct {
	CompanyName string            `json:"company_name"`
	ReportPath  string            `json:"report_path"`
	GeneratedAt string            `json:"generated_at"`
	Citations   []model.Citation  `json:"citations"`
	Metrics     *model.RunMetrics `json:"metrics,omitempty"`
}

// Run generates the report for company. outputPath may be empty to use the
// configured output directory and filename pattern. On failure the returned
// result carries the error and the partial document is not saved.
func (p *Pipeline) Run(ctx context.Context, company, outputPath string) (*model.RunResult, error) {
	log := zap.L().With(zap.String("company", company))
	log.Info("pipeline: starting report")
	start := p.now()

	result := &model.RunResult{
		CompanyName: company,
		Citations:   []model.Citation{},
		Errors:      []string{},
		Warnings:    []string{},
	}

	run, err := p.store.CreateRun(ctx, company)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	result.RunID = run.ID

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	trackPhase := func(name string, fn func() (map[string]any, error)) error {
		phase, phaseErr := p.store.CreatePhase(ctx, run.ID, name)
		if phaseErr != nil {
			log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
		}

		phaseStart := time.Now()
		meta, fnErr := fn()
		pr := &model.PhaseResult{
			Name:     name,
			Status:   model.PhaseStatusComplete,
			Duration: time.Since(phaseStart).Milliseconds(),
			Metadata: meta,
		}
		if fnErr != nil {
			pr.Status = model.PhaseStatusFailed
			pr.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration),
				zap.Error(fnErr),
			)
		} else {
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration),
			)
		}
		if phase != nil {
			_ = p.store.CompletePhase(ctx, phase.ID, pr)
		}
		result.Phases = append(result.Phases, *pr)
		return fnErr
	}

	fail := func(err error) (*model.RunResult, error) {
		result.Success = false
		result.Errors = append(result.Errors, err.Error())
		result.Metrics.TotalMs = p.now().Sub(start).Milliseconds()
		if p.gen != nil {
			result.Metrics.TokenUsage = p.gen.Usage().Total()
		}
		if storeErr := p.store.UpdateRunResult(ctx, run.ID, result); storeErr != nil {
			log.Warn("pipeline: failed to store result", zap.Error(storeErr))
		}
		log.Error("pipeline: report failed", zap.Error(err))
		return result, err
	}

	// ===== Extract =====
	setStatus(model.RunStatusResolving)
	var (
		surveys  []model.SurveyRecord
		profiles []model.CompanyImpactProfile
	)
	err = trackPhase("extract", func() (map[string]any, error) {
		var extractErr error
		if surveys, extractErr = p.source.SurveyRecords(ctx); extractErr != nil {
			return nil, extractErr
		}
		if profiles, extractErr = p.source.ImpactProfiles(ctx, ""); extractErr != nil {
			return nil, extractErr
		}
		return map[string]any{"surveys": len(surveys), "profiles": len(profiles)}, nil
	})
	result.Metrics.ExtractionMs = p.now().Sub(start).Milliseconds()
	if err != nil {
		return fail(err)
	}

	// ===== Resolve =====
	var rc *model.ReportContext
	err = trackPhase("resolve", func() (map[string]any, error) {
		r := resolve.Resolver{Now: p.now}
		res, resolveErr := r.Resolve(company, surveys, profiles)
		if resolveErr != nil {
			return nil, resolveErr
		}
		rc = &res.Context
		result.CompanyName = rc.CompanyName
		result.Metrics.SurveyFallback = res.SurveyFallback
		result.Metrics.ProfileFallback = res.ProfileFallback
		result.Warnings = append(result.Warnings, res.Warnings()...)
		result.Warnings = append(result.Warnings, validate.DataWarnings(rc)...)
		return map[string]any{
			"company_name":  rc.CompanyName,
			"survey_match":  string(res.SurveyMatch),
			"profile_match": string(res.ProfileMatch),
		}, nil
	})
	if err != nil {
		return fail(err)
	}
	log = log.With(zap.String("resolved", rc.CompanyName))

	// ===== Insert =====
	setStatus(model.RunStatusInserting)
	if p.rules.Template.BackupOriginal {
		if backupErr := backupTemplate(p.rules.TemplatePath(), p.rules.OutputDir()); backupErr != nil {
			log.Warn("pipeline: template backup failed", zap.Error(backupErr))
		}
	}

	var (
		doc  document.Document
		proc *Processor
	)
	err = trackPhase("insert", func() (map[string]any, error) {
		var loadErr error
		doc, loadErr = p.loader.Load(p.rules.TemplatePath())
		if loadErr != nil {
			return nil, eris.Wrap(loadErr, "pipeline: load template")
		}

		var gen Generator
		if p.gen != nil {
			gen = p.gen
		}
		proc = NewProcessor(doc, gen, p.rules, SourceFiles{
			Survey:     filepath.Base(p.source.SurveyPath()),
			Mechanisms: filepath.Base(p.source.MechanismsPath()),
		})

		for _, rule := range p.rules.Rules {
			citations, ruleErr := proc.Process(ctx, rule, rc)
			if ruleErr != nil {
				return nil, ruleErr
			}
			result.Citations = append(result.Citations, citations...)
		}
		if appendixErr := proc.AppendTraceability(result.Citations); appendixErr != nil {
			return nil, appendixErr
		}
		return map[string]any{
			"rules_processed": proc.Processed(),
			"rules_skipped":   proc.Skipped(),
			"citations":       len(result.Citations),
		}, nil
	})
	if proc != nil {
		result.Warnings = append(result.Warnings, proc.Warnings()...)
		result.Metrics.RulesProcessed = proc.Processed()
		result.Metrics.RulesSkipped = proc.Skipped()
	}
	if err != nil {
		return fail(err)
	}

	// ===== Validate =====
	setStatus(model.RunStatusValidating)
	_ = trackPhase("validate", func() (map[string]any, error) {
		report := validate.RunWith(validate.Options{
			Consistency:   p.rules.Validation.CheckConsistency,
			Hallucination: p.rules.Validation.CheckHallucination,
		}, proc.Sections(), rc, result.Citations)
		result.Validation = &report
		return map[string]any{
			"consistent":        report.Consistency.IsConsistent,
			"traceability_rate": report.Traceability.Rate,
			"hallucinations":    report.Hallucination.Count,
		}, nil
	})

	// ===== Save =====
	if outputPath == "" {
		outputPath = filepath.Join(p.rules.OutputDir(), p.rules.OutputFilename(rc.CompanyName, start))
	}
	result.OutputPath = outputPath
	result.Metrics.TraceabilityEntries = len(result.Citations)
	if p.gen != nil {
		result.Metrics.TokenUsage = p.gen.Usage().Total()
	}

	err = trackPhase("save", func() (map[string]any, error) {
		if dir := filepath.Dir(outputPath); dir != "" {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, eris.Wrap(mkErr, "pipeline: create output directory")
			}
		}
		if saveErr := doc.Save(outputPath); saveErr != nil {
			return nil, saveErr
		}
		result.Metrics.TotalMs = p.now().Sub(start).Milliseconds()

		if p.rules.Output.TraceabilityJSON {
			path, writeErr := p.writeTraceability(rc.CompanyName, outputPath, result)
			if writeErr != nil {
				return nil, writeErr
			}
			result.TraceabilityPath = path
		}
		if p.rules.Validation.WriteReport && result.Validation != nil {
			path := sidePath(outputPath, "_validation.txt")
			report := validate.FormatReport(rc.CompanyName, *result.Validation)
			if writeErr := os.WriteFile(path, []byte(report), 0o644); writeErr != nil {
				return nil, eris.Wrap(writeErr, "pipeline: write validation report")
			}
			result.ValidationPath = path
		}
		return map[string]any{"output_path": outputPath}, nil
	})
	if err != nil {
		return fail(err)
	}

	result.Success = true
	result.Metrics.TotalMs = p.now().Sub(start).Milliseconds()
	if storeErr := p.store.UpdateRunResult(ctx, run.ID, result); storeErr != nil {
		log.Warn("pipeline: failed to store result", zap.Error(storeErr))
	}

	log.Info("pipeline: report complete",
		zap.String("output", outputPath),
		zap.Int("citations", len(result.Citations)),
		zap.Int64("total_tokens", result.Metrics.TokenUsage.TotalTokens),
		zap.Float64("cost_usd", result.Metrics.TokenUsage.Cost),
		zap.Int64("duration_ms", result.Metrics.TotalMs),
	)
	return result, nil
}

// Batch runs every company in order, one at a time, each against a freshly
// loaded template. Token usage is reset before each company so every result
// reports its own usage. Failures are isolated per company.
func (p *Pipeline) Batch(ctx context.Context, companies []string) []*model.RunResult {
	results := make([]*model.RunResult, 0, len(companies))
	for _, company := range companies {
		if ctx.Err() != nil {
			results = append(results, &model.RunResult{
				CompanyName: company,
				Errors:      []string{ctx.Err().Error()},
			})
			continue
		}
		if p.gen != nil {
			p.gen.Usage().Reset()
		}
		res, err := p.Run(ctx, company, "")
		if res == nil {
			res = &model.RunResult{CompanyName: company, Errors: []string{err.Error()}}
		}
		results = append(results, res)
	}
	return results
}

func (p *Pipeline) writeTraceability(company, reportPath string, result *model.RunResult) (string, error) {
	rec := TraceabilityRecord{
		CompanyName: company,
		ReportPath:  reportPath,
		GeneratedAt: p.now().Format(time.RFC3339),
		Citations:   result.Citations,
	}
	if p.rules.Output.IncludeMetadata {
		m := result.Metrics
		rec.Metrics = &m
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "pipeline: marshal traceability")
	}
	path := sidePath(reportPath, "_traceability.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrap(err, "pipeline: write traceability")
	}
	return path, nil
}

// sidePath derives a side file path from the report path by replacing its
// extension with suffix.
func sidePath(reportPath, suffix string) string {
	return strings.TrimSuffix(reportPath, filepath.Ext(reportPath)) + suffix
}

// backupTemplate copies the template to <outputDir>/<name>.bak once.
func backupTemplate(template, outputDir string) error {
	dst := filepath.Join(outputDir, filepath.Base(template)+".bak")
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	src, err := os.Open(template)
	if err != nil {
		return eris.Wrap(err, "pipeline: open template for backup")
	}
	defer src.Close() //nolint:errcheck

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return eris.Wrap(err, "pipeline: create backup directory")
	}
	out, err := os.Create(dst)
	if err != nil {
		return eris.Wrap(err, "pipeline: create backup")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, src); err != nil {
		return eris.Wrap(err, "pipeline: copy template")
	}
	return nil
}
