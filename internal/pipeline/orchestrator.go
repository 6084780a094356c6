package pipeline

import (
	"context"
	"log"
	"os"
	"sort"
	"time"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/extract"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/generate"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/session"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/source"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/utils"
)

// Orchestrator runs a user turn end to end: resolve the company, fan out to
// the sources, aggregate, dedup, score, filter, and render the response. The
// stages in the middle are pure transforms; only fetch and generation touch
// the network.
type Orchestrator struct {
	cfg       *config.Config
	sessions  *session.Manager
	extractor extract.Extractor
	pool      *source.Pool
	agg       *Aggregator
	dedup     *Deduplicator
	scorer    *Scorer
	window    *WindowFilter
	gen       *generate.Generator
	logger    *log.Logger
}

// NewOrchestrator wires the pipeline from its parts.
func NewOrchestrator(cfg *config.Config, sessions *session.Manager, extractor extract.Extractor,
	pool *source.Pool, gen *generate.Generator) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		sessions:  sessions,
		extractor: extractor,
		pool:      pool,
		agg:       NewAggregator(cfg),
		dedup:     NewDeduplicator(cfg.Dedup),
		scorer:    NewScorer(cfg.Scoring),
		window:    NewWindowFilter(),
		gen:       gen,
		logger:    log.New(os.Stderr, "[pipeline] ", log.LstdFlags),
	}
}

// Query handles one conversational turn and always returns a response; a
// failing stage degrades the bundle instead of surfacing an error to the
// caller.
func (o *Orchestrator) Query(ctx context.Context, req models.QueryRequest) *models.QueryResponse {
	start := time.Now()
	sess := o.sessions.GetOrCreate(req.SessionID)

	prefs := o.sessions.UpdatePreferences(sess, models.Preferences{
		Style:           req.Style,
		TimeRange:       req.TimeRange,
		ImpactThreshold: req.ImpactThreshold,
	})

	company := req.Company
	if company == "" {
		company = o.extractor.Company(ctx, req.UserInput)
	}
	company, ok := o.sessions.ResolveCompany(sess, company)
	if !ok {
		text := generate.Clarification()
		o.recordTurns(sess, req.UserInput, text)
		return &models.QueryResponse{
			SessionID:          sess.ID,
			Text:               text,
			NeedsClarification: true,
			Elapsed:            time.Since(start),
		}
	}

	window, err := utils.ParseWindow(prefs.TimeRange)
	if err != nil {
		window = utils.DefaultWindow
	}

	bundle := o.Run(ctx, company, window, prefs.ImpactThreshold)

	text := o.gen.Respond(ctx, company, bundle, sess)
	o.recordTurns(sess, req.UserInput, text)

	return &models.QueryResponse{
		SessionID: sess.ID,
		Text:      text,
		Bundle:    bundle,
		Company:   company,
		Elapsed:   time.Since(start),
	}
}

// Run executes the data half of the pipeline for a company and window,
// without any conversation handling. The bundle is degraded when sources
// failed, the window was widened, or the pipeline deadline cut the run
// short; an empty bundle is still a valid result.
func (o *Orchestrator) Run(ctx context.Context, company string, window utils.Window, threshold float64) *models.ResultBundle {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Fetch.PipelineDeadline)
	defer cancel()

	results := o.pool.FetchAll(ctx, company, window)

	items, contributing, failed := o.agg.Aggregate(results)
	o.logger.Printf("company=%q sources ok=%d failed=%d raw_items=%d",
		company, len(contributing), len(failed), len(items))

	items = o.dedup.Dedup(items)

	items, applied, widened := o.window.Apply(items, window)
	if widened {
		o.logger.Printf("company=%q window widened %s -> %s", company, window.Name, applied.Name)
	}

	o.scorer.Score(items, company, applied)
	items, filteredBelow := o.scorer.Filter(items, threshold)

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ImpactScore != items[j].ImpactScore {
			return items[i].ImpactScore > items[j].ImpactScore
		}
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	// Keep the bundle to the top stories so the response stays readable and
	// the generation prompt stays bounded.
	if max := o.cfg.Scoring.MaxBundleItems; max > 0 && len(items) > max {
		items = items[:max]
	}

	return &models.ResultBundle{
		Items:               items,
		Degraded:            widened || len(failed) > 0 || ctx.Err() != nil,
		ContributingSources: contributing,
		FailedSources:       failed,
		FilteredBelow:       filteredBelow,
		WindowApplied:       applied.Name,
	}
}

func (o *Orchestrator) recordTurns(sess *models.Session, userInput, response string) {
	o.sessions.AppendTurn(sess, models.TurnUser, userInput)
	o.sessions.AppendTurn(sess, models.TurnAssistant, response)
}

// Sessions exposes the session manager for the API layer.
func (o *Orchestrator) Sessions() *session.Manager { return o.sessions }

// SourceIDs lists the pool's configured sources.
func (o *Orchestrator) SourceIDs() []string { return o.pool.SourceIDs() }
