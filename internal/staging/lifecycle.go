package staging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seiji-watch/polimatch/internal/matching"
	"github.com/seiji-watch/polimatch/internal/model"
	"github.com/seiji-watch/polimatch/internal/politician"
	"github.com/seiji-watch/polimatch/internal/scrape"
)

// Lifecycle drives the three-phase workflow for one domain: extract raw
// names into staging, match staged rows, promote matched rows to permanent
// relationships. Each phase is idempotent and isolates per-record failures.
type Lifecycle struct {
	cfg           DomainConfig
	store         Store
	scraper       scrape.Scraper
	resolver      matching.Resolver
	relationships politician.RelationshipStore
	log           *zap.Logger
}

// NewLifecycle creates a Lifecycle for one domain.
func NewLifecycle(cfg DomainConfig, store Store, scraper scrape.Scraper, resolver matching.Resolver, relationships politician.RelationshipStore) *Lifecycle {
	return &Lifecycle{
		cfg:           cfg,
		store:         store,
		scraper:       scraper,
		resolver:      resolver,
		relationships: relationships,
		log: zap.L().With(
			zap.String("component", "staging_lifecycle"),
			zap.String("domain", string(cfg.Domain)),
		),
	}
}

// Extract stages raw names scraped from sourceURL for a subject. Without
// force, existing staging rows short-circuit the scrape and are returned
// unchanged; with force, they are purged first. Scraper failures propagate
// so the caller can skip this subject and continue with others.
func (l *Lifecycle) Extract(ctx context.Context, subjectID int64, sourceURL string, force bool) ([]model.StagedEntity, error) {
	existing, err := l.store.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if len(existing) > 0 {
		if !force {
			l.log.Info("staging rows already exist, skipping extraction",
				zap.Int64("subject_id", subjectID),
				zap.Int("rows", len(existing)),
			)
			return existing, nil
		}
		deleted, err := l.store.DeleteBySubject(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		l.log.Info("purged staging rows for forced re-extraction",
			zap.Int64("subject_id", subjectID),
			zap.Int64("deleted", deleted),
		)
	}

	raw, err := l.scraper.Scrape(ctx, sourceURL, l.cfg.ScrapeKind)
	if err != nil {
		return nil, eris.Wrapf(err, "staging: scrape %s for subject %d", sourceURL, subjectID)
	}
	if len(raw) == 0 {
		l.log.Info("scrape found no names", zap.Int64("subject_id", subjectID))
		return nil, nil
	}

	now := time.Now()
	entities := make([]model.StagedEntity, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		if r.Name == "" || seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		entities = append(entities, model.StagedEntity{
			SubjectID:      subjectID,
			SourceName:     r.Name,
			SourceParty:    r.Party,
			SourceRole:     r.Role,
			SourceURL:      sourceURL,
			ExtractedAt:    now,
			MatchingStatus: model.StatusPending,
		})
	}

	inserted, err := l.store.BulkInsert(ctx, entities)
	if err != nil {
		return nil, err
	}
	l.log.Info("extraction complete",
		zap.Int64("subject_id", subjectID),
		zap.Int("names_found", len(entities)),
		zap.Int64("staged", inserted),
	)

	return l.store.ListBySubject(ctx, subjectID)
}

// MatchOptions selects and shapes one matching pass.
type MatchOptions struct {
	SubjectID *int64
	IDs       []int64
	// Force returns previously-processed rows to pending before matching.
	Force bool
}

// Match resolves pending staged rows. A failure on one record is counted
// and logged, never aborts the batch. Returns aggregate counts.
func (l *Lifecycle) Match(ctx context.Context, opts MatchOptions) (model.MatchCounts, error) {
	var counts model.MatchCounts

	filter := Filter{SubjectID: opts.SubjectID, IDs: opts.IDs}
	if opts.Force {
		reset, err := l.store.ResetMatching(ctx, filter)
		if err != nil {
			return counts, err
		}
		l.log.Info("reset matching state for forced rematch", zap.Int64("reset", reset))
	}

	pending, err := l.store.ListPending(ctx, filter)
	if err != nil {
		return counts, err
	}

	runID := uuid.NewString()
	log := l.log.With(zap.String("run_id", runID))
	log.Info("matching staged rows", zap.Int("pending", len(pending)))

	for i := range pending {
		if ctx.Err() != nil {
			break
		}
		entity := &pending[i]

		result, err := l.resolver.Resolve(ctx, entity)
		if err != nil {
			log.Warn("match failed",
				zap.Int64("staged_id", entity.ID),
				zap.String("source_name", entity.SourceName),
				zap.Error(err),
			)
			counts.Errors++
			continue
		}

		if err := l.store.UpdateMatchResult(ctx, entity.ID, result, runID); err != nil {
			log.Warn("match write-back failed",
				zap.Int64("staged_id", entity.ID),
				zap.Error(err),
			)
			counts.Errors++
			continue
		}

		switch result.Status {
		case model.StatusMatched:
			counts.Matched++
		case model.StatusNeedsReview:
			counts.NeedsReview++
		default:
			counts.NoMatch++
		}
	}

	log.Info("matching pass complete",
		zap.Int("matched", counts.Matched),
		zap.Int("needs_review", counts.NeedsReview),
		zap.Int("no_match", counts.NoMatch),
		zap.Int("errors", counts.Errors),
	)
	return counts, nil
}

// PromoteOptions selects and shapes one promotion pass.
type PromoteOptions struct {
	SubjectID     *int64
	IDs           []int64
	StartDate     time.Time
	MinConfidence float64
	CreatedBy     string
}

// Promote creates permanent relationships from matched staging rows at or
// above the confidence floor. Rows whose relationship already exists are
// skipped, as are rows whose creation fails; each promotion is its own unit
// of work.
func (l *Lifecycle) Promote(ctx context.Context, opts PromoteOptions) (model.PromoteCounts, error) {
	var counts model.PromoteCounts

	if opts.MinConfidence <= 0 {
		opts.MinConfidence = model.MatchedThreshold
	}
	if opts.StartDate.IsZero() {
		opts.StartDate = time.Now()
	}

	promotable, err := l.store.ListPromotable(ctx,
		Filter{SubjectID: opts.SubjectID, IDs: opts.IDs}, opts.MinConfidence)
	if err != nil {
		return counts, err
	}

	l.log.Info("promoting matched rows",
		zap.Int("promotable", len(promotable)),
		zap.Float64("min_confidence", opts.MinConfidence),
	)

	for _, e := range promotable {
		if ctx.Err() != nil {
			break
		}
		if e.MatchedPoliticianID == nil {
			// matched status guarantees an id; guard against drift anyway.
			counts.Skipped++
			continue
		}
		politicianID := *e.MatchedPoliticianID

		existing, err := l.relationships.FindActive(ctx, politicianID, e.SubjectID)
		if err != nil {
			l.log.Warn("relationship lookup failed",
				zap.Int64("staged_id", e.ID),
				zap.Error(err),
			)
			counts.Skipped++
			continue
		}
		if existing != nil {
			counts.Skipped++
			continue
		}

		rel := &model.Relationship{
			PoliticianID: politicianID,
			SubjectID:    e.SubjectID,
			Role:         e.SourceRole,
			StartDate:    opts.StartDate,
			CreatedBy:    opts.CreatedBy,
		}
		if err := l.relationships.Create(ctx, rel); err != nil {
			l.log.Warn("relationship creation failed",
				zap.Int64("staged_id", e.ID),
				zap.Int64("politician_id", politicianID),
				zap.Error(err),
			)
			counts.Skipped++
			continue
		}

		counts.Created++
		counts.IDs = append(counts.IDs, rel.ID)
	}

	l.log.Info("promotion complete",
		zap.Int("created", counts.Created),
		zap.Int("skipped", counts.Skipped),
	)
	return counts, nil
}

// Counts returns the staging table's aggregate by matching status.
func (l *Lifecycle) Counts(ctx context.Context) (map[model.MatchStatus]int, error) {
	return l.store.CountsByStatus(ctx)
}

// Domain returns the domain this lifecycle manages.
func (l *Lifecycle) Domain() model.Domain {
	return l.cfg.Domain
}
