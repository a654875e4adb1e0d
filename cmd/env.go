package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/seiji-watch/polimatch/internal/db"
	"github.com/seiji-watch/polimatch/internal/gateway"
	"github.com/seiji-watch/polimatch/internal/history"
	"github.com/seiji-watch/polimatch/internal/matching"
	"github.com/seiji-watch/polimatch/internal/model"
	"github.com/seiji-watch/polimatch/internal/politician"
	"github.com/seiji-watch/polimatch/internal/scrape"
	"github.com/seiji-watch/polimatch/internal/staging"
	anthropicpkg "github.com/seiji-watch/polimatch/pkg/anthropic"
)

// matchEnv holds the shared pool, clients, and stores needed by the
// extract/match/promote/status/serve commands.
type matchEnv struct {
	Pool       *pgxpool.Pool
	Candidates politician.CandidateStore
	Recorder   *history.Recorder
	Scraper    scrape.Scraper

	client  anthropicpkg.Client
	roleMap matching.RoleMap
}

// Close releases resources held by the environment.
func (e *matchEnv) Close() {
	if e.Pool != nil {
		e.Pool.Close()
	}
}

// initEnv connects the database and builds the shared collaborators.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*matchEnv, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("no database_url configured (set store.database_url or POLIMATCH_STORE_DATABASE_URL)")
	}

	pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := staging.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "migrate")
	}

	roleMap, err := matching.LoadRoleMap(cfg.Matching.RoleMapPath)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &matchEnv{
		Pool:       pool,
		Candidates: politician.NewPostgresStore(pool),
		Recorder:   history.NewRecorder(history.NewPostgresSink(pool)),
		Scraper:    scrape.NewHTTPScraper(time.Duration(cfg.Scrape.TimeoutSecs) * time.Second),
		client:     anthropicpkg.NewClient(cfg.Anthropic.Key),
		roleMap:    roleMap,
	}, nil
}

// resolverFor builds the resolver for one domain. The default path is the
// rule-then-model orchestrator; agentic swaps in the tool-use matcher.
func (e *matchEnv) resolverFor(dcfg staging.DomainConfig, agentic bool) matching.Resolver {
	if agentic {
		inner := matching.NewAgenticMatcher(
			e.client, e.Candidates,
			cfg.Anthropic.Model, cfg.Anthropic.MaxTokens,
			cfg.Matching.AgenticMaxTurns, e.roleMap,
		)
		return matching.NewRecordedResolver(
			inner, e.Recorder,
			string(dcfg.Domain)+"_matching_agentic",
			cfg.Anthropic.Model, dcfg.SubjectType,
		)
	}

	gw := gateway.NewAnthropicGateway(e.client, gateway.AnthropicGatewayConfig{
		Model:          cfg.Anthropic.Model,
		MaxTokens:      cfg.Anthropic.MaxTokens,
		RequestsPerSec: cfg.Anthropic.RequestsPerSec,
		MaxConcurrent:  cfg.Anthropic.MaxConcurrent,
	})
	mm := matching.NewModelMatcher(gw, cfg.Matching.MaxCandidates, e.roleMap)

	return matching.NewOrchestrator(matching.OrchestratorConfig{
		Domain:              dcfg.Domain,
		Candidates:          e.Candidates,
		ModelMatcher:        mm,
		Recorder:            e.Recorder,
		RuleAcceptThreshold: cfg.Matching.RuleAcceptThreshold,
		PartyFilter:         dcfg.PartyFilter,
		ModelName:           gw.ModelName(),
	})
}

// lifecycleFor builds the staging lifecycle for one domain.
func (e *matchEnv) lifecycleFor(domain model.Domain, agentic bool) (*staging.Lifecycle, error) {
	dcfg, err := staging.ConfigFor(domain)
	if err != nil {
		return nil, err
	}

	return staging.NewLifecycle(
		dcfg,
		staging.NewPostgresStore(e.Pool, dcfg),
		e.Scraper,
		e.resolverFor(dcfg, agentic),
		politician.NewRelationshipStore(e.Pool, dcfg.RelationshipTable),
	), nil
}

// parseDomain validates a domain argument.
func parseDomain(arg string) (model.Domain, error) {
	d := model.Domain(arg)
	if !d.Valid() {
		return "", eris.Errorf("unknown domain %q (valid: speaker, conference_member, group_member, proposal_judge)", arg)
	}
	return d, nil
}
