// Package staging manages the extract → match → promote lifecycle of raw
// name records for each matching domain.
package staging

import (
	"github.com/rotisserie/eris"

	"github.com/seiji-watch/polimatch/internal/model"
	"github.com/seiji-watch/polimatch/internal/scrape"
)

// DomainConfig binds a matching domain to its staging table, relationship
// table and source layout. All staging tables share one column set.
type DomainConfig struct {
	Domain            model.Domain
	StagingTable      string
	RelationshipTable string
	// SubjectType names the parent entity kind for audit records.
	SubjectType string
	ScrapeKind  scrape.Kind
	// PartyFilter narrows candidates by extracted party before matching.
	PartyFilter bool
}

var domainConfigs = map[model.Domain]DomainConfig{
	model.DomainSpeaker: {
		Domain:            model.DomainSpeaker,
		StagingTable:      "polimatch.staged_speakers",
		RelationshipTable: "polimatch.speaker_links",
		SubjectType:       "conference",
		ScrapeKind:        scrape.KindMinutes,
	},
	model.DomainConferenceMember: {
		Domain:            model.DomainConferenceMember,
		StagingTable:      "polimatch.staged_conference_members",
		RelationshipTable: "polimatch.conference_memberships",
		SubjectType:       "conference",
		ScrapeKind:        scrape.KindMemberList,
	},
	model.DomainGroupMember: {
		Domain:            model.DomainGroupMember,
		StagingTable:      "polimatch.staged_group_members",
		RelationshipTable: "polimatch.group_memberships",
		SubjectType:       "parliamentary_group",
		ScrapeKind:        scrape.KindGroupRoster,
	},
	model.DomainProposalJudge: {
		Domain:            model.DomainProposalJudge,
		StagingTable:      "polimatch.staged_proposal_judges",
		RelationshipTable: "polimatch.proposal_judges",
		SubjectType:       "proposal",
		ScrapeKind:        scrape.KindProposal,
		PartyFilter:       true,
	},
}

// ConfigFor returns the configuration for a domain.
func ConfigFor(d model.Domain) (DomainConfig, error) {
	cfg, ok := domainConfigs[d]
	if !ok {
		return DomainConfig{}, eris.Errorf("staging: unknown domain %q", d)
	}
	return cfg, nil
}
