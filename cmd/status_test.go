package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seiji-watch/polimatch/internal/model"
)

func TestFormatStatus(t *testing.T) {
	rows := map[model.Domain]map[model.MatchStatus]int{
		model.DomainSpeaker: {
			model.StatusPending: 5,
			model.StatusMatched: 12,
			model.StatusNoMatch: 1,
		},
		model.DomainGroupMember: {
			model.StatusNeedsReview: 2,
		},
	}

	var sb strings.Builder
	formatStatus(&sb, rows)
	out := sb.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Header, separator, one row per domain.
	assert.Len(t, lines, 2+len(model.AllDomains))
	assert.Contains(t, lines[0], "DOMAIN")

	speaker := lines[2]
	assert.Contains(t, speaker, "speaker")
	fields := strings.Fields(speaker)
	assert.Equal(t, []string{"speaker", "5", "12", "0", "1", "18"}, fields)

	group := lines[4]
	assert.Equal(t, []string{"group_member", "0", "0", "2", "0", "2"}, strings.Fields(group))
}
