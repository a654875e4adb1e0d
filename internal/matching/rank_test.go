package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seiji-watch/polimatch/internal/model"
)

func pol(id int64, name, party string) model.Politician {
	return model.Politician{ID: id, Name: name, PartyName: party}
}

func TestRankCandidates_ExactNameFirst(t *testing.T) {
	candidates := []model.Politician{
		pol(1, "山田次郎", "立憲"),
		pol(2, "山田太郎", "自民"),
		pol(3, "佐藤花子", "公明"),
	}

	ranked := RankCandidates("山田太郎", "", candidates, 10)
	require.NotEmpty(t, ranked)
	assert.Equal(t, int64(2), ranked[0].ID)
}

func TestRankCandidates_StrippedMatchOutranksSubstring(t *testing.T) {
	candidates := []model.Politician{
		pol(1, "山田", ""),
		pol(2, "山田太郎", ""),
	}

	ranked := RankCandidates("山田太郎議員", "", candidates, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(2), ranked[0].ID)
}

func TestRankCandidates_ZeroScoreDropped(t *testing.T) {
	candidates := []model.Politician{
		pol(1, "まったく別の誰かの長い名前", ""),
	}

	ranked := RankCandidates("山田太郎", "", candidates, 10)
	assert.Empty(t, ranked)
}

func TestRankCandidates_PartyHintBreaksTies(t *testing.T) {
	candidates := []model.Politician{
		pol(1, "山田太郎", "立憲"),
		pol(2, "山田太郎", "自民"),
	}

	ranked := RankCandidates("山田太郎", "自民", candidates, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(2), ranked[0].ID)
}

func TestRankCandidates_TruncatesToMax(t *testing.T) {
	var candidates []model.Politician
	for i := int64(1); i <= 30; i++ {
		candidates = append(candidates, pol(i, "山田太郎", ""))
	}

	ranked := RankCandidates("山田太郎", "", candidates, 5)
	assert.Len(t, ranked, 5)
}

func TestRankCandidates_DefaultMax(t *testing.T) {
	var candidates []model.Politician
	for i := int64(1); i <= 40; i++ {
		candidates = append(candidates, pol(i, "山田太郎", ""))
	}

	ranked := RankCandidates("山田太郎", "", candidates, 0)
	assert.Len(t, ranked, DefaultMaxCandidates)
}

func TestRankCandidates_StableOnTies(t *testing.T) {
	candidates := []model.Politician{
		pol(1, "山田太郎", ""),
		pol(2, "山田太郎", ""),
		pol(3, "山田太郎", ""),
	}

	ranked := RankCandidates("山田太郎", "", candidates, 10)
	require.Len(t, ranked, 3)
	assert.Equal(t, int64(1), ranked[0].ID)
	assert.Equal(t, int64(2), ranked[1].ID)
	assert.Equal(t, int64(3), ranked[2].ID)
}

func TestFilterByParty_NarrowsByHint(t *testing.T) {
	candidates := []model.Politician{
		pol(1, "山田太郎", "自民"),
		pol(2, "佐藤花子", "立憲"),
	}

	narrowed := FilterByParty(candidates, "自民")
	require.Len(t, narrowed, 1)
	assert.Equal(t, int64(1), narrowed[0].ID)
}

func TestFilterByParty_EmptyHintPassesThrough(t *testing.T) {
	candidates := []model.Politician{pol(1, "山田太郎", "自民")}
	assert.Equal(t, candidates, FilterByParty(candidates, ""))
}

func TestFilterByParty_NoSurvivorsFallsBack(t *testing.T) {
	// A wrong or stale party label must not hide the right person.
	candidates := []model.Politician{
		pol(1, "山田太郎", "自民"),
		pol(2, "佐藤花子", "立憲"),
	}

	assert.Equal(t, candidates, FilterByParty(candidates, "維新"))
}
