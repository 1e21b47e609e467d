package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cpulse/internal/model"
)

func TestClusterTexts_StartAndBeginMerge(t *testing.T) {
	clusters := ClusterTexts([]string{"How do I start?", "How to begin?", "What is React?"}, DefaultClusterOptions())

	require.Len(t, clusters, 2)
	assert.Equal(t, "How do I start?", clusters[0].Representative)
	assert.Equal(t, 2, clusters[0].Count)
	assert.Equal(t, []model.Variation{
		{Text: "How do I start?", Count: 1},
		{Text: "How to begin?", Count: 1},
	}, clusters[0].Variations)
	assert.Equal(t, "What is React?", clusters[1].Representative)
	assert.Equal(t, 1, clusters[1].Count)
}

func TestClusterTexts_NoAliasesIsPureEditDistance(t *testing.T) {
	clusters := ClusterTexts([]string{"How do I start?", "How to begin?", "What is React?"}, ClusterOptions{Threshold: 0.7})
	assert.Len(t, clusters, 3)
}

func TestClusterTexts_CountSumsToInput(t *testing.T) {
	texts := []string{
		"How do I install React?", "how do i install react", "How to install Node?",
		"What is JSX", "what is jsx?", "", "", "Where are the slides?",
	}
	clusters := ClusterTexts(texts, DefaultClusterOptions())

	total := 0
	for _, c := range clusters {
		total += c.Count
		vsum := 0
		for _, v := range c.Variations {
			vsum += v.Count
		}
		assert.Equal(t, c.Count, vsum, "variation counts for %q", c.Representative)
		assert.Equal(t, c.Representative, c.Variations[0].Text)
	}
	assert.Equal(t, len(texts), total)
}

func TestClusterTexts_DuplicatesCountedIndividually(t *testing.T) {
	clusters := ClusterTexts([]string{"What is JSX?", "what is jsx", "WHAT IS JSX!!"}, DefaultClusterOptions())
	require.Len(t, clusters, 1)
	assert.Equal(t, 3, clusters[0].Count)
	assert.Equal(t, []model.Variation{{Text: "What is JSX?", Count: 3}}, clusters[0].Variations)
}

func TestClusterTexts_ComparesRepresentativeOnly(t *testing.T) {
	// B is close to A; C is close to B but not to A.
	clusters := ClusterTexts([]string{"abcdefghij", "abcdefgxij", "abcxyzgxij"}, ClusterOptions{Threshold: 0.7})
	require.Len(t, clusters, 2)
	assert.Equal(t, 2, clusters[0].Count)
	assert.Equal(t, "abcxyzgxij", clusters[1].Representative)
}

func TestClusterTexts_ThresholdInclusive(t *testing.T) {
	clusters := ClusterTexts([]string{"abcdefghij", "abcdefgxyz"}, ClusterOptions{Threshold: 0.7})
	assert.Len(t, clusters, 1)

	clusters = ClusterTexts([]string{"abcdefghij", "abcdefgxyz"}, ClusterOptions{Threshold: 0.71})
	assert.Len(t, clusters, 2)
}

func TestClusterTexts_Idempotent(t *testing.T) {
	texts := []string{"How do I start?", "What is React?", "how to begin", "What's React"}
	a := ClusterTexts(texts, DefaultClusterOptions())
	b := ClusterTexts(texts, DefaultClusterOptions())
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("repeated clustering differs (-first +second):\n%s", diff)
	}
}

func TestClusterTexts_Empty(t *testing.T) {
	assert.Empty(t, ClusterTexts(nil, DefaultClusterOptions()))
}

func TestClusterQuestions_Aggregates(t *testing.T) {
	qs := []model.Question{
		{Text: "How do I start?", ResponseTimeMs: model.Int64(1000), VideoIDs: []string{"v1"}},
		{Text: "How to begin?", VideoIDs: []string{"v2", "v1"}},
		{Text: "how do i start", ResponseTimeMs: model.Int64(3000), VideoIDs: []string{""}},
		{Text: "What is React?"},
	}
	clusters := ClusterQuestions(qs, DefaultClusterOptions())
	require.Len(t, clusters, 2)

	c := clusters[0]
	assert.Equal(t, 3, c.Count)
	assert.Equal(t, 2, c.ResponseSamples)
	assert.InDelta(t, 2000.0, c.AvgResponseTimeMs, 1e-9)
	assert.Equal(t, []string{"v1", "v2"}, c.VideoIDs)
	assert.Equal(t, []model.Variation{
		{Text: "How do I start?", Count: 2},
		{Text: "How to begin?", Count: 1},
	}, c.Variations)

	other := clusters[1]
	assert.Equal(t, 0, other.ResponseSamples)
	assert.Zero(t, other.AvgResponseTimeMs)
	assert.Empty(t, other.VideoIDs)
}

func TestSortClustersByCount(t *testing.T) {
	in := []model.QuestionCluster{
		{Representative: "a", Count: 1},
		{Representative: "b", Count: 3},
		{Representative: "c", Count: 1},
	}
	got := SortClustersByCount(in)
	assert.Equal(t, []string{"b", "a", "c"}, []string{got[0].Representative, got[1].Representative, got[2].Representative})
	assert.Equal(t, "a", in[0].Representative, "input untouched")
}

func TestExtractQuestions(t *testing.T) {
	msgs := []model.ChatMessage{
		{StudentID: "s1", Role: model.RoleStudent, Content: "first", CreatedAt: at(10, 0)},
		{StudentID: "s2", Role: model.RoleStudent, Content: "other", CreatedAt: at(10, 1)},
		{StudentID: "s1", Role: model.RoleStudent, Content: "second", CreatedAt: at(10, 2)},
		{StudentID: "s1", Role: model.RoleAssistant, ResponseTimeMs: model.Int64(900), VideoIDs: []string{"v9"}, CreatedAt: at(10, 3)},
		{StudentID: "s1", Role: model.RoleAssistant, ResponseTimeMs: model.Int64(50), CreatedAt: at(10, 4)},
		{StudentID: "s2", Role: model.RoleAssistant, CreatedAt: at(10, 5)},
	}
	qs := ExtractQuestions(msgs)
	require.Len(t, qs, 3)

	assert.Equal(t, "first", qs[0].Text)
	assert.Nil(t, qs[0].ResponseTimeMs)

	assert.Equal(t, "other", qs[1].Text)
	assert.Nil(t, qs[1].ResponseTimeMs)

	assert.Equal(t, "second", qs[2].Text)
	require.NotNil(t, qs[2].ResponseTimeMs)
	assert.Equal(t, int64(900), *qs[2].ResponseTimeMs)
	assert.Equal(t, []string{"v9"}, qs[2].VideoIDs)
}
