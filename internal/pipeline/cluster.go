package pipeline

import (
	"sort"

	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/model"
)

// ClusterOptions controls question clustering.
type ClusterOptions struct {
	// Threshold is the minimum similarity to join a cluster. <= 0 means
	// config.DefaultSimilarityThreshold.
	Threshold float64
	// Aliases rewrites whole-word phrases after normalization. Nil means
	// pure edit distance.
	Aliases map[string]string
}

// DefaultClusterOptions returns the default threshold and alias table.
func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{
		Threshold: config.DefaultSimilarityThreshold,
		Aliases:   config.DefaultAliases(),
	}
}

// ClusterTexts clusters plain question strings.
func ClusterTexts(texts []string, opts ClusterOptions) []model.QuestionCluster {
	qs := make([]model.Question, len(texts))
	for i, t := range texts {
		qs[i] = model.Question{Text: t}
	}
	return ClusterQuestions(qs, opts)
}

type clusterAcc struct {
	key        string
	out        model.QuestionCluster
	variations map[string]int
	respSum    int64
	videos     map[string]struct{}
}

// ClusterQuestions groups questions greedily in input order. Each question
// is compared against every existing cluster's representative only and
// joins the first one at or above the threshold; otherwise it opens a new
// cluster. Clusters come back in order of creation.
func ClusterQuestions(qs []model.Question, opts ClusterOptions) []model.QuestionCluster {
	if len(qs) == 0 {
		return nil
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = config.DefaultSimilarityThreshold
	}
	rw := newPhraseRewriter(opts.Aliases)

	var accs []*clusterAcc
	for _, q := range qs {
		norm := NormalizeQuestion(q.Text)
		key := rw.Rewrite(norm)

		var acc *clusterAcc
		for _, c := range accs {
			if Similarity(key, c.key) >= threshold {
				acc = c
				break
			}
		}
		if acc == nil {
			acc = &clusterAcc{
				key:        key,
				out:        model.QuestionCluster{Representative: q.Text},
				variations: make(map[string]int),
				videos:     make(map[string]struct{}),
			}
			accs = append(accs, acc)
		}
		acc.add(q, norm)
	}

	clusters := make([]model.QuestionCluster, len(accs))
	for i, acc := range accs {
		c := acc.out
		if c.ResponseSamples > 0 {
			c.AvgResponseTimeMs = float64(acc.respSum) / float64(c.ResponseSamples)
		}
		clusters[i] = c
	}
	return clusters
}

func (acc *clusterAcc) add(q model.Question, norm string) {
	acc.out.Count++

	if idx, ok := acc.variations[norm]; ok {
		acc.out.Variations[idx].Count++
	} else {
		acc.variations[norm] = len(acc.out.Variations)
		acc.out.Variations = append(acc.out.Variations, model.Variation{Text: q.Text, Count: 1})
	}

	if q.ResponseTimeMs != nil {
		acc.respSum += *q.ResponseTimeMs
		acc.out.ResponseSamples++
	}

	for _, v := range q.VideoIDs {
		if v == "" {
			continue
		}
		if _, seen := acc.videos[v]; seen {
			continue
		}
		acc.videos[v] = struct{}{}
		acc.out.VideoIDs = append(acc.out.VideoIDs, v)
	}
}

// SortClustersByCount orders clusters by Count descending, keeping
// creation order among ties. It sorts a copy.
func SortClustersByCount(clusters []model.QuestionCluster) []model.QuestionCluster {
	out := make([]model.QuestionCluster, len(clusters))
	copy(out, clusters)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// ExtractQuestions turns student messages into clusterer input. msgs must
// be in time order. The first assistant reply after a student message
// supplies its response time and cited videos; a reply is credited only
// to the most recent unanswered question of that student.
func ExtractQuestions(msgs []model.ChatMessage) []model.Question {
	var qs []model.Question
	pending := make(map[string]int)

	for _, m := range msgs {
		switch m.Role {
		case model.RoleStudent:
			qs = append(qs, model.Question{Text: m.Content})
			pending[m.StudentID] = len(qs) - 1
		case model.RoleAssistant:
			idx, ok := pending[m.StudentID]
			if !ok {
				continue
			}
			delete(pending, m.StudentID)
			if m.ResponseTimeMs != nil {
				qs[idx].ResponseTimeMs = model.Int64(*m.ResponseTimeMs)
			}
			if len(m.VideoIDs) > 0 {
				qs[idx].VideoIDs = append([]string(nil), m.VideoIDs...)
			}
		}
	}
	return qs
}
