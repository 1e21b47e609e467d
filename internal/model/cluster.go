package model

// Question is one student question fed to the clusterer.
type Question struct {
	Text           string   `json:"text"`
	ResponseTimeMs *int64   `json:"response_time_ms,omitempty"`
	VideoIDs       []string `json:"video_ids,omitempty"`
}

// Variation is one distinct normalized phrasing inside a cluster. Text is
// the first raw form seen.
type Variation struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// QuestionCluster groups lexically similar questions.
type QuestionCluster struct {
	// Representative is the raw text of the question that opened the cluster.
	Representative string `json:"representative"`
	// Variations lists distinct phrasings, representative first.
	Variations []Variation `json:"variations"`
	// Count is the number of member questions, duplicates included.
	Count int `json:"count"`
	// AvgResponseTimeMs is meaningful only when ResponseSamples > 0.
	AvgResponseTimeMs float64  `json:"avg_response_time_ms"`
	ResponseSamples   int      `json:"response_samples"`
	VideoIDs          []string `json:"video_ids,omitempty"`
}
