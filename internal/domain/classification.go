package domain

import "strings"

// Sentiment is the emotional valence of a message.
type Sentiment string

// Closed set of sentiments.
const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// Topic is the subject category of a message.
type Topic string

// Closed set of topics.
const (
	TopicCustomerService Topic = "Customer Service"
	TopicProductQuality  Topic = "Product Quality"
	TopicPrice           Topic = "Price"
	TopicCleanliness     Topic = "Cleanliness"
	TopicOther           Topic = "Other"
)

// Sentiments lists every sentiment in reporting order.
var Sentiments = []Sentiment{Positive, Negative, Neutral}

// Topics lists every topic. The first four are also the fallback tie-break
// priority; Other is the default when nothing matches.
var Topics = []Topic{TopicCustomerService, TopicProductQuality, TopicPrice, TopicCleanliness, TopicOther}

// ParseSentiment maps s (case-insensitive, trimmed) onto the closed set.
func ParseSentiment(s string) (Sentiment, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range Sentiments {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

// ParseTopic maps s (case-insensitive, trimmed) onto the closed set.
func ParseTopic(s string) (Topic, bool) {
	s = strings.TrimSpace(s)
	for _, v := range Topics {
		if strings.EqualFold(string(v), s) {
			return v, true
		}
	}
	return "", false
}

// Classification is the transient result merged into a Message.
type Classification struct {
	Sentiment Sentiment `json:"sentiment"`
	Topic     Topic     `json:"topic"`
	Summary   string    `json:"summary"`
}

// SentimentStats holds per-sentiment counts. Pending covers unclassified and
// unrecognized values so that Total always equals the number of messages.
type SentimentStats struct {
	Positive int64 `json:"positive" example:"12"`
	Negative int64 `json:"negative" example:"7"`
	Neutral  int64 `json:"neutral"  example:"3"`
	Pending  int64 `json:"pending"  example:"1"`
	Total    int64 `json:"total"    example:"23"`
}

// TopicCount is one row of the topic histogram.
type TopicCount struct {
	Topic string `json:"topic" example:"Customer Service"`
	Count int64  `json:"count" example:"9"`
}
