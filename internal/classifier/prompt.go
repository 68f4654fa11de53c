package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

// systemPrompt encodes the taxonomy and the negative-override rule.
const systemPrompt = `You are an expert sentiment analyst for customer feedback sent to restaurants and cafés. Messages are usually written in Spanish.

Analyze the customer's message and reply ONLY with one valid JSON object with exactly this shape:

{
  "sentiment": "positive" | "negative" | "neutral",
  "topic": "Customer Service" | "Product Quality" | "Price" | "Cleanliness" | "Other",
  "summary": "concise description of the message, at most 100 characters"
}

STRICT sentiment criteria:
- negative: any dissatisfaction cue such as "mal", "no me gustó", "horrible", "terrible", "lento", "frío", "no me trataron bien", "decepcionante", "pésimo", complaints or criticism.
- positive: clear praise such as "excelente", "bueno", "delicioso", "recomiendo", "me encanta", "perfecto", "genial".
- neutral: ONLY informational questions without emotion (opening hours, menu) or fully objective remarks.

IMPORTANT: if ANY negative or complaint cue appears anywhere in the message, the sentiment is negative, never neutral.

Topic criteria:
- Customer Service: attention, speed, staff friendliness, reservations.
- Product Quality: taste, freshness, presentation of food or drinks.
- Price: costs, promotions, value for money.
- Cleanliness: hygiene of the premises, restrooms, tables, utensils.
- Other: anything that does not fit the categories above.

Reply with the JSON only, no explanations.`

var errInvalidResponse = errors.New("invalid model response")

// requiredKeys must all be present in the model reply.
var requiredKeys = []string{"sentiment", "topic", "summary"}

// parseModelResponse validates a model reply. It must be a single JSON object
// holding the three required keys, each a string, with sentiment and topic
// inside their closed sets. The summary is clipped with Summarize.
func parseModelResponse(raw string) (domain.Classification, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &fields); err != nil {
		return domain.Classification{}, fmt.Errorf("%w: %v", errInvalidResponse, err)
	}

	values := make(map[string]string, len(requiredKeys))
	for _, k := range requiredKeys {
		v, ok := fields[k]
		if !ok {
			return domain.Classification{}, fmt.Errorf("%w: missing %q", errInvalidResponse, k)
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return domain.Classification{}, fmt.Errorf("%w: %q is not a string", errInvalidResponse, k)
		}
		values[k] = s
	}

	sentiment, ok := domain.ParseSentiment(values["sentiment"])
	if !ok {
		return domain.Classification{}, fmt.Errorf("%w: unknown sentiment %q", errInvalidResponse, values["sentiment"])
	}
	topic, ok := domain.ParseTopic(values["topic"])
	if !ok {
		return domain.Classification{}, fmt.Errorf("%w: unknown topic %q", errInvalidResponse, values["topic"])
	}

	return domain.Classification{
		Sentiment: sentiment,
		Topic:     topic,
		Summary:   Summarize(strings.TrimSpace(values["summary"])),
	}, nil
}
