package discovery

import (
	"context"
	"encoding/json"
	"fmt"

	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/oracle"
)

const searchPrompt = `Find %d recent job openings for "%s" in "%s" within the "%s" industry.
Return strictly a JSON array. Each item must have the string fields
"title", "company", "location", "snippet" and "link" (a direct application URL).
Return [] if you know of none.`

// LLMSource asks the inference oracle for openings.
type LLMSource struct {
	Oracle oracle.Completer
	Model  string
}

func (s *LLMSource) Name() string { return "llm" }

type llmPosting struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Snippet  string `json:"snippet"`
	Link     string `json:"link"`
}

func (s *LLMSource) Search(ctx context.Context, q domain.Query, limit int) ([]domain.Posting, error) {
	out, err := s.Oracle.Complete(ctx, oracle.Prompt{
		User:  fmt.Sprintf(searchPrompt, limit, q.Keywords, q.Location, q.Domain),
		Model: s.Model,
	})
	if err != nil {
		return nil, err
	}

	js, err := oracle.ExtractJSONArray(out)
	if err != nil {
		return nil, err
	}
	var items []llmPosting
	if err := json.Unmarshal([]byte(js), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", oracle.ErrMalformedResponse, err)
	}

	ps := make([]domain.Posting, 0, len(items))
	for _, it := range items {
		ps = append(ps, domain.Posting{
			Title:    it.Title,
			Company:  it.Company,
			Location: it.Location,
			Snippet:  it.Snippet,
			Link:     it.Link,
			Source:   s.Name(),
		})
	}
	return ps, nil
}
