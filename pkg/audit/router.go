package audit

import (
	"github.com/Tributary-ai-services/Markguard/pkg/scan"
)

// Router determines which topics an event is published to
type Router struct {
	topics Topics
}

// NewRouter creates a router over the given topics
func NewRouter(topics Topics) *Router {
	return &Router{
		topics: topics,
	}
}

// Route returns the topics for an event, each at most once.
//
// Routing rules:
//   - ALL events go to topics.Audit
//   - Events with a classification marking also go to topics.Classified
//   - Events with a CUI marking also go to topics.CUI
//
// Unset topics are skipped.
func (r *Router) Route(event AuditEvent) []string {
	var topics []string
	seen := make(map[string]bool, 3)
	add := func(topic string) {
		if topic == "" || seen[topic] {
			return
		}
		seen[topic] = true
		topics = append(topics, topic)
	}

	add(r.topics.Audit)
	for _, c := range eventCategories(event) {
		switch c {
		case scan.CategoryClassification:
			add(r.topics.Classified)
		case scan.CategoryCUI:
			add(r.topics.CUI)
		}
	}
	return topics
}

// eventCategories falls back to the match metadata for events built by hand
func eventCategories(event AuditEvent) []scan.Category {
	if len(event.Categories) > 0 {
		return event.Categories
	}
	categories := make([]scan.Category, 0, len(event.Matches))
	for _, m := range event.Matches {
		categories = append(categories, m.Category)
	}
	return categories
}
