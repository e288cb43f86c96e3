package dispatch

import (
	"github.com/khanglvm/prompt-dispatch/internal/registry"
	"github.com/khanglvm/prompt-dispatch/internal/search"
)

// Documents converts registry entries into index documents, keeping
// registration order.
func Documents(entries []registry.Entry) []search.Document {
	docs := make([]search.Document, len(entries))
	for i, e := range entries {
		docs[i] = search.Document{Name: string(e.ID), Text: e.Description}
	}
	return docs
}
