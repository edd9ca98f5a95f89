package product

import (
	"context"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/identity"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
)

// Processor maps one attribute of the request onto the product write.
type Processor interface {
	Process(ctx context.Context, w *Write) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, w *Write) error

func (f ProcessorFunc) Process(ctx context.Context, w *Write) error {
	return f(ctx, w)
}

// Write is the product payload under construction for one product or variant.
type Write struct {
	Request   *Request
	ProductID string
	ParentID  string
	Payload   platform.Entity
	TaxRate   float64

	session *session
}

// session is shared by the parent and its variants during one request.
type session struct {
	known map[string]string // entity:code -> id
}

func newSession() *session {
	return &session{known: map[string]string{}}
}

func newWrite(req *Request, parentID string, sess *session) *Write {
	id := identity.FromKey(req.SKU)
	payload := platform.Entity{
		"id":            id,
		"productNumber": req.SKU,
	}
	if parentID != "" {
		payload["parentId"] = parentID
	}
	if sess == nil {
		sess = newSession()
	}
	return &Write{
		Request:   req,
		ProductID: id,
		ParentID:  parentID,
		Payload:   payload,
		session:   sess,
	}
}

// Translation returns the payload translation for locale, creating it on demand.
func (w *Write) Translation(locale string) map[string]interface{} {
	translations, ok := w.Payload["translations"].(map[string]interface{})
	if !ok {
		translations = map[string]interface{}{}
		w.Payload["translations"] = translations
	}
	t, ok := translations[locale].(map[string]interface{})
	if !ok {
		t = map[string]interface{}{}
		translations[locale] = t
	}
	return t
}

func refs(ids []string) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]interface{}{"id": id})
	}
	return out
}
