package entitlement

import (
	"time"

	"fanclub/pkg/domain"
)

// View is what a viewer receives for an item. Body is nil when the item is locked.
type View struct {
	ID        string                `json:"id"`
	AuthorID  string                `json:"author_id"`
	Title     string                `json:"title"`
	Tier      domain.VisibilityTier `json:"visibility_tier"`
	Gate      domain.Gate           `json:"gate"`
	Counters  domain.Counters       `json:"counters"`
	CreatedAt time.Time             `json:"created_at"`
	IsLiked   bool                  `json:"is_liked"`
	Access    Decision              `json:"access"`
	Body      *domain.Body          `json:"body,omitempty"`
}

func (v View) Key() string {
	return v.ID
}

func (v View) Locked() bool {
	return !v.Access.CanView
}

// Redact builds the view of item for a decision. Locked items keep only
// non-sensitive fields and the display hints.
func Redact(item domain.ContentItem, d Decision) View {
	v := View{
		ID:        item.ID,
		AuthorID:  item.AuthorID,
		Title:     item.Title,
		Tier:      item.Gate.Tier(),
		Gate:      item.Gate,
		Counters:  item.Counters,
		CreatedAt: item.CreatedAt,
		Access:    d,
	}
	if d.CanView {
		body := item.Body
		v.Body = &body
	}
	return v
}

// ResolveAndRedact is Resolve followed by Redact.
func ResolveAndRedact(item domain.ContentItem, viewer domain.ViewerEntitlement) View {
	return Redact(item, Resolve(item, viewer))
}

// ResolveView re-evaluates a received view against a newer entitlement snapshot,
// e.g. after the viewer joined a tier. Hints come from the view since the body may be absent.
// A view that flips from locked to viewable has to be refetched to obtain its body.
func ResolveView(v View, viewer domain.ViewerEntitlement) Decision {
	d := Resolve(domain.ContentItem{ID: v.ID, AuthorID: v.AuthorID, Gate: v.Gate}, viewer)
	d.Hints = v.Access.Hints
	return d
}
