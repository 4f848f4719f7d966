package tracker

import (
	"context"
	"fmt"

	"github.com/hazyhaar/jobtrack/tracker/internal/store"
)

// ReconcileResult partitions a candidate batch against stored state.
type ReconcileResult struct {
	// New are postings absent from the store, staged with first_seen set
	// and notified=false.
	New []*store.Posting
	// Updated are existing postings whose mutable fields changed, carrying
	// the merged record (identity, first_seen and notified preserved).
	Updated []*store.Posting
	// IntegrityFaults counts candidates whose identity key matched more
	// than one stored posting. They are skipped, never silently merged.
	IntegrityFaults int
}

// reconciler computes the new/updated partition for one source. Given the
// same candidates and store state it always produces the same partition.
type reconciler struct {
	store *store.Store
	newID func() string
	nowMs func() int64
}

// reconcile looks up each candidate by identity key scoped to the source.
// Duplicate keys within one batch keep the first sighting only.
func (r *reconciler) reconcile(ctx context.Context, src *store.Source, candidates []Candidate) (*ReconcileResult, error) {
	res := &ReconcileResult{}
	seen := make(map[string]bool, len(candidates))

	for _, c := range candidates {
		company := c.Company
		if company == "" {
			company = src.Name
		}
		key := IdentityKey(c.URL, c.Title, company)
		if seen[key] {
			continue
		}
		seen[key] = true

		existing, err := r.store.FindPostingsByIdentity(ctx, src.ID, key)
		if err != nil {
			return nil, fmt.Errorf("find by identity: %w", err)
		}

		switch len(existing) {
		case 0:
			res.New = append(res.New, &store.Posting{
				ID:          r.newID(),
				SourceID:    src.ID,
				IdentityKey: key,
				Title:       c.Title,
				Company:     company,
				Location:    c.Location,
				URL:         c.URL,
				FirstSeen:   r.nowMs(),
				Notified:    false,
			})
		case 1:
			prev := existing[0]
			if prev.Title != c.Title || prev.Company != company ||
				prev.Location != c.Location || prev.URL != c.URL {
				merged := *prev
				merged.Title = c.Title
				merged.Company = company
				merged.Location = c.Location
				merged.URL = c.URL
				res.Updated = append(res.Updated, &merged)
			}
		default:
			res.IntegrityFaults++
		}
	}
	return res, nil
}
