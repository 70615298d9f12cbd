package sankhya

import "context"

// pager is the uniform "fetch page N, am I done" contract shared by the two
// pagination conventions Sankhya exposes: the generic loadRecords RPC (string
// hasMoreResult flag) and the /v1 endpoints (heterogeneous envelopes and
// more-pages signals). more already accounts for an empty page, so the drive
// loop below needs no knowledge of either convention.
type pager interface {
	fetch(ctx context.Context, page int) (records []Record, more bool, err error)
}

// collectPages drives a pager from page zero until it signals exhaustion,
// accumulating records in page-then-within-page order. Pages are fetched
// strictly sequentially; some v1 conventions can only derive the "more pages"
// signal from the current page's content length.
func collectPages(ctx context.Context, p pager, singlePage bool) ([]Record, error) {
	var records []Record
	for page := 0; ; page++ {
		pageRecords, more, err := p.fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		records = append(records, pageRecords...)
		if singlePage || !more {
			return records, nil
		}
	}
}
