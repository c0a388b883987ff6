package source

import "context"

// Pager walks a query's page sequence lazily and in fetch order. It can be
// restarted from any previously observed cursor without re-fetching the
// pages before it.
type Pager struct {
	client  *Client
	query   Query
	cursor  string
	fetched int
	done    bool
}

// Pages starts a page sequence from the beginning of the query
func (c *Client) Pages(q Query) *Pager {
	return c.Resume(q, "")
}

// Resume starts a page sequence at a previously checkpointed cursor
func (c *Client) Resume(q Query, cursor string) *Pager {
	return &Pager{client: c, query: q, cursor: cursor}
}

// Next fetches the next page, or ErrEndOfStream once the sequence is
// exhausted or the page cap is reached. Cancellation is honored between
// fetches only; an in-flight request is allowed to finish so the remote
// rate-limit counter stays consistent.
//
// On a transient failure Next returns a RetryExhaustedError without
// advancing the cursor, so the caller may call Next again to retry the
// same page, or stop.
func (p *Pager) Next(ctx context.Context) (*ResultPage, error) {
	if p.done {
		return nil, ErrEndOfStream
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.query.MaxPages > 0 && p.fetched >= p.query.MaxPages {
		p.done = true
		return nil, ErrEndOfStream
	}

	page, err := p.client.Fetch(ctx, p.query, p.cursor)
	if err != nil {
		return nil, err
	}

	p.fetched++
	p.cursor = page.NextCursor
	if page.NextCursor == "" {
		p.done = true
	}
	return page, nil
}

// Cursor returns the cursor the next fetch would use. Callers persist it
// for crash restart; it is an opaque token, never parsed here.
func (p *Pager) Cursor() string {
	return p.cursor
}

// Fetched returns how many pages have been produced so far
func (p *Pager) Fetched() int {
	return p.fetched
}
