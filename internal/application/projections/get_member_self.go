package projections

import (
	"context"
	"html/template"

	"golang.org/x/sync/errgroup"

	"otterpoint/internal/application/listutil"
	domainItem "otterpoint/internal/domain/item"
	"otterpoint/internal/domain/labels"
	domainMember "otterpoint/internal/domain/member"
	"otterpoint/internal/domain/pointlog"
)

// QREncoder renders content as an inline image URL.
type QREncoder func(content string, size int) (template.URL, error)

// GetMemberCardDeps holds dependencies for GetMemberCard.
type GetMemberCardDeps struct {
	Cards CardReader
	QR    QREncoder
}

// GetMemberCardResult is the member home page.
type GetMemberCardResult struct {
	Card     domainMember.Card
	Greeting string        // "王先生"
	QR       template.URL // empty when the code could not be rendered
}

// QueryGetMemberCard fetches the card and renders the member id as a QR code.
// PRE: the member class is authenticated
// POST: A QR failure leaves QR empty without failing the page
func QueryGetMemberCard(ctx context.Context, deps GetMemberCardDeps) (GetMemberCardResult, error) {
	card, err := deps.Cards.MemberInfo(ctx)
	if err != nil {
		return GetMemberCardResult{}, err
	}
	res := GetMemberCardResult{Card: card, Greeting: card.LastName + labels.Salutation(card.Gender)}
	if labels.Salutation(card.Gender) == labels.Placeholder {
		res.Greeting = card.FullName()
	}
	if deps.QR != nil && card.MemberID != "" {
		if u, qerr := deps.QR(card.MemberID, 0); qerr == nil {
			res.QR = u
		}
	}
	return res, nil
}

// GetMemberPointsResult is the member point history page.
type GetMemberPointsResult struct {
	Summary pointlog.Summary
	Logs    listutil.View[pointlog.Log]
}

// QueryGetMemberPoints fetches the member's ledger, summarises it and derives a page.
// PRE: q was parsed with SelfPointLogSpec
// POST: Summary.Total sums remaining points over ADD logs only; it is nil when the ledger could not be read
func QueryGetMemberPoints(ctx context.Context, q listutil.Query, reader SelfPointsReader) (GetMemberPointsResult, error) {
	logs, err := reader.MemberPoints(ctx)
	view, err := deriveOrEmpty(logs, err, SelfPointLogSpec, q)
	if err != nil {
		return GetMemberPointsResult{Logs: view}, err
	}
	return GetMemberPointsResult{Summary: pointlog.Summarize(logs), Logs: view}, nil
}

// GetMemberCatalogDeps holds dependencies for GetMemberCatalog.
type GetMemberCatalogDeps struct {
	Cards   CardReader
	Catalog CatalogReader
}

// CatalogEntry is one item as the member sees it.
type CatalogEntry struct {
	Item       domainItem.Item
	Affordable bool
}

// GetMemberCatalogResult is the member catalog page.
type GetMemberCatalogResult struct {
	Balance    *int64
	Entries    []CatalogEntry
	Affordable int
}

// QueryGetMemberCatalog fetches the active items and the member's balance concurrently.
// PRE: the member class is authenticated
// POST: Affordable is false for every entry when the balance is unknown
func QueryGetMemberCatalog(ctx context.Context, deps GetMemberCatalogDeps) (GetMemberCatalogResult, error) {
	var (
		card  domainMember.Card
		items []domainItem.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		card, err = deps.Cards.MemberInfo(gctx)
		return err
	})
	g.Go(func() (err error) {
		items, err = deps.Catalog.MemberItems(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return GetMemberCatalogResult{}, err
	}

	res := GetMemberCatalogResult{Balance: card.TotalPoints, Entries: make([]CatalogEntry, 0, len(items))}
	for _, it := range items {
		if !it.Active {
			continue
		}
		ok := card.TotalPoints != nil && it.Affordable(*card.TotalPoints)
		if ok {
			res.Affordable++
		}
		res.Entries = append(res.Entries, CatalogEntry{Item: it, Affordable: ok})
	}
	return res, nil
}
