// Package catalog holds the static bond reference data the rest of the
// pipeline is parameterized over.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/fabric"
)

// Product is the type constraint every service in this module is
// parameterized over. The shipped binary instantiates every service
// only for Bond, but nothing in fabric, pricing, execution, etc.
// mentions Bond by name.
type Product interface {
	comparable
	ProductID() string
}

// Bond is the single Product this repository ships. Immutable after
// catalog load.
type Bond struct {
	CUSIP          string
	IdentifierKind string
	Ticker         string
	CouponRate     decimal.Decimal
	Maturity       time.Time
}

// ProductID satisfies Product.
func (b Bond) ProductID() string { return b.CUSIP }

// Sector buckets the curve the way a rates desk does: short end, belly,
// long end. RiskService.GetBucketedRisk aggregates PV01 within a sector.
type Sector string

const (
	SectorShort Sector = "short"
	SectorBelly Sector = "belly"
	SectorLong  Sector = "long"
)

// Entry pairs a Bond with its per-unit PV01 and curve sector — the
// information the catalog owns that Bond itself does not (PV01 is a risk
// fact, not a static identifier, but both are fixed at catalog load).
type Entry struct {
	Bond   Bond
	PV01   decimal.Decimal
	Sector Sector
}

// Catalog is the process-wide bond reference data, loaded once and
// handed down explicitly. It is never mutated after New returns.
type Catalog struct {
	entries map[string]Entry
}

// New builds the fixed seven-CUSIP U.S. Treasury catalog.
func New() *Catalog {
	d := func(s string) decimal.Decimal {
		v, err := decimal.NewFromString(s)
		if err != nil {
			panic("catalog: invalid decimal literal " + s)
		}
		return v
	}
	date := func(y int, m time.Month, day int) time.Time {
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}

	entries := []Entry{
		{
			Bond:   Bond{CUSIP: "91282CAX9", IdentifierKind: "CUSIP", Ticker: "T 2Y", CouponRate: d("0.0425"), Maturity: date(2027, time.July, 31)},
			PV01:   d("0.02"),
			Sector: SectorShort,
		},
		{
			Bond:   Bond{CUSIP: "91282CBA8", IdentifierKind: "CUSIP", Ticker: "T 3Y", CouponRate: d("0.0400"), Maturity: date(2028, time.July, 31)},
			PV01:   d("0.03"),
			Sector: SectorShort,
		},
		{
			Bond:   Bond{CUSIP: "91282CBB6", IdentifierKind: "CUSIP", Ticker: "T 5Y", CouponRate: d("0.0380"), Maturity: date(2030, time.July, 31)},
			PV01:   d("0.05"),
			Sector: SectorBelly,
		},
		{
			Bond:   Bond{CUSIP: "91282CBC4", IdentifierKind: "CUSIP", Ticker: "T 7Y", CouponRate: d("0.0375"), Maturity: date(2032, time.July, 31)},
			PV01:   d("0.07"),
			Sector: SectorBelly,
		},
		{
			Bond:   Bond{CUSIP: "91282CBD2", IdentifierKind: "CUSIP", Ticker: "T 10Y", CouponRate: d("0.0360"), Maturity: date(2035, time.July, 31)},
			PV01:   d("0.10"),
			Sector: SectorBelly,
		},
		{
			Bond:   Bond{CUSIP: "912810TW8", IdentifierKind: "CUSIP", Ticker: "T 20Y", CouponRate: d("0.0410"), Maturity: date(2045, time.July, 31)},
			PV01:   d("0.20"),
			Sector: SectorLong,
		},
		{
			Bond:   Bond{CUSIP: "912810TV0", IdentifierKind: "CUSIP", Ticker: "T 30Y", CouponRate: d("0.0430"), Maturity: date(2055, time.July, 31)},
			PV01:   d("0.30"),
			Sector: SectorLong,
		},
	}

	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		c.entries[e.Bond.CUSIP] = e
	}
	return c
}

// Lookup resolves a CUSIP to its catalog entry, or fabric.ErrUnknownProduct
// if cusip is not one of the seven seeded CUSIPs.
func (c *Catalog) Lookup(cusip string) (Entry, error) {
	e, ok := c.entries[cusip]
	if !ok {
		return Entry{}, fabric.UnknownProduct(cusip)
	}
	return e, nil
}

// All returns every catalog entry, in no particular order.
func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// BySector returns every entry whose Sector matches.
func (c *Catalog) BySector(sector Sector) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Sector == sector {
			out = append(out, e)
		}
	}
	return out
}

// CUSIPs returns every catalog CUSIP, in no particular order.
func (c *Catalog) CUSIPs() []string {
	out := make([]string, 0, len(c.entries))
	for cusip := range c.entries {
		out = append(out, cusip)
	}
	return out
}
