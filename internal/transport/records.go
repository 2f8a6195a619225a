// Package transport implements the line-oriented request/response wire
// protocol and the record codecs for the four inbound and six outbound
// feeds.
package transport

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/booking"
	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/execution"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
	"github.com/ndrandal/bond-backoffice/internal/gui"
	"github.com/ndrandal/bond-backoffice/internal/inquiry"
	"github.com/ndrandal/bond-backoffice/internal/marketdata"
	"github.com/ndrandal/bond-backoffice/internal/pricing"
	"github.com/ndrandal/bond-backoffice/internal/risk"
	"github.com/ndrandal/bond-backoffice/internal/streaming"
)

func splitFields(line string, n int) ([]string, error) {
	fields := strings.Split(line, ",")
	if len(fields) != n {
		return nil, fmt.Errorf("transport: %w: expected %d fields, got %d in %q", fabric.ErrMalformedRecord, n, len(fields), line)
	}
	return fields, nil
}

// DecodePrice parses a `cusip,price,spread-digit` inbound price record.
func DecodePrice(cat *catalog.Catalog, line string) (pricing.Price[catalog.Bond], error) {
	fields, err := splitFields(line, 3)
	if err != nil {
		return pricing.Price[catalog.Bond]{}, err
	}
	entry, err := cat.Lookup(fields[0])
	if err != nil {
		return pricing.Price[catalog.Bond]{}, err
	}
	mid, err := pricing.DecodeFractional(fields[1])
	if err != nil {
		return pricing.Price[catalog.Bond]{}, err
	}
	if len(fields[2]) != 1 {
		return pricing.Price[catalog.Bond]{}, fmt.Errorf("transport: %w: spread digit must be one character, got %q", fabric.ErrMalformedRecord, fields[2])
	}
	spread, err := pricing.DecodeSpreadDigit(fields[2][0])
	if err != nil {
		return pricing.Price[catalog.Bond]{}, err
	}
	return pricing.Price[catalog.Bond]{Product: entry.Bond, Mid: mid, BidOfferSpread: spread}, nil
}

// DecodeTrade parses a `cusip,tradeId,book,price,side,quantity` inbound
// trade record.
func DecodeTrade(cat *catalog.Catalog, line string) (booking.Trade[catalog.Bond], error) {
	fields, err := splitFields(line, 6)
	if err != nil {
		return booking.Trade[catalog.Bond]{}, err
	}
	entry, err := cat.Lookup(fields[0])
	if err != nil {
		return booking.Trade[catalog.Bond]{}, err
	}
	price, err := decimal.NewFromString(fields[3])
	if err != nil {
		return booking.Trade[catalog.Bond]{}, fmt.Errorf("transport: %w: bad price %q", fabric.ErrMalformedRecord, fields[3])
	}
	qty, err := decimal.NewFromString(fields[5])
	if err != nil {
		return booking.Trade[catalog.Bond]{}, fmt.Errorf("transport: %w: bad quantity %q", fabric.ErrMalformedRecord, fields[5])
	}
	var side catalog.TradeSide
	switch fields[4] {
	case "BUY":
		side = catalog.TradeBuy
	case "SELL":
		side = catalog.TradeSell
	default:
		return booking.Trade[catalog.Bond]{}, fmt.Errorf("transport: %w: bad trade side %q", fabric.ErrMalformedRecord, fields[4])
	}
	return booking.Trade[catalog.Bond]{
		Product:  entry.Bond,
		TradeID:  fields[1],
		Book:     booking.Book(fields[2]),
		Price:    price,
		Quantity: qty,
		Side:     side,
	}, nil
}

// quantityAtLevel returns L·1,000,000 for 1-indexed level L.
func quantityAtLevel(level int) decimal.Decimal {
	return decimal.NewFromInt(int64(level) * 1_000_000)
}

// DecodeMarketData parses a `cusip,b1..b5,o1..o5` inbound market-data
// record: five bid levels (tightest last in the wire, so reversed into a
// best-first in-memory stack) and five offer levels (tightest first on
// the wire already).
func DecodeMarketData(cat *catalog.Catalog, line string) (marketdata.OrderBook[catalog.Bond], error) {
	fields, err := splitFields(line, 11)
	if err != nil {
		return marketdata.OrderBook[catalog.Bond]{}, err
	}
	entry, err := cat.Lookup(fields[0])
	if err != nil {
		return marketdata.OrderBook[catalog.Bond]{}, err
	}

	bidWire := fields[1:6]
	offerWire := fields[6:11]

	bids := make([]marketdata.Order, 5)
	for i := 0; i < 5; i++ {
		// wire bid i is tightest-last; in-memory index 0 must be best
		// (tightest), so level L=5-i maps to wire index i.
		price, err := decimal.NewFromString(bidWire[i])
		if err != nil {
			return marketdata.OrderBook[catalog.Bond]{}, fmt.Errorf("transport: %w: bad bid price %q", fabric.ErrMalformedRecord, bidWire[i])
		}
		level := 5 - i
		bids[level-1] = marketdata.Order{Price: price, Quantity: quantityAtLevel(level), Side: catalog.SideBid}
	}

	offers := make([]marketdata.Order, 5)
	for i := 0; i < 5; i++ {
		price, err := decimal.NewFromString(offerWire[i])
		if err != nil {
			return marketdata.OrderBook[catalog.Bond]{}, fmt.Errorf("transport: %w: bad offer price %q", fabric.ErrMalformedRecord, offerWire[i])
		}
		level := i + 1
		offers[level-1] = marketdata.Order{Price: price, Quantity: quantityAtLevel(level), Side: catalog.SideOffer}
	}

	return marketdata.OrderBook[catalog.Bond]{Product: entry.Bond, Bids: bids, Offers: offers}, nil
}

// DecodeInquiry parses an `inquiryId,cusip,side` inbound inquiry record;
// quantity and price default to zero, state to RECEIVED.
func DecodeInquiry(cat *catalog.Catalog, line string) (inquiry.Inquiry[catalog.Bond], error) {
	fields, err := splitFields(line, 3)
	if err != nil {
		return inquiry.Inquiry[catalog.Bond]{}, err
	}
	entry, err := cat.Lookup(fields[1])
	if err != nil {
		return inquiry.Inquiry[catalog.Bond]{}, err
	}
	var side catalog.Side
	switch fields[2] {
	case "BID":
		side = catalog.SideBid
	case "OFFER":
		side = catalog.SideOffer
	default:
		return inquiry.Inquiry[catalog.Bond]{}, fmt.Errorf("transport: %w: bad inquiry side %q", fabric.ErrMalformedRecord, fields[2])
	}
	return inquiry.Inquiry[catalog.Bond]{
		InquiryID: fields[0],
		Product:   entry.Bond,
		Side:      side,
		Quantity:  decimal.Zero,
		Price:     decimal.Zero,
		State:     inquiry.Received,
	}, nil
}

func tsPrefix(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// EncodePosition renders `ts,cusip,q_TRSY1,q_TRSY2,q_TRSY3,aggregate`.
func EncodePosition(t time.Time, productID string, books map[booking.Book]decimal.Decimal, aggregate decimal.Decimal) string {
	return fmt.Sprintf("%s,%s,%s,%s,%s,%s",
		tsPrefix(t), productID,
		books[booking.TRSY1].String(), books[booking.TRSY2].String(), books[booking.TRSY3].String(),
		aggregate.String())
}

// EncodeRisk renders `ts,cusip,total_pv01`.
func EncodeRisk(t time.Time, r risk.PV01[catalog.Bond]) string {
	return fmt.Sprintf("%s,%s,%s", tsPrefix(t), r.Product.ProductID(), r.TotalPV01.String())
}

// EncodeExecution renders
// `ts,cusip,orderId,MARKET,side,price,visibleQty,hiddenQty`, rendering
// BID/OFFER as BUY/SELL.
func EncodeExecution(t time.Time, e execution.ExecutionOrder[catalog.Bond]) string {
	side := "BUY"
	if e.Side == catalog.SideOffer {
		side = "SELL"
	}
	return fmt.Sprintf("%s,%s,%s,MARKET,%s,%s,%s,%s",
		tsPrefix(t), e.Product.ProductID(), e.OrderID, side,
		e.Price.String(), e.VisibleQuantity.String(), e.HiddenQuantity.String())
}

// EncodeStreaming renders `ts,cusip,bidPrice,offerPrice` with prices in
// fractional notation.
func EncodeStreaming(t time.Time, ps streaming.PriceStream[catalog.Bond]) string {
	return fmt.Sprintf("%s,%s,%s,%s", tsPrefix(t), ps.Product.ProductID(),
		pricing.EncodeFractional(ps.Bid.Price), pricing.EncodeFractional(ps.Offer.Price))
}

// EncodeGUI renders `ts,cusip,mid,spread`.
func EncodeGUI(g gui.Tick[catalog.Bond]) string {
	return fmt.Sprintf("%s,%s,%s,%s", tsPrefix(g.Timestamp), g.Product.ProductID(), g.Mid.String(), g.Spread.String())
}

// EncodeAllInquiries renders `ts,cusip,price,state` with state ∈
// {DONE,REJECTED}, price in fractional notation.
func EncodeAllInquiries(t time.Time, inq inquiry.Inquiry[catalog.Bond]) string {
	return fmt.Sprintf("%s,%s,%s,%s", tsPrefix(t), inq.Product.ProductID(), pricing.EncodeFractional(inq.Price), string(inq.State))
}
