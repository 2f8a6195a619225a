package pricing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/fabric"
)

var (
	thirtyTwo   = decimal.NewFromInt(32)
	twoFiftySix = decimal.NewFromInt(256)
)

// EncodeFractional renders price in Treasury fractional notation,
// I-XYZ = I + XY/32 + Z/256. XY is always written as two
// zero-padded digits; Z is always written as a single digit 0-7 (this
// repo never emits the "+" convention for Z=4, though DecodeFractional
// accepts it on input).
func EncodeFractional(price decimal.Decimal) string {
	i := price.Floor()
	frac := price.Sub(i)

	xy := frac.Mul(thirtyTwo).Floor()
	afterXY := frac.Sub(xy.Div(thirtyTwo))
	z := afterXY.Mul(twoFiftySix).Floor()

	return fmt.Sprintf("%s-%02d%d", i.String(), xy.IntPart(), z.IntPart())
}

// DecodeFractional parses Treasury fractional notation back into a
// decimal price. A "+" in the Z position is accepted as shorthand for 4
// (half of a 32nd).
func DecodeFractional(s string) (decimal.Decimal, error) {
	dash := strings.IndexByte(s, '-')
	if dash < 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: fractional price %q has no '-'", fabric.ErrMalformedRecord, s)
	}

	whole, frac := s[:dash], s[dash+1:]
	if len(frac) != 3 {
		return decimal.Decimal{}, fmt.Errorf("%w: fractional price %q must have 3 digits after '-'", fabric.ErrMalformedRecord, s)
	}

	i, err := decimal.NewFromString(whole)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: fractional price %q: %v", fabric.ErrMalformedRecord, s, err)
	}

	xy, err := strconv.Atoi(frac[:2])
	if err != nil || xy < 0 || xy > 31 {
		return decimal.Decimal{}, fmt.Errorf("%w: fractional price %q: XY out of range", fabric.ErrMalformedRecord, s)
	}

	var z int
	if frac[2] == '+' {
		z = 4
	} else {
		zDigit, err := strconv.Atoi(frac[2:3])
		if err != nil || zDigit < 0 || zDigit > 7 {
			return decimal.Decimal{}, fmt.Errorf("%w: fractional price %q: Z out of range", fabric.ErrMalformedRecord, s)
		}
		z = zDigit
	}

	result := i.
		Add(decimal.NewFromInt(int64(xy)).Div(thirtyTwo)).
		Add(decimal.NewFromInt(int64(z)).Div(twoFiftySix))
	return result, nil
}

// DecodeSpreadDigit converts a single spread digit d (0-9) into a
// decimal spread d/128.
func DecodeSpreadDigit(digit byte) (decimal.Decimal, error) {
	if digit < '0' || digit > '9' {
		return decimal.Decimal{}, fmt.Errorf("%w: spread digit %q out of range", fabric.ErrMalformedRecord, digit)
	}
	d := int64(digit - '0')
	return decimal.NewFromInt(d).Div(decimal.NewFromInt(128)), nil
}

// EncodeSpreadDigit is the inverse of DecodeSpreadDigit, rounding to the
// nearest representable 1/128th.
func EncodeSpreadDigit(spread decimal.Decimal) byte {
	d := spread.Mul(decimal.NewFromInt(128)).Round(0).IntPart()
	if d < 0 {
		d = 0
	}
	if d > 9 {
		d = 9
	}
	return byte('0' + d)
}
