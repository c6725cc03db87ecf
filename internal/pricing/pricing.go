// Package pricing derives the minimum legal sale price and the realized
// margin for a candidate price. Everything here is pure: the caller
// resolves regional rates first, the functions only do arithmetic.
//
// Failures in this package are domain errors, not business rejections.
// They abort the request instead of producing a verdict.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrDegenerateTaxRate = errors.New("degenerate_tax_rate")
	ErrDegenerateMargin  = errors.New("degenerate_margin")
	ErrNonPositivePrice  = errors.New("non_positive_price")
)

// RateCard is the regional figure set selected for one product+region:
// cost (cmg), regional tax fraction (aliq) and federal tax fraction
// (piscofins).
type RateCard struct {
	CMG       decimal.Decimal
	Aliq      decimal.Decimal
	PisCofins decimal.Decimal
}

var one = decimal.NewFromInt(1)

// TaxFraction is the combined regional and federal tax fraction.
func (r RateCard) TaxFraction() decimal.Decimal {
	return r.Aliq.Add(r.PisCofins)
}

// MinimumPrice computes the lowest sale price that still covers cost,
// taxes, and the subgroup margin fraction:
//
//	min = (cmg / (1 - (aliq + piscofins))) / (1 - margin)
//
// A combined tax fraction or margin fraction >= 1 would drive the
// denominator to zero or below and yields a domain error.
func MinimumPrice(rate RateCard, marginFraction decimal.Decimal) (decimal.Decimal, error) {
	taxes := rate.TaxFraction()
	if taxes.GreaterThanOrEqual(one) {
		return decimal.Decimal{}, ErrDegenerateTaxRate
	}
	if marginFraction.GreaterThanOrEqual(one) {
		return decimal.Decimal{}, ErrDegenerateMargin
	}

	costBasis := rate.CMG.Div(one.Sub(taxes))
	return costBasis.Div(one.Sub(marginFraction)), nil
}

// RealizedMargin computes the margin fraction obtained at a candidate
// price after tax deductions:
//
//	margin = (price*(1-taxes) - cmg) / (price*(1-taxes))
//
// The result may be negative when the candidate price is below cost.
func RealizedMargin(candidatePrice decimal.Decimal, rate RateCard) (decimal.Decimal, error) {
	if candidatePrice.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, ErrNonPositivePrice
	}
	taxes := rate.TaxFraction()
	if taxes.GreaterThanOrEqual(one) {
		return decimal.Decimal{}, ErrDegenerateTaxRate
	}

	net := candidatePrice.Mul(one.Sub(taxes))
	return net.Sub(rate.CMG).Div(net), nil
}

// AbsoluteMargin computes the per-unit currency margin at a candidate
// price, used when a policy ceiling is expressed as an absolute amount.
func AbsoluteMargin(candidatePrice decimal.Decimal, rate RateCard) (decimal.Decimal, error) {
	if candidatePrice.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, ErrNonPositivePrice
	}
	taxes := rate.TaxFraction()
	if taxes.GreaterThanOrEqual(one) {
		return decimal.Decimal{}, ErrDegenerateTaxRate
	}

	return candidatePrice.Mul(one.Sub(taxes)).Sub(rate.CMG), nil
}

// IsDomainErr reports whether err belongs to the calculator taxonomy.
// Validators use it to tell hard failures from business rejections.
func IsDomainErr(err error) bool {
	return errors.Is(err, ErrDegenerateTaxRate) ||
		errors.Is(err, ErrDegenerateMargin) ||
		errors.Is(err, ErrNonPositivePrice)
}
