// Package pricing derives HT/TVA/TTC figures from cart lines.
//
// All arithmetic is done on decimals so sums never drift; callers round
// only when values leave the process (see RoundMoney and RoundRate).
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/DRIVN-COOK/front-office/internal/domain"
)

var hundred = decimal.NewFromInt(100)

type LineTotals struct {
	UnitHT  decimal.Decimal
	TvaPct  decimal.Decimal
	LineHT  decimal.Decimal
	LineTVA decimal.Decimal
	LineTTC decimal.Decimal
}

type Totals struct {
	LineHT  decimal.Decimal
	LineTVA decimal.Decimal
	LineTTC decimal.Decimal
}

// Parse reads a decimal-as-string value. Empty or malformed input is 0.
func Parse(s domain.DecimalString) decimal.Decimal {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func PriceHT(item domain.MenuItem) decimal.Decimal {
	return Parse(item.PriceHT)
}

func TvaPct(item domain.MenuItem) decimal.Decimal {
	return Parse(item.TvaPct)
}

// PriceTTC is the tax-inclusive unit price.
func PriceTTC(item domain.MenuItem) decimal.Decimal {
	return PriceHT(item).Mul(decimal.NewFromInt(1).Add(TvaPct(item).Div(hundred)))
}

func Line(line domain.CartLine) LineTotals {
	unit := PriceHT(line.Item)
	rate := TvaPct(line.Item)
	lineHT := unit.Mul(decimal.NewFromInt(int64(line.Qty)))
	lineTVA := lineHT.Mul(rate).Div(hundred)
	return LineTotals{
		UnitHT:  unit,
		TvaPct:  rate,
		LineHT:  lineHT,
		LineTVA: lineTVA,
		LineTTC: lineHT.Add(lineTVA),
	}
}

func Cart(lines []domain.CartLine) Totals {
	t := Totals{LineHT: decimal.Zero, LineTVA: decimal.Zero, LineTTC: decimal.Zero}
	for _, l := range lines {
		lt := Line(l)
		t.LineHT = t.LineHT.Add(lt.LineHT)
		t.LineTVA = t.LineTVA.Add(lt.LineTVA)
		t.LineTTC = t.LineTTC.Add(lt.LineTTC)
	}
	return t
}

// ItemCount is the number of units in the cart (header badge).
func ItemCount(lines []domain.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Qty
	}
	return n
}

// RoundMoney rounds an amount to cents for the wire.
func RoundMoney(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// RoundRate rounds a tax percentage to 4 places for the wire.
func RoundRate(d decimal.Decimal) float64 {
	return d.Round(4).InexactFloat64()
}
