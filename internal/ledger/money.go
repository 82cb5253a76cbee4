package ledger

import "github.com/shopspring/decimal"

// money.go - денежные правила леджера
//
// Единственное место в репе, где выполняется округление сумм.
// Правило одно для всех путей вызова: округлить брутто, округлить
// комиссию от округлённого брутто, вычесть. Промежуточные произведения
// не округляются.

// Масштабы фиксированной точности
const (
	// ScaleMoney - кассовый актив ведётся в целых единицах
	ScaleMoney int32 = 0
	// ScaleAsset - торгуемые активы ведутся с точностью 8 знаков
	ScaleAsset int32 = 8
)

// feeRate - комиссия 0.1%, фиксированная константа системы
var feeRate = decimal.New(1, -3)

// RoundMoney округляет сумму кассового актива до целых единиц.
// decimal.Round для положительных значений - это half-up.
func RoundMoney(v decimal.Decimal) decimal.Decimal {
	return v.Round(ScaleMoney)
}

// RoundQty округляет количество торгуемого актива до 8 знаков (half-up)
func RoundQty(v decimal.Decimal) decimal.Decimal {
	return v.Round(ScaleAsset)
}

// Amounts - суммы одного расчёта в кассовом активе
type Amounts struct {
	Gross decimal.Decimal // округлённое брутто: price x qty
	Fee   decimal.Decimal // округлённая комиссия от брутто
	Net   decimal.Decimal // gross - fee: списывается у покупателя, зачисляется продавцу
}

// ComputeAmounts считает брутто, комиссию и нетто для расчёта по цене
// исполнения и количеству. Округление применяется один раз на денежной
// границе: сначала брутто, затем комиссия от уже округлённого брутто.
func ComputeAmounts(price, qty decimal.Decimal) Amounts {
	gross := RoundMoney(price.Mul(qty))
	fee := RoundMoney(gross.Mul(feeRate))
	return Amounts{
		Gross: gross,
		Fee:   fee,
		Net:   gross.Sub(fee),
	}
}
