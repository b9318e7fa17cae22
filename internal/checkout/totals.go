package checkout

import (
	"strings"

	"restaurant-order-service/internal/dto"

	"github.com/shopspring/decimal"
)

// Medios de pago
const (
	PaymentOnDelivery = "entrega"
	PaymentCard       = "cartao"
	PaymentPix        = "pix"
)

var paymentDescriptions = map[string]string{
	PaymentOnDelivery: "Pagamento na entrega",
	PaymentCard:       "Pago online com cartão de crédito",
}

const noChangeNeeded = "Não necessário"

// Subtotal suma precio × cantidad de cada línea.
func Subtotal(items []dto.CartItemDTO) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		sum = sum.Add(line)
	}
	return sum
}

// Total = subtotal + tasa de entrega.
func Total(items []dto.CartItemDTO, fee decimal.Decimal) decimal.Decimal {
	return Subtotal(items).Add(fee)
}

// MinorUnits pasa reales a centavos, como los espera el procesador.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// NormalizeTroco agrega el prefijo R$ si falta; vacío es "Não necessário".
func NormalizeTroco(troco string) string {
	troco = strings.TrimSpace(troco)
	if troco == "" {
		return noChangeNeeded
	}
	if !strings.Contains(troco, "R$") {
		return "R$" + troco
	}
	return troco
}
