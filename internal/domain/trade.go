package domain

// TradeRecord es la foto inmutable de un trade ejecutado.
// Solo se crea cuando un buy o sell realmente cambia la posición:
// un buy sin cash o un sell sin acciones no genera registro.
type TradeRecord struct {
	Date           string  `json:"date"`
	DayIndex       int     `json:"day_index"`
	Signal         Signal  `json:"signal"`
	Price          float64 `json:"price"`
	SharesBefore   float64 `json:"shares_before"`
	SharesAfter    float64 `json:"shares_after"`
	CapitalBefore  float64 `json:"capital_before"`
	CapitalAfter   float64 `json:"capital_after"`
	PortfolioValue float64 `json:"portfolio_value"`
}

// ValueBefore devuelve el valor del portfolio justo antes del trade, al precio de ejecución.
func (t TradeRecord) ValueBefore() float64 {
	return t.CapitalBefore + t.SharesBefore*t.Price
}

// ValueAfter devuelve el valor del portfolio justo después del trade.
func (t TradeRecord) ValueAfter() float64 {
	return t.CapitalAfter + t.SharesAfter*t.Price
}
