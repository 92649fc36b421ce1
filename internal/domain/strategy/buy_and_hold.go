package strategy

import "github.com/alejandrodnm/stratbench/internal/domain"

// BuyAndHold compra una única vez en la primera llamada y mantiene para siempre.
// Es la referencia contra la que se miden las demás.
type BuyAndHold struct {
	hasBought bool
}

// NewBuyAndHold crea la estrategia base.
func NewBuyAndHold() *BuyAndHold {
	return &BuyAndHold{}
}

func (s *BuyAndHold) Name() string { return "Buy & Hold" }

func (s *BuyAndHold) Description() string {
	return "Buy once at the start and hold forever. No analysis at all, yet often hard to beat."
}

func (s *BuyAndHold) CalculateSignal(history []float64) (domain.Signal, error) {
	if !s.hasBought && len(history) > 0 {
		s.hasBought = true
		return domain.SignalBuy, nil
	}
	return domain.SignalHold, nil
}

// Reset permite reutilizar la instancia en otra corrida.
func (s *BuyAndHold) Reset() {
	s.hasBought = false
}
