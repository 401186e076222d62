package ports

import (
	"context"

	"github.com/alejandrodnm/climabot/internal/domain"
)

// Notifier presenta los resultados del ciclo al usuario.
type Notifier interface {
	// Notify muestra las oportunidades ordenadas por edge y los planes de
	// cobertura. En la implementación de consola, imprime tablas formateadas.
	Notify(ctx context.Context, opportunities []domain.Opportunity, plans []domain.HedgePlan) error
}
