package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/climabot/internal/domain"
)

// Storage persiste los resultados de cada ciclo de escaneo.
type Storage interface {
	// SaveScan persiste las oportunidades y los planes de cobertura
	// encontrados en un ciclo.
	SaveScan(ctx context.Context, opportunities []domain.Opportunity, plans []domain.HedgePlan) error

	// GetHistory devuelve las oportunidades registradas en el rango dado.
	GetHistory(ctx context.Context, from, to time.Time) ([]domain.Opportunity, error)

	// GetHedgePlans devuelve los planes registrados en el rango dado.
	GetHedgePlans(ctx context.Context, from, to time.Time) ([]domain.HedgePlan, error)

	// Prune elimina registros anteriores al instante dado.
	Prune(ctx context.Context, before time.Time) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
