package scanner

// concurrent.go — worker pool para escanear grupos correlacionados en paralelo.
//
// Cada grupo requiere su propio fetch de observaciones; escanearlos en
// paralelo acota el tiempo de ciclo por el grupo más lento en vez de por
// la suma de todos.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/climabot/internal/domain"
)

// groupResult es el resultado de escanear un grupo correlacionado.
type groupResult struct {
	opportunities []domain.Opportunity
	plan          domain.HedgePlan
	hasPlan       bool
}

// scanGroupsConcurrent escanea todos los grupos en paralelo usando un worker
// pool. Los errores de un grupo se loguean y no tumban el ciclo: los demás
// grupos siguen adelante.
//
// Si workers <= 0 usa runtime.NumCPU() × 2.
func scanGroupsConcurrent(ctx context.Context, s *Scanner, groups []marketGroup, workers int) []groupResult {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	workCh := make(chan marketGroup, len(groups))
	resultCh := make(chan groupResult, len(groups))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range workCh {
				res, err := s.scanGroup(ctx, g)
				if err != nil {
					slog.Warn("group scan failed", "group", g.key, "err", err)
					continue
				}
				resultCh <- res
			}
		}()
	}

	for _, g := range groups {
		workCh <- g
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]groupResult, 0, len(groups))
	for res := range resultCh {
		results = append(results, res)
	}

	slog.Debug("concurrent group scan complete",
		"groups", len(groups),
		"scanned", len(results),
		"workers", workers,
	)

	return results
}
