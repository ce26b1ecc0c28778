package facade

import (
	"context"
	"net/http"

	"gestion-admin/client"
	"gestion-admin/models"
	"gestion-admin/notify"
)

// StockMovements are listed and appended, never edited.
type StockMovements struct {
	res *Resource[models.StockMovement]
}

func newStockMovements(api *client.Client, note *notify.Notifier, products *Products) *StockMovements {
	return &StockMovements{res: NewResource(api, note, Config[models.StockMovement]{
		Path:   "/api/stock-movements/",
		ID:     func(m models.StockMovement) int { return m.ID },
		Update: http.MethodPatch,
		Insert: Append,
		Messages: Messages{
			Created:      "Mouvement de stock créé avec succès",
			LoadFailed:   "Erreur lors du chargement des mouvements de stock",
			CreateFailed: "Erreur lors de la création du mouvement de stock",
		},
		Prepare: func(m models.StockMovement) models.StockMovement {
			if name := products.Name(m.Product); name != "" {
				m.ProductName = name
			}
			return m
		},
		AfterWrite: func(ctx context.Context) { _, _ = products.List(ctx) },
	})}
}

func (s *StockMovements) Items() []models.StockMovement { return s.res.Items() }

func (s *StockMovements) List(ctx context.Context) ([]models.StockMovement, error) {
	return s.res.List(ctx)
}

// Add records a movement, then reloads products so their quantities follow.
func (s *StockMovements) Add(ctx context.Context, m models.StockMovement) (models.StockMovement, error) {
	return s.res.Add(ctx, m)
}
