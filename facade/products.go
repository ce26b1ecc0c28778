package facade

import (
	"context"
	"fmt"
	"net/http"

	"gestion-admin/client"
	"gestion-admin/models"
	"gestion-admin/notify"
)

const msgProductGone = "Produit introuvable ou déjà supprimé."

// Products re-lists after every write so quantities always reflect the backend.
type Products struct {
	*Resource[models.Product]
}

func newProducts(api *client.Client, note *notify.Notifier) *Products {
	base := api.BaseURL()
	return &Products{NewResource(api, note, Config[models.Product]{
		Path:          "/api/products/",
		ID:            func(p models.Product) int { return p.ID },
		Update:        http.MethodPatch,
		Delete:        SoftDeleteEndpoint,
		RelistOnWrite: true,
		Messages: Messages{
			Created:      "Produit créé avec succès",
			Updated:      "Produit modifié avec succès",
			Deleted:      "Produit supprimé avec succès",
			LoadFailed:   "Erreur lors du chargement des produits",
			CreateFailed: "Erreur lors de la création du produit",
			UpdateFailed: "Erreur lors de la modification du produit",
			DeleteFailed: "Erreur lors de la suppression du produit",
		},
		Prepare: func(p models.Product) models.Product {
			if p.Photo != "" {
				p.PhotoURL = resolveMedia(base, p.Photo)
			}
			return p
		},
		AfterList: func(items []models.Product) {
			if n := countLowStock(items); n > 0 {
				note.Warning(fmt.Sprintf("%d produit(s) en rupture de stock ou seuil d'alerte atteint.", n))
			}
		},
	})}
}

func countLowStock(items []models.Product) int {
	n := 0
	for _, p := range items {
		if p.IsLowStock() {
			n++
		}
	}
	return n
}

// LowStock lists the cached products at or under their alert threshold.
func (p *Products) LowStock() []models.Product {
	var out []models.Product
	for _, pr := range p.Items() {
		if pr.IsLowStock() {
			out = append(out, pr)
		}
	}
	return out
}

// Name returns the cached name of a product, or "".
func (p *Products) Name(id int) string {
	if pr, ok := p.Find(id); ok {
		return pr.Name
	}
	return ""
}

// Delete soft-deletes a product. A 404 means someone else removed it already: the
// list is reloaded and a specific message shown.
func (p *Products) Delete(ctx context.Context, id int) error {
	resp, err := p.sendDelete(ctx, id)
	if ctx.Err() == nil && err == nil && resp.StatusCode == http.StatusNotFound {
		_, _ = p.List(ctx)
		p.note.Error(msgProductGone)
		return &client.APIError{Status: http.StatusNotFound, Message: msgProductGone, Body: resp.Body}
	}
	return p.deleted(ctx, id, resp, err)
}
