package facade

import (
	"context"
	"net/http"
	"sync"

	"gestion-admin/client"
	"gestion-admin/models"
	"gestion-admin/notify"
)

// Dashboard holds the admin statistics. Roles without access see zeroes.
type Dashboard struct {
	caller
	mu     sync.RWMutex
	stats  models.DashboardStats
	charts models.DashboardCharts
}

func newDashboard(api *client.Client, note *notify.Notifier) *Dashboard {
	return &Dashboard{
		caller: caller{api: api, note: note},
		stats:  models.EmptyDashboard(),
		charts: models.DashboardCharts{},
	}
}

// fetch decodes path into out. A 403 leaves out as it is.
func (d *Dashboard) fetch(ctx context.Context, path, fallback string, out any) error {
	resp, err := d.api.Do(ctx, http.MethodGet, path, nil)
	if err == nil && resp.StatusCode == http.StatusForbidden && ctx.Err() == nil {
		return nil
	}
	if err := d.check(ctx, resp, err, fallback); err != nil {
		return err
	}
	return resp.Decode(out)
}

func (d *Dashboard) Stats(ctx context.Context) (models.DashboardStats, error) {
	stats := models.EmptyDashboard()
	if err := d.fetch(ctx, "/api/dashboard/stats/", "Erreur lors du chargement des statistiques du dashboard", &stats); err != nil {
		return models.DashboardStats{}, err
	}
	d.mu.Lock()
	d.stats = stats
	d.mu.Unlock()
	return stats, nil
}

func (d *Dashboard) Charts(ctx context.Context) (models.DashboardCharts, error) {
	var charts models.DashboardCharts
	if err := d.fetch(ctx, "/api/dashboard/charts/", "Erreur lors du chargement des graphiques du dashboard", &charts); err != nil {
		return models.DashboardCharts{}, err
	}
	d.mu.Lock()
	d.charts = charts
	d.mu.Unlock()
	return charts, nil
}

// Cached returns the last loaded stats and charts.
func (d *Dashboard) Cached() (models.DashboardStats, models.DashboardCharts) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats, d.charts
}

func (d *Dashboard) reset() {
	d.mu.Lock()
	d.stats, d.charts = models.EmptyDashboard(), models.DashboardCharts{}
	d.mu.Unlock()
}
