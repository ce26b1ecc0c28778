package facade

import (
	"context"
	"net/http"

	"gestion-admin/client"
	"gestion-admin/models"
	"gestion-admin/notify"
)

func newExpenses(api *client.Client, note *notify.Notifier) *Resource[models.Expense] {
	return NewResource(api, note, Config[models.Expense]{
		Path:               "/api/expenses/",
		ID:                 func(e models.Expense) int { return e.ID },
		Update:             http.MethodPut,
		Delete:             SoftDeleteEndpoint,
		Insert:             Prepend,
		QuietNetworkErrors: true,
		Messages: Messages{
			Created:      "Dépense créée avec succès",
			Updated:      "Dépense modifiée avec succès",
			Deleted:      "Dépense supprimée avec succès",
			LoadFailed:   "Erreur lors du chargement des dépenses",
			CreateFailed: "Erreur lors de la création de la dépense",
			UpdateFailed: "Erreur lors de la modification de la dépense",
			DeleteFailed: "Erreur lors de la suppression de la dépense",
		},
	})
}

func newClients(api *client.Client, note *notify.Notifier) *Resource[models.Client] {
	return NewResource(api, note, Config[models.Client]{
		Path:   "/api/auth/clients/",
		ID:     func(c models.Client) int { return c.ID },
		Update: http.MethodPut,
		Delete: StandardDelete,
		Insert: Prepend,
		Messages: Messages{
			Created:      "Client créé avec succès",
			Updated:      "Client modifié avec succès",
			Deleted:      "Client supprimé avec succès",
			LoadFailed:   "Erreur lors du chargement des clients",
			CreateFailed: "Erreur lors de la création du client",
			UpdateFailed: "Erreur lors de la modification du client",
			DeleteFailed: "Erreur lors de la suppression du client",
		},
	})
}

// Users sends only the pages granted beyond the role defaults.
type Users struct {
	*Resource[models.User]
}

func newUsers(api *client.Client, note *notify.Notifier) *Users {
	return &Users{NewResource(api, note, Config[models.User]{
		Path:   "/api/auth/users/",
		ID:     func(u models.User) int { return u.ID },
		Update: http.MethodPut,
		Delete: StandardDelete,
		Insert: Prepend,
		Messages: Messages{
			Created:      "Utilisateur créé avec succès",
			Updated:      "Utilisateur modifié avec succès",
			Deleted:      "Utilisateur supprimé avec succès",
			LoadFailed:   "Erreur lors du chargement des utilisateurs",
			CreateFailed: "Erreur lors de la création de l'utilisateur",
			UpdateFailed: "Erreur lors de la modification de l'utilisateur",
			DeleteFailed: "Erreur lors de la suppression de l'utilisateur",
		},
	})}
}

func withPagePermissions(u models.User) models.User {
	role := u.RoleWrite
	if role == "" {
		role = u.EffectiveRole()
	}
	u.RoleWrite = role
	u.PagePermissions = models.AdditionalPages(role, u.PagePermissions)
	return u
}

// Add creates a user. PagePermissions may list every selected page; defaults are dropped.
func (us *Users) Add(ctx context.Context, u models.User) (models.User, error) {
	return us.Resource.Add(ctx, withPagePermissions(u))
}

func (us *Users) Update(ctx context.Context, id int, u models.User) (models.User, error) {
	return us.Resource.Update(ctx, id, withPagePermissions(u))
}
