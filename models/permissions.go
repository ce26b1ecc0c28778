package models

// Page is a route of the admin UI that can be granted to a user.
type Page struct {
	Path  string
	Label string
}

// Pages lists every grantable page, in menu order.
var Pages = []Page{
	{"/", "Tableau de Bord"},
	{"/products", "Produits"},
	{"/stock", "Gestion Stock"},
	{"/stock-movements", "Mouvements Stock"},
	{"/interventions", "Interventions"},
	{"/installations", "Installations"},
	{"/clients", "Clients"},
	{"/quotes", "Devis"},
	{"/invoices", "Factures"},
	{"/proforma-invoices", "Pro Forma"},
	{"/expenses", "Dépenses"},
	{"/users", "Utilisateurs"},
}

// DefaultPages returns the pages a role always has. They cannot be removed.
func DefaultPages(role string) []string {
	switch role {
	case RoleAdmin:
		out := make([]string, len(Pages))
		for i, p := range Pages {
			out[i] = p.Path
		}
		return out
	case RoleTechnician:
		return []string{"/", "/interventions"}
	default:
		return []string{"/clients", "/interventions"}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// CanRemovePage is false for the role defaults.
func CanRemovePage(role, page string) bool {
	return !contains(DefaultPages(role), page)
}

// AdditionalPages keeps only what goes beyond the role defaults. This is what the
// backend stores in page_permissions; an empty slice means defaults only.
func AdditionalPages(role string, selected []string) []string {
	defaults := DefaultPages(role)
	out := []string{}
	for _, p := range selected {
		if !contains(defaults, p) && !contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// EffectivePages is the role defaults plus the additional grants.
func EffectivePages(role string, additional []string) []string {
	out := DefaultPages(role)
	for _, p := range additional {
		if !contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// CanAccess reports whether the signed-in user may open page.
func (u AuthUser) CanAccess(page string) bool {
	return contains(EffectivePages(u.Role, u.PagePermissions), page)
}
