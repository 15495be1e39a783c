package catalog

import "strings"

// VisibleCatalog maps the configured catalog and a user's groups to the
// subset that user may see. Pure function: no I/O, no mutation of inputs.
//
// Per category, in the caller-supplied order: a category with no
// applications is skipped; membership in any of its admin groups unlocks
// every application in it; otherwise an application is visible when its
// groups list is empty (public) or intersects the user's groups. Categories
// whose filtered list comes out empty are dropped.
func VisibleCatalog(categories []Category, byID map[string]CategoryData, userGroups []string) []CategoryWithApps {
	result := make([]CategoryWithApps, 0, len(categories))

	for _, category := range categories {
		data, ok := byID[category.ID]
		if !ok || len(data.Apps) == 0 {
			continue
		}

		if intersects(data.AdminGroups, userGroups) {
			result = append(result, CategoryWithApps{Category: category, Apps: append([]Application(nil), data.Apps...)})
			continue
		}

		accessible := make([]Application, 0, len(data.Apps))
		for _, app := range data.Apps {
			if len(app.Groups) == 0 || intersects(app.Groups, userGroups) {
				accessible = append(accessible, app)
			}
		}
		if len(accessible) > 0 {
			result = append(result, CategoryWithApps{Category: category, Apps: accessible})
		}
	}

	return result
}

// Search returns the visible applications whose name or description
// contains the query, case-insensitively. It composes VisibleCatalog and so
// can never surface an entry the caller's groups do not allow.
func Search(query string, categories []Category, byID map[string]CategoryData, userGroups []string) []Application {
	lowerQuery := strings.ToLower(query)

	results := make([]Application, 0)
	for _, section := range VisibleCatalog(categories, byID, userGroups) {
		for _, app := range section.Apps {
			if strings.Contains(strings.ToLower(app.Name), lowerQuery) ||
				strings.Contains(strings.ToLower(app.Description), lowerQuery) {
				results = append(results, app)
			}
		}
	}
	return results
}

func intersects(groups, userGroups []string) bool {
	for _, group := range groups {
		for _, userGroup := range userGroups {
			if group == userGroup {
				return true
			}
		}
	}
	return false
}
