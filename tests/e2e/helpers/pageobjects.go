package helpers

import "fmt"

// NavItem is the semantic key of a side-navigation entry.
type NavItem string

const (
	NavApplications NavItem = "applications"
	NavSnapshots    NavItem = "snapshots"
)

// ConsentButton is the cookie-consent banner button injected by the
// hosting portal. It is absent on most deployments.
const ConsentButton = "#truste-consent-button"

// LoadingIndicators are waited on until none of them is attached.
var LoadingIndicators = []string{
	`[data-test="loading-indicator"]`,
	".pf-c-spinner",
}

// SideNavigation returns the selector of the side-navigation link for item.
func SideNavigation(item NavItem) string {
	return fmt.Sprintf(`[data-test="nav-item-%s"]`, item)
}

// RowSelector returns the selector of the table row identified by id.
func RowSelector(id string) string {
	return fmt.Sprintf(`[data-id=%q]`, id)
}
