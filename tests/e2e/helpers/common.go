// Package helpers provides navigation and assertion utilities for e2e testing
// of the console.
package helpers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/moolen/hac-console/internal/config"
	"github.com/moolen/hac-console/internal/kube"
	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/dynamic"
)

const (
	navigationTimeout = 80 * time.Second
	pageTitleTimeout  = 180 * time.Second
	rowValueTimeout   = 20 * time.Second

	// DefaultLoadTimeout bounds WaitForLoad when no timeout is given.
	DefaultLoadTimeout = 120 * time.Second
)

var workspacePathMatcher = regexp.MustCompile(`workspaces/([^/]+)`)

// Console drives the console UI through a browser page. Configuration is
// injected once and shared by every helper.
type Console struct {
	*BrowserTest
	cfg     config.Config
	dynamic dynamic.Interface
}

// NewConsole binds bt to the console described by cfg. client is used by
// CleanNamespace and may be nil when cleanup is disabled.
func NewConsole(bt *BrowserTest, cfg config.Config, client dynamic.Interface) *Console {
	return &Console{BrowserTest: bt, cfg: cfg, dynamic: client}
}

// OpenBaseURL navigates to the configured base URL.
func (c *Console) OpenBaseURL() {
	c.t.Helper()
	_, err := c.Page.Goto(c.cfg.BaseURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(30000),
	})
	require.NoError(c.t, err, "failed to open %s", c.cfg.BaseURL)
}

// NavigateTo clicks the side-navigation link for item and waits for the
// page to finish loading.
func (c *Console) NavigateTo(item NavItem) {
	c.t.Helper()
	err := c.Page.Locator(SideNavigation(item)).Click(playwright.LocatorClickOptions{
		Timeout: ms(navigationTimeout),
	})
	require.NoError(c.t, err, "failed to click navigation item %q", item)
	c.WaitForLoad(0)
}

// OpenURL navigates to target unless the page is already there.
func (c *Console) OpenURL(target string) {
	c.t.Helper()
	if c.Page.URL() == target {
		return
	}
	_, err := c.Page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(60000),
	})
	require.NoError(c.t, err, "failed to navigate to %s", target)
}

// OpenApplicationURL opens the details page of app in the workspace the
// page currently shows, then waits for its title.
func (c *Console) OpenApplicationURL(app string) {
	c.t.Helper()
	target := ApplicationURL(c.cfg.BaseURL, c.Page.URL(), app)
	c.OpenURL(target)
	c.VerifyPageTitle(app)
	c.WaitForLoad(0)
}

// ApplicationURL builds the application details URL from the workspace
// segment of currentURL. Only the first "." of app is replaced, matching
// how application names are turned into resource names on creation.
func ApplicationURL(baseURL, currentURL, app string) string {
	workspace := ""
	if m := workspacePathMatcher.FindStringSubmatch(currentURL); m != nil {
		workspace = m[1]
	}
	return fmt.Sprintf("%s/workspaces/%s/applications/%s",
		strings.TrimSuffix(baseURL, "/"), workspace, strings.Replace(app, ".", "-", 1))
}

// WaitForLoad blocks until no loading indicator is attached. A zero timeout
// means DefaultLoadTimeout.
func (c *Console) WaitForLoad(timeout time.Duration) {
	c.t.Helper()
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	for _, selector := range LoadingIndicators {
		err := c.Page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateDetached,
			Timeout: ms(timeout),
		})
		require.NoError(c.t, err, "loading indicator %s still present after %s", selector, timeout)
	}
}

// VerifyPageTitle waits until an h1 containing title is visible.
func (c *Console) VerifyPageTitle(title string) {
	c.t.Helper()
	heading := c.Page.Locator("h1", playwright.PageLocatorOptions{HasText: title})
	err := heading.First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: ms(pageTitleTimeout),
	})
	require.NoError(c.t, err, "page title %q not visible", title)
	c.t.Logf("✓ Page title %q visible", title)
}

// ClickOnConsentButton dismisses the consent banner if it is shown.
func (c *Console) ClickOnConsentButton() {
	c.t.Helper()
	button := c.Page.Locator(ConsentButton)
	count, err := button.Count()
	require.NoError(c.t, err, "failed to look up consent button")
	if count == 0 {
		return
	}
	require.NoError(c.t, button.First().Click(), "failed to click consent button")
}

// CleanNamespace removes every console resource from the configured
// namespace when cleanup is enabled.
func (c *Console) CleanNamespace() {
	c.t.Helper()
	if !c.cfg.CleanNamespace {
		c.t.Logf("Namespace cleanup disabled, skipping")
		return
	}
	require.NotNil(c.t, c.dynamic, "namespace cleanup requires a cluster client")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	deleted, err := kube.CleanNamespace(ctx, c.dynamic, c.cfg.Namespace)
	require.NoError(c.t, err, "failed to clean namespace %s", c.cfg.Namespace)
	c.t.Logf("✓ Cleaned namespace %s (%d resources deleted)", c.cfg.Namespace, deleted)
}

// GetOrigin returns scheme://host of the configured base URL.
func (c *Console) GetOrigin() string {
	c.t.Helper()
	origin, err := c.cfg.Origin()
	require.NoError(c.t, err)
	return origin
}

// CheckRowValues asserts that the row identified by locator contains every
// value.
func (c *Console) CheckRowValues(locator string, values []string) {
	c.t.Helper()
	for _, value := range values {
		cell := c.Page.Locator(RowSelector(locator), playwright.PageLocatorOptions{HasText: value})
		err := cell.First().WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: ms(rowValueTimeout),
		})
		require.NoError(c.t, err, "row %q does not contain %q", locator, value)
	}
}

// GenerateAppName returns prefix-<unix millis> with the last four
// characters of the whole string cut off. Names generated within the same
// ten seconds collide.
func GenerateAppName(prefix string) string {
	return generateAppName(prefix, time.Now())
}

func generateAppName(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = "test-app"
	}
	name := prefix + "-" + strconv.FormatInt(now.UnixMilli(), 10)
	return name[:len(name)-4]
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
