package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
)

// BrowserTest provides a playwright browser and page for UI testing
type BrowserTest struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	Page    playwright.Page
	t       *testing.T
}

// NewBrowserTest launches a headless Chromium and opens a blank page.
func NewBrowserTest(t *testing.T) (*BrowserTest, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(os.Getenv("HAC_HEADED") == ""),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	page, err := browser.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	return &BrowserTest{
		pw:      pw,
		browser: browser,
		Page:    page,
		t:       t,
	}, nil
}

// Close cleans up browser resources
func (bt *BrowserTest) Close() error {
	var errs []error
	if bt.Page != nil {
		if err := bt.Page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close page: %w", err))
		}
	}
	if bt.browser != nil {
		if err := bt.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if bt.pw != nil {
		if err := bt.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during cleanup: %v", errs)
	}
	return nil
}

// CaptureDebugInfo writes a full-page screenshot and the page HTML under
// dir, named after the running test and reason.
func (bt *BrowserTest) CaptureDebugInfo(dir, reason string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		bt.t.Logf("⚠ Failed to create debug directory: %v", err)
		return
	}

	base := fmt.Sprintf("%s-%s-%s", sanitizeFileName(bt.t.Name()), reason, time.Now().Format("20060102-150405"))

	screenshotPath := filepath.Join(dir, base+".png")
	if _, err := bt.Page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(screenshotPath),
		FullPage: playwright.Bool(true),
	}); err != nil {
		bt.t.Logf("⚠ Failed to capture screenshot: %v", err)
	} else {
		bt.t.Logf("📸 Screenshot saved: %s", screenshotPath)
	}

	content, err := bt.Page.Content()
	if err != nil {
		bt.t.Logf("⚠ Failed to capture HTML: %v", err)
		return
	}
	htmlPath := filepath.Join(dir, base+".html")
	if err := os.WriteFile(htmlPath, []byte(content), 0o644); err != nil {
		bt.t.Logf("⚠ Failed to write HTML file: %v", err)
		return
	}
	bt.t.Logf("📄 HTML saved: %s (%d bytes)", htmlPath, len(content))
}

func sanitizeFileName(name string) string {
	out := []rune(name)
	for i, r := range out {
		switch r {
		case '/', '\\', ' ', ':':
			out[i] = '_'
		}
	}
	return string(out)
}

// EnsurePlaywrightInstalled checks that playwright and its browsers are
// available, installing them on first use. The test is skipped when
// installation is not possible, e.g. in an offline sandbox.
func EnsurePlaywrightInstalled(t *testing.T) {
	t.Helper()
	pw, err := playwright.Run()
	if err != nil {
		t.Logf("Playwright not available, attempting to install...")
		if installErr := playwright.Install(); installErr != nil {
			t.Skipf("Playwright unavailable (%v). Run: go run github.com/playwright-community/playwright-go/cmd/playwright@latest install --with-deps", installErr)
		}
		pw, err = playwright.Run()
		require.NoError(t, err, "Failed to start Playwright after installation")
	}
	if pw != nil {
		pw.Stop()
	}
}
