package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/models"
)

// consentXPath matches the common cookie banner buttons
const consentXPath = `//button[contains(., 'Accept') or contains(., 'agree')]`

// Page is one browser tab with an outlet's cookies loaded
type Page interface {
	// Load navigates to url and returns the rendered document HTML
	Load(ctx context.Context, url string) (string, error)
	Close()
}

// PageOpener opens tabs seeded with cookies for an outlet
type PageOpener interface {
	Open(ctx context.Context, baseURL string, cookies []models.Cookie) (Page, error)
}

// BrowserConfig holds browser automation settings
type BrowserConfig struct {
	Headless       bool
	UserAgent      string
	PageWait       time.Duration
	ConsentTimeout time.Duration
	Timeout        time.Duration
}

// Browser is a shared ChromeDP browser. It starts on first use and hands out tabs.
type Browser struct {
	config BrowserConfig
	logger arbor.ILogger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewBrowser creates a Browser. Chrome is not launched until the first Open.
func NewBrowser(config BrowserConfig, logger arbor.ILogger) *Browser {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.ConsentTimeout <= 0 {
		config.ConsentTimeout = 5 * time.Second
	}
	return &Browser{config: config, logger: logger}
}

func (b *Browser) start() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		return b.browserCtx, nil
	}

	startTime := time.Now()
	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if b.config.UserAgent != "" {
		allocatorOpts = append(allocatorOpts, chromedp.UserAgent(b.config.UserAgent))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	testCtx, testCancel := context.WithTimeout(browserCtx, b.config.Timeout)
	defer testCancel()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	b.allocCancel = allocatorCancel
	b.browserCtx = browserCtx
	b.browserCancel = browserCancel

	b.logger.Info().
		Bool("headless", b.config.Headless).
		Dur("startup_time", time.Since(startTime)).
		Msg("ChromeDP browser started")

	return browserCtx, nil
}

// Open creates a tab, visits baseURL and injects cookies so later navigation is authenticated.
// The tab is closed when ctx is cancelled or Close is called.
func (b *Browser) Open(ctx context.Context, baseURL string, cookies []models.Cookie) (Page, error) {
	browserCtx, err := b.start()
	if err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	stop := context.AfterFunc(ctx, tabCancel)
	t := &tab{
		ctx:     tabCtx,
		close:   func() { stop(); tabCancel() },
		config:  b.config,
		logger:  b.logger,
		baseURL: baseURL,
	}

	openCtx, cancel := context.WithTimeout(tabCtx, b.config.Timeout)
	defer cancel()

	if err := chromedp.Run(openCtx, chromedp.Navigate(baseURL), InjectCookies(cookies, b.logger)); err != nil {
		t.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to open %s: %w", baseURL, err)
	}

	return t, nil
}

// Close shuts the browser down
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCancel != nil {
		b.browserCancel()
		b.allocCancel()
		b.browserCtx = nil
		b.browserCancel = nil
		b.allocCancel = nil
		b.logger.Debug().Msg("ChromeDP browser closed")
	}
}

type tab struct {
	ctx     context.Context
	close   func()
	config  BrowserConfig
	logger  arbor.ILogger
	baseURL string
}

func (t *tab) Load(ctx context.Context, url string) (string, error) {
	runCtx, cancel := context.WithTimeout(t.ctx, t.config.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	if t.config.PageWait > 0 {
		actions = append(actions, chromedp.Sleep(t.config.PageWait))
	}
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}

	if acceptConsent(runCtx, t.config.ConsentTimeout) {
		t.logger.Debug().Str("url", url).Msg("Accepted cookie consent prompt")
	}

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return html, nil
}

func (t *tab) Close() {
	t.close()
}

// acceptConsent clicks the first visible consent button, if one appears within timeout
func acceptConsent(ctx context.Context, timeout time.Duration) bool {
	consentCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chromedp.Run(consentCtx, chromedp.Click(consentXPath, chromedp.BySearch, chromedp.NodeVisible)) == nil
}
