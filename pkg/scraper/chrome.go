package scraper

import (
	"context"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// newBrowserAllocator launches one headless Chrome process for a whole
// scrape batch. Every page renders as a tab of this browser, so the
// per-page timeout covers navigation only, never process startup.
func newBrowserAllocator(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
	)
	return chromedp.NewExecAllocator(ctx, opts...)
}

// renderChrome renders one page in a fresh tab of the batch browser.
// The tab context is cancelled on every exit path; the per-page timeout
// arrives through ctx.
func renderChrome(ctx context.Context, pageURL string) (string, string, string, error) {
	tabCtx, cancelTab := chromedp.NewContext(ctx)
	defer cancelTab()

	blockStaticResources(tabCtx)

	var title, html, text string
	err := chromedp.Run(tabCtx,
		fetch.Enable(),
		chromedp.Navigate(pageURL),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Text("body", &text, chromedp.ByQuery),
	)
	if err != nil {
		return "", "", "", err
	}

	return title, html, text, nil
}

// blockStaticResources aborts image, stylesheet, font and media requests
// before they hit the network. Pages load faster and lighter; text
// content is unaffected.
func blockStaticResources(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev any) {
		e, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			ectx := cdp.WithExecutor(tabCtx, c.Target)
			switch e.ResourceType {
			case network.ResourceTypeImage,
				network.ResourceTypeStylesheet,
				network.ResourceTypeFont,
				network.ResourceTypeMedia:
				_ = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(ectx)
			default:
				_ = fetch.ContinueRequest(e.RequestID).Do(ectx)
			}
		}()
	})
}

// cleanHTML strips boilerplate from rendered HTML. An empty return means
// readability found no article content; callers fall back to the page's
// visible text.
func cleanHTML(html string, pageURL string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		return ""
	}

	var builder strings.Builder
	if err := article.RenderText(&builder); err != nil {
		return ""
	}
	return strings.TrimSpace(builder.String())
}
