package export

import (
	"context"
	"fmt"
	"html/template"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PDFConverter renders a finished DOCX as PDF.
type PDFConverter interface {
	ConvertDOCX(ctx context.Context, data []byte, title string) ([]byte, error)
}

// ChromeConverter goes DOCX -> HTML with pandoc, wraps the fragment in the
// proposal page template and prints it with headless Chrome.
type ChromeConverter struct {
	Timeout time.Duration
}

func NewChromeConverter(timeout time.Duration) *ChromeConverter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeConverter{Timeout: timeout}
}

func (c *ChromeConverter) ConvertDOCX(ctx context.Context, data []byte, title string) ([]byte, error) {
	if err := chromeAvailable(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	fragment, err := docxToHTML(ctx, data)
	if err != nil {
		return nil, err
	}
	html, err := RenderDocumentHTML(TemplateData{
		Title:       title,
		ContentHTML: template.HTML(fragment),
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	return printPDF(ctx, html)
}

func chromeAvailable() error {
	for _, bin := range []string{"chromium-browser", "chromium", "google-chrome"} {
		if _, err := exec.LookPath(bin); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: chromium not installed", ErrPDFDependencyMissing)
}

// percentEncodeForDataURL encodes a string for use in a data URL
// Unlike url.QueryEscape, this properly encodes spaces as %20 for data URLs
func percentEncodeForDataURL(s string) string {
	var result strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_', r == '.', r == '~':
			result.WriteRune(r)
		case r == ' ':
			result.WriteString("%20")
		default:
			for _, b := range []byte(string(r)) {
				fmt.Fprintf(&result, "%%%02X", b)
			}
		}
	}
	return result.String()
}

// printPDF loads html into headless Chrome and prints it on A4 paper.
func printPDF(ctx context.Context, html string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	dataURL := "data:text/html;charset=utf-8," + percentEncodeForDataURL(html)

	var pdfData []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfData, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27). // A4
				WithPaperHeight(11.69).
				WithMarginTop(0.6).
				WithMarginBottom(0.6).
				WithMarginLeft(0.6).
				WithMarginRight(0.6).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome pdf generation failed: %w", err)
	}
	return pdfData, nil
}
