package pdf

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ricemill-backend/internal/config"
	"ricemill-backend/internal/models"
)

// Renderer turns a computed slip into a printable PDF.
type Renderer interface {
	Render(ctx context.Context, slip *models.PurchaseSlipView) ([]byte, error)
}

const (
	RendererFPDF      = "fpdf"
	RendererGotenberg = "gotenberg"
)

// NewRenderer picks the adapter named by cfg.Renderer; blank means fpdf.
func NewRenderer(cfg config.PDFConfig) (Renderer, error) {
	switch cfg.Renderer {
	case "", RendererFPDF:
		return NewFPDF(cfg.LogoPath), nil
	case RendererGotenberg:
		if cfg.GotenbergURL == "" {
			return nil, fmt.Errorf("pdf.gotenberg_url is required for the gotenberg renderer")
		}
		return NewGotenberg(cfg.GotenbergURL, &http.Client{Timeout: 30 * time.Second})
	default:
		return nil, fmt.Errorf("unknown pdf renderer %q", cfg.Renderer)
	}
}
