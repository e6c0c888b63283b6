package pdf

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"ricemill-backend/internal/models"
)

//go:embed templates/slip.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"money": Money,
	"qty":   Qty,
	"date":  Date,
	"datep": DatePtr,
	"upper": strings.ToUpper,
	"paid": func(all [5]models.Instalment) []models.Instalment {
		var out []models.Instalment
		for _, in := range all {
			if in.Paid() {
				out = append(out, in)
			}
		}
		return out
	},
}

// Gotenberg renders the slip as HTML and has a Gotenberg service convert it
// through headless Chromium.
type Gotenberg struct {
	endpoint string
	client   *http.Client
	tmpl     *template.Template
}

func NewGotenberg(baseURL string, client *http.Client) (*Gotenberg, error) {
	endpoint, err := url.JoinPath(baseURL, "/forms/chromium/convert/html")
	if err != nil {
		return nil, fmt.Errorf("gotenberg url: %w", err)
	}
	tmpl, err := template.New("slip.html").Funcs(funcs).ParseFS(templateFS, "templates/slip.html")
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Gotenberg{endpoint: endpoint, client: client, tmpl: tmpl}, nil
}

// HTML renders the page Gotenberg is given.
func (g *Gotenberg) HTML(s *models.PurchaseSlipView) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, s); err != nil {
		return nil, fmt.Errorf("render slip template: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Gotenberg) Render(ctx context.Context, s *models.PurchaseSlipView) ([]byte, error) {
	page, err := g.HTML(s)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(page); err != nil {
		return nil, err
	}
	for k, v := range map[string]string{
		"paperWidth":   "8.27",
		"paperHeight":  "11.7",
		"marginTop":    "0.4",
		"marginBottom": "0.4",
		"marginLeft":   "0.4",
		"marginRight":  "0.4",
	} {
		if err := form.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gotenberg request: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gotenberg response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gotenberg returned %d: %s", resp.StatusCode, bytes.TrimSpace(out))
	}
	return out, nil
}
