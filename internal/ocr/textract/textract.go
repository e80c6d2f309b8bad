// Package textract implements the cloud OCR provider on AWS Textract.
package textract

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"wyngai/internal/config"
	"wyngai/internal/domain"
	"wyngai/internal/port"
)

// API abstracts the Textract client for testing.
type API interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// Provider implements port.OCRProvider using Textract document analysis with
// table extraction.
type Provider struct {
	client API
}

// NewProvider creates a Textract-backed provider. A nil client (e.g. missing
// region) leaves the provider unavailable rather than erroring.
func NewProvider(cfg *config.OCRProviderConfig) *Provider {
	if cfg.Region == "" {
		return &Provider{}
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return &Provider{}
	}
	return &Provider{client: textract.NewFromConfig(awsCfg)}
}

// NewProviderWithClient creates a provider around an existing client (for testing).
func NewProviderWithClient(client API) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string { return "textract" }

func (p *Provider) Available() bool { return p.client != nil }

func (p *Provider) Extract(ctx context.Context, input port.ExtractInput) (*domain.OCRResult, error) {
	start := time.Now()

	out, err := p.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document:     &types.Document{Bytes: input.FileBytes},
		FeatureTypes: []types.FeatureType{types.FeatureTypeTables},
	})
	if err != nil {
		return nil, fmt.Errorf("textract analyze: %w", err)
	}

	pages := assemblePages(out.Blocks)
	if len(pages) == 0 {
		return nil, fmt.Errorf("textract returned no pages")
	}

	return &domain.OCRResult{
		Vendor:           p.Name(),
		Pages:            pages,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Success:          true,
	}, nil
}

// assemblePages converts Textract's flat block list into canonical OCR pages:
// LINE blocks become page text and bounding boxes, TABLE/CELL blocks become
// positional rows.
func assemblePages(blocks []types.Block) []domain.OCRPage {
	byID := make(map[string]types.Block, len(blocks))
	for _, b := range blocks {
		if b.Id != nil {
			byID[*b.Id] = b
		}
	}

	type pageAcc struct {
		lines      []string
		boxes      []domain.BoundingBox
		confidence float64
		lineCount  int
		rows       []domain.OCRRow
	}
	accs := make(map[int]*pageAcc)
	acc := func(page int) *pageAcc {
		if accs[page] == nil {
			accs[page] = &pageAcc{}
		}
		return accs[page]
	}

	for _, b := range blocks {
		page := 1
		if b.Page != nil {
			page = int(*b.Page)
		}
		switch b.BlockType {
		case types.BlockTypeLine:
			a := acc(page)
			if b.Text != nil {
				a.lines = append(a.lines, *b.Text)
			}
			if b.Confidence != nil {
				a.confidence += float64(*b.Confidence) / 100
				a.lineCount++
			}
			if b.Geometry != nil && b.Geometry.BoundingBox != nil {
				bb := b.Geometry.BoundingBox
				a.boxes = append(a.boxes, domain.BoundingBox{
					Left:   float64(bb.Left),
					Top:    float64(bb.Top),
					Width:  float64(bb.Width),
					Height: float64(bb.Height),
				})
			}
		case types.BlockTypeTable:
			a := acc(page)
			a.rows = append(a.rows, tableRows(b, byID)...)
		}
	}

	pageNums := make([]int, 0, len(accs))
	for n := range accs {
		pageNums = append(pageNums, n)
	}
	sort.Ints(pageNums)

	pages := make([]domain.OCRPage, 0, len(pageNums))
	for _, n := range pageNums {
		a := accs[n]
		conf := 0.0
		if a.lineCount > 0 {
			conf = a.confidence / float64(a.lineCount)
		}
		pages = append(pages, domain.OCRPage{
			Number:     n,
			Text:       strings.Join(a.lines, "\n"),
			Confidence: conf,
			Rows:       a.rows,
			Boxes:      a.boxes,
		})
	}
	return pages
}

func tableRows(table types.Block, byID map[string]types.Block) []domain.OCRRow {
	type cell struct {
		row, col int
		text     string
	}
	var cells []cell

	for _, rel := range table.Relationships {
		if rel.Type != types.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			c, ok := byID[id]
			if !ok || c.BlockType != types.BlockTypeCell {
				continue
			}
			row, col := 1, 1
			if c.RowIndex != nil {
				row = int(*c.RowIndex)
			}
			if c.ColumnIndex != nil {
				col = int(*c.ColumnIndex)
			}
			cells = append(cells, cell{row: row, col: col, text: cellText(c, byID)})
		}
	}

	sort.Slice(cells, func(i, j int) bool {
		if cells[i].row != cells[j].row {
			return cells[i].row < cells[j].row
		}
		return cells[i].col < cells[j].col
	})

	var rows []domain.OCRRow
	var current []string
	currentRow := -1
	flush := func() {
		if len(current) > 0 {
			rows = append(rows, domain.OCRRow{Cells: current})
		}
	}
	for _, c := range cells {
		if c.row != currentRow {
			flush()
			current = nil
			currentRow = c.row
		}
		current = append(current, c.text)
	}
	flush()
	return rows
}

func cellText(c types.Block, byID map[string]types.Block) string {
	var words []string
	for _, rel := range c.Relationships {
		if rel.Type != types.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			w, ok := byID[id]
			if ok && w.BlockType == types.BlockTypeWord && w.Text != nil {
				words = append(words, *w.Text)
			}
		}
	}
	return strings.Join(words, " ")
}
