// Command analyze runs the extraction and detection pipeline over local
// files without a database or object store. Useful for spot-checking a
// bill before uploading it, and for pipeline debugging.
//
// Usage: analyze [flags] file.pdf [file2.jpg ...]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"wyngai/internal/config"
	"wyngai/internal/detect"
	"wyngai/internal/domain"
	"wyngai/internal/export"
	"wyngai/internal/ocr"
	"wyngai/internal/ocr/tesseract"
	"wyngai/internal/ocr/textract"
	"wyngai/internal/ocr/vision"
	"wyngai/internal/port"
	"wyngai/internal/service"
	"wyngai/internal/validate"
)

var (
	outPath      string
	benefitsPath string
)

func main() {
	root := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Analyze billing documents for anomalies",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAnalyze,
	}
	root.Flags().StringVarP(&outPath, "out", "o", "", "write the full result to a file (.json, .xlsx or .csv)")
	root.Flags().StringVar(&benefitsPath, "benefits", "", "JSON file with the benefits context")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	files, err := readFiles(args)
	if err != nil {
		return err
	}

	benefits, err := readBenefits(benefitsPath)
	if err != nil {
		return err
	}

	registerProviders()
	chain, err := ocr.BuildChain(&cfg.OCR)
	if err != nil {
		return fmt.Errorf("building OCR chain: %w", err)
	}
	orchestrator := ocr.NewOrchestrator(chain, ocr.WithMinFreeTextLen(cfg.OCR.MinFreeTextLen))
	engine := detect.NewEngine(detect.NewBuiltinRegistry())

	progress := mpb.New(mpb.WithWidth(60), mpb.WithOutput(os.Stderr))
	bar := progress.New(int64(len(files)),
		mpb.BarStyle(),
		mpb.PrependDecorators(
			decor.Name("extracting "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)

	pipeline := &progressPipeline{inner: orchestrator, bar: bar}
	svc := service.NewAnalysisService(nil, nil, nil, nil, pipeline, engine, &cfg.Queue)

	result := svc.AnalyzeFiles(context.Background(), files, benefits)
	progress.Wait()

	printSummary(result, files)

	if outPath != "" {
		if err := writeOutput(outPath, result); err != nil {
			return err
		}
		fmt.Printf("\nfull result written to %s\n", outPath)
	}
	return nil
}

func registerProviders() {
	ocr.RegisterProvider("vision", func(cfg *config.OCRProviderConfig) (port.OCRProvider, error) {
		return vision.NewProvider(cfg), nil
	})
	ocr.RegisterProvider("textract", func(cfg *config.OCRProviderConfig) (port.OCRProvider, error) {
		return textract.NewProvider(cfg), nil
	})
	ocr.RegisterProvider("tesseract", func(cfg *config.OCRProviderConfig) (port.OCRProvider, error) {
		return tesseract.NewProvider(cfg), nil
	})
}

// progressPipeline advances the bar after each file's OCR completes.
type progressPipeline struct {
	inner *ocr.Orchestrator
	bar   *mpb.Bar
}

func (p *progressPipeline) Process(ctx context.Context, input port.ExtractInput) *domain.OCRResult {
	result := p.inner.Process(ctx, input)
	p.bar.Increment()
	return result
}

func readFiles(paths []string) ([]service.NamedFile, error) {
	files := make([]service.NamedFile, 0, len(paths))
	for _, path := range paths {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		fileType, ok := domain.AllowedExtensions[ext]
		if !ok {
			return nil, fmt.Errorf("%s: unsupported file type (allowed: pdf, jpg, png)", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		files = append(files, service.NamedFile{
			ID:          uuid.New(),
			Name:        filepath.Base(path),
			ContentType: domain.AllowedFileTypes[fileType],
			Bytes:       data,
		})
	}
	return files, nil
}

func readBenefits(path string) (*domain.BenefitsContext, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading benefits file: %w", err)
	}
	var benefits domain.BenefitsContext
	if err := json.Unmarshal(data, &benefits); err != nil {
		return nil, fmt.Errorf("parsing benefits file: %w", err)
	}
	return &benefits, nil
}

func printSummary(result *domain.CaseResult, files []service.NamedFile) {
	fmt.Printf("\nanalyzed %d file(s), confidence %.2f\n", len(files), result.Confidence)

	if len(result.OCRFailures) > 0 {
		names := make(map[uuid.UUID]string, len(files))
		for _, f := range files {
			names[f.ID] = f.Name
		}
		for id, reason := range result.OCRFailures {
			fmt.Printf("  unreadable: %s (%s)\n", names[id], reason)
		}
	}

	if s := result.Summary; s != nil {
		if s.Header.ProviderName != "" {
			fmt.Printf("provider: %s\n", s.Header.ProviderName)
		}
		if t := s.Totals; t != nil && t.Billed != nil {
			fmt.Printf("billed:   %s\n", validate.FormatCents(*t.Billed))
		}
		fmt.Printf("lines:    %d\n", len(s.LineItems))
	}

	if len(result.Detections) == 0 {
		fmt.Println("\nno anomalies detected")
		return
	}
	fmt.Printf("\n%d finding(s):\n", len(result.Detections))
	for i := range result.Detections {
		d := &result.Detections[i]
		fmt.Printf("  [%s] %s: %s\n", d.Severity, d.RuleKey, d.Explanation)
	}
}

func writeOutput(path string, result *domain.CaseResult) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		return os.WriteFile(path, append(data, '\n'), 0o644)

	case ".xlsx":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		return export.WriteXLSX(f, result)

	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		if _, err := f.Write(export.BOM); err != nil {
			return err
		}
		w := export.NewWriter(f)
		if err := w.WriteDetections(result.Detections); err != nil {
			return err
		}
		w.Flush()
		return w.Error()

	default:
		return fmt.Errorf("unsupported output extension: %s (use .json, .xlsx or .csv)", path)
	}
}
