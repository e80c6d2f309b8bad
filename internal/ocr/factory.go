package ocr

import (
	"fmt"

	"wyngai/internal/config"
	"wyngai/internal/port"
)

// ProviderFactory builds an OCRProvider from a provider config slot.
type ProviderFactory func(cfg *config.OCRProviderConfig) (port.OCRProvider, error)

// providers is the registry of provider factories, populated via
// RegisterProvider (from each provider package's wiring in cmd).
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an OCR provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates an OCRProvider from a provider config using the
// registered factory.
func NewProvider(cfg *config.OCRProviderConfig) (port.OCRProvider, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown OCR provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// BuildChain assembles the ordered provider list from the OCR config,
// skipping empty slots. Unknown provider names are an error: a typo in
// configuration should fail loudly at startup, not silently at runtime.
func BuildChain(cfg *config.OCRConfig) ([]port.OCRProvider, error) {
	var chain []port.OCRProvider
	for _, slot := range []*config.OCRProviderConfig{&cfg.Primary, &cfg.Secondary, &cfg.Tertiary} {
		if !slot.Configured() {
			continue
		}
		p, err := NewProvider(slot)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
	}
	return chain, nil
}
