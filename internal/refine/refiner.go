/**
 * Optional LLM text refinement.
 *
 * A refiner improves the readability of OCR output (spacing, broken
 * words, obvious recognition slips) without changing its meaning. It is
 * strictly best-effort: any failure leaves the input text untouched and
 * the document marked degraded, never failed.
 */

package refine

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/config"
)

const refinePrompt = `Eres un corrector de textos legales en español. ` +
	`Corrige únicamente errores evidentes de OCR (palabras cortadas, ` +
	`espaciado, caracteres confundidos) en el siguiente texto Markdown. ` +
	`No cambies el significado, no resumas, no agregues contenido y ` +
	`conserva intactos los encabezados y las tablas. Responde solo con ` +
	`el texto corregido.`

// Refiner rewrites OCR text through a language model.
type Refiner interface {
	// Enabled reports whether refinement is configured at all.
	Enabled() bool
	// Refine returns the improved text, or an error with the input
	// expected to be reused unchanged by the caller.
	Refine(ctx context.Context, text string) (string, error)
}

// New builds a Refiner from configuration. Without an API key the
// disabled refiner is returned and no network client is built.
func New(cfg *config.Config) (Refiner, error) {
	if cfg.RefinerAPIKey == "" {
		return &disabled{}, nil
	}

	opts := []openai.Option{
		openai.WithModel(cfg.RefinerModel),
		openai.WithToken(cfg.RefinerAPIKey),
	}
	if cfg.RefinerBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.RefinerBaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("build refiner client: %w", err)
	}
	return &llmRefiner{model: model}, nil
}

type llmRefiner struct {
	model llms.Model
}

func (r *llmRefiner) Enabled() bool { return true }

func (r *llmRefiner) Refine(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	completion, err := r.model.GenerateContent(ctx, []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(refinePrompt),
				llms.TextPart(text),
			},
		},
	}, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("refinement request: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("refinement returned no choices")
	}

	refined := strings.TrimSpace(completion.Choices[0].Content)
	if refined == "" {
		return "", fmt.Errorf("refinement returned empty text")
	}
	return refined, nil
}

type disabled struct{}

func (*disabled) Enabled() bool { return false }

func (*disabled) Refine(_ context.Context, text string) (string, error) {
	return text, nil
}
