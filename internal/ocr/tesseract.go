/**
 * Tesseract OCR engine.
 *
 * Recognition goes through the gosseract C API binding. The orientation
 * pass shells out to the tesseract binary with --psm 0, because the OSD
 * result is not exposed through the binding.
 *
 * A gosseract client is not safe to share; every call builds its own
 * client, so the engine itself may be used from concurrent page workers.
 */

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine on top of a local Tesseract install.
type TesseractEngine struct {
	binaryPath string
}

// NewTesseractEngine creates a Tesseract-backed engine. binaryPath is only
// used for the OSD pass; empty means "tesseract" from PATH.
func NewTesseractEngine(binaryPath string) *TesseractEngine {
	if binaryPath == "" {
		binaryPath = "tesseract"
	}
	return &TesseractEngine{binaryPath: binaryPath}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs OCR on img with the request's directive. The blocking C
// call runs in its own goroutine so the context deadline is honored; on
// timeout the result is discarded when the call eventually returns.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image, req Request) (string, error) {
	encoded, err := encodePNG(img)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		text, err := e.recognizeBytes(encoded, req)
		done <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case out := <-done:
		return out.text, out.err
	}
}

func (e *TesseractEngine) recognizeBytes(encoded []byte, req Request) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(encoded); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if req.Language != "" {
		if err := client.SetLanguage(req.Language); err != nil {
			return "", fmt.Errorf("set language: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(req.Directive.Mode.PSM())); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if req.Directive.DPI > 0 {
		if err := client.SetVariable("user_defined_dpi", strconv.Itoa(req.Directive.DPI)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	if req.Directive.UserWordsPath != "" {
		if _, statErr := os.Stat(req.Directive.UserWordsPath); statErr == nil {
			if err := client.SetVariable("user_words_file", req.Directive.UserWordsPath); err != nil {
				return "", fmt.Errorf("set user words: %w", err)
			}
		}
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognition failed: %w", err)
	}
	return text, nil
}

// DetectOrientation runs the tesseract OSD pass (--psm 0) and parses the
// reported rotation. Returns an error when the binary is missing or the
// output carries no rotation line.
func (e *TesseractEngine) DetectOrientation(img image.Image) (int, error) {
	encoded, err := encodePNG(img)
	if err != nil {
		return 0, fmt.Errorf("encode image: %w", err)
	}

	tmp, err := os.CreateTemp("", "ocr-osd-*.png")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	out, err := exec.Command(e.binaryPath, tmpPath, "stdout", "--psm", "0").CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("tesseract osd: %w", err)
	}
	return parseOSDRotation(string(out))
}

func parseOSDRotation(osd string) (int, error) {
	for _, line := range strings.Split(osd, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "Rotate:") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "Rotate:"))
		angle, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("parse rotation %q: %w", value, err)
		}
		return angle, nil
	}
	return 0, fmt.Errorf("no rotation in OSD output")
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
