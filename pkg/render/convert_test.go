package render

import (
	"context"
	"testing"

	"github.com/matzehuels/agentgraph/pkg/errors"
)

const tinySVG = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`

func TestToPNG(t *testing.T) {
	png, err := ToPNG(context.Background(), []byte(tinySVG), 2)
	if !Available() {
		if !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Fatalf("ToPNG() without rsvg-convert error = %v, want UNSUPPORTED", err)
		}
		return
	}
	if err != nil {
		t.Fatalf("ToPNG() error = %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Errorf("ToPNG() did not return a PNG image")
	}
}

func TestToPDF(t *testing.T) {
	pdf, err := ToPDF(context.Background(), []byte(tinySVG))
	if !Available() {
		if !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Fatalf("ToPDF() without rsvg-convert error = %v, want UNSUPPORTED", err)
		}
		return
	}
	if err != nil {
		t.Fatalf("ToPDF() error = %v", err)
	}
	if len(pdf) < 4 || string(pdf[:4]) != "%PDF" {
		t.Errorf("ToPDF() did not return a PDF document")
	}
}
