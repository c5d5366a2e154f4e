package render

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/matzehuels/agentgraph/pkg/errors"
)

// rsvgBinary is the librsvg converter used for raster and PDF output.
const rsvgBinary = "rsvg-convert"

// ToPDF converts an SVG document to PDF.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convertSVG(ctx, svg, "pdf")
}

// ToPNG converts an SVG document to PNG. scale multiplies the SVG's
// intrinsic size; non-positive values mean 1.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return convertSVG(ctx, svg, "png", "--zoom", strconv.FormatFloat(scale, 'f', 2, 64))
}

// Available reports whether PNG and PDF conversion can run on this machine.
func Available() bool {
	_, err := exec.LookPath(rsvgBinary)
	return err == nil
}

func convertSVG(ctx context.Context, svg []byte, format string, args ...string) ([]byte, error) {
	if !Available() {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s output needs %s (librsvg): brew install librsvg, or apt install librsvg2-bin", format, rsvgBinary)
	}

	cmd := exec.CommandContext(ctx, rsvgBinary, append([]string{"--format", format}, args...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s %s: %s", rsvgBinary, format, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
