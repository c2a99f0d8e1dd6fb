package probe

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultThumbnailSize  = 160
	DefaultMaxPreviewSide = 4096
)

// Result is delivered by Start once probing completes.
type Result struct {
	Probe entity.Probe
	Err   error
}

type Options struct {
	ThumbnailSize  int
	MaxPreviewSide int
}

// ImageProbe learns the pixel dimensions of a candidate and draws its preview.
type ImageProbe struct {
	thumbnailSize  int
	maxPreviewSide int
}

func NewImageProbe(opts Options) *ImageProbe {
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = DefaultThumbnailSize
	}
	if opts.MaxPreviewSide <= 0 {
		opts.MaxPreviewSide = DefaultMaxPreviewSide
	}
	return &ImageProbe{thumbnailSize: opts.ThumbnailSize, maxPreviewSide: opts.MaxPreviewSide}
}

// Start runs Probe on its own goroutine. The channel receives exactly one value.
func (p *ImageProbe) Start(ctx context.Context, file *entity.CandidateFile) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		pr, err := p.Probe(ctx, file)
		out <- Result{Probe: pr, Err: err}
	}()
	return out
}

func (p *ImageProbe) Probe(ctx context.Context, file *entity.CandidateFile) (entity.Probe, error) {
	if file.Empty() {
		return entity.Probe{}, entity.ErrNoFile
	}

	dataURL, err := readAsDataURL(file)
	if err != nil {
		return entity.Probe{}, err
	}
	if err := ctx.Err(); err != nil {
		return entity.Probe{}, err
	}

	mime, data, err := parseDataURL(dataURL)
	if err != nil {
		return entity.Probe{}, fmt.Errorf("%w: %v", entity.ErrDecode, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return entity.Probe{}, fmt.Errorf("%w: %v", entity.ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return entity.Probe{}, fmt.Errorf("%w: empty image %dx%d", entity.ErrDecode, cfg.Width, cfg.Height)
	}

	result := entity.Probe{
		Dimensions: entity.Dimensions{Width: cfg.Width, Height: cfg.Height},
		MimeType:   mime,
	}

	// Oversized images are rejected by validation anyway; skip the full decode.
	if cfg.Width > p.maxPreviewSide || cfg.Height > p.maxPreviewSide {
		return result, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return entity.Probe{}, fmt.Errorf("%w: %v", entity.ErrDecode, err)
	}
	// EXIF orientation may swap the sides; report them as displayed.
	b := img.Bounds()
	result.Dimensions = entity.Dimensions{Width: b.Dx(), Height: b.Dy()}

	thumb, err := p.thumbnail(img)
	if err != nil {
		return entity.Probe{}, fmt.Errorf("%w: %v", entity.ErrDecode, err)
	}
	result.Thumbnail = thumb
	return result, nil
}

func (p *ImageProbe) thumbnail(img image.Image) (string, error) {
	preview := imaging.Fit(img, p.thumbnailSize, p.thumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, preview, imaging.PNG); err != nil {
		return "", err
	}
	return encodeDataURL("image/png", buf.Bytes()), nil
}

func readAsDataURL(file *entity.CandidateFile) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file.Name, err)
	}
	if len(data) == 0 {
		return "", entity.ErrNoFile
	}
	return encodeDataURL(mimetype.Detect(data).String(), data), nil
}

func encodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func parseDataURL(u string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return mime, data, nil
}
