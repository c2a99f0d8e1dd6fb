package probe

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeDimensions(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		encode func(*bytes.Buffer, image.Image) error
		mime   string
	}{
		{
			name:   "square png",
			width:  256,
			height: 256,
			encode: func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) },
			mime:   "image/png",
		},
		{
			name:   "landscape jpeg",
			width:  300,
			height: 200,
			encode: func(b *bytes.Buffer, img image.Image) error { return jpeg.Encode(b, img, &jpeg.Options{Quality: 90}) },
			mime:   "image/jpeg",
		},
		{
			name:   "small png still reports size",
			width:  10,
			height: 12,
			encode: func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) },
			mime:   "image/png",
		},
	}

	p := NewImageProbe(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.encode(&buf, solidImage(tt.width, tt.height)))

			got, err := p.Probe(context.Background(), entity.FileFromBytes("scan", buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, entity.Dimensions{Width: tt.width, Height: tt.height}, got.Dimensions)
			assert.Equal(t, tt.mime, got.MimeType)
			assert.True(t, strings.HasPrefix(got.Thumbnail, "data:image/png;base64,"))
		})
	}
}

func TestProbeThumbnailFitsBox(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(600, 400)))

	got, err := NewImageProbe(Options{ThumbnailSize: 100}).Probe(context.Background(), entity.FileFromBytes("scan.png", buf.Bytes()))
	require.NoError(t, err)

	_, data, err := parseDataURL(got.Thumbnail)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.InDelta(t, 100*400/600, cfg.Height, 1)
}

func TestProbeSkipsPreviewForOversizedImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(300, 300)))

	got, err := NewImageProbe(Options{MaxPreviewSide: 256}).Probe(context.Background(), entity.FileFromBytes("big.png", buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, entity.Dimensions{Width: 300, Height: 300}, got.Dimensions)
	assert.Empty(t, got.Thumbnail)
}

func TestProbeDecodeFailure(t *testing.T) {
	_, err := NewImageProbe(Options{}).Probe(context.Background(), entity.FileFromBytes("notes.txt", []byte("definitely not an image")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrDecode))
	assert.Equal(t, entity.MsgDecode, entity.UserMessage(err))
}

func TestProbeEmptyFile(t *testing.T) {
	_, err := NewImageProbe(Options{}).Probe(context.Background(), entity.FileFromBytes("empty.png", nil))
	assert.ErrorIs(t, err, entity.ErrNoFile)
}

func TestStartDeliversOnce(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(224, 224)))

	ch := NewImageProbe(Options{}).Start(context.Background(), entity.FileFromBytes("scan.png", buf.Bytes()))
	select {
	case res := <-ch:
		require.NoError(t, res.Err)
		assert.Equal(t, 224, res.Probe.Dimensions.Width)
	case <-time.After(5 * time.Second):
		t.Fatal("probe did not complete")
	}
}

// withOrientation inserts an EXIF APP1 segment carrying only the orientation tag.
func withOrientation(t *testing.T, jpg []byte, orientation uint16) []byte {
	t.Helper()
	require.True(t, len(jpg) > 2 && jpg[0] == 0xff && jpg[1] == 0xd8)

	var exif bytes.Buffer
	exif.WriteString("Exif\x00\x00")
	exif.WriteString("MM\x00\x2a")
	binary.Write(&exif, binary.BigEndian, uint32(8))
	binary.Write(&exif, binary.BigEndian, uint16(1))
	binary.Write(&exif, binary.BigEndian, uint16(0x0112)) // orientation
	binary.Write(&exif, binary.BigEndian, uint16(3))      // SHORT
	binary.Write(&exif, binary.BigEndian, uint32(1))
	binary.Write(&exif, binary.BigEndian, orientation)
	binary.Write(&exif, binary.BigEndian, uint16(0))
	binary.Write(&exif, binary.BigEndian, uint32(0))

	var out bytes.Buffer
	out.Write(jpg[:2])
	binary.Write(&out, binary.BigEndian, uint16(0xffe1))
	binary.Write(&out, binary.BigEndian, uint16(exif.Len()+2))
	out.Write(exif.Bytes())
	out.Write(jpg[2:])
	return out.Bytes()
}

func TestProbeReportsOrientedDimensions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solidImage(300, 240), nil))

	tests := []struct {
		name        string
		orientation uint16
		want        entity.Dimensions
	}{
		{name: "normal", orientation: 1, want: entity.Dimensions{Width: 300, Height: 240}},
		{name: "rotated 90", orientation: 6, want: entity.Dimensions{Width: 240, Height: 300}},
		{name: "rotated 270", orientation: 8, want: entity.Dimensions{Width: 240, Height: 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := withOrientation(t, buf.Bytes(), tt.orientation)
			got, err := NewImageProbe(Options{ThumbnailSize: 100}).Probe(context.Background(), entity.FileFromBytes("scan.jpg", data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Dimensions)

			_, thumb, err := parseDataURL(got.Thumbnail)
			require.NoError(t, err)
			cfg, err := png.DecodeConfig(bytes.NewReader(thumb))
			require.NoError(t, err)
			assert.Equal(t, tt.want.Width > tt.want.Height, cfg.Width > cfg.Height)
		})
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	u := encodeDataURL("image/png", []byte{1, 2, 3})
	mime, data, err := parseDataURL(u)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte{1, 2, 3}, data)

	_, _, err = parseDataURL("http://example.com/x.png")
	assert.Error(t, err)
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	c := color.RGBA{R: 100, G: 150, B: 200, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
