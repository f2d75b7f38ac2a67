// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

func decodeRaster(img *attachment.RasterImage) (image.Image, error) {
	switch strings.ToLower(img.Format) {
	case "png":
		return png.Decode(bytes.NewReader(img.Pixels))
	case "jpeg", "jpg":
		return jpeg.Decode(bytes.NewReader(img.Pixels))
	case "gif":
		return gif.Decode(bytes.NewReader(img.Pixels))
	default:
		decoded, _, err := image.Decode(bytes.NewReader(img.Pixels))
		return decoded, err
	}
}

func encodeRaster(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// rotateHandler rotates a RasterImage by an arbitrary degree angle,
// resizing the destination canvas to fit and using x/image/draw's affine
// transform (bilinear-interpolated) rather than a hand-rolled pixel
// shuffle (§4.6 MODIFY: "rotation, cropping, ...").
var rotateHandler = &registry.HandlerRecord{
	Kind:     registry.KindModify,
	Name:     "rotate",
	Dispatch: registry.Exact(attachment.ObjectKindImage),
	Params: []registry.Param{
		{Name: "rotate", Kind: registry.ParamFloat, Default: 0.0},
	},
	Modify: func(ctx context.Context, a *attachment.Attachment, params registry.Params) error {
		degrees := params.Float("rotate")
		if degrees == 0 {
			return nil
		}
		raster := a.Obj.Img
		if raster == nil {
			return nil
		}
		src, err := decodeRaster(raster)
		if err != nil {
			return errs.HandlerFailure("rotate", err)
		}

		rotated := rotate(src, degrees)

		encoded, err := encodeRaster(rotated, raster.Format)
		if err != nil {
			return errs.HandlerFailure("rotate", err)
		}
		b := rotated.Bounds()
		a.Obj.Img = &attachment.RasterImage{
			Format: raster.Format,
			Width:  b.Dx(),
			Height: b.Dy(),
			Pixels: encoded,
		}
		a.Metadata["image_format"] = canonicalImageFormatName(raster.Format)
		a.Metadata["rotation"] = degrees
		return nil
	},
}

// canonicalImageFormatName maps the stored extension-derived format
// ("jpg", "png", …) to the uppercase name image/* codecs report
// (§8 scenario 2: "metadata.image_format == \"JPEG\"").
func canonicalImageFormatName(format string) string {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return "JPEG"
	default:
		return strings.ToUpper(format)
	}
}

// cropHandler crops a RasterImage to the DSL-declared rectangle
// "x,y,w,h".
var cropHandler = &registry.HandlerRecord{
	Kind:     registry.KindModify,
	Name:     "crop",
	Dispatch: registry.Exact(attachment.ObjectKindImage),
	Params: []registry.Param{
		{Name: "crop", Kind: registry.ParamString, Default: ""},
	},
	Modify: func(ctx context.Context, a *attachment.Attachment, params registry.Params) error {
		expr := params.String("crop")
		if expr == "" || a.Obj.Img == nil {
			return nil
		}
		rect, err := parseRect(expr)
		if err != nil {
			return err
		}
		src, err := decodeRaster(a.Obj.Img)
		if err != nil {
			return errs.HandlerFailure("crop", err)
		}
		dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
		draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)

		encoded, err := encodeRaster(dst, a.Obj.Img.Format)
		if err != nil {
			return errs.HandlerFailure("crop", err)
		}
		a.Obj.Img = &attachment.RasterImage{Format: a.Obj.Img.Format, Width: rect.Dx(), Height: rect.Dy(), Pixels: encoded}
		return nil
	},
}

func parseRect(expr string) (image.Rectangle, error) {
	parts := strings.Split(expr, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, errs.DSLValue("crop", expr, "")
	}
	var nums [4]int
	for i, p := range parts {
		n, err := parseInt(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, errs.DSLValue("crop", expr, "")
		}
		nums[i] = n
	}
	return image.Rect(nums[0], nums[1], nums[0]+nums[2], nums[1]+nums[3]), nil
}

func parseInt(s string) (int, error) {
	n := 0
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if s == "" {
		return 0, errs.HandlerFailure("crop", errEmptyInt{})
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errs.HandlerFailure("crop", errEmptyInt{})
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}

type errEmptyInt struct{}

func (errEmptyInt) Error() string { return "not an integer" }

// rotate applies a rotation by degrees around the source image's center,
// sizing the destination to fit the rotated bounding box.
func rotate(src image.Image, degrees float64) image.Image {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)

	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	// The small epsilon keeps floating-point residue (cos(90°) is not
	// exactly 0) from rounding a whole-pixel size up by one.
	const eps = 1e-9
	newW := int(math.Ceil(math.Abs(w*cos) + math.Abs(h*sin) - eps))
	newH := int(math.Ceil(math.Abs(w*sin) + math.Abs(h*cos) - eps))

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))

	// Source-to-destination affine transform: rotate about the source
	// image's center, then translate so the rotated bounds land inside
	// the (possibly larger) destination canvas.
	srcCx, srcCy := w/2, h/2
	dstCx, dstCy := float64(newW)/2, float64(newH)/2

	s2d := f64.Aff3{
		cos, -sin, dstCx - cos*srcCx + sin*srcCy,
		sin, cos, dstCy - sin*srcCx - cos*srcCy,
	}
	xdraw.BiLinear.Transform(dst, s2d, src, b, xdraw.Over, nil)
	return dst
}
