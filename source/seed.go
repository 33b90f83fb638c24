package source

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"imgbench/model"
)

// AssetPrefix starts the name of every generated asset.
const AssetPrefix = "test_image_"

// SeedConfig controls asset generation.
type SeedConfig struct {
	Count    int
	BaseSide int // side of the first image in pixels, default 500
	Quality  int // jpeg quality, default 90
	Logger   logrus.FieldLogger
}

// Asset is one generated image.
type Asset struct {
	Name string
	Data []byte
}

// AssetName is the key of the i-th asset (1-based).
func AssetName(i int) string {
	return fmt.Sprintf("%s%d.jpg", AssetPrefix, i)
}

// GenerateAssets renders Count deterministic JPEGs of increasing size: asset
// i has side BaseSide * (0.5 + 0.5*i) and is drawn from seed i.
func GenerateAssets(cfg SeedConfig) ([]Asset, error) {
	if cfg.Count < 1 {
		return nil, errors.Wrapf(model.ErrInvalidRequest, "asset count must be positive, got %d", cfg.Count)
	}

	if cfg.Quality > 100 {
		return nil, errors.Wrapf(model.ErrInvalidRequest, "jpeg quality must be at most 100, got %d", cfg.Quality)
	}

	if cfg.BaseSide <= 0 {
		cfg.BaseSide = 500
	}

	if cfg.Quality <= 0 {
		cfg.Quality = 90
	}

	assets := make([]Asset, 0, cfg.Count)

	for i := 1; i <= cfg.Count; i++ {
		side := int(float64(cfg.BaseSide) * (0.5 + 0.5*float64(i)))
		img := drawAsset(side, int64(i))

		var buf bytes.Buffer

		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: cfg.Quality}); err != nil {
			return nil, errors.Wrapf(err, "encode asset %d", i)
		}

		assets = append(assets, Asset{Name: AssetName(i), Data: buf.Bytes()})
	}

	return assets, nil
}

// drawAsset fills a grey square with random discs.
func drawAsset(side int, seed int64) *image.RGBA {
	rnd := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	grey := color.RGBA{R: 200, G: 200, B: 200, A: 255}

	for i := range img.Pix {
		if i%4 == 3 {
			img.Pix[i] = 255
			continue
		}

		img.Pix[i] = grey.R
	}

	for n := 0; n <= 20; n++ {
		c := color.RGBA{R: uint8(rnd.Intn(256)), G: uint8(rnd.Intn(256)), B: uint8(rnd.Intn(256)), A: 255}
		cx, cy := rnd.Intn(side), rnd.Intn(side)
		r := 50 + rnd.Intn(150)

		for y := max(0, cy-r); y < min(side, cy+r); y++ {
			for x := max(0, cx-r); x < min(side, cx+r); x++ {
				dx, dy := x-cx, y-cy

				if dx*dx+dy*dy <= r*r {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}

	return img
}

// Seed clears every target and writes the same generated assets to each of
// them, so that file and blob backends serve identical bytes.
func Seed(ctx context.Context, cfg SeedConfig, targets ...Writer) ([]Asset, error) {
	assets, err := GenerateAssets(cfg)

	if err != nil {
		return nil, err
	}

	for _, t := range targets {
		if c, ok := t.(Clearer); ok {
			if err := c.ClearAll(ctx); err != nil {
				return nil, errors.Wrap(err, "clear before seeding")
			}
		}

		for _, a := range assets {
			if err := t.Put(ctx, a.Name, a.Data); err != nil {
				return nil, errors.Wrapf(err, "seed %s", a.Name)
			}
		}
	}

	log := cfg.Logger

	if log == nil {
		log = logrus.StandardLogger()
	}

	log.WithFields(logrus.Fields{
		"assets":  len(assets),
		"targets": len(targets),
	}).Info("seeded test assets")

	return assets, nil
}
