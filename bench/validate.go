package bench

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"

	"imgbench/model"
)

// ImageHeader fails for payloads that do not start with a decodable image
// header.
func ImageHeader(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))

	if err != nil {
		return errors.Wrapf(model.ErrIO, "invalid image: %v", err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.Wrapf(model.ErrIO, "invalid image size %dx%d", cfg.Width, cfg.Height)
	}

	return nil
}
