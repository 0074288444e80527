package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"image"

	xdraw "golang.org/x/image/draw"
)

// fingerprintSide is the edge length of the downscaled thumbnail the
// fingerprint is computed over. Small enough to hash cheaply, large
// enough that distinct pages do not collide in practice.
const fingerprintSide = 100

// Fingerprint derives a stable content key for a rendered page image:
// the SHA-256 of a 100x100 grayscale downscale. Identical page content
// yields the identical key regardless of the source document.
func Fingerprint(img image.Image) string {
	thumb := image.NewGray(image.Rect(0, 0, fingerprintSide, fingerprintSide))
	xdraw.ApproxBiLinear.Scale(thumb, thumb.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	sum := sha256.Sum256(thumb.Pix)
	return hex.EncodeToString(sum[:])
}
