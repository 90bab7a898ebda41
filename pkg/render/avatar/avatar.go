// Package avatar loads profile pictures for the passport renderer.
//
// An avatar comes from one of three places: an image already decoded in
// memory, a local file, or a URL (ipfs:// references are rewritten to an
// HTTP gateway). Loaded images are cropped to their centered largest
// square. PNG, JPEG, GIF, WebP and BMP are decoded.
package avatar

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/idplease/pkg/cache"
	apperrors "github.com/matzehuels/idplease/pkg/errors"
	"github.com/matzehuels/idplease/pkg/integrations"
)

// MaxBytes caps downloaded and read avatar sizes.
const MaxBytes = 20 << 20

const namespace = "avatar"

// Source identifies an avatar. At most one field is meaningful, checked in
// the order Image, Path, URL.
type Source struct {
	Image image.Image
	Path  string
	URL   string
}

// FromImage wraps an already decoded image.
func FromImage(img image.Image) Source { return Source{Image: img} }

// Parse classifies a user- or API-supplied reference: http(s) and ipfs
// references are URLs, anything else non-blank is a file path.
func Parse(ref string) Source {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return Source{}
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "ipfs://"):
		return Source{URL: ref}
	default:
		return Source{Path: ref}
	}
}

// Empty reports whether the source names no avatar.
func (s Source) Empty() bool { return s.Image == nil && s.Path == "" && s.URL == "" }

// String describes the source for logs.
func (s Source) String() string {
	switch {
	case s.Image != nil:
		return "<image>"
	case s.Path != "":
		return s.Path
	default:
		return s.URL
	}
}

// Avatar is a loaded, square-cropped image. Digest identifies the source
// bytes (empty for in-memory images) and feeds artifact cache keys.
type Avatar struct {
	Image  image.Image
	Digest string
}

// Loader fetches and decodes avatars. Remote bytes are cached.
type Loader struct {
	client  *integrations.Client
	gateway string
}

// NewLoader creates a Loader. gateway is the IPFS gateway used for
// ipfs:// URLs ("" selects the default).
func NewLoader(c cache.Cache, ttl time.Duration, gateway string, opts ...integrations.Option) *Loader {
	headers := map[string]string{"Accept": "image/*"}
	return &Loader{
		client:  integrations.NewClient(c, namespace, ttl, headers, opts...),
		gateway: gateway,
	}
}

// Load returns the cropped avatar for src. Failures carry
// ErrCodeImageLoad (could not obtain bytes) or ErrCodeImageDecode (bytes
// are not a supported image).
func (l *Loader) Load(ctx context.Context, src Source) (*Avatar, error) {
	switch {
	case src.Image != nil:
		return &Avatar{Image: CropSquare(src.Image)}, nil
	case src.Path != "":
		data, err := readFile(src.Path)
		if err != nil {
			return nil, err
		}
		return decode(data, src.Path)
	case src.URL != "":
		data, err := l.fetch(ctx, integrations.RewriteIPFS(src.URL, l.gateway))
		if err != nil {
			return nil, err
		}
		return decode(data, src.URL)
	default:
		return nil, apperrors.New(apperrors.ErrCodeImageLoad, "no avatar source")
	}
}

type remoteImage struct {
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
}

func (l *Loader) fetch(ctx context.Context, u string) ([]byte, error) {
	var img remoteImage
	err := l.client.Cached(ctx, u, false, &img, func() error {
		data, ct, err := l.client.GetBytes(ctx, u, MaxBytes)
		if err != nil {
			return err
		}
		img = remoteImage{Data: data, ContentType: ct}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeImageLoad, err, "fetch avatar %s", u)
	}
	return img.Data, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "avatar %s", path)
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeImageLoad, err, "open avatar %s", path)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(f, MaxBytes+1)); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeImageLoad, err, "read avatar %s", path)
	}
	if buf.Len() > MaxBytes {
		return nil, apperrors.New(apperrors.ErrCodeImageLoad, "avatar %s exceeds %d bytes", path, MaxBytes)
	}
	return buf.Bytes(), nil
}

func decode(data []byte, name string) (*Avatar, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeImageDecode, err, "decode avatar %s", name)
	}
	return &Avatar{Image: CropSquare(img), Digest: cache.Hash(data)}, nil
}

// CropSquare returns the centered largest square of img.
func CropSquare(img image.Image) image.Image {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	if b.Dx() == b.Dy() {
		return img
	}
	return imaging.CropCenter(img, side, side)
}
