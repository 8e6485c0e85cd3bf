// Package media stores book cover images.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

type Uploader interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error)
}

// New picks Cloudinary when a CLOUDINARY_URL is configured and local disk otherwise.
func New(cloudinaryURL, uploadDir, publicBaseURL string) (Uploader, error) {
	if cloudinaryURL != "" {
		return NewCloudinary(cloudinaryURL)
	}
	return &Local{Dir: uploadDir, BaseURL: publicBaseURL}, nil
}

type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(url string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	res, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:   folder,
		PublicID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload %s: %w", filename, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload %s: %s", filename, res.Error.Message)
	}
	return res.SecureURL, nil
}

// Local writes files under Dir and serves them from BaseURL + "/uploads/".
type Local struct {
	Dir     string
	BaseURL string
}

func (l *Local) Upload(_ context.Context, folder, filename string, r io.Reader) (string, error) {
	rel, err := cleanFolder(folder)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(l.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(fullPath, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	target := filepath.Join(fullPath, name)
	dest, err := os.Create(target)
	if err != nil {
		return "", err
	}

	_, err = io.Copy(dest, r)
	if cerr := dest.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("write upload %s: %w", filename, err)
	}
	return strings.TrimRight(l.BaseURL, "/") + "/uploads/" + path.Join(rel, name), nil
}

func cleanFolder(folder string) (string, error) {
	if strings.Contains(folder, "..") {
		return "", fmt.Errorf("invalid upload folder %q", folder)
	}
	return path.Clean("/" + strings.ReplaceAll(folder, `\`, "/"))[1:], nil
}
