package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/patitas-adopcion/apiserver/config"
	"github.com/patitas-adopcion/apiserver/types"
)

const (
	cloudinaryAPIHost      = "https://api.cloudinary.com/v1_1"
	cloudinaryDeliveryHost = "https://res.cloudinary.com"
)

// CloudinaryClient stores images on Cloudinary. Object keys map to public
// ids by dropping the file extension and prefixing the configured folder.
type CloudinaryClient struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	now       func() time.Time
}

// NewCloudinaryClient constructs a Cloudinary client from config.
func NewCloudinaryClient(cfg config.CloudinaryConfig) (*CloudinaryClient, error) {
	if strings.TrimSpace(cfg.CloudName) == "" {
		return nil, errors.New("cloudinary cloud name is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.APISecret) == "" {
		return nil, errors.New("cloudinary api key and secret are required")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, err
	}

	return &CloudinaryClient{
		cld:       cld,
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		folder:    strings.Trim(cfg.Folder, "/"),
		now:       time.Now,
	}, nil
}

func (c *CloudinaryClient) Name() string {
	return "cloudinary"
}

// EnsureBucket is a no-op: Cloudinary creates folders on first upload.
func (c *CloudinaryClient) EnsureBucket(context.Context) error {
	return nil
}

// Put uploads the image and returns Cloudinary's secure URL.
func (c *CloudinaryClient) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	resp, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID: c.publicID(key),
	})
	if err != nil {
		return "", err
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// Delete destroys the image behind key.
func (c *CloudinaryClient) Delete(ctx context.Context, key string) error {
	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: c.publicID(key),
	})
	if err != nil {
		return err
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", resp.Error.Message)
	}
	return nil
}

// SignPut returns a signed multipart POST the client can send directly to
// the Cloudinary upload API. Cloudinary signatures carry their own timestamp
// and expire after one hour regardless of ttl.
func (c *CloudinaryClient) SignPut(_ context.Context, key, _ string, _ time.Duration) (types.DirectUpload, error) {
	publicID := c.publicID(key)
	timestamp := strconv.FormatInt(c.now().Unix(), 10)

	params := url.Values{}
	params.Set("public_id", publicID)
	params.Set("timestamp", timestamp)

	signature, err := api.SignParameters(params, c.apiSecret)
	if err != nil {
		return types.DirectUpload{}, err
	}

	return types.DirectUpload{
		Method: "POST",
		URL:    fmt.Sprintf("%s/%s/image/upload", cloudinaryAPIHost, c.cloudName),
		Fields: map[string]string{
			"api_key":   c.apiKey,
			"public_id": publicID,
			"timestamp": timestamp,
			"signature": signature,
		},
		PublicURL: c.PublicURL(key),
	}, nil
}

// PublicURL returns the delivery URL for key.
func (c *CloudinaryClient) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/image/upload/%s", cloudinaryDeliveryHost, c.cloudName, c.publicID(key))
}

func (c *CloudinaryClient) publicID(key string) string {
	id := strings.TrimSuffix(key, path.Ext(key))
	if c.folder == "" {
		return id
	}
	return path.Join(c.folder, id)
}
