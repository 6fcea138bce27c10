package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
)

// AzureSource reads images from Azure Blob Storage. Locations have the form
// azblob://<container>/<blob path>.
type AzureSource struct {
	client   *azblob.Client
	maxBytes int64
}

// NewAzureSource authenticates with a shared account key.
func NewAzureSource(accountName string, accountKey string) (*AzureSource, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid azure credentials", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewConfigError("cannot create azure blob client", err)
	}

	return &AzureSource{client: client, maxBytes: DefaultMaxImageBytes}, nil
}

func (s *AzureSource) Fetch(ctx context.Context, location string) ([]byte, error) {
	container, blob, err := ParseBlobLocation(location)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("download of %s failed", location), err)
	}
	body := resp.Body
	defer body.Close()

	return readLimited(body, s.maxBytes, location)
}

// ParseBlobLocation splits azblob://container/path into its parts.
func ParseBlobLocation(location string) (container, blob string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid blob location", err)
	}
	if u.Scheme != "azblob" {
		return "", "", apperrors.NewValidationError(fmt.Sprintf("not an azblob location: %q", location), nil)
	}
	container = u.Host
	blob = strings.TrimPrefix(u.Path, "/")
	if container == "" || blob == "" {
		return "", "", apperrors.NewValidationError(fmt.Sprintf("blob location %q needs a container and a blob name", location), nil)
	}
	return container, blob, nil
}
