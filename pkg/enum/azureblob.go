package enum

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/praetorian-inc/scanforge/pkg/types"
)

// AzureBlobConfig configures Azure Blob Storage container enumeration.
type AzureBlobConfig struct {
	AccountURL string // e.g. https://<account>.blob.core.windows.net
	Container  string // Container to enumerate (required)
	Prefix     string // Blob-name prefix filter, "" for the whole container
	Config            // Embedded base config (MaxFileSize, etc.)
}

// AzureBlobEnumerator enumerates blobs from an Azure Storage container.
type AzureBlobEnumerator struct {
	client    *azblob.Client
	container string
	config    AzureBlobConfig
}

// NewAzureBlobEnumerator creates an Azure Blob Storage enumerator, resolving
// credentials through azidentity's default chain (environment, managed
// identity, Azure CLI login).
func NewAzureBlobEnumerator(cfg AzureBlobConfig) (*AzureBlobEnumerator, error) {
	if cfg.AccountURL == "" {
		return nil, fmt.Errorf("Azure storage account URL is required")
	}
	if cfg.Container == "" {
		return nil, fmt.Errorf("Azure container is required")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("resolving Azure credentials: %w", err)
	}

	client, err := azblob.NewClient(cfg.AccountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating Azure Blob client: %w", err)
	}

	return &AzureBlobEnumerator{
		client:    client,
		container: cfg.Container,
		config:    cfg,
	}, nil
}

// Enumerate yields every blob (below MaxFileSize, when set) in the container.
func (e *AzureBlobEnumerator) Enumerate(ctx context.Context, callback func(content []byte, blobID types.BlobID, prov types.Provenance) error) error {
	pager := e.client.NewListBlobsFlatPager(e.container, &azblob.ListBlobsFlatOptions{
		Prefix: optionalString(e.config.Prefix),
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("listing blobs in %s: %w", e.container, err)
		}

		for _, item := range page.Segment.BlobItems {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if item.Name == nil {
				continue
			}
			if e.config.MaxFileSize > 0 && item.Properties != nil && item.Properties.ContentLength != nil &&
				*item.Properties.ContentLength > e.config.MaxFileSize {
				continue
			}

			resp, err := e.client.DownloadStream(ctx, e.container, *item.Name, nil)
			if err != nil {
				// Skip blobs we can't read (access tier, permissions, etc.)
				continue
			}
			var buf bytes.Buffer
			if _, err := buf.ReadFrom(resp.Body); err != nil {
				resp.Body.Close()
				continue
			}
			resp.Body.Close()
			data := buf.Bytes()

			if isBinary(data) {
				continue
			}

			blobID := types.ComputeBlobID(data)
			prov := types.FileProvenance{
				FilePath: fmt.Sprintf("azblob://%s/%s", e.container, *item.Name),
			}

			if err := callback(data, blobID, prov); err != nil {
				return err
			}
		}
	}

	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
