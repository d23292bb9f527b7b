package blob

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	log "github.com/sirupsen/logrus"
)

// Uploader copies raw uploads to Azure Blob cold storage. The upload is a
// best-effort side channel: callers log failures and move on, the primary
// job flow never depends on it.
type Uploader struct {
	client    *azblob.Client
	container string
	folder    string
}

// NewUploader builds an uploader from a connection string. An empty
// connection string yields a disabled uploader that skips every upload.
func NewUploader(connectionString, container, folder string) (*Uploader, error) {
	if connectionString == "" {
		log.Println("Blob connection string is not set, cold-storage uploads disabled.")
		return &Uploader{container: container, folder: folder}, nil
	}
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}
	return &Uploader{client: client, container: container, folder: folder}, nil
}

// Upload streams the file to <folder>/<originalFilename> in the container.
func (u *Uploader) Upload(ctx context.Context, filePath, originalFilename string) error {
	if u == nil || u.client == nil {
		return nil
	}
	blobName := path.Join(u.folder, originalFilename)

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open %s for blob upload: %w", filePath, err)
	}
	defer f.Close()

	log.Printf("Uploading to blob storage: container=%s blob=%s", u.container, blobName)
	if _, err := u.client.UploadFile(ctx, u.container, blobName, f, nil); err != nil {
		return fmt.Errorf("upload blob %s: %w", blobName, err)
	}
	log.Printf("Blob upload successful for %s", originalFilename)
	return nil
}
