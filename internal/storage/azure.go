package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/geolens/visibility-bot/internal/models"
	"github.com/sirupsen/logrus"
)

// BlobRepository persists one JSON metrics snapshot per brand in Azure
// Blob Storage.
type BlobRepository struct {
	client        *azblob.Client
	containerName string
}

// Ensure BlobRepository implements MetricsRepository
var _ MetricsRepository = (*BlobRepository)(nil)

// NewBlobRepository creates a blob-backed metrics repository using managed
// identity
func NewBlobRepository(accountName, containerName string) (*BlobRepository, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	repo := &BlobRepository{
		client:        client,
		containerName: containerName,
	}

	if err := repo.ensureContainer(); err != nil {
		return nil, fmt.Errorf("failed to ensure container exists: %w", err)
	}

	return repo, nil
}

func (r *BlobRepository) ensureContainer() error {
	ctx := context.Background()

	_, err := r.client.CreateContainer(ctx, r.containerName, nil)
	if err != nil {
		if !strings.Contains(err.Error(), "ContainerAlreadyExists") {
			return fmt.Errorf("failed to create container: %w", err)
		}
		logrus.Debugf("Container %s already exists", r.containerName)
	} else {
		logrus.Infof("Created container %s", r.containerName)
	}

	return nil
}

func metricsBlobName(brandID string) string {
	return fmt.Sprintf("metrics-%s.json", brandID)
}

// Load fetches the metrics snapshot for a brand. A brand with no stored
// snapshot yet gets empty metrics.
func (r *BlobRepository) Load(ctx context.Context, brandID string) (models.VisibilityMetrics, error) {
	var metrics models.VisibilityMetrics

	response, err := r.client.DownloadStream(ctx, r.containerName, metricsBlobName(brandID), nil)
	if err != nil {
		if strings.Contains(err.Error(), "BlobNotFound") {
			return metrics, nil
		}
		return metrics, &PersistenceError{Op: "load", BrandID: brandID, Err: err}
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return metrics, &PersistenceError{Op: "load", BrandID: brandID, Err: err}
	}

	if err := json.Unmarshal(data, &metrics); err != nil {
		return metrics, &PersistenceError{Op: "load", BrandID: brandID, Err: err}
	}

	return metrics, nil
}

// Save replaces the metrics snapshot for a brand
func (r *BlobRepository) Save(ctx context.Context, brandID string, metrics models.VisibilityMetrics) error {
	data, err := json.Marshal(metrics)
	if err != nil {
		return &PersistenceError{Op: "save", BrandID: brandID, Err: err}
	}

	_, err = r.client.UploadBuffer(ctx, r.containerName, metricsBlobName(brandID), data, &azblob.UploadBufferOptions{
		BlockSize:   int64(1024 * 1024),
		Concurrency: 3,
	})
	if err != nil {
		return &PersistenceError{Op: "save", BrandID: brandID, Err: err}
	}

	logrus.Infof("Stored metrics snapshot for brand %s (%d responses)", brandID, len(metrics.History))
	return nil
}
