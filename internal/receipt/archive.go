package receipt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// Archiver keeps a copy of every scanned receipt image, so a transaction's
// source document can be reviewed later.
type Archiver struct {
	bucket string
	opts   []option.ClientOption
}

// NewArchiver creates an archiver writing into bucket. credentialsFile may
// be empty to use ambient credentials.
func NewArchiver(bucket, credentialsFile string) *Archiver {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return &Archiver{bucket: bucket, opts: opts}
}

// Archive uploads the image and returns its gs:// URI.
func (a *Archiver) Archive(ctx context.Context, image []byte, contentType string) (string, error) {
	client, err := storage.NewClient(ctx, a.opts...)
	if err != nil {
		return "", fmt.Errorf("Archive: create storage client: %w", err)
	}
	defer client.Close()

	objectName := fmt.Sprintf("receipts/%s/%s", time.Now().Format("2006/01/02"), uuid.New().String())

	wc := client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, bytes.NewReader(image)); err != nil {
		return "", fmt.Errorf("Archive: write object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("Archive: close writer: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}
