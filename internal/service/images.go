package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"os"
	"strings"
	"time"

	"cmcafe_back_end/internal/database"

	"github.com/minio/minio-go/v7"
)

func imageBucket() string {
	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "cafe-images"
	}
	return bucket
}

// UploadProductImage stocke l'image d'un produit dans MinIO et retourne
// son URL publique.
func UploadProductImage(ctx context.Context, productID string, file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	objectName := productID + "/" + file.Filename
	_, err = database.MinIO.PutObject(ctx, imageBucket(), objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("http://%s/%s/%s", os.Getenv("MINIO_ENDPOINT"), imageBucket(), objectName), nil
}

// SignedImageURL génère une URL signée à durée limitée pour une image.
func SignedImageURL(ctx context.Context, objectPath string, duration time.Duration) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	prefix := fmt.Sprintf("http://%s/%s/", os.Getenv("MINIO_ENDPOINT"), imageBucket())
	key := strings.TrimPrefix(objectPath, prefix)

	presignedURL, err := database.MinIO.PresignedGetObject(ctx, imageBucket(), key,
		duration, make(url.Values))
	if err != nil {
		return "", err
	}
	return presignedURL.String(), nil
}
