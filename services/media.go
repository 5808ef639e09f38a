package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"eldercare-server/config"
	"eldercare-server/models"
)

// MaxPhotoDimension bounds both sides of a stored completion photo
const MaxPhotoDimension = 1600

// MediaStore persists images and returns a public URL
type MediaStore interface {
	Upload(ctx context.Context, folder, name string, r io.Reader) (string, error)
}

// CloudinaryStore uploads to a Cloudinary account
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cfg config.CloudinaryConfig) (*CloudinaryStore, error) {
	cloudinaryURL := fmt.Sprintf("cloudinary://%s:%s@%s", cfg.APIKey, cfg.APISecret, cfg.CloudName)
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	log.Printf("🔧 Using Cloudinary URL: cloudinary://%s:***@%s", cfg.APIKey, cfg.CloudName)
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, folder, name string, r io.Reader) (string, error) {
	overwrite := true
	unique := false
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         folder,
		PublicID:       name,
		Overwrite:      &overwrite,
		UniqueFilename: &unique,
		ResourceType:   "image",
	})
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

// PrepareImage decodes an uploaded image, shrinks it to fit
// MaxPhotoDimension and re-encodes it as JPEG
func PrepareImage(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, invalid("photo is not a supported image")
	}
	img = imaging.Fit(img, MaxPhotoDimension, MaxPhotoDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, internal("failed to encode photo", err)
	}
	return buf.Bytes(), nil
}

// PhotoService attaches completion photos to tasks
type PhotoService struct {
	tasks *TaskService
	store MediaStore
	now   func() time.Time
}

// NewPhotoService accepts a nil store; uploads then fail as unavailable
func NewPhotoService(tasks *TaskService, store MediaStore) *PhotoService {
	return &PhotoService{tasks: tasks, store: store, now: utcNow}
}

func (s *PhotoService) Upload(ctx context.Context, actor Actor, taskID uint, r io.Reader) (*models.TaskResponse, error) {
	task, err := s.tasks.GetOwned(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, unavailable("photo storage is not configured")
	}

	data, err := PrepareImage(r)
	if err != nil {
		return nil, err
	}

	folder := fmt.Sprintf("tasks/%d", task.ID)
	name := fmt.Sprintf("task_%d_%d", task.ID, s.now().Unix())
	url, err := s.store.Upload(ctx, folder, name, bytes.NewReader(data))
	if err != nil {
		log.Printf("❌ Photo upload failed for task %d: %v", task.ID, err)
		return nil, unavailable("photo upload failed")
	}
	log.Printf("✅ Photo uploaded for task %d: %s", task.ID, url)

	return s.tasks.AttachPhoto(ctx, actor, task.ID, url)
}
