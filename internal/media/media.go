// Package media creates media records on the platform and imports their files.
package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/identity"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

// UploadSubject is the message subject for deferred uploads.
const UploadSubject = "simple-api.media.upload"

const defaultExtension = "jpg"

// Request is the body of the media endpoints.
type Request struct {
	URL        string `json:"url"`
	FolderName string `json:"folder_name"`
	FileName   string `json:"file_name,omitempty"`
}

// UploadMessage is dispatched when an upload is deferred.
type UploadMessage struct {
	MediaID   string `json:"media_id"`
	URL       string `json:"url"`
	FileName  string `json:"file_name"`
	Extension string `json:"extension"`
}

// Dispatcher hands a message to the broker.
type Dispatcher interface {
	Dispatch(ctx context.Context, subject string, msg interface{}) error
}

type Service struct {
	repo          platform.Repository
	uploader      platform.MediaUploader
	dispatcher    Dispatcher
	defaultFolder string
	logger        *zap.Logger

	mu      sync.Mutex
	folders map[string]string
}

func NewService(repo platform.Repository, uploader platform.MediaUploader, dispatcher Dispatcher, defaultFolder string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:          repo,
		uploader:      uploader,
		dispatcher:    dispatcher,
		defaultFolder: defaultFolder,
		logger:        logger,
		folders:       map[string]string{},
	}
}

// Create upserts the media record for req.URL and uploads its file, inline when
// sync is set and through the dispatcher otherwise.
func (s *Service) Create(ctx context.Context, req Request, sync bool) (string, error) {
	msg, err := s.prepare(ctx, req)
	if err != nil {
		return "", err
	}

	if sync || s.dispatcher == nil {
		if err := s.HandleUpload(ctx, msg); err != nil {
			return "", err
		}
		return msg.MediaID, nil
	}

	if err := s.dispatcher.Dispatch(ctx, UploadSubject, msg); err != nil {
		return "", fmt.Errorf("failed to dispatch media upload: %w", err)
	}
	s.logger.Info("Media upload dispatched", zap.String("media_id", msg.MediaID), zap.String("url", msg.URL))
	return msg.MediaID, nil
}

// Import returns the media id for a product image, uploading only when the
// media record has no file yet.
func (s *Service) Import(ctx context.Context, fileURL, fileName string) (string, error) {
	mediaID := identity.FromKey(fileURL)
	res, err := s.repo.Search(ctx, "media", platform.NewCriteria().WithIDs(mediaID))
	if err != nil {
		return "", fmt.Errorf("failed to search media: %w", err)
	}
	if existing := res.First(); existing != nil && existing["hasFile"] == true {
		return mediaID, nil
	}

	return s.Create(ctx, Request{URL: fileURL, FileName: fileName}, true)
}

// HandleUpload performs the upload described by msg.
func (s *Service) HandleUpload(ctx context.Context, msg UploadMessage) error {
	if err := s.uploader.UploadFromURL(ctx, msg.MediaID, msg.URL, msg.FileName, msg.Extension); err != nil {
		return err
	}
	s.logger.Debug("Media uploaded", zap.String("media_id", msg.MediaID), zap.String("file_name", msg.FileName))
	return nil
}

func (s *Service) prepare(ctx context.Context, req Request) (UploadMessage, error) {
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return UploadMessage{}, apperrors.NewValidation(apperrors.CodeMissingURL, "url", "url is required")
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return UploadMessage{}, apperrors.NewValidation(apperrors.CodeInvalidURL, "url", "invalid media url: %s", req.URL)
	}

	folder := req.FolderName
	if folder == "" {
		folder = s.defaultFolder
	}
	folderID, err := s.folderID(ctx, folder)
	if err != nil {
		return UploadMessage{}, err
	}

	mediaID := identity.FromKey(req.URL)
	fileName, extension := fileParts(u.Path)
	if req.FileName != "" {
		fileName = req.FileName
	} else {
		// derived names are not unique across hosts
		fileName = fileName + "-" + mediaID[:8]
	}

	media := platform.Entity{
		"id":            mediaID,
		"mediaFolderId": folderID,
		"customFields":  map[string]interface{}{"simple_api_url": req.URL},
	}
	if err := s.repo.Upsert(ctx, "media", []platform.Entity{media}); err != nil {
		return UploadMessage{}, fmt.Errorf("failed to upsert media: %w", err)
	}

	return UploadMessage{MediaID: mediaID, URL: req.URL, FileName: fileName, Extension: extension}, nil
}

// folderID looks a folder up by name and creates it when missing.
func (s *Service) folderID(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", nil
	}

	s.mu.Lock()
	id, ok := s.folders[name]
	s.mu.Unlock()
	if ok {
		return id, nil
	}

	ids, err := s.repo.SearchIDs(ctx, "media_folder", platform.NewCriteria().WithFilter(platform.Equals("name", name)).WithLimit(1, 1))
	if err != nil {
		return "", fmt.Errorf("failed to search media folder: %w", err)
	}
	if len(ids) > 0 {
		id = ids[0]
	} else {
		id = identity.FromKey("media-folder:" + name)
		folder := platform.Entity{
			"id":                     id,
			"name":                   name,
			"useParentConfiguration": false,
			"configuration":          map[string]interface{}{"id": identity.FromKey("media-folder-configuration:" + name)},
		}
		if err := s.repo.Upsert(ctx, "media_folder", []platform.Entity{folder}); err != nil {
			return "", fmt.Errorf("failed to create media folder: %w", err)
		}
		s.logger.Info("Media folder created", zap.String("name", name), zap.String("id", id))
	}

	s.mu.Lock()
	s.folders[name] = id
	s.mu.Unlock()
	return id, nil
}

func fileParts(p string) (string, string) {
	base := path.Base(p)
	if base == "." || base == "/" {
		base = ""
	}
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = defaultExtension
	}
	if name == "" {
		name = "media"
	}
	return name, ext
}
