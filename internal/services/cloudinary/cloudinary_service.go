package cloudinary

import (
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/config"
)

// UploadParams - подписанные параметры для загрузки изображения из браузера
type UploadParams struct {
	Timestamp    string `json:"timestamp"`
	Signature    string `json:"signature"`
	APIKey       string `json:"api_key"`
	CloudName    string `json:"cloud_name"`
	Folder       string `json:"folder,omitempty"`
	UploadPreset string `json:"upload_preset,omitempty"`
}

// CloudinaryService предоставляет методы для работы с Cloudinary
type CloudinaryService struct {
	cfg config.CloudinaryConfig
	now func() time.Time
}

// NewCloudinaryService создает новый экземпляр CloudinaryService
func NewCloudinaryService(cfg config.CloudinaryConfig) *CloudinaryService {
	return &CloudinaryService{cfg: cfg, now: time.Now}
}

// Enabled сообщает, заданы ли ключи Cloudinary
func (s *CloudinaryService) Enabled() bool {
	return s.cfg.CloudName != "" && s.cfg.APIKey != "" && s.cfg.APISecret != ""
}

// UploadParams создаёт параметры для загрузки изображений вещей
func (s *CloudinaryService) UploadParams() (*UploadParams, error) {
	if !s.Enabled() {
		return nil, apperr.NotFound("Загрузка изображений не настроена")
	}

	// Параметры для подписи
	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(s.now().Unix(), 10))
	if s.cfg.UploadFolder != "" {
		params.Set("folder", s.cfg.UploadFolder)
	}
	if s.cfg.UploadPreset != "" {
		params.Set("upload_preset", s.cfg.UploadPreset)
	}

	signature, err := api.SignParameters(params, s.cfg.APISecret)
	if err != nil {
		return nil, apperr.Internal("Ошибка подписи параметров загрузки", err)
	}

	return &UploadParams{
		Timestamp:    params.Get("timestamp"),
		Signature:    signature,
		APIKey:       s.cfg.APIKey,
		CloudName:    s.cfg.CloudName,
		Folder:       s.cfg.UploadFolder,
		UploadPreset: s.cfg.UploadPreset,
	}, nil
}
