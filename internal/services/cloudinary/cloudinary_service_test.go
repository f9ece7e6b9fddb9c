package cloudinary

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/config"
)

func TestUploadParams(t *testing.T) {
	svc := NewCloudinaryService(config.CloudinaryConfig{
		CloudName:    "swapit",
		APIKey:       "key",
		APISecret:    "secret",
		UploadPreset: "items",
		UploadFolder: "swapit",
	})
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	params, err := svc.UploadParams()
	if err != nil {
		t.Fatalf("UploadParams() error = %v", err)
	}

	// Подпись Cloudinary: sha1 от отсортированных параметров и секрета
	sum := sha1.Sum([]byte("folder=swapit&timestamp=1700000000&upload_preset=items" + "secret"))
	if want := hex.EncodeToString(sum[:]); params.Signature != want {
		t.Errorf("Signature = %s, want %s", params.Signature, want)
	}
	if params.Timestamp != "1700000000" || params.CloudName != "swapit" || params.APIKey != "key" {
		t.Errorf("unexpected params: %+v", params)
	}
}

func TestUploadParams_Disabled(t *testing.T) {
	svc := NewCloudinaryService(config.CloudinaryConfig{CloudName: "swapit"})
	if _, err := svc.UploadParams(); apperr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("UploadParams() err = %v, want 404", err)
	}
}
