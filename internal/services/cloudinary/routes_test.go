package cloudinary

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/config"
	"github.com/rajivgeraev/swapit-api/internal/storetest"
)

func TestRoutes_UploadParams(t *testing.T) {
	api := storetest.NewAPI()
	svc := NewCloudinaryService(config.CloudinaryConfig{
		CloudName:    "swapit",
		APIKey:       "key",
		APISecret:    "secret",
		UploadPreset: "items",
		UploadFolder: "swapit",
	})
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	svc.SetupRoutes(api.Router(), api.Auth())

	status, data := api.Call(t, http.MethodGet, "/api/upload/params", uuid.Nil, "")
	storetest.ExpectStatus(t, "anonymous", status, http.StatusUnauthorized, data)

	status, data = api.Call(t, http.MethodGet, "/api/upload/params", uuid.New(), "")
	if status != http.StatusOK {
		t.Fatalf("authorized: status = %d body = %s", status, data)
	}
	var params UploadParams
	if err := json.Unmarshal(data, &params); err != nil {
		t.Fatal(err)
	}
	if params.Timestamp != "1700000000" || params.Signature == "" || params.APIKey != "key" {
		t.Errorf("params = %s", data)
	}
}
