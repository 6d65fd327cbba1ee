package gcp

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestResolveObjectStoragePublicBaseURLGCSDefault(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	baseURL, source, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode: ObjectStorageModeGCS,
	})
	if err != nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: %v", err)
	}
	if baseURL != "" {
		t.Fatalf("baseURL: want empty got=%q", baseURL)
	}
	if source != "gcs_default" {
		t.Fatalf("source: want=%q got=%q", "gcs_default", source)
	}
}

func TestResolveObjectStoragePublicBaseURLEmulatorFallback(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	baseURL, source, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		EmulatorHost: "http://fake-gcs:4443",
	})
	if err != nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: %v", err)
	}
	if baseURL != "http://fake-gcs:4443" {
		t.Fatalf("baseURL: want=%q got=%q", "http://fake-gcs:4443", baseURL)
	}
	if source != "storage_emulator_host" {
		t.Fatalf("source: want=%q got=%q", "storage_emulator_host", source)
	}
}

func TestResolveObjectStoragePublicBaseURLEnvOverride(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "http://localhost:4443/")

	baseURL, source, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		EmulatorHost: "http://fake-gcs:4443",
	})
	if err != nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: %v", err)
	}
	if baseURL != "http://localhost:4443" {
		t.Fatalf("baseURL: want=%q got=%q", "http://localhost:4443", baseURL)
	}
	if source != "object_storage_public_base_url" {
		t.Fatalf("source: want=%q got=%q", "object_storage_public_base_url", source)
	}
}

func TestResolveObjectStoragePublicBaseURLInvalidEnv(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "localhost:4443")

	_, _, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		EmulatorHost: "http://fake-gcs:4443",
	})
	if err == nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: expected error, got nil")
	}
}

func TestGetPublicURLGCSDefault(t *testing.T) {
	bs := &bucketService{
		avatarBucket: bucketConfig{name: "avatar-bucket"},
	}

	got := bs.GetPublicURL(BucketCategoryAvatar, "avatars/user.png")
	want := "https://storage.googleapis.com/avatar-bucket/avatars/user.png"
	if got != want {
		t.Fatalf("GetPublicURL: want=%q got=%q", want, got)
	}
}

func TestGetPublicURLUsesCDNDomain(t *testing.T) {
	bs := &bucketService{
		attachmentBucket: bucketConfig{
			name:      "attachment-bucket",
			cdnDomain: "cdn.example.com",
		},
	}

	got := bs.GetPublicURL(BucketCategoryAttachment, "expense_slips/file.pdf")
	want := "https://cdn.example.com/expense_slips/file.pdf"
	if got != want {
		t.Fatalf("GetPublicURL: want=%q got=%q", want, got)
	}
}

func TestGetPublicURLUsesPublicBaseURL(t *testing.T) {
	bs := &bucketService{
		publicBaseURL: "http://localhost:4443",
		documentBucket: bucketConfig{
			name: "document-bucket",
		},
	}

	got := bs.GetPublicURL(BucketCategoryDocument, "/reports/project.pdf")
	want := "http://localhost:4443/document-bucket/reports/project.pdf"
	if got != want {
		t.Fatalf("GetPublicURL: want=%q got=%q", want, got)
	}
}

func TestGetPublicURLUsesEmulatorMediaEndpoint(t *testing.T) {
	bs := &bucketService{
		storageMode:   ObjectStorageModeGCSEmulator,
		publicBaseURL: "http://localhost:4443",
		avatarBucket: bucketConfig{
			name: "avatar-bucket",
		},
	}

	got := bs.GetPublicURL(BucketCategoryAvatar, "user_avatar/abc/123.png")
	want := "http://localhost:4443/storage/v1/b/avatar-bucket/o/user_avatar%2Fabc%2F123.png?alt=media"
	if got != want {
		t.Fatalf("GetPublicURL: want=%q got=%q", want, got)
	}
}

func TestGetPublicURLUsesEmulatorHostWhenPublicBaseMissing(t *testing.T) {
	bs := &bucketService{
		storageMode:  ObjectStorageModeGCSEmulator,
		emulatorHost: "http://fake-gcs:4443",
		avatarBucket: bucketConfig{
			name: "avatar-bucket",
		},
	}

	got := bs.GetPublicURL(BucketCategoryAvatar, "/user_avatar/abc/123.png")
	want := "http://fake-gcs:4443/storage/v1/b/avatar-bucket/o/user_avatar%2Fabc%2F123.png?alt=media"
	if got != want {
		t.Fatalf("GetPublicURL: want=%q got=%q", want, got)
	}
}

func TestSignedURLsInEmulatorModeAreUnsigned(t *testing.T) {
	bs := &bucketService{
		storageMode:  ObjectStorageModeGCSEmulator,
		emulatorHost: "http://fake-gcs:4443",
		attachmentBucket: bucketConfig{
			name: "attachment-bucket",
		},
	}

	up, err := bs.GetSignedUploadURL(context.Background(), BucketCategoryAttachment, "expense_slips/e1/slip.png", "image/png", time.Minute)
	if err != nil {
		t.Fatalf("GetSignedUploadURL: %v", err)
	}
	if !strings.HasPrefix(up, "http://fake-gcs:4443/upload/storage/v1/b/attachment-bucket/o?") {
		t.Fatalf("upload URL prefix mismatch: %s", up)
	}
	if !strings.Contains(up, "name=expense_slips%2Fe1%2Fslip.png") {
		t.Fatalf("upload URL should carry escaped object name: %s", up)
	}

	down, err := bs.GetSignedDownloadURL(context.Background(), BucketCategoryAttachment, "expense_slips/e1/slip.png", time.Minute)
	if err != nil {
		t.Fatalf("GetSignedDownloadURL: %v", err)
	}
	want := "http://fake-gcs:4443/storage/v1/b/attachment-bucket/o/expense_slips%2Fe1%2Fslip.png?alt=media"
	if down != want {
		t.Fatalf("download URL: want=%q got=%q", want, down)
	}
}

func TestClampSignedURLTTL(t *testing.T) {
	if got := clampSignedURLTTL(0); got != defaultSignedURLTTL {
		t.Fatalf("zero ttl: want=%v got=%v", defaultSignedURLTTL, got)
	}
	if got := clampSignedURLTTL(-time.Minute); got != defaultSignedURLTTL {
		t.Fatalf("negative ttl: want=%v got=%v", defaultSignedURLTTL, got)
	}
	if got := clampSignedURLTTL(30 * 24 * time.Hour); got != maxSignedURLTTL {
		t.Fatalf("oversize ttl: want=%v got=%v", maxSignedURLTTL, got)
	}
	if got := clampSignedURLTTL(time.Hour); got != time.Hour {
		t.Fatalf("in-range ttl: want=%v got=%v", time.Hour, got)
	}
}

func TestEmulatorPublicURLSmokeRenderableAssets(t *testing.T) {
	bs := &bucketService{
		storageMode:   ObjectStorageModeGCSEmulator,
		publicBaseURL: "http://localhost:4443",
		avatarBucket: bucketConfig{
			name: "avatar-bucket",
		},
		attachmentBucket: bucketConfig{
			name: "attachment-bucket",
		},
		documentBucket: bucketConfig{
			name: "document-bucket",
		},
	}

	cases := []struct {
		name       string
		category   BucketCategory
		key        string
		wantBucket string
		wantCT     string
	}{
		{
			name:       "avatar png",
			category:   BucketCategoryAvatar,
			key:        "user_avatar/u/1.png",
			wantBucket: "avatar-bucket",
			wantCT:     "image/png",
		},
		{
			name:       "expense slip jpg",
			category:   BucketCategoryAttachment,
			key:        "expense_slips/e/slip.jpg",
			wantBucket: "attachment-bucket",
			wantCT:     "image/jpeg",
		},
		{
			name:       "report pdf",
			category:   BucketCategoryDocument,
			key:        "reports/p/summary.pdf",
			wantBucket: "document-bucket",
			wantCT:     "application/pdf",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			publicURL := bs.GetPublicURL(tc.category, tc.key)
			if !strings.HasPrefix(publicURL, "http://localhost:4443/storage/v1/b/"+tc.wantBucket+"/o/") {
				t.Fatalf("publicURL prefix mismatch for %s: %s", tc.name, publicURL)
			}
			if !strings.Contains(publicURL, "alt=media") {
				t.Fatalf("publicURL should include alt=media for renderable object endpoint: %s", publicURL)
			}
			if !strings.Contains(publicURL, strings.ReplaceAll(tc.key, "/", "%2F")) {
				t.Fatalf("publicURL should escape object key path: %s", publicURL)
			}
			if got := contentTypeForKey(tc.key); got != tc.wantCT {
				t.Fatalf("contentTypeForKey(%q): want=%q got=%q", tc.key, tc.wantCT, got)
			}
		})
	}
}
