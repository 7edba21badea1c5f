package blob

import (
	"context"
	"testing"

	"realvision/internal/config"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cfg  config.BlobConfig
		want Driver
	}{
		{name: "default_fs", cfg: config.BlobConfig{FSRoot: t.TempDir()}, want: DriverFilesystem},
		{name: "memory", cfg: config.BlobConfig{Driver: "memory"}, want: DriverMemory},
		{name: "s3", cfg: config.BlobConfig{Driver: "s3", Bucket: "sheets", Endpoint: "http://127.0.0.1:9000", PathStyle: true, AccessKeyID: "AKIA", SecretAccessKey: "SECRET"}, want: DriverS3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if store.Driver() != tc.want {
				t.Fatalf("driver %s want %s", store.Driver(), tc.want)
			}
		})
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, config.BlobConfig{Driver: "gcs"}); err == nil {
		t.Fatal("expected unknown driver error")
	}
	if _, err := Open(ctx, config.BlobConfig{Driver: "s3"}); err == nil {
		t.Fatal("expected missing bucket error")
	}
}
