package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAttachment(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     bool
	}{
		{"image", "image/png", 1024, false},
		{"video", "video/mp4", 1024, false},
		{"audio", "audio/ogg", 1024, false},
		{"pdf", "application/pdf", 1024, false},
		{"binary", "application/octet-stream", 1024, false},
		{"executable", "application/x-msdownload", 1024, true},
		{"html", "text/html", 1024, true},
		{"empty type", "", 1024, true},
		{"zero size", "image/png", 0, true},
		{"negative size", "image/png", -1, true},
		{"over limit", "image/png", MaxAttachmentSize + 1, true},
		{"at limit", "image/png", MaxAttachmentSize, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAttachment(tt.contentType, tt.size)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileURL(t *testing.T) {
	c := &Client{cfg: S3Config{PublicBase: "https://cdn.example.com"}}
	assert.Equal(t, "https://cdn.example.com/attachments/a/b.png", c.FileURL("attachments/a/b.png"))
	assert.Empty(t, c.FileURL(""))

	var nilClient *Client
	assert.Empty(t, nilClient.FileURL("key"))

	noBase := &Client{cfg: S3Config{}}
	assert.Empty(t, noBase.FileURL("key"))
}
