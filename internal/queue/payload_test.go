package queue

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestScanPayloadUnmarshalBase64Buffer(t *testing.T) {
	raw := `{
		"scanId": "scan-123",
		"userId": "user-9",
		"filename": "id.jpg",
		"mimeType": "image/jpeg",
		"fileSize": 4,
		"fileBuffer": "AQIDBA==",
		"expectedIdType": "UMID",
		"metadata": {"source": "kiosk-2"}
	}`

	var p ScanPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if p.ScanID != "scan-123" || p.UserID != "user-9" || p.Filename != "id.jpg" {
		t.Errorf("header fields = %+v", p)
	}
	if p.ExpectedIDType != "UMID" {
		t.Errorf("ExpectedIDType = %q", p.ExpectedIDType)
	}
	if !bytes.Equal(p.FileBuffer, []byte{1, 2, 3, 4}) {
		t.Errorf("FileBuffer = %v, want [1 2 3 4]", p.FileBuffer)
	}
	if p.Metadata["source"] != "kiosk-2" {
		t.Errorf("Metadata = %v", p.Metadata)
	}
}

// Older backend versions serialized the image as a raw Node.js Buffer.
func TestScanPayloadUnmarshalLegacyBufferObject(t *testing.T) {
	raw := `{
		"scanId": "scan-124",
		"userId": "user-9",
		"filename": "id.jpg",
		"fileBuffer": {"type": "Buffer", "data": [255, 216, 255, 224]}
	}`

	var p ScanPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !bytes.Equal(p.FileBuffer, []byte{0xFF, 0xD8, 0xFF, 0xE0}) {
		t.Errorf("FileBuffer = %v", p.FileBuffer)
	}
}

func TestScanPayloadUnmarshalMissingBuffer(t *testing.T) {
	var p ScanPayload
	if err := json.Unmarshal([]byte(`{"scanId": "scan-125"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.FileBuffer != nil {
		t.Errorf("FileBuffer = %v, want nil", p.FileBuffer)
	}
}

func TestScanPayloadUnmarshalRejectsBadBuffers(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{name: "Invalid base64", raw: `{"scanId": "s", "fileBuffer": "!!not-base64!!"}`},
		{name: "Buffer object without type", raw: `{"scanId": "s", "fileBuffer": {"data": [1, 2]}}`},
		{name: "Buffer object without data", raw: `{"scanId": "s", "fileBuffer": {"type": "Buffer"}}`},
		{name: "Buffer data with non-numeric entry", raw: `{"scanId": "s", "fileBuffer": {"type": "Buffer", "data": [1, "x"]}}`},
		{name: "Numeric fileBuffer", raw: `{"scanId": "s", "fileBuffer": 42}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p ScanPayload
			if err := json.Unmarshal([]byte(tc.raw), &p); err == nil {
				t.Error("unmarshal accepted a malformed fileBuffer")
			}
		})
	}
}

func TestRedisScanJobRoundTrip(t *testing.T) {
	raw := `{
		"id": "job-1",
		"type": "scan-id",
		"attempts": 1,
		"maxRetries": 3,
		"payload": {"scanId": "scan-1", "userId": "u", "filename": "f.png", "fileBuffer": "AA=="}
	}`

	var job RedisScanJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if job.ID != "job-1" || job.Type != "scan-id" || job.MaxRetries != 3 {
		t.Errorf("job = %+v", job)
	}
	if len(job.Payload.FileBuffer) != 1 || job.Payload.FileBuffer[0] != 0 {
		t.Errorf("payload buffer = %v", job.Payload.FileBuffer)
	}
}
