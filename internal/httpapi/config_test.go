package httpapi

import "testing"

func TestSetMaxUploadBytes_DefaultWhenNonPositive(t *testing.T) {
	defer SetMaxUploadBytes(0)
	SetMaxUploadBytes(-1)
	if maxUploadBytes != 16<<20 {
		t.Fatalf("expected default 16MiB, got %d", maxUploadBytes)
	}
	SetMaxUploadBytes(1234)
	if maxUploadBytes != 1234 {
		t.Fatalf("expected 1234, got %d", maxUploadBytes)
	}
}

func TestSetCORSOptions_DefaultsMethodsAndHeaders(t *testing.T) {
	defer SetCORSOptions(false, nil, nil, nil)
	SetCORSOptions(true, []string{"http://localhost:3000"}, nil, nil)
	if !corsEnabled || len(corsAllowedOrigins) != 1 {
		t.Fatalf("origins not applied")
	}
	if len(corsAllowedMethods) == 0 || len(corsAllowedHeaders) == 0 {
		t.Fatalf("expected default methods/headers, got %v %v", corsAllowedMethods, corsAllowedHeaders)
	}
}
