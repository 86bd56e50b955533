package api

import (
	"strings"
	"testing"
)

func TestDecodeRawPayload(t *testing.T) {
	var out []struct {
		ID string `json:"id"`
	}
	if err := Decode([]byte(`[{"id":"p-1"},{"id":"p-2"}]`), &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 2 || out[0].ID != "p-1" {
		t.Errorf("decoded %+v", out)
	}
}

func TestDecodeDataEnvelope(t *testing.T) {
	var out struct {
		Balance float64 `json:"balance"`
	}
	if err := Decode([]byte(`{"data":{"balance":1500}}`), &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Balance != 1500 {
		t.Errorf("balance = %v", out.Balance)
	}
}

func TestDecodeFullEnvelope(t *testing.T) {
	var out struct {
		Name string `json:"name"`
	}
	if err := Decode([]byte(`{"success":true,"message":"ok","data":{"name":"Fatou"}}`), &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Name != "Fatou" {
		t.Errorf("name = %q", out.Name)
	}
}

func TestDecodeFailureEnvelope(t *testing.T) {
	var out struct{}
	err := Decode([]byte(`{"success":false,"message":"project not found"}`), &out)
	if err == nil {
		t.Fatal("expected error for success=false envelope")
	}
	if !strings.Contains(err.Error(), "project not found") {
		t.Errorf("error %q should carry the backend message", err)
	}
}

func TestDecodeSuccessEnvelopeWithoutData(t *testing.T) {
	var out struct{}
	if err := Decode([]byte(`{"success":true}`), &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	var out struct{}
	if err := Decode([]byte(`not json at all`), &out); err == nil {
		t.Fatal("expected error for non-JSON body")
	}
	if err := Decode(nil, &out); err == nil {
		t.Fatal("expected error for empty body")
	}
}
