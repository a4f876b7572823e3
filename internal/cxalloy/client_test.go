package cxalloy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListEquipmentFollowsPages(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/v1/equipment" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.URL.Query().Get("project_id"); got != "42" {
			t.Errorf("unexpected project %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"data":[{"equipment_id":101,"name":"VAV-1","type_name":"VAV"},{"name":"skip"}],"pagination":{"has_more":true}}`)
		default:
			fmt.Fprint(w, `{"data":[{"equipment_id":"102","name":"AHU-1","type_name":"AHU"}],"pagination":{"has_more":false}}`)
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/", "secret")
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	records, err := client.ListEquipment(context.Background(), "42")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(records) != 2 || records[0].ID != "101" || records[1].Name != "AHU-1" || records[1].ProjectID != "42" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestListEquipmentErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("project_id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, "")
	if _, err := client.ListEquipment(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := client.ListEquipment(context.Background(), "7"); err == nil {
		t.Fatalf("expected error on 500")
	}
	if _, err := client.ListEquipment(context.Background(), ""); err == nil {
		t.Fatalf("expected error on empty project")
	}
	if _, err := NewClient("", ""); err == nil {
		t.Fatalf("expected error on empty base url")
	}
}
