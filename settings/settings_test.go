package settings

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRead(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	partial := Defaults()
	partial.LocalPort = 7000
	partial.Players = []string{"127.0.0.1:7001", "local"}
	partial.SparseSaving = true

	tests := []struct {
		name    string
		path    string
		want    Settings
		wantErr bool
	}{
		{
			name: "partial file keeps defaults",
			path: write("partial.json", `{"localPort": 7000, "players": ["127.0.0.1:7001", "local"], "sparseSaving": true}`),
			want: partial,
		},
		{
			name:    "invalid json",
			path:    write("broken.json", `{"localPort": `),
			want:    Defaults(),
			wantErr: true,
		},
		{
			name:    "missing file",
			path:    filepath.Join(dir, "missing.json"),
			want:    Defaults(),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Read() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Read() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	Current.LocalPort = 1
	err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Load() error = %v, want not exist", err)
	}
	if !reflect.DeepEqual(Current, Defaults()) {
		t.Errorf("Current = %+v, want defaults", Current)
	}
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	var schema struct {
		Title      string                     `json:"title"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("schema is not valid json: %v", err)
	}
	if schema.Title != "rollnet host settings" {
		t.Errorf("title = %q", schema.Title)
	}
	for _, field := range []string{"mode", "localPort", "players", "inputDelay", "sparseSaving", "debugAddr"} {
		if _, ok := schema.Properties[field]; !ok {
			t.Errorf("schema has no property %q", field)
		}
	}
}
