package main

import (
	"bytes"
	"errors"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/maauso/gridcomposer/internal/compose"
	"github.com/maauso/gridcomposer/internal/layout"
	"github.com/maauso/gridcomposer/internal/media"
)

func TestParseSlots(t *testing.T) {
	got, err := parseSlots([]string{"0=a.jpg", " 3 =dir/with=sign.mp4"})
	if err != nil {
		t.Fatalf("parseSlots() error = %v", err)
	}
	if got[0] != "a.jpg" {
		t.Errorf("slot 0 = %q, want %q", got[0], "a.jpg")
	}
	if got[3] != "dir/with=sign.mp4" {
		t.Errorf("slot 3 = %q, want %q", got[3], "dir/with=sign.mp4")
	}
}

func TestParseSlots_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		specs []string
	}{
		{"missing separator", []string{"a.jpg"}},
		{"missing path", []string{"1="}},
		{"non-numeric index", []string{"x=a.jpg"}},
		{"duplicate index", []string{"1=a.jpg", "1=b.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseSlots(tt.specs); err == nil {
				t.Errorf("parseSlots(%v) expected error", tt.specs)
			}
		})
	}

	if _, err := parseSlots([]string{"nope"}); !errors.Is(err, errBadSlotFlag) {
		t.Errorf("error = %v, want errBadSlotFlag", err)
	}
}

func TestBuildRequest(t *testing.T) {
	img := filepath.Join(t.TempDir(), "tile.png")
	if err := imaging.Save(imaging.New(8, 8, color.Black), img); err != nil {
		t.Fatalf("save fixture: %v", err)
	}

	req, err := buildRequest(composeOpts{
		layout:   "split-horizontal",
		slots:    []string{"1=" + img},
		width:    640,
		height:   480,
		duration: 2,
	})
	if err != nil {
		t.Fatalf("buildRequest() error = %v", err)
	}

	if req.Layout != layout.SplitHorizontal {
		t.Errorf("Layout = %q", req.Layout)
	}
	if got := req.Slots[1]; got.Path != img || got.Kind != media.KindImage {
		t.Errorf("slot 1 = %+v", got)
	}
	if req.ForcedDurationSec != 2 {
		t.Errorf("ForcedDurationSec = %v, want 2", req.ForcedDurationSec)
	}
	if err := req.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestBuildRequest_MissingSource(t *testing.T) {
	_, err := buildRequest(composeOpts{
		layout: "fullscreen",
		slots:  []string{"0=" + filepath.Join(t.TempDir(), "missing.jpg")},
		width:  10, height: 10,
	})
	if !errors.Is(err, compose.ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestLayoutsCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"layouts"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, name := range []string{"split-horizontal", "triple", "quad", "fullscreen"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("output missing %q:\n%s", name, out.String())
		}
	}
}

func TestComposeCommand_RequiresFlags(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"compose", "--width", "100"})

	if err := root.Execute(); err == nil {
		t.Error("expected error for missing --layout and --slot")
	}
}
