package export

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"valid", Options{Width: 1920, Height: 1080, FPS: 30}, false},
		{"zero width", Options{Width: 0, Height: 1080, FPS: 30}, true},
		{"one-pixel height", Options{Width: 1920, Height: 1, FPS: 30}, true},
		{"zero fps", Options{Width: 1920, Height: 1080, FPS: 0}, true},
		{"negative fps", Options{Width: 1920, Height: 1080, FPS: -24}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvenDimensions(t *testing.T) {
	w, h := EvenDimensions(1920, 1080)
	assert.Equal(t, []int{1920, 1080}, []int{w, h})

	w, h = EvenDimensions(1921, 1081)
	assert.Equal(t, []int{1920, 1080}, []int{w, h})
}

func TestQualitySettings(t *testing.T) {
	assert.Equal(t, qualitySettings{crf: 28, preset: "veryfast"}, QualityLow.settings())
	assert.Equal(t, qualitySettings{crf: 23, preset: "medium"}, QualityMedium.settings())
	assert.Equal(t, qualitySettings{crf: 18, preset: "slow"}, QualityHigh.settings())
	assert.Equal(t, QualityMedium.settings(), Quality("ultra").settings(), "unknown tiers fall back to medium")
}

func TestKeyframeInterval(t *testing.T) {
	assert.Equal(t, 60, keyframeInterval(30))
	assert.Equal(t, 48, keyframeInterval(24))
	assert.Equal(t, 1, keyframeInterval(0.2), "never below one frame")
}

func TestShiftInputIndexes(t *testing.T) {
	in := "[0:a]atrim=start=0:end=2[a0];[12:a]volume=0.5[a1];[a0][a1]amix=inputs=2[aout]"
	want := "[1:a]atrim=start=0:end=2[a0];[13:a]volume=0.5[a1];[a0][a1]amix=inputs=2[aout]"
	assert.Equal(t, want, shiftInputIndexes(in, 1))

	// Chain labels like [a0] and [aout] are not input references.
	assert.Equal(t, "[a0][aout]", shiftInputIndexes("[a0][aout]", 1))
}

func TestCleanupStaleWorkDirs(t *testing.T) {
	parent := t.TempDir()
	stale := filepath.Join(parent, workDirPattern+"1234")
	keepDir := filepath.Join(parent, "unrelated")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.MkdirAll(keepDir, 0o755))
	keepFile := filepath.Join(parent, workDirPattern+"notadir")
	require.NoError(t, os.WriteFile(keepFile, []byte("x"), 0o644))

	CleanupStaleWorkDirs(parent)

	assert.NoDirExists(t, stale)
	assert.DirExists(t, keepDir)
	assert.FileExists(t, keepFile, "only directories are swept")
}

func TestSoftwareEncoderWriteFrames(t *testing.T) {
	parent := t.TempDir()
	enc := NewSoftwareEncoder(Options{Width: 16, Height: 16, FPS: 30}, nil, parent)
	require.NoError(t, enc.Start(context.Background()))

	frame := image.NewRGBA(image.Rect(0, 0, 16, 16))
	require.NoError(t, enc.WriteFrame(context.Background(), frame, 0))
	require.NoError(t, enc.WriteFrame(context.Background(), frame, 1))

	err := enc.WriteFrame(context.Background(), frame, 3)
	assert.ErrorContains(t, err, "out of order")

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), workDirPattern)

	require.NoError(t, enc.Cleanup())
	entries, err = os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries, "cleanup removes the work directory")
	assert.NoError(t, enc.Cleanup(), "cleanup is idempotent")
}

func TestSoftwareEncoderWriteFrameCancelled(t *testing.T) {
	enc := NewSoftwareEncoder(Options{Width: 16, Height: 16, FPS: 30}, nil, t.TempDir())
	require.NoError(t, enc.Start(context.Background()))
	defer enc.Cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := enc.WriteFrame(ctx, image.NewRGBA(image.Rect(0, 0, 16, 16)), 0)
	assert.ErrorIs(t, err, context.Canceled)
}
