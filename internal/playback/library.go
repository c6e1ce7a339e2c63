package playback

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// SupportedFormats lists the clip extensions picked up from the sounds directory.
var SupportedFormats = []string{".mp3", ".wav", ".ogg"}

// ClipSource hands out one clip per playback.
type ClipSource interface {
	Random() (string, error)
}

// Library is a directory of audio clips. It is re-read on every request.
type Library struct {
	Dir  string
	pick func(n int) int
}

func NewLibrary(dir string) *Library {
	return &Library{Dir: dir, pick: rand.Intn}
}

// Clips returns the supported files in the directory, sorted by name.
func (l *Library) Clips() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("read sounds directory: %w", err)
	}

	var clips []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if slices.Contains(SupportedFormats, ext) {
			clips = append(clips, filepath.Join(l.Dir, e.Name()))
		}
	}
	sort.Strings(clips)
	return clips, nil
}

// Random picks a clip uniformly. It returns ErrPlaybackUnavailable when there is nothing to play.
func (l *Library) Random() (string, error) {
	clips, err := l.Clips()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPlaybackUnavailable, err)
	}
	if len(clips) == 0 {
		return "", fmt.Errorf("%w: no sound files in %s", ErrPlaybackUnavailable, l.Dir)
	}
	return clips[l.pick(len(clips))], nil
}
