package play

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Player plays a recorded file with whichever player is installed
type Player struct {
	lookPath func(string) (string, error)
	run      func(name string, args ...string) error
}

func New() *Player {
	return &Player{
		lookPath: exec.LookPath,
		run: func(name string, args ...string) error {
			cmd := exec.Command(name, args...)
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
			return cmd.Run()
		},
	}
}

// Play blocks until playback of path completes
func (p *Player) Play(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("audio file not found: %s", path)
	}

	player, err := p.findAudioPlayer()
	if err != nil {
		return fmt.Errorf("no suitable audio player found: %w", err)
	}

	args := playerArgs(player, path)
	slog.Debug("Starting playback", "player", player, "args", args)

	if err := p.run(player, args...); err != nil {
		return fmt.Errorf("playback failed with %s: %w", player, err)
	}
	return nil
}

func (p *Player) findAudioPlayer() (string, error) {
	// AMR in 3GP is not supported by aplay, so it is not on the list
	players := []string{"mpv", "ffplay", "vlc"}

	for _, player := range players {
		if _, err := p.lookPath(player); err == nil {
			return player, nil
		}
	}

	return "", fmt.Errorf("no audio player found (tried: %s)", strings.Join(players, ", "))
}

func playerArgs(player, path string) []string {
	switch player {
	case "vlc":
		return []string{"--play-and-exit", path}
	case "mpv":
		return []string{"--no-video", path}
	case "ffplay":
		return []string{"-nodisp", "-autoexit", "-loglevel", "error", path}
	}
	return []string{path}
}
