package meta

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"shelfkeeper/internal/util"
)

// ffprobeInfo is the subset of ffprobe JSON output we consume
type ffprobeInfo struct {
	Format *ffprobeFormat `json:"format"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

// ProbeDurationHours returns the audio duration of a file in hours
func ProbeDurationHours(path string) (float64, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0, util.ErrNotFound
	}

	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return 0, fmt.Errorf("ffprobe failed: %s", string(exitErr.Stderr))
		}
		return 0, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	var info ffprobeInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if info.Format == nil || info.Format.Duration == "" {
		return 0, nil
	}

	seconds, err := strconv.ParseFloat(info.Format.Duration, 64)
	if err != nil {
		return 0, nil
	}

	return seconds / 3600.0, nil
}

// CheckFFprobeAvailable checks if ffprobe is available in PATH
func CheckFFprobeAvailable() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}
