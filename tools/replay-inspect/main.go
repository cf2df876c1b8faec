// Command replay-inspect walks a directory of recorded .replay.zst files and
// prints a summary of each: the robot spec and grid topology from its
// header, and a count of the world-model and command records it holds, or
// (with -dump) the full decoded record list as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"wheelly/control/internal/replay"
)

type summary struct {
	Path            string             `json:"path"`
	RobotSpec       interface{}        `json:"robot_spec"`
	TopologyWidth   uint32             `json:"topology_width"`
	TopologyHeight  uint32             `json:"topology_height"`
	WorldModelCount int                `json:"world_model_records"`
	CommandCount    int                `json:"command_records"`
	Records         []replay.Record    `json:"records,omitempty"`
}

func main() {
	dump := flag.Bool("dump", false, "include the full decoded record list in the output")
	root := flag.String("dir", ".", "directory to scan for .replay.zst files")
	flag.Parse()

	entries, err := findReplays(*root)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay-inspect:", err)
		os.Exit(1)
	}

	summaries := make([]summary, 0, len(entries))
	for _, path := range entries {
		s, err := inspect(path, *dump)
		if err != nil {
			fmt.Fprintf(os.Stderr, "replay-inspect: %s: %v\n", path, err)
			continue
		}
		summaries = append(summaries, s)
	}

	out, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay-inspect:", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func findReplays(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".replay.zst") {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func inspect(path string, dump bool) (summary, error) {
	loader, err := replay.Load(path)
	if err != nil {
		return summary{}, err
	}
	s := summary{
		Path:           path,
		RobotSpec:      loader.Header.RobotSpec,
		TopologyWidth:  loader.Header.Topology.Width,
		TopologyHeight: loader.Header.Topology.Height,
	}
	for _, record := range loader.Records {
		if record.IsWorldModel() {
			s.WorldModelCount++
		}
		if record.IsCommand() {
			s.CommandCount++
		}
	}
	if dump {
		s.Records = loader.Records
	}
	return s, nil
}
