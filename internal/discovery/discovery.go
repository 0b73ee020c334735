// Package discovery scans a dataset root for camera folders.
//
// Expected layout (AI City Challenge style):
//
//	root/
//	  offsets.txt          optional, "<cameraId> <offset>" per line
//	  c001/
//	    vdo.avi            required (name configurable)
//	    gt/gt.txt          optional ground-truth boxes
//	    gt/gt.db           optional, preferred over gt.txt when present
//	    det/det.txt        optional detection boxes
//	    det/det.db         optional, preferred over det.txt when present
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Camera describes one validated camera folder. Camera id is the folder name.
type Camera struct {
	ID        string
	VideoPath string
	GTPath    string
	GTDBPath  string
	DetPath   string
	DetDBPath string
}

// Scan returns the camera folders under root that contain videoFilename,
// sorted by camera id. Subfolders without the video file are ignored, like
// any other stray file in the dataset root. An unreadable root is an error;
// finding zero cameras is not — the session builder decides that.
func Scan(root, videoFilename string) ([]Camera, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset root %s: %w", root, err)
	}

	var cameras []Camera
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		camDir := filepath.Join(root, entry.Name())
		videoPath := filepath.Join(camDir, videoFilename)
		if _, err := os.Stat(videoPath); err != nil {
			continue
		}

		cameras = append(cameras, Camera{
			ID:        entry.Name(),
			VideoPath: videoPath,
			GTPath:    filepath.Join(camDir, "gt", "gt.txt"),
			GTDBPath:  filepath.Join(camDir, "gt", "gt.db"),
			DetPath:   filepath.Join(camDir, "det", "det.txt"),
			DetDBPath: filepath.Join(camDir, "det", "det.db"),
		})
	}

	sort.Slice(cameras, func(i, j int) bool { return cameras[i].ID < cameras[j].ID })
	return cameras, nil
}
