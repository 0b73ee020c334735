package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func makeDataset(t *testing.T, cameras []string, videoFilename string) string {
	t.Helper()
	root := t.TempDir()
	for _, cam := range cameras {
		dir := filepath.Join(root, cam)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create camera dir: %v", err)
		}
		if videoFilename != "" {
			if err := os.WriteFile(filepath.Join(dir, videoFilename), []byte("x"), 0644); err != nil {
				t.Fatalf("Failed to write video file: %v", err)
			}
		}
	}
	return root
}

func TestScan_FindsCamerasSorted(t *testing.T) {
	root := makeDataset(t, []string{"c003", "c001", "c002"}, "vdo.avi")

	cameras, err := Scan(root, "vdo.avi")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(cameras) != 3 {
		t.Fatalf("Scan found %d cameras, expected 3", len(cameras))
	}
	expected := []string{"c001", "c002", "c003"}
	for i, id := range expected {
		if cameras[i].ID != id {
			t.Errorf("camera %d = %s, expected %s", i, cameras[i].ID, id)
		}
	}

	cam := cameras[0]
	if cam.VideoPath != filepath.Join(root, "c001", "vdo.avi") {
		t.Errorf("unexpected VideoPath: %s", cam.VideoPath)
	}
	if cam.GTPath != filepath.Join(root, "c001", "gt", "gt.txt") {
		t.Errorf("unexpected GTPath: %s", cam.GTPath)
	}
	if cam.DetDBPath != filepath.Join(root, "c001", "det", "det.db") {
		t.Errorf("unexpected DetDBPath: %s", cam.DetDBPath)
	}
}

func TestScan_IgnoresFoldersWithoutVideo(t *testing.T) {
	root := makeDataset(t, []string{"c001"}, "vdo.avi")
	if err := os.MkdirAll(filepath.Join(root, "notes"), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "offsets.txt"), []byte("c001 0\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	cameras, err := Scan(root, "vdo.avi")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(cameras) != 1 || cameras[0].ID != "c001" {
		t.Errorf("Scan = %+v, expected only c001", cameras)
	}
}

func TestScan_EmptyRootIsNotAnError(t *testing.T) {
	cameras, err := Scan(t.TempDir(), "vdo.avi")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(cameras) != 0 {
		t.Errorf("Scan found %d cameras, expected 0", len(cameras))
	}
}

func TestScan_UnreadableRootFails(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "missing"), "vdo.avi"); err == nil {
		t.Error("Scan of a missing root should fail")
	}
}
