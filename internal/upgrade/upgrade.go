// Package upgrade replaces the running binary with the latest GitHub release.
package upgrade

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/nachoandmikey/clawtrol/internal/version"
)

const (
	repoOwner = "nachoandmikey"
	repoName  = "clawtrol"
	binName   = "clawtrol"
)

// Release is the subset of the GitHub release payload we need.
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	Assets  []Asset `json:"assets"`
	Body    string  `json:"body"`
}

// Asset is one downloadable artifact on a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// CheckForUpdate reports whether a newer release than the running build
// exists. Dev builds never report an update.
func CheckForUpdate() (*Release, bool, error) {
	release, err := latestRelease()
	if err != nil {
		return nil, false, err
	}

	current := strings.TrimPrefix(version.Short(), "v")
	latest := strings.TrimPrefix(release.TagName, "v")
	if latest != current && current != "dev" {
		return release, true, nil
	}
	return release, false, nil
}

// Upgrade downloads the latest release asset for this OS/arch and swaps it
// in place of the current executable.
func Upgrade() error {
	release, hasUpdate, err := CheckForUpdate()
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if !hasUpdate {
		fmt.Printf("Already running the latest version (%s)\n", version.Short())
		return nil
	}

	fmt.Printf("Upgrading from %s to %s...\n", version.Short(), release.TagName)

	assetName := releaseAssetName()
	var downloadURL string
	for _, asset := range release.Assets {
		if asset.Name == assetName {
			downloadURL = asset.BrowserDownloadURL
			break
		}
	}
	if downloadURL == "" {
		return fmt.Errorf("no release found for %s/%s (looking for %s)", runtime.GOOS, runtime.GOARCH, assetName)
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	fmt.Printf("Downloading %s...\n", assetName)
	tmpFile, err := downloadAsset(downloadURL)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer os.Remove(tmpFile)

	newBinary := tmpFile
	if strings.HasSuffix(assetName, ".tar.gz") {
		newBinary, err = extractBinary(tmpFile)
		if err != nil {
			return fmt.Errorf("failed to extract: %w", err)
		}
		defer os.Remove(newBinary)
	}

	fmt.Println("Installing...")
	if err := replaceExecutable(execPath, newBinary); err != nil {
		return fmt.Errorf("failed to install: %w", err)
	}

	fmt.Printf("Successfully upgraded to %s!\n", release.TagName)
	return nil
}

func latestRelease() (*Release, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", repoOwner, repoName)

	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, err
	}
	return &release, nil
}

// releaseAssetName matches goreleaser's default archive naming.
func releaseAssetName() string {
	osName := runtime.GOOS
	arch := runtime.GOARCH

	switch arch {
	case "amd64":
		arch = "x86_64"
	case "386":
		arch = "i386"
	}

	switch osName {
	case "darwin":
		osName = "Darwin"
	case "linux":
		osName = "Linux"
	case "windows":
		return fmt.Sprintf("%s_Windows_%s.zip", binName, arch)
	}

	return fmt.Sprintf("%s_%s_%s.tar.gz", binName, osName, arch)
}

func downloadAsset(url string) (string, error) {
	client := &http.Client{Timeout: 5 * time.Minute}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp("", binName+"-*")
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		os.Remove(tmpFile.Name())
		return "", err
	}
	return tmpFile.Name(), nil
}

func extractBinary(tarPath string) (string, error) {
	f, err := os.Open(tarPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return "", err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}
		if header.Name != binName && !strings.HasSuffix(header.Name, "/"+binName) {
			continue
		}

		tmpFile, err := os.CreateTemp("", binName+"-bin-*")
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(tmpFile, tr); err != nil {
			tmpFile.Close()
			os.Remove(tmpFile.Name())
			return "", err
		}
		tmpFile.Close()

		if err := os.Chmod(tmpFile.Name(), 0755); err != nil {
			os.Remove(tmpFile.Name())
			return "", err
		}
		return tmpFile.Name(), nil
	}

	return "", fmt.Errorf("binary not found in archive")
}

// replaceExecutable renames the running binary aside, copies the new one in,
// and restores the backup if anything fails.
func replaceExecutable(oldPath, newPath string) error {
	backupPath := oldPath + ".bak"
	if err := os.Rename(oldPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup old executable: %w", err)
	}

	newFile, err := os.Open(newPath)
	if err != nil {
		_ = os.Rename(backupPath, oldPath)
		return err
	}
	defer newFile.Close()

	destFile, err := os.OpenFile(oldPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		_ = os.Rename(backupPath, oldPath)
		return err
	}

	if _, err := io.Copy(destFile, newFile); err != nil {
		destFile.Close()
		_ = os.Remove(oldPath)
		_ = os.Rename(backupPath, oldPath)
		return err
	}
	if err := destFile.Close(); err != nil {
		_ = os.Remove(oldPath)
		_ = os.Rename(backupPath, oldPath)
		return err
	}

	_ = os.Remove(backupPath)
	return nil
}
