package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// releaseURL is the GitHub API endpoint describing the latest release.
var releaseURL = "https://api.github.com/repos/shravanasati/chrono/releases/latest"

type releaseInfo struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

func getLatestRelease(client *http.Client) (*releaseInfo, error) {
	res, err := client.Get(releaseURL)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status from GitHub: %s", res.Status)
	}

	var info releaseInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

func canonicalVersion(version string) string {
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return version
}

// CheckForUpdates sends a message on updateCh announcing a newer release, or
// an empty string when there is none or GitHub cannot be reached.
func CheckForUpdates(currentVersion string, updateCh *chan string) {
	client := &http.Client{Timeout: 10 * time.Second}
	info, err := getLatestRelease(client)
	if err != nil {
		*updateCh <- ""
		return
	}

	current, latest := canonicalVersion(currentVersion), canonicalVersion(info.TagName)
	if !semver.IsValid(latest) || semver.Compare(current, latest) >= 0 {
		*updateCh <- ""
		return
	}
	*updateCh <- fmt.Sprintf("A new version of chrono is available: %s -> %s\n%s", current, latest, info.HTMLURL)
}
